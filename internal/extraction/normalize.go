package extraction

import (
	"github.com/Veraticus/scribe/internal/model"
)

// Normalize converts an arbitrary decoded payload into a candidate record.
// It never fails.
func Normalize(payload any) model.CandidateRecord {
	record := model.EmptyCandidate()

	root, ok := payload.(map[string]any)
	if !ok {
		return record
	}

	record.Summary = lookup(root, "summary").String()
	record.Diagnoses = mapObjects(root["diagnoses"], normalizeDiagnosis)
	record.Medications = mapObjects(root["medications"], normalizeMedication)
	record.Allergies = mapObjects(root["allergies"], normalizeAllergy)
	record.Surgeries = mapObjects(root["surgeries"], normalizeSurgery)
	record.Comorbidities = stringElements(root["comorbidities"])

	return record
}

// mapObjects applies fn to each element of raw when raw is an array.
// Non-object elements are treated as empty objects.
func mapObjects[T any](raw any, fn func(map[string]any) T) []T {
	items, ok := raw.([]any)
	if !ok {
		return []T{}
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		obj, isObj := item.(map[string]any)
		if !isObj {
			obj = map[string]any{}
		}
		out = append(out, fn(obj))
	}
	return out
}

// stringElements keeps the string elements of raw when raw is an array.
func stringElements(raw any) []string {
	items, ok := raw.([]any)
	if !ok {
		return []string{}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, isString := item.(string); isString {
			out = append(out, s)
		}
	}
	return out
}

func normalizeDiagnosis(obj map[string]any) model.Diagnosis {
	return model.Diagnosis{
		CIDCode:       firstPresent(lookup(obj, "cidCode"), lookup(obj, "condition")).String(),
		Status:        lookup(obj, "status").String(),
		DiagnosisDate: lookup(obj, "diagnosisDate").Optional(),
		Notes:         firstPresent(lookup(obj, "notes"), lookup(obj, "description")).Optional(),
	}
}

func normalizeMedication(obj map[string]any) model.Medication {
	return model.Medication{
		Name:      lookup(obj, "name").String(),
		Dosage:    firstPresent(lookup(obj, "dosage"), lookup(obj, "dose")).String(),
		Frequency: lookup(obj, "frequency").String(),
		Format:    lookup(obj, "format").String(),
		StartDate: lookup(obj, "startDate").String(),
		Notes:     lookup(obj, "notes").String(),
		IsActive:  lookup(obj, "isActive").Bool(),
	}
}

func normalizeAllergy(obj map[string]any) model.Allergy {
	return model.Allergy{
		Allergen:     lookup(obj, "allergen").String(),
		AllergenType: lookup(obj, "allergenType").String(),
		Reaction:     lookup(obj, "reaction").String(),
		Severity:     lookup(obj, "severity").String(),
		Notes:        lookup(obj, "notes").String(),
	}
}

func normalizeSurgery(obj map[string]any) model.Surgery {
	return model.Surgery{
		ProcedureName: lookup(obj, "procedureName").String(),
		SurgeryDate:   lookup(obj, "surgeryDate").String(),
		HospitalName:  lookup(obj, "hospitalName").String(),
		SurgeonName:   lookup(obj, "surgeonName").String(),
		Notes:         lookup(obj, "notes").String(),
	}
}
