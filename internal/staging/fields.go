package staging

import (
	"strconv"
	"strings"

	"github.com/Veraticus/scribe/internal/model"
)

var categoryFields = map[model.Category][]string{
	model.CategoryDiagnoses:     {"cidCode", "status", "diagnosisDate", "notes"},
	model.CategoryComorbidities: {"value"},
	model.CategoryMedications:   {"name", "dosage", "frequency", "format", "startDate", "notes", "isActive"},
	model.CategoryAllergies:     {"allergen", "allergenType", "reaction", "severity", "notes"},
	model.CategorySurgeries:     {"procedureName", "surgeryDate", "hospitalName", "surgeonName", "notes"},
}

// FieldNames lists the editable fields of a category in display order.
func FieldNames(c model.Category) []string {
	return append([]string{}, categoryFields[c]...)
}

// SetField updates one named field of the item at index from its text form.
// Unknown fields, unparseable booleans and out-of-range indexes are no-ops.
func (s *Store) SetField(c model.Category, index int, field, value string) bool {
	switch c {
	case model.CategoryDiagnoses:
		var p DiagnosisPatch
		switch field {
		case "cidCode":
			p.CIDCode = &value
		case "status":
			p.Status = &value
		case "diagnosisDate":
			p.DiagnosisDate = &value
		case "notes":
			p.Notes = &value
		default:
			return false
		}
		return s.UpdateDiagnosis(index, p)
	case model.CategoryComorbidities:
		if field != "value" {
			return false
		}
		return s.UpdateComorbidity(index, value)
	case model.CategoryMedications:
		var p MedicationPatch
		switch field {
		case "name":
			p.Name = &value
		case "dosage":
			p.Dosage = &value
		case "frequency":
			p.Frequency = &value
		case "format":
			p.Format = &value
		case "startDate":
			p.StartDate = &value
		case "notes":
			p.Notes = &value
		case "isActive":
			active, ok := parseFlag(value)
			if !ok {
				return false
			}
			p.IsActive = &active
		default:
			return false
		}
		return s.UpdateMedication(index, p)
	case model.CategoryAllergies:
		var p AllergyPatch
		switch field {
		case "allergen":
			p.Allergen = &value
		case "allergenType":
			p.AllergenType = &value
		case "reaction":
			p.Reaction = &value
		case "severity":
			p.Severity = &value
		case "notes":
			p.Notes = &value
		default:
			return false
		}
		return s.UpdateAllergy(index, p)
	case model.CategorySurgeries:
		var p SurgeryPatch
		switch field {
		case "procedureName":
			p.ProcedureName = &value
		case "surgeryDate":
			p.SurgeryDate = &value
		case "hospitalName":
			p.HospitalName = &value
		case "surgeonName":
			p.SurgeonName = &value
		case "notes":
			p.Notes = &value
		default:
			return false
		}
		return s.UpdateSurgery(index, p)
	default:
		return false
	}
}

// FieldValue renders one named field of an item as text.
func FieldValue(r model.CandidateRecord, c model.Category, index int, field string) string {
	switch c {
	case model.CategoryDiagnoses:
		if !inRange(r.Diagnoses, index) {
			return ""
		}
		d := r.Diagnoses[index]
		switch field {
		case "cidCode":
			return d.CIDCode
		case "status":
			return d.Status
		case "diagnosisDate":
			return deref(d.DiagnosisDate)
		case "notes":
			return deref(d.Notes)
		}
	case model.CategoryComorbidities:
		if inRange(r.Comorbidities, index) && field == "value" {
			return r.Comorbidities[index]
		}
	case model.CategoryMedications:
		if !inRange(r.Medications, index) {
			return ""
		}
		m := r.Medications[index]
		switch field {
		case "name":
			return m.Name
		case "dosage":
			return m.Dosage
		case "frequency":
			return m.Frequency
		case "format":
			return m.Format
		case "startDate":
			return m.StartDate
		case "notes":
			return m.Notes
		case "isActive":
			if m.IsActive == nil {
				return ""
			}
			return strconv.FormatBool(*m.IsActive)
		}
	case model.CategoryAllergies:
		if !inRange(r.Allergies, index) {
			return ""
		}
		a := r.Allergies[index]
		switch field {
		case "allergen":
			return a.Allergen
		case "allergenType":
			return a.AllergenType
		case "reaction":
			return a.Reaction
		case "severity":
			return a.Severity
		case "notes":
			return a.Notes
		}
	case model.CategorySurgeries:
		if !inRange(r.Surgeries, index) {
			return ""
		}
		sg := r.Surgeries[index]
		switch field {
		case "procedureName":
			return sg.ProcedureName
		case "surgeryDate":
			return sg.SurgeryDate
		case "hospitalName":
			return sg.HospitalName
		case "surgeonName":
			return sg.SurgeonName
		case "notes":
			return sg.Notes
		}
	}
	return ""
}

func parseFlag(value string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "sim", "s", "yes", "y":
		return true, true
	case "nao", "não", "n", "no":
		return false, true
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return false, false
	}
	return b, true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
