package llm

import (
	"fmt"
	"time"
)

const systemPrompt = `You are a clinical documentation assistant for a Brazilian outpatient practice.
You read a clinician's free-text consultation note and extract structured history.
You MUST respond with ONLY a valid JSON object. Do not include explanatory text or markdown.
Never invent data that the note does not state. Leave a field as an empty string when the note is silent.`

// buildPrompt asks for the payload shape the normalizer recognizes.
func buildPrompt(text string, today time.Time) string {
	return fmt.Sprintf(`Extract the patient's clinical history from the consultation note below.

Today's date is %s. Write dates as YYYY-MM-DD when the note gives one.

Respond with a JSON object with exactly these keys:
{
  "summary": "one or two sentences summarizing the consultation, in Portuguese",
  "diagnoses": [
    {"cidCode": "ICD-10 code such as I10", "diagnosisDate": "YYYY-MM-DD or empty", "status": "ativo | resolvido | cronico", "notes": "short free text or empty"}
  ],
  "comorbidities": ["plain-language name of each chronic condition that has no ICD-10 code in the note"],
  "medications": [
    {"name": "", "dosage": "", "frequency": "", "format": "comprimido | cápsula | solução | injetável | pomada", "startDate": "", "notes": "", "isActive": true}
  ],
  "allergies": [
    {"allergen": "", "allergenType": "medication | food | environmental | other", "reaction": "", "severity": "leve | moderada | grave", "notes": ""}
  ],
  "surgeries": [
    {"procedureName": "", "surgeryDate": "", "hospitalName": "", "surgeonName": "", "notes": ""}
  ]
}

Use an empty array for any section the note does not mention.
Set "isActive" to false only when the note says the medication was stopped.

Consultation note:
"""
%s
"""`, today.Format("2006-01-02"), text)
}
