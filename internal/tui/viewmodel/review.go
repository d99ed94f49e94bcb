// Package viewmodel turns staged state into plain data the review screen renders.
package viewmodel

import (
	"github.com/Veraticus/scribe/internal/model"
	"github.com/Veraticus/scribe/internal/staging"
)

// Review is everything the review screen shows.
type Review struct {
	Patient  string
	Summary  string
	Sections []Section
	Present  bool
}

// Section is one sub-collection of the staged record.
type Section struct {
	Category model.Category
	Title    string
	Items    []Item
}

// Item is one entry of a section.
type Item struct {
	Fields []Field
	Index  int
}

// Field is one editable value of an item.
type Field struct {
	Name  string
	Label string
	Value string
}

// Position is the review cursor.
type Position struct {
	Section int
	Item    int
	Field   int
}

var sectionTitles = map[model.Category]string{
	model.CategoryDiagnoses:     "Diagnósticos",
	model.CategoryComorbidities: "Comorbidades",
	model.CategoryMedications:   "Medicamentos",
	model.CategoryAllergies:     "Alergias",
	model.CategorySurgeries:     "Cirurgias",
}

var fieldLabels = map[string]string{
	"cidCode":       "CID",
	"status":        "status",
	"diagnosisDate": "data",
	"notes":         "obs.",
	"value":         "condição",
	"name":          "nome",
	"dosage":        "dose",
	"frequency":     "frequência",
	"format":        "forma",
	"startDate":     "início",
	"isActive":      "ativo",
	"allergen":      "alérgeno",
	"allergenType":  "tipo",
	"reaction":      "reação",
	"severity":      "gravidade",
	"procedureName": "procedimento",
	"surgeryDate":   "data",
	"hospitalName":  "hospital",
	"surgeonName":   "cirurgião",
}

// SectionTitle returns the heading shown for a category.
func SectionTitle(c model.Category) string {
	if title, ok := sectionTitles[c]; ok {
		return title
	}
	return string(c)
}

// FieldLabel returns the short label shown for a field.
func FieldLabel(field string) string {
	if label, ok := fieldLabels[field]; ok {
		return label
	}
	return field
}

// FromRecord builds the review of record for patient. Sections follow
// model.ReportCategories and are present even when empty.
func FromRecord(patient model.PatientID, record model.CandidateRecord, present bool) Review {
	review := Review{
		Patient: patient.String(),
		Summary: record.Summary,
		Present: present,
	}

	for _, c := range model.ReportCategories() {
		section := Section{Category: c, Title: SectionTitle(c)}
		names := staging.FieldNames(c)
		for i := 0; i < record.Len(c); i++ {
			item := Item{Index: i, Fields: make([]Field, 0, len(names))}
			for _, name := range names {
				item.Fields = append(item.Fields, Field{
					Name:  name,
					Label: FieldLabel(name),
					Value: staging.FieldValue(record, c, i, name),
				})
			}
			section.Items = append(section.Items, item)
		}
		review.Sections = append(review.Sections, section)
	}
	return review
}

// Clamp keeps p inside r. Item and Field are zero in an empty section.
func (r Review) Clamp(p Position) Position {
	if len(r.Sections) == 0 {
		return Position{}
	}
	p.Section = clamp(p.Section, len(r.Sections))
	items := r.Sections[p.Section].Items
	p.Item = clamp(p.Item, len(items))
	if len(items) == 0 {
		p.Field = 0
		return p
	}
	p.Field = clamp(p.Field, len(items[p.Item].Fields))
	return p
}

// Selected returns the item under p, if any.
func (r Review) Selected(p Position) (Item, bool) {
	if p.Section < 0 || p.Section >= len(r.Sections) {
		return Item{}, false
	}
	items := r.Sections[p.Section].Items
	if p.Item < 0 || p.Item >= len(items) {
		return Item{}, false
	}
	return items[p.Item], true
}

// Counts returns the number of staged items per section.
func (r Review) Counts() map[model.Category]int {
	counts := make(map[model.Category]int, len(r.Sections))
	for _, s := range r.Sections {
		counts[s.Category] = len(s.Items)
	}
	return counts
}

func clamp(v, n int) int {
	if n <= 0 || v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}
