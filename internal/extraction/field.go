package extraction

import (
	"strconv"

	"github.com/goccy/go-json"
)

// fieldKind classifies what a payload key held.
type fieldKind int

const (
	kindAbsent fieldKind = iota
	kindNull
	kindString
	kindNumber
	kindBool
	kindComposite
)

// fieldValue is one key read from an untrusted object.
type fieldValue struct {
	text string
	kind fieldKind
	flag bool
}

// lookup reads key from obj. A nil object yields an absent value.
func lookup(obj map[string]any, key string) fieldValue {
	raw, ok := obj[key]
	if !ok {
		return fieldValue{kind: kindAbsent}
	}
	switch v := raw.(type) {
	case nil:
		return fieldValue{kind: kindNull}
	case string:
		return fieldValue{kind: kindString, text: v}
	case bool:
		return fieldValue{kind: kindBool, flag: v, text: strconv.FormatBool(v)}
	case float64:
		return fieldValue{kind: kindNumber, text: strconv.FormatFloat(v, 'f', -1, 64)}
	case json.Number:
		return fieldValue{kind: kindNumber, text: v.String()}
	case int:
		return fieldValue{kind: kindNumber, text: strconv.Itoa(v)}
	case int64:
		return fieldValue{kind: kindNumber, text: strconv.FormatInt(v, 10)}
	default:
		return fieldValue{kind: kindComposite}
	}
}

// usable reports whether the value can stand in for a string field.
// Empty strings, nulls, objects and arrays are not usable.
func (f fieldValue) usable() bool {
	switch f.kind {
	case kindString:
		return f.text != ""
	case kindNumber, kindBool:
		return true
	default:
		return false
	}
}

// String renders a usable value, or "" otherwise.
func (f fieldValue) String() string {
	if !f.usable() {
		return ""
	}
	return f.text
}

// Optional renders a usable value as a pointer, or nil otherwise.
func (f fieldValue) Optional() *string {
	if !f.usable() {
		return nil
	}
	s := f.text
	return &s
}

// Bool returns a pointer only for a real boolean.
func (f fieldValue) Bool() *bool {
	if f.kind != kindBool {
		return nil
	}
	b := f.flag
	return &b
}

// firstPresent returns the recognized field when it is usable and the legacy
// field otherwise.
func firstPresent(recognized, legacy fieldValue) fieldValue {
	if recognized.usable() {
		return recognized
	}
	return legacy
}
