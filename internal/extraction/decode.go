package extraction

import (
	"bytes"
	"strings"

	"github.com/goccy/go-json"

	"github.com/Veraticus/scribe/internal/model"
)

// Decode parses raw extraction-service output and normalizes it.
// Output that cannot be decoded normalizes to an empty record.
func Decode(raw []byte) model.CandidateRecord {
	payload, err := decodePayload(raw)
	if err != nil {
		return Normalize(nil)
	}
	return Normalize(payload)
}

// DecodeStrict is Decode that reports undecodable output instead of absorbing it.
func DecodeStrict(raw []byte) (model.CandidateRecord, error) {
	payload, err := decodePayload(raw)
	if err != nil {
		return model.CandidateRecord{}, err
	}
	return Normalize(payload), nil
}

func decodePayload(raw []byte) (any, error) {
	body := []byte(CleanMarkdownWrapper(string(raw)))

	var payload any
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// CleanMarkdownWrapper strips a Markdown code fence and any prose around the
// outermost JSON object in s.
func CleanMarkdownWrapper(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```JSON")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start && (start > 0 || end < len(s)-1) {
		s = s[start : end+1]
	}
	return s
}
