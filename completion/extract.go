package completion

import (
	"errors"
	"strings"

	"github.com/bytedance/sonic"
)

var errNoJSON = errors.New("no json payload found")

// ExtractObject returns the outermost {...} span of raw, dropping markdown
// code fences and chatter around it.
func ExtractObject(raw string) (string, error) {
	return extractSpan(raw, '{', '}')
}

// ExtractArray returns the outermost [...] span of raw.
func ExtractArray(raw string) (string, error) {
	return extractSpan(raw, '[', ']')
}

func extractSpan(raw string, open, close byte) (string, error) {
	s := stripFences(raw)
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, close)
	if start < 0 || end <= start {
		return "", errNoJSON
	}
	return s[start : end+1], nil
}

func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// DecodeObject extracts the JSON object from raw and decodes it into v. Any
// failure is reported as *MalformedOutputError.
func DecodeObject(raw string, v any) error {
	payload, err := ExtractObject(raw)
	if err != nil {
		return &MalformedOutputError{Raw: raw, Err: err}
	}
	if err := sonic.UnmarshalString(payload, v); err != nil {
		return &MalformedOutputError{Raw: raw, Err: err}
	}
	return nil
}

// DecodeArray extracts the JSON array from raw and decodes it into v.
func DecodeArray(raw string, v any) error {
	payload, err := ExtractArray(raw)
	if err != nil {
		return &MalformedOutputError{Raw: raw, Err: err}
	}
	if err := sonic.UnmarshalString(payload, v); err != nil {
		return &MalformedOutputError{Raw: raw, Err: err}
	}
	return nil
}
