package generation

import (
	"encoding/json"
	"errors"
	"strings"
)

var errShape = errors.New("payload does not match the expected shape")

// Outcome is the result of interpreting a structured model response:
// either a parsed value, or the raw text together with the reason it was rejected.
type Outcome[T any] struct {
	Value  T
	Raw    string
	Parsed bool
	Err    error
}

// Parse decodes raw as JSON into T. valid, when non-nil, rejects decoded values
// that are syntactically fine but missing required content.
func Parse[T any](raw string, valid func(T) bool) Outcome[T] {
	out := Outcome[T]{Raw: raw}
	var v T
	if err := json.Unmarshal([]byte(stripFence(raw)), &v); err != nil {
		out.Err = err
		return out
	}
	if valid != nil && !valid(v) {
		out.Err = errShape
		return out
	}
	out.Value = v
	out.Parsed = true
	return out
}

// OrFallback returns the parsed value, or the value built by fallback.
func (o Outcome[T]) OrFallback(fallback func() T) T {
	if o.Parsed {
		return o.Value
	}
	return fallback()
}

// stripFence removes surrounding whitespace and a ```json ... ``` wrapper.
func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		return strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}
