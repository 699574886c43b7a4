package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is an optional numeric input that accepts a JSON number or a numeric
// string ("1.5", "1,5"). null, "" and an absent key leave Set false; any other
// value is a ValidationError.
type Number struct {
	Value float64
	Set   bool
}

// NewNumber returns a set Number.
func NewNumber(v float64) Number {
	return Number{Value: v, Set: true}
}

// Or returns the value, or def when unset.
func (n Number) Or(def float64) float64 {
	if !n.Set {
		return def
	}
	return n.Value
}

// Ptr returns nil when unset.
func (n Number) Ptr() *float64 {
	if !n.Set {
		return nil
	}
	v := n.Value
	return &v
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Set {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = Number{}
		return nil
	}
	raw := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return NewValidationError("", "expected a number")
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*n = Number{}
			return nil
		}
		raw = strings.Replace(raw, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return NewValidationError("", "expected a number, got "+string(b))
	}
	*n = Number{Value: v, Set: true}
	return nil
}

// NullableNumber is a patch field that tells an absent key (Present false)
// from an explicit null or "" (Present true, Set false).
type NullableNumber struct {
	Number
	Present bool
}

// Cleared reports whether the key was sent without a value.
func (n NullableNumber) Cleared() bool {
	return n.Present && !n.Set
}

func (n *NullableNumber) UnmarshalJSON(b []byte) error {
	n.Present = true
	return n.Number.UnmarshalJSON(b)
}
