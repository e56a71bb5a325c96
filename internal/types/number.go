package types

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is a nullable decimal tolerant of loosely typed JSON. Plain numbers
// and numeric strings decode to a value; null, empty strings, booleans and
// non-numeric text all decode to nil rather than an error.
type Number struct {
	Float *float64
}

// UnmarshalJSON never fails: any value that cannot be coerced to a finite
// float becomes null.
func (n *Number) UnmarshalJSON(data []byte) error {
	n.Float = nil
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		return nil
	}
	s = strings.TrimSpace(strings.Trim(s, `"`))
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	n.Float = &f
	return nil
}

// MarshalJSON emits the value or null.
func (n Number) MarshalJSON() ([]byte, error) {
	if n.Float == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Float)
}
