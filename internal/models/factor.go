// internal/models/factor.go
package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Factor identifies one of the fixed lifestyle dimensions shared by user
// preferences and neighborhood scores.
type Factor uint8

const (
	Walkability Factor = iota
	Transit
	Safety
	Nightlife
	FamilyFriendly
	Culture
	Outdoors
	Dining
	Cost

	// NumFactors is the size of the closed factor set.
	NumFactors = int(Cost) + 1
)

var (
	ErrMissingFactor = errors.New("missing lifestyle factor")
	ErrUnknownFactor = errors.New("unknown lifestyle factor")
)

var factorNames = [NumFactors]string{
	Walkability:    "walkability",
	Transit:        "transit",
	Safety:         "safety",
	Nightlife:      "nightlife",
	FamilyFriendly: "familyFriendly",
	Culture:        "culture",
	Outdoors:       "outdoors",
	Dining:         "dining",
	Cost:           "cost",
}

// AllFactors returns the factors in canonical iteration order.
func AllFactors() []Factor {
	out := make([]Factor, NumFactors)
	for i := range out {
		out[i] = Factor(i)
	}
	return out
}

func (f Factor) String() string {
	if f.Valid() {
		return factorNames[f]
	}
	return fmt.Sprintf("factor(%d)", uint8(f))
}

func (f Factor) Valid() bool {
	return int(f) < NumFactors
}

// ParseFactor maps a camelCase factor key to its Factor.
func ParseFactor(s string) (Factor, error) {
	for i, name := range factorNames {
		if name == s {
			return Factor(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFactor, s)
}

func (f Factor) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFactor, uint8(f))
	}
	return []byte(factorNames[f]), nil
}

func (f *Factor) UnmarshalText(text []byte) error {
	parsed, err := ParseFactor(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// FactorVector holds one value per factor. User preferences and neighborhood
// scores share this shape, so a key mismatch cannot exist at runtime.
type FactorVector [NumFactors]float64

func (v FactorVector) Get(f Factor) float64 {
	return v[f]
}

// MarshalJSON writes the vector as an object keyed by factor name.
func (v FactorVector) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range factorNames {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(name)
		val, err := json.Marshal(v[i])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON requires every factor key to be present with a numeric value.
func (v *FactorVector) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("factor vector: %w", err)
	}

	var out FactorVector
	seen := 0
	for key, val := range raw {
		f, err := ParseFactor(key)
		if err != nil {
			return err
		}
		var n float64
		if bytes.Equal(bytes.TrimSpace(val), []byte("null")) {
			return fmt.Errorf("%w: %s is null", ErrMissingFactor, key)
		}
		if err := json.Unmarshal(val, &n); err != nil {
			return fmt.Errorf("%w: %s is not numeric", ErrMissingFactor, key)
		}
		out[f] = n
		seen++
	}

	if seen != NumFactors {
		for i, name := range factorNames {
			if _, ok := raw[name]; !ok {
				return fmt.Errorf("%w: %s", ErrMissingFactor, factorNames[i])
			}
		}
	}

	*v = out
	return nil
}

// Finite reports whether every component is a real number.
func (v FactorVector) Finite() bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
