package model

import (
	"fmt"
	"math"

	json "github.com/goccy/go-json"
)

const NumBrackets = 11

// AgeBrackets are the decade labels in ascending age order. The last bracket
// has no upper bound.
var AgeBrackets = [NumBrackets]string{
	"0-9", "10-19", "20-29", "30-39", "40-49",
	"50-59", "60-69", "70-79", "80-89", "90-99", "100+",
}

// Pyramid holds the male and female share of population per age bracket,
// index-aligned with AgeBrackets.
type Pyramid struct {
	Male   [NumBrackets]float64 `json:"male"`
	Female [NumBrackets]float64 `json:"female"`
}

// NewPyramid builds a pyramid from wire slices. Both slices must hold exactly
// one value per bracket.
func NewPyramid(male, female []float64) (Pyramid, error) {
	var p Pyramid
	if len(male) != NumBrackets {
		return p, fmt.Errorf("male pyramid has %d brackets, want %d", len(male), NumBrackets)
	}
	if len(female) != NumBrackets {
		return p, fmt.Errorf("female pyramid has %d brackets, want %d", len(female), NumBrackets)
	}
	copy(p.Male[:], male)
	copy(p.Female[:], female)
	return p, p.Validate()
}

// Validate reports the first bracket holding a negative or non-finite value.
func (p Pyramid) Validate() error {
	for i := 0; i < NumBrackets; i++ {
		if !validShare(p.Male[i]) {
			return fmt.Errorf("male bracket %s: invalid value %v", AgeBrackets[i], p.Male[i])
		}
		if !validShare(p.Female[i]) {
			return fmt.Errorf("female bracket %s: invalid value %v", AgeBrackets[i], p.Female[i])
		}
	}
	return nil
}

// Rounded returns a copy with every bracket rounded to the given decimal places.
func (p Pyramid) Rounded(places int) Pyramid {
	scale := math.Pow(10, float64(places))
	for i := 0; i < NumBrackets; i++ {
		p.Male[i] = math.Round(p.Male[i]*scale) / scale
		p.Female[i] = math.Round(p.Female[i]*scale) / scale
	}
	return p
}

func (p *Pyramid) UnmarshalJSON(b []byte) error {
	var raw struct {
		Male   []float64 `json:"male"`
		Female []float64 `json:"female"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	decoded, err := NewPyramid(raw.Male, raw.Female)
	if err != nil {
		return err
	}
	*p = decoded
	return nil
}

func validShare(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1) && !math.IsNaN(v)
}
