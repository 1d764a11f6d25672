package engine

import (
	"math"

	json "github.com/goccy/go-json"

	"pyramid-engine/internal/model"
)

// Summary aggregates a pyramid. YouthRatio is the share of population under
// 20; it is NaN for an empty pyramid.
type Summary struct {
	Total       float64
	MaleTotal   float64
	FemaleTotal float64
	YouthRatio  float64
}

// Summarize totals both sexes and computes the youth ratio. An all-zero
// pyramid divides by zero and yields NaN; callers decide how to show it.
func Summarize(p model.Pyramid) Summary {
	var s Summary
	for i := 0; i < model.NumBrackets; i++ {
		s.MaleTotal += p.Male[i]
		s.FemaleTotal += p.Female[i]
	}
	s.Total = s.MaleTotal + s.FemaleTotal
	youth := p.Male[0] + p.Male[1] + p.Female[0] + p.Female[1]
	s.YouthRatio = youth / s.Total
	return s
}

// YouthRatioDefined reports whether YouthRatio can be displayed.
func (s Summary) YouthRatioDefined() bool {
	return !math.IsNaN(s.YouthRatio) && !math.IsInf(s.YouthRatio, 0)
}

func (s Summary) MarshalJSON() ([]byte, error) {
	out := struct {
		Total       float64  `json:"total"`
		MaleTotal   float64  `json:"male_total"`
		FemaleTotal float64  `json:"female_total"`
		YouthRatio  *float64 `json:"youth_ratio"`
	}{
		Total:       s.Total,
		MaleTotal:   s.MaleTotal,
		FemaleTotal: s.FemaleTotal,
	}
	if s.YouthRatioDefined() {
		ratio := s.YouthRatio
		out.YouthRatio = &ratio
	}
	return json.Marshal(out)
}
