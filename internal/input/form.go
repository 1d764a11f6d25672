package input

import (
	"fmt"
	"math"
	"strconv"

	"pyramid-engine/internal/engine"
	"pyramid-engine/internal/model"
)

// percentTolerance is how far a percentage pyramid may drift from 100.
const percentTolerance = 0.01

// FormValues looks up a single form field by name.
type FormValues func(name string) string

// MaleField and FemaleField name the per-bracket form inputs.
func MaleField(i int) string   { return "male_" + strconv.Itoa(i) }
func FemaleField(i int) string { return "female_" + strconv.Itoa(i) }

// ParsePyramidForm reads male_0..male_10 and female_0..female_10. Missing or
// malformed fields become zero and negative values are clamped to zero.
func ParsePyramidForm(get FormValues) model.Pyramid {
	var p model.Pyramid
	for i := 0; i < model.NumBrackets; i++ {
		p.Male[i] = math.Max(0, ParseNumber(get(MaleField(i))))
		p.Female[i] = math.Max(0, ParseNumber(get(FemaleField(i))))
	}
	return p
}

// ValidatePercentTotal requires a percentage pyramid to add up to 100.
func ValidatePercentTotal(p model.Pyramid) error {
	total := engine.Summarize(p).Total
	if math.Abs(total-100) > percentTolerance {
		return fmt.Errorf("Total population percentages must add up to 100. Current total: %.2f", total)
	}
	return nil
}
