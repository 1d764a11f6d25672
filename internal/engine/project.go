package engine

import (
	"math"

	"pyramid-engine/internal/model"
)

const (
	bracketYears = 10

	// Ages 20-59.
	reproductiveFrom = 2
	reproductiveTo   = 5

	maleBirthShare   = 0.51
	femaleBirthShare = 0.49
)

// BracketShift returns how many whole brackets a cohort advances after the
// given number of years. Negative years floor towards minus infinity.
func BracketShift(yearsElapsed int) int {
	return int(math.Floor(float64(yearsElapsed) / bracketYears))
}

// SurvivalRate compounds a per-mille death rate over the elapsed years.
func SurvivalRate(deathRatePerMille float64, yearsElapsed int) float64 {
	return math.Pow(1-deathRatePerMille/1000, float64(yearsElapsed))
}

// ReproductivePool sums both sexes over the 20-59 brackets.
func ReproductivePool(p model.Pyramid) float64 {
	var pool float64
	for i := reproductiveFrom; i <= reproductiveTo; i++ {
		pool += p.Male[i] + p.Female[i]
	}
	return pool
}

// Project ages the baseline forward by whole decades, applies a uniform
// survival decay and fills the vacated young brackets with births.
//
// A shift outside 1..10 returns the baseline unchanged. Source brackets run
// 0..10-shift, so the 100+ bracket receives the cohort shifted into it while
// its previous occupants are dropped rather than accumulated.
func Project(baseline model.Pyramid, yearsElapsed int, birthRatePerMille, deathRatePerMille float64) model.Pyramid {
	shift := BracketShift(yearsElapsed)
	if shift <= 0 || shift >= model.NumBrackets {
		return baseline
	}

	var projected model.Pyramid

	// Age surviving cohorts
	survival := SurvivalRate(deathRatePerMille, yearsElapsed)
	for i := 0; i < model.NumBrackets-shift; i++ {
		projected.Male[i+shift] = baseline.Male[i] * survival
		projected.Female[i+shift] = baseline.Female[i] * survival
	}

	// Births into the vacated brackets
	pool := ReproductivePool(baseline)
	if pool > 0 {
		annualBirths := pool * (birthRatePerMille / 1000)
		totalBirths := annualBirths * float64(yearsElapsed)
		perBracket := totalBirths / float64(shift)
		for i := 0; i < shift; i++ {
			projected.Male[i] = perBracket * maleBirthShare
			projected.Female[i] = perBracket * femaleBirthShare
		}
	}

	return projected
}
