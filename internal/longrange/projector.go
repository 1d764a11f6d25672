// Package longrange projects total population in five-year steps, asking the
// rate model for new demographic rates as indicators grow.
package longrange

import (
	"context"
	"errors"
	"fmt"
	"math"

	"pyramid-engine/internal/metrics"
	"pyramid-engine/internal/model"
	"pyramid-engine/internal/ratemodel"
)

// ErrInvalidRequest marks projection inputs that cannot be projected.
var ErrInvalidRequest = errors.New("invalid projection request")

const (
	stepYears   = 5
	horizonYear = 2100
)

// Request is a long-horizon projection input. Indicators are optional; with
// no GDP the starting rates are held for the whole horizon.
type Request struct {
	Population     float64
	Rates          model.Rates
	Indicators     model.Indicators
	Growth         model.GrowthRates
	YearsToProject int
}

type Projector struct {
	predictor     ratemodel.Predictor
	referenceYear int
	metrics       *metrics.Metrics
}

// New builds a projector. A nil predictor holds rates constant.
func New(predictor ratemodel.Predictor, referenceYear int, m *metrics.Metrics) *Projector {
	if referenceYear == 0 {
		referenceYear = model.ReferenceYear
	}
	return &Projector{predictor: predictor, referenceYear: referenceYear, metrics: m}
}

// Years lists the reference year followed by each step year up to the
// horizon. yearsToProject <= 0 runs to the horizon.
func (p *Projector) Years(yearsToProject int) []int {
	end := horizonYear
	if yearsToProject > 0 && p.referenceYear+yearsToProject < end {
		end = p.referenceYear + yearsToProject
	}
	years := []int{p.referenceYear}
	for y := p.referenceYear + stepYears; y <= end; y += stepYears {
		years = append(years, y)
	}
	return years
}

// Project runs the step loop. The first step uses the submitted rates; each
// later step uses rates predicted from the indicators at its start year.
func (p *Projector) Project(ctx context.Context, req Request) (model.ProjectPopulationResponse, error) {
	if req.Population <= 0 {
		return model.ProjectPopulationResponse{}, fmt.Errorf("%w: population must be positive", ErrInvalidRequest)
	}

	years := p.Years(req.YearsToProject)
	steps := len(years) - 1

	rates := make([]model.Rates, steps)
	for i := range rates {
		rates[i] = req.Rates
	}
	if p.predictor != nil && req.Indicators.GDP > 0 && steps > 1 {
		inputs := make([]model.Indicators, steps-1)
		for i := range inputs {
			inputs[i] = Grow(req.Indicators, req.Growth, years[i+1]-p.referenceYear)
		}
		predicted, err := ratemodel.PredictAll(ctx, p.predictor, inputs)
		if err != nil {
			return model.ProjectPopulationResponse{}, fmt.Errorf("predict rates: %w", err)
		}
		copy(rates[1:], predicted)
	}

	population := make([]float64, 0, len(years))
	current := req.Population
	population = append(population, math.Round(current))
	for _, r := range rates {
		growth := (r.Birth - r.Death + r.Migration) / 1000 * stepYears
		current += current * growth
		population = append(population, math.Round(current))
	}

	final := req.Rates
	if steps > 0 {
		final = rates[steps-1]
	}
	p.metrics.IncrementProjection("long_range")

	return model.ProjectPopulationResponse{
		Years:      years,
		Population: population,
		Metadata: model.ProjectionMetadata{
			GrowthRates: req.Growth,
			FinalRates: model.Rates{
				Birth:     round2(final.Birth),
				Death:     round2(final.Death),
				Migration: round2(final.Migration),
			},
		},
	}, nil
}

// Grow compounds each indicator by its annual growth percentage. Life
// expectancy stays within 40..90 and urbanisation within 10..100.
func Grow(in model.Indicators, g model.GrowthRates, years int) model.Indicators {
	n := float64(years)
	return model.Indicators{
		GDP:   math.Max(0, in.GDP*math.Pow(1+g.GDP/100, n)),
		Life:  clamp(in.Life*math.Pow(1+g.Life/100, n), 40, 90),
		Urban: clamp(in.Urban*math.Pow(1+g.Urban/100, n), 10, 100),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
