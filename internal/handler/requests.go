package handler

import (
	"pyramid-engine/internal/input"
	"pyramid-engine/internal/longrange"
	"pyramid-engine/internal/model"
	"pyramid-engine/internal/session"
)

// The browser posts raw input values, so every numeric field tolerates
// strings and blanks.

type projectPopulationRequest struct {
	Population     input.Number `json:"population"`
	BirthRate      input.Number `json:"birthRate"`
	DeathRate      input.Number `json:"deathRate"`
	MigrationRate  input.Number `json:"migrationRate"`
	GDPGrowth      input.Number `json:"gdpGrowth"`
	LifeGrowth     input.Number `json:"lifeGrowth"`
	UrbanGrowth    input.Number `json:"urbanGrowth"`
	YearsToProject input.Number `json:"yearsToProject"`

	// Starting indicators; Country fills them from a preset instead.
	Country string       `json:"country"`
	GDP     input.Number `json:"gdp"`
	Life    input.Number `json:"life"`
	Urban   input.Number `json:"urban"`
}

func (r projectPopulationRequest) toLongRange() longrange.Request {
	return longrange.Request{
		Population: r.Population.Float(),
		Rates: model.Rates{
			Birth:     r.BirthRate.Float(),
			Death:     r.DeathRate.Float(),
			Migration: r.MigrationRate.Float(),
		},
		Indicators: model.Indicators{
			GDP:   r.GDP.Float(),
			Life:  r.Life.Float(),
			Urban: r.Urban.Float(),
		},
		Growth: model.GrowthRates{
			GDP:   r.GDPGrowth.Float(),
			Life:  r.LifeGrowth.Float(),
			Urban: r.UrbanGrowth.Float(),
		},
		YearsToProject: r.YearsToProject.Int(),
	}
}

type predictRequest struct {
	GDP   input.Number `json:"gdp"`
	Life  input.Number `json:"life"`
	Urban input.Number `json:"urban"`
}

type projectYearRequest struct {
	Year      input.Number `json:"year"`
	BirthRate input.Number `json:"birthRate"`
	DeathRate input.Number `json:"deathRate"`
}

func (r projectYearRequest) toSession() session.YearRequest {
	return session.YearRequest{
		Year:  r.Year.Int(),
		Birth: r.BirthRate.Float(),
		Death: r.DeathRate.Float(),
	}
}

type projectionRequest struct {
	BirthRate      input.Number `json:"birthRate"`
	DeathRate      input.Number `json:"deathRate"`
	MigrationRate  input.Number `json:"migrationRate"`
	GDPGrowth      input.Number `json:"gdpGrowth"`
	LifeGrowth     input.Number `json:"lifeGrowth"`
	UrbanGrowth    input.Number `json:"urbanGrowth"`
	YearsToProject input.Number `json:"yearsToProject"`
}

func (r projectionRequest) toSession() session.SeriesRequest {
	return session.SeriesRequest{
		Rates: model.Rates{
			Birth:     r.BirthRate.Float(),
			Death:     r.DeathRate.Float(),
			Migration: r.MigrationRate.Float(),
		},
		Growth: model.GrowthRates{
			GDP:   r.GDPGrowth.Float(),
			Life:  r.LifeGrowth.Float(),
			Urban: r.UrbanGrowth.Float(),
		},
		YearsToProject: r.YearsToProject.Int(),
	}
}

// projectPyramidRequest projects either an inline pyramid or a preset's
// pyramid from the reference year.
type projectPyramidRequest struct {
	Preset    string         `json:"preset"`
	Pyramid   *model.Pyramid `json:"pyramid"`
	Year      input.Number   `json:"year"`
	BirthRate input.Number   `json:"birthRate"`
	DeathRate input.Number   `json:"deathRate"`
}
