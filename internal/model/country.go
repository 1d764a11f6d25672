package model

import (
	"fmt"
	"strings"
)

// CountryData is the preset payload served by GET /get-country-data/{name}.
// The rate fields are optional; absent rates fall back to DefaultRates.
type CountryData struct {
	Name          string    `json:"name,omitempty" yaml:"name"`
	Population    float64   `json:"population" yaml:"population"`
	BirthRate     *float64  `json:"birth_rate,omitempty" yaml:"birth_rate,omitempty"`
	DeathRate     *float64  `json:"death_rate,omitempty" yaml:"death_rate,omitempty"`
	MigrationRate *float64  `json:"migration_rate,omitempty" yaml:"migration_rate,omitempty"`
	MalePyramid   []float64 `json:"male_pyramid_data" yaml:"male_pyramid_data"`
	FemalePyramid []float64 `json:"female_pyramid_data" yaml:"female_pyramid_data"`
	GDP           float64   `json:"gdp" yaml:"gdp"`
	Life          float64   `json:"life" yaml:"life"`
	Urban         float64   `json:"urban" yaml:"urban"`
}

// Key normalises a preset name for lookups.
func Key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Rates resolves the optional rates against DefaultRates.
func (c CountryData) Rates() Rates {
	r := DefaultRates
	if c.BirthRate != nil {
		r.Birth = *c.BirthRate
	}
	if c.DeathRate != nil {
		r.Death = *c.DeathRate
	}
	if c.MigrationRate != nil {
		r.Migration = *c.MigrationRate
	}
	return r
}

func (c CountryData) Indicators() Indicators {
	return Indicators{GDP: c.GDP, Life: c.Life, Urban: c.Urban}
}

// Validate checks the pyramid shape and population of a preset.
func (c CountryData) Validate() error {
	if Key(c.Name) == "" {
		return fmt.Errorf("preset name is required")
	}
	if c.Population < 0 {
		return fmt.Errorf("preset %s: negative population", c.Name)
	}
	if _, err := NewPyramid(c.MalePyramid, c.FemalePyramid); err != nil {
		return fmt.Errorf("preset %s: %w", c.Name, err)
	}
	return nil
}

// Snapshot captures the preset as the baseline for the given year.
func (c CountryData) Snapshot(year int) (BaselineSnapshot, error) {
	p, err := NewPyramid(c.MalePyramid, c.FemalePyramid)
	if err != nil {
		return BaselineSnapshot{}, fmt.Errorf("preset %s: %w", c.Name, err)
	}
	return BaselineSnapshot{
		Country:    c.Name,
		Year:       year,
		Population: c.Population,
		Pyramid:    p,
		Rates:      c.Rates(),
		Indicators: c.Indicators(),
	}, nil
}
