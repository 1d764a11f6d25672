package model

// ReferenceYear is the epoch preset pyramids are captured at.
const ReferenceYear = 2025

// Rates are demographic rates per mille.
type Rates struct {
	Birth     float64 `json:"birth"`
	Death     float64 `json:"death"`
	Migration float64 `json:"migration"`
}

// DefaultRates apply when a preset omits a rate or the session is cleared.
var DefaultRates = Rates{Birth: 20.0, Death: 10.0, Migration: 0.0}

// Indicators are the auxiliary development indicators of a country.
// They seed the long-horizon projection only.
type Indicators struct {
	GDP   float64 `json:"gdp"`
	Life  float64 `json:"life"`
	Urban float64 `json:"urban"`
}

// GrowthRates are annual growth percentages for each indicator.
type GrowthRates struct {
	GDP   float64 `json:"gdp"`
	Life  float64 `json:"life"`
	Urban float64 `json:"urban"`
}

// DefaultGrowth matches the growth fields a cleared form starts with.
var DefaultGrowth = GrowthRates{GDP: 2.0, Life: 1.0, Urban: 1.0}

// BaselineSnapshot is the pyramid and rates valid at a reference year. It is
// passed by value and replaced wholesale, never edited in place.
type BaselineSnapshot struct {
	Country    string     `json:"country"`
	Year       int        `json:"year"`
	Population float64    `json:"population"`
	Pyramid    Pyramid    `json:"pyramid"`
	Rates      Rates      `json:"rates"`
	Indicators Indicators `json:"indicators"`
}
