package model

// PredictRequest is the body of POST /predict.
type PredictRequest struct {
	GDP   float64 `json:"gdp"`
	Life  float64 `json:"life"`
	Urban float64 `json:"urban"`
}

// PredictResponse is the body returned by the rate model. Error is set
// instead of the rates when the model rejects the input.
type PredictResponse struct {
	BirthRate     float64 `json:"birthRate"`
	DeathRate     float64 `json:"deathRate"`
	MigrationRate float64 `json:"migrationRate"`
	Error         string  `json:"error,omitempty"`
}

func (r PredictResponse) Rates() Rates {
	return Rates{Birth: r.BirthRate, Death: r.DeathRate, Migration: r.MigrationRate}
}

type ProjectionMetadata struct {
	GrowthRates GrowthRates `json:"growth_rates"`
	FinalRates  Rates       `json:"final_rates"`
}

// ProjectPopulationResponse is the body returned by POST /project_population.
type ProjectPopulationResponse struct {
	Years      []int              `json:"years"`
	Population []float64          `json:"population"`
	Metadata   ProjectionMetadata `json:"metadata"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
