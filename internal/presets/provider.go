// Package presets serves the country reference data a session starts from.
package presets

import (
	"context"
	"errors"

	"pyramid-engine/internal/model"
)

// ErrNotFound is returned for an unknown preset name.
var ErrNotFound = errors.New("preset not found")

// Provider looks up country presets by case-insensitive name.
type Provider interface {
	Get(ctx context.Context, name string) (model.CountryData, error)
	List(ctx context.Context) ([]string, error)
}
