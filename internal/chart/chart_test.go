package chart

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyramid-engine/internal/model"
)

func TestPyramidLayout(t *testing.T) {
	var p model.Pyramid
	p.Male[0], p.Female[0] = 7.5, 7.1
	p.Male[10], p.Female[10] = 0.1, 0.3

	cfg := Pyramid(p, PyramidTitle(2025, 2025))

	require.Len(t, cfg.Data.Labels, model.NumBrackets)
	assert.Equal(t, "100+", cfg.Data.Labels[0])
	assert.Equal(t, "0-9", cfg.Data.Labels[10])

	male, female := cfg.Data.Datasets[0], cfg.Data.Datasets[1]
	assert.Equal(t, "Male", male.Label)
	assert.Equal(t, -0.1, male.Data[0])
	assert.Equal(t, -7.5, male.Data[10])
	assert.Equal(t, 0.3, female.Data[0])
	assert.Equal(t, 7.1, female.Data[10])

	assert.Equal(t, "y", cfg.Options.IndexAxis)
	assert.True(t, cfg.Options.Scales["x"].Stacked)
	assert.Equal(t, "Population Pyramid - 2025", cfg.Options.Plugins.Title.Text)

	// Male bars are negated, so tooltips must show magnitudes like the ticks.
	assert.Equal(t, "abs-percent", cfg.Options.Plugins.TooltipFormat)
	raw, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"tooltipFormat":"abs-percent"`)
}

func TestPyramidTitle(t *testing.T) {
	assert.Equal(t, "Population Pyramid - 2025", PyramidTitle(2025, 2025))
	assert.Equal(t, "Population Pyramid - Year 2060", PyramidTitle(2060, 2025))
}

func TestProjectionTitles(t *testing.T) {
	meta := model.ProjectionMetadata{
		GrowthRates: model.GrowthRates{GDP: 2, Life: 1, Urban: 1.5},
		FinalRates:  model.Rates{Birth: 12.35, Death: 9, Migration: -0.4},
	}
	cfg := Projection([]int{2025, 2030}, []float64{100, 110}, meta)

	assert.Equal(t, "line", cfg.Type)
	assert.Equal(t, []string{"2025", "2030"}, cfg.Data.Labels)
	assert.Equal(t, "AI-Powered Population Projection (Growth Rates: GDP 2%, Life 1%, Urban 1.5%)", cfg.Options.Plugins.Title.Text)
	require.NotNil(t, cfg.Options.Plugins.Subtitle)
	assert.Equal(t, "Final Rates: Birth 12.35‰, Death 9‰, Migration -0.4‰", cfg.Options.Plugins.Subtitle.Text)

	b, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"interaction":{"mode":"nearest","intersect":true}`)
}

func TestCanvasDisposesBeforeRebinding(t *testing.T) {
	var c Canvas

	first := c.Bind(PopulationSurface, Config{Type: "bar"})
	assert.Empty(t, first.Replaces)

	second := c.Bind(PopulationSurface, Config{Type: "bar"})
	assert.Equal(t, first.ID, second.Replaces)
	assert.NotEqual(t, first.ID, second.ID)

	live, ok := c.Live(PopulationSurface)
	require.True(t, ok)
	assert.Equal(t, second.ID, live)

	other := c.Bind(ProjectionSurface, Config{Type: "line"})
	assert.Empty(t, other.Replaces)

	ids := c.DisposeAll()
	assert.Equal(t, []string{second.ID, other.ID}, ids)
	_, ok = c.Live(PopulationSurface)
	assert.False(t, ok)
}
