package chart

import (
	"sort"

	"github.com/google/uuid"
)

// Surface names used by the UI.
const (
	PopulationSurface = "populationChart"
	ProjectionSurface = "projectionChart"
)

// Rendered is a chart bound to a surface. Replaces carries the id of the
// chart that was bound before and must be destroyed by the browser before
// drawing this one; drawing onto a surface that still holds a live chart
// leaves a stale instance behind.
type Rendered struct {
	ID       string `json:"id"`
	Surface  string `json:"surface"`
	Replaces string `json:"replaces,omitempty"`
	Config   Config `json:"config"`
}

// Canvas records which chart is live on each surface. The zero value is
// ready to use and it encodes as plain JSON so it can live in a session.
type Canvas struct {
	Bound map[string]string `json:"bound,omitempty"`
}

// Bind disposes whatever chart the surface holds and binds a new one.
func (c *Canvas) Bind(surface string, cfg Config) Rendered {
	if c.Bound == nil {
		c.Bound = make(map[string]string)
	}
	prev, _ := c.Dispose(surface)
	id := uuid.NewString()
	c.Bound[surface] = id
	return Rendered{ID: id, Surface: surface, Replaces: prev, Config: cfg}
}

// Live returns the id of the chart bound to surface.
func (c *Canvas) Live(surface string) (string, bool) {
	id, ok := c.Bound[surface]
	return id, ok
}

// Dispose unbinds the chart on surface and returns its id.
func (c *Canvas) Dispose(surface string) (string, bool) {
	id, ok := c.Bound[surface]
	if ok {
		delete(c.Bound, surface)
	}
	return id, ok
}

// DisposeAll unbinds every surface and returns the disposed ids in surface
// order.
func (c *Canvas) DisposeAll() []string {
	surfaces := make([]string, 0, len(c.Bound))
	for s := range c.Bound {
		surfaces = append(surfaces, s)
	}
	sort.Strings(surfaces)

	ids := make([]string, 0, len(surfaces))
	for _, s := range surfaces {
		ids = append(ids, c.Bound[s])
		delete(c.Bound, s)
	}
	return ids
}
