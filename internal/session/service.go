package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pyramid-engine/internal/chart"
	"pyramid-engine/internal/engine"
	"pyramid-engine/internal/longrange"
	"pyramid-engine/internal/metrics"
	"pyramid-engine/internal/model"
	"pyramid-engine/internal/presets"
)

// PyramidView is a pyramid as the form shows it, with its statistics and
// the chart bound to the population surface.
type PyramidView struct {
	Year    int            `json:"year"`
	Pyramid model.Pyramid  `json:"pyramid"`
	Summary engine.Summary `json:"summary"`
	Chart   chart.Rendered `json:"chart"`
}

type PresetView struct {
	Country    string           `json:"country"`
	Population float64          `json:"population"`
	Rates      model.Rates      `json:"rates"`
	Indicators model.Indicators `json:"indicators"`
	PyramidView
}

type SeriesView struct {
	model.ProjectPopulationResponse
	Chart chart.Rendered `json:"chart"`
}

type ClearedView struct {
	Rates    model.Rates       `json:"rates"`
	Growth   model.GrowthRates `json:"growth"`
	Disposed []string          `json:"disposed"`
}

// YearRequest carries the rate fields read when a projected year is picked.
type YearRequest struct {
	Year  int
	Birth float64
	Death float64
}

// SeriesRequest carries the rate and growth fields of the projection form.
type SeriesRequest struct {
	Rates          model.Rates
	Growth         model.GrowthRates
	YearsToProject int
}

type Service struct {
	store         Store
	presets       presets.Provider
	projector     *longrange.Projector
	referenceYear int
	metrics       *metrics.Metrics
	now           func() time.Time
}

func NewService(store Store, provider presets.Provider, projector *longrange.Projector, referenceYear int, m *metrics.Metrics) *Service {
	if referenceYear == 0 {
		referenceYear = model.ReferenceYear
	}
	return &Service{
		store:         store,
		presets:       provider,
		projector:     projector,
		referenceYear: referenceYear,
		metrics:       m,
		now:           time.Now,
	}
}

// Create starts an empty session with default rate inputs.
func (s *Service) Create(ctx context.Context) (Session, error) {
	sess := Session{
		ID:        uuid.NewString(),
		Rates:     model.DefaultRates,
		Growth:    model.DefaultGrowth,
		UpdatedAt: s.now().UTC(),
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return Session{}, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

func (s *Service) Get(ctx context.Context, id string) (Session, error) {
	return s.store.Get(ctx, id)
}

// LoadPreset replaces the session baseline with the named preset. An unknown
// preset leaves the session untouched.
func (s *Service) LoadPreset(ctx context.Context, id, name string) (PresetView, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return PresetView{}, err
	}
	preset, err := s.presets.Get(ctx, name)
	if err != nil {
		return PresetView{}, err
	}
	snapshot, err := preset.Snapshot(s.referenceYear)
	if err != nil {
		return PresetView{}, err
	}

	sess.Baseline = &snapshot
	sess.Rates = snapshot.Rates
	view := s.bindPyramid(&sess, snapshot.Year, snapshot.Pyramid)
	if err := s.save(ctx, sess); err != nil {
		return PresetView{}, err
	}

	return PresetView{
		Country:     snapshot.Country,
		Population:  snapshot.Population,
		Rates:       snapshot.Rates,
		Indicators:  snapshot.Indicators,
		PyramidView: view,
	}, nil
}

// Clear drops the baseline and every chart and restores default inputs.
func (s *Service) Clear(ctx context.Context, id string) (ClearedView, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return ClearedView{}, err
	}
	disposed := sess.Canvas.DisposeAll()
	sess.Baseline = nil
	sess.Rates = model.DefaultRates
	sess.Growth = model.DefaultGrowth
	if err := s.save(ctx, sess); err != nil {
		return ClearedView{}, err
	}
	return ClearedView{Rates: sess.Rates, Growth: sess.Growth, Disposed: disposed}, nil
}

// ProjectYear redraws the pyramid for a projected year from the session
// baseline. Values are rounded to one decimal as the form displays them.
func (s *Service) ProjectYear(ctx context.Context, id string, req YearRequest) (PyramidView, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return PyramidView{}, err
	}
	if sess.Baseline == nil {
		return PyramidView{}, ErrNoBaseline
	}

	projected := engine.Project(sess.Baseline.Pyramid, req.Year-sess.Baseline.Year, req.Birth, req.Death)
	s.metrics.IncrementProjection("cohort")

	sess.Rates.Birth = req.Birth
	sess.Rates.Death = req.Death
	view := s.bindPyramid(&sess, req.Year, projected.Rounded(1))
	if err := s.save(ctx, sess); err != nil {
		return PyramidView{}, err
	}
	return view, nil
}

// ProjectSeries runs the long-horizon projection from the loaded population
// and draws it on the projection surface.
func (s *Service) ProjectSeries(ctx context.Context, id string, req SeriesRequest) (SeriesView, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return SeriesView{}, err
	}
	if sess.Baseline == nil || sess.Baseline.Population <= 0 {
		return SeriesView{}, ErrNoBaseline
	}

	res, err := s.projector.Project(ctx, longrange.Request{
		Population:     sess.Baseline.Population,
		Rates:          req.Rates,
		Indicators:     sess.Baseline.Indicators,
		Growth:         req.Growth,
		YearsToProject: req.YearsToProject,
	})
	if err != nil {
		return SeriesView{}, err
	}

	sess.Rates = req.Rates
	sess.Growth = req.Growth
	rendered := sess.Canvas.Bind(chart.ProjectionSurface, chart.Projection(res.Years, res.Population, res.Metadata))
	if err := s.save(ctx, sess); err != nil {
		return SeriesView{}, err
	}
	return SeriesView{ProjectPopulationResponse: res, Chart: rendered}, nil
}

func (s *Service) bindPyramid(sess *Session, year int, p model.Pyramid) PyramidView {
	rendered := sess.Canvas.Bind(chart.PopulationSurface, chart.Pyramid(p, chart.PyramidTitle(year, s.referenceYear)))
	return PyramidView{
		Year:    year,
		Pyramid: p,
		Summary: engine.Summarize(p),
		Chart:   rendered,
	}
}

func (s *Service) save(ctx context.Context, sess Session) error {
	sess.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
