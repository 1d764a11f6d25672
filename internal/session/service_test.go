package session

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"pyramid-engine/internal/chart"
	"pyramid-engine/internal/longrange"
	"pyramid-engine/internal/model"
	"pyramid-engine/internal/presets"
)

type ServiceSuite struct {
	suite.Suite
	store   *MemoryStore
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	provider, err := presets.Default()
	s.Require().NoError(err)

	s.ctx = context.Background()
	s.store = NewMemoryStore(time.Hour)
	s.service = NewService(s.store, provider, longrange.New(nil, model.ReferenceYear, nil), model.ReferenceYear, nil)
}

func (s *ServiceSuite) newSession() Session {
	sess, err := s.service.Create(s.ctx)
	s.Require().NoError(err)
	return sess
}

func (s *ServiceSuite) TestCreateStartsWithDefaults() {
	sess := s.newSession()

	s.NotEmpty(sess.ID)
	s.Nil(sess.Baseline)
	s.Equal(model.DefaultRates, sess.Rates)
	s.Equal(model.DefaultGrowth, sess.Growth)
}

func (s *ServiceSuite) TestLoadPreset() {
	sess := s.newSession()

	view, err := s.service.LoadPreset(s.ctx, sess.ID, "Japan")
	s.Require().NoError(err)
	s.Equal(123000000.0, view.Population)
	s.Equal(6.6, view.Rates.Birth)
	s.Equal(model.ReferenceYear, view.Year)
	s.InDelta(100, view.Summary.Total, 0.01)
	s.Equal("Population Pyramid - 2025", view.Chart.Config.Options.Plugins.Title.Text)
	s.Empty(view.Chart.Replaces)

	stored, err := s.store.Get(s.ctx, sess.ID)
	s.Require().NoError(err)
	s.Require().NotNil(stored.Baseline)
	s.Equal("japan", stored.Baseline.Country)
	s.Equal(view.Rates, stored.Rates)
}

func (s *ServiceSuite) TestLoadPresetReplacesBaselineWholesale() {
	sess := s.newSession()

	first, err := s.service.LoadPreset(s.ctx, sess.ID, "japan")
	s.Require().NoError(err)
	second, err := s.service.LoadPreset(s.ctx, sess.ID, "nigeria")
	s.Require().NoError(err)

	s.Equal(first.Chart.ID, second.Chart.Replaces)

	stored, err := s.store.Get(s.ctx, sess.ID)
	s.Require().NoError(err)
	s.Equal("nigeria", stored.Baseline.Country)
	s.Equal(14.7, stored.Baseline.Pyramid.Male[0])
}

func (s *ServiceSuite) TestLoadUnknownPresetLeavesSessionUntouched() {
	sess := s.newSession()
	_, err := s.service.LoadPreset(s.ctx, sess.ID, "japan")
	s.Require().NoError(err)

	before, err := s.store.Get(s.ctx, sess.ID)
	s.Require().NoError(err)

	_, err = s.service.LoadPreset(s.ctx, sess.ID, "atlantis")
	s.Require().ErrorIs(err, presets.ErrNotFound)

	after, err := s.store.Get(s.ctx, sess.ID)
	s.Require().NoError(err)
	s.Equal(before, after)
}

func (s *ServiceSuite) TestProjectYearRequiresBaseline() {
	sess := s.newSession()

	_, err := s.service.ProjectYear(s.ctx, sess.ID, YearRequest{Year: 2045, Birth: 20, Death: 10})
	s.ErrorIs(err, ErrNoBaseline)

	_, err = s.service.ProjectSeries(s.ctx, sess.ID, SeriesRequest{Rates: model.DefaultRates})
	s.ErrorIs(err, ErrNoBaseline)
}

func (s *ServiceSuite) TestProjectYear() {
	sess := s.newSession()
	_, err := s.service.LoadPreset(s.ctx, sess.ID, "usa")
	s.Require().NoError(err)

	view, err := s.service.ProjectYear(s.ctx, sess.ID, YearRequest{Year: 2045, Birth: 11, Death: 9.6})
	s.Require().NoError(err)

	s.Equal(2045, view.Year)
	s.Equal("Population Pyramid - Year 2045", view.Chart.Config.Options.Plugins.Title.Text)
	s.NotEmpty(view.Chart.Replaces)
	// Two brackets aged: the first two hold births only.
	s.Greater(view.Pyramid.Male[0], 0.0)
	s.Equal(view.Pyramid, view.Pyramid.Rounded(1))

	stored, err := s.store.Get(s.ctx, sess.ID)
	s.Require().NoError(err)
	s.Equal(6.0, stored.Baseline.Pyramid.Male[0], "baseline must not change")
	s.Equal(9.6, stored.Rates.Death)
}

func (s *ServiceSuite) TestProjectYearBeforeFirstDecadeIsBaseline() {
	sess := s.newSession()
	loaded, err := s.service.LoadPreset(s.ctx, sess.ID, "germany")
	s.Require().NoError(err)

	view, err := s.service.ProjectYear(s.ctx, sess.ID, YearRequest{Year: 2030, Birth: 8.6, Death: 12.3})
	s.Require().NoError(err)
	s.Equal(loaded.Pyramid, view.Pyramid)
}

func (s *ServiceSuite) TestProjectSeries() {
	sess := s.newSession()
	_, err := s.service.LoadPreset(s.ctx, sess.ID, "india")
	s.Require().NoError(err)

	view, err := s.service.ProjectSeries(s.ctx, sess.ID, SeriesRequest{
		Rates:          model.Rates{Birth: 16.1, Death: 7.4},
		Growth:         model.GrowthRates{GDP: 3, Life: 0.5, Urban: 1},
		YearsToProject: 20,
	})
	s.Require().NoError(err)
	s.Equal([]int{2025, 2030, 2035, 2040, 2045}, view.Years)
	s.Equal(1460000000.0, view.Population[0])
	s.Greater(view.Population[4], view.Population[0])
	s.Equal(chart.ProjectionSurface, view.Chart.Surface)

	stored, err := s.store.Get(s.ctx, sess.ID)
	s.Require().NoError(err)
	s.Equal(3.0, stored.Growth.GDP)
}

func (s *ServiceSuite) TestClear() {
	sess := s.newSession()
	_, err := s.service.LoadPreset(s.ctx, sess.ID, "japan")
	s.Require().NoError(err)
	_, err = s.service.ProjectSeries(s.ctx, sess.ID, SeriesRequest{Rates: model.DefaultRates, Growth: model.DefaultGrowth})
	s.Require().NoError(err)

	cleared, err := s.service.Clear(s.ctx, sess.ID)
	s.Require().NoError(err)
	s.Len(cleared.Disposed, 2)
	s.Equal(model.DefaultRates, cleared.Rates)

	stored, err := s.store.Get(s.ctx, sess.ID)
	s.Require().NoError(err)
	s.Nil(stored.Baseline)
	s.Empty(stored.Canvas.Bound)
}

func (s *ServiceSuite) TestUnknownSession() {
	_, err := s.service.LoadPreset(s.ctx, "missing", "japan")
	s.ErrorIs(err, ErrNotFound)
}

func TestMemoryStoreExpires(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(context.Background(), Session{ID: "a"}))
	_, err := store.Get(context.Background(), "a")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = store.Get(context.Background(), "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreSweepsAbandonedSessions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	for i := 0; i < 1000; i++ {
		require.NoError(t, store.Save(ctx, Session{ID: "old-" + strconv.Itoa(i)}))
	}
	require.Equal(t, 1000, store.Len())

	now = now.Add(time.Hour)
	for i := 0; i < 10; i++ {
		require.NoError(t, store.Save(ctx, Session{ID: "new-" + strconv.Itoa(i)}))
	}
	assert.Equal(t, 10, store.Len())

	_, err := store.Get(ctx, "new-3")
	assert.NoError(t, err)
}

func TestMemoryStoreIsolatesCallers(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	snap := model.BaselineSnapshot{Country: "x"}
	sess := Session{ID: "a", Baseline: &snap}
	sess.Canvas.Bind(chart.PopulationSurface, chart.Config{})
	require.NoError(t, store.Save(context.Background(), sess))

	snap.Country = "changed"
	sess.Canvas.DisposeAll()

	got, err := store.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "x", got.Baseline.Country)
	_, ok := got.Canvas.Live(chart.PopulationSurface)
	assert.True(t, ok)
}
