package ratemodel

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyramid-engine/internal/metrics"
	"pyramid-engine/internal/model"
)

// modelServer answers /predict with rates derived from the request so tests
// can tell calls apart.
func modelServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/predict" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req model.PredictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(model.ErrorResponse{Error: "bad input"})
			return
		}
		if req.GDP < 0 {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_ = json.NewEncoder(w).Encode(model.ErrorResponse{Error: "gdp must be positive"})
			return
		}
		_ = json.NewEncoder(w).Encode(model.PredictResponse{
			BirthRate:     req.Life / 4,
			DeathRate:     req.Urban / 10,
			MigrationRate: req.GDP / 10000,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPredict(t *testing.T) {
	var calls atomic.Int32
	srv := modelServer(t, &calls)
	c := New(srv.URL+"/", time.Second, 0, metrics.New(prometheus.NewRegistry()))

	rates, err := c.Predict(context.Background(), model.Indicators{GDP: 20000, Life: 80, Urban: 50})
	require.NoError(t, err)
	assert.Equal(t, model.Rates{Birth: 20, Death: 5, Migration: 2}, rates)
}

func TestPredictCachesByIndicators(t *testing.T) {
	var calls atomic.Int32
	srv := modelServer(t, &calls)
	c := New(srv.URL, time.Second, 0, nil)

	in := model.Indicators{GDP: 1000, Life: 60, Urban: 30}
	for i := 0; i < 3; i++ {
		_, err := c.Predict(context.Background(), in)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), calls.Load())

	_, err := c.Predict(context.Background(), model.Indicators{GDP: 1001, Life: 60, Urban: 30})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestPredictCacheIsBounded(t *testing.T) {
	var calls atomic.Int32
	srv := modelServer(t, &calls)
	c := New(srv.URL, time.Second, 100, nil)

	for i := 0; i < 2000; i++ {
		_, err := c.Predict(context.Background(), model.Indicators{GDP: float64(i + 1), Life: 60, Urban: 30})
		require.NoError(t, err)
	}
	assert.Equal(t, 100, c.cache.Len())

	// The most recent lookups are still served from the cache.
	_, err := c.Predict(context.Background(), model.Indicators{GDP: 2000, Life: 60, Urban: 30})
	require.NoError(t, err)
	assert.Equal(t, int32(2000), calls.Load())

	// Evicted ones go back to the model.
	_, err = c.Predict(context.Background(), model.Indicators{GDP: 1, Life: 60, Urban: 30})
	require.NoError(t, err)
	assert.Equal(t, int32(2001), calls.Load())
}

func TestPredictRemoteError(t *testing.T) {
	var calls atomic.Int32
	srv := modelServer(t, &calls)
	c := New(srv.URL, time.Second, 0, nil)

	_, err := c.Predict(context.Background(), model.Indicators{GDP: -1})
	var remote *RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, "gdp must be positive", remote.Message)
	assert.Equal(t, http.StatusUnprocessableEntity, remote.Status)

	// Failures are not cached.
	_, _ = c.Predict(context.Background(), model.Indicators{GDP: -1})
	assert.Equal(t, int32(2), calls.Load())
}

func TestPredictUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, 200*time.Millisecond, 0, nil)
	_, err := c.Predict(context.Background(), model.Indicators{GDP: 1})
	require.ErrorIs(t, err, ErrUnavailable)
	var remote *RemoteError
	assert.False(t, errors.As(err, &remote))
}

func TestPredictAll(t *testing.T) {
	var calls atomic.Int32
	srv := modelServer(t, &calls)
	c := New(srv.URL, time.Second, 0, nil)

	inputs := []model.Indicators{
		{GDP: 10000, Life: 40, Urban: 10},
		{GDP: 20000, Life: 60, Urban: 20},
		{GDP: 30000, Life: 80, Urban: 30},
	}
	out, err := PredictAll(context.Background(), c, inputs)
	require.NoError(t, err)
	require.Len(t, out, 3)
	for i, in := range inputs {
		assert.Equal(t, in.Life/4, out[i].Birth)
		assert.Equal(t, in.GDP/10000, out[i].Migration)
	}

	inputs = append(inputs, model.Indicators{GDP: -5})
	_, err = PredictAll(context.Background(), c, inputs)
	require.Error(t, err)
}
