// Package ratemodel talks to the remote service that predicts demographic
// rates from development indicators.
package ratemodel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"pyramid-engine/internal/metrics"
	"pyramid-engine/internal/model"
)

const (
	defaultTimeout   = 2 * time.Second
	defaultCacheSize = 1024
)

// Predictor estimates birth, death and migration rates for a set of
// indicators.
type Predictor interface {
	Predict(ctx context.Context, in model.Indicators) (model.Rates, error)
}

// ErrUnavailable wraps transport and decoding failures talking to the model.
var ErrUnavailable = errors.New("rate model unavailable")

// RemoteError is an application-level {"error": ...} payload from the model.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("rate model: %s", e.Message)
}

// Client calls POST {baseURL}/predict. Results are cached per indicator set
// in an LRU of fixed size; concurrent identical lookups share one request.
type Client struct {
	baseURL string
	http    *http.Client
	metrics *metrics.Metrics

	cache *lru.Cache
	group singleflight.Group
}

// New builds a client for the model service at baseURL. cacheSize <= 0 uses
// the default size.
func New(baseURL string, timeout time.Duration, cacheSize int, m *metrics.Metrics) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	// lru.New only fails for a non-positive size.
	cache, _ := lru.New(cacheSize)
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		metrics: m,
		cache:   cache,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func cacheKey(in model.Indicators) string {
	return fmt.Sprintf("%.2f|%.2f|%.2f", in.GDP, in.Life, in.Urban)
}

// Predict returns the rates for one indicator set.
func (c *Client) Predict(ctx context.Context, in model.Indicators) (model.Rates, error) {
	key := cacheKey(in)
	if rates, ok := c.cache.Get(key); ok {
		c.metrics.IncrementModelCall("cached")
		return rates.(model.Rates), nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		rates, err := c.fetch(ctx, in)
		if err != nil {
			c.metrics.IncrementModelCall("error")
			return model.Rates{}, err
		}
		c.metrics.IncrementModelCall("ok")
		c.cache.Add(key, rates)
		return rates, nil
	})
	if err != nil {
		return model.Rates{}, err
	}
	return v.(model.Rates), nil
}

// PredictAll resolves every indicator set, fetching uncached ones
// concurrently. The result is index-aligned with inputs.
func PredictAll(ctx context.Context, p Predictor, inputs []model.Indicators) ([]model.Rates, error) {
	out := make([]model.Rates, len(inputs))
	if len(inputs) == 1 {
		rates, err := p.Predict(ctx, inputs[0])
		if err != nil {
			return nil, err
		}
		out[0] = rates
		return out, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	for i, in := range inputs {
		g.Go(func() error {
			rates, err := p.Predict(ctx, in)
			if err != nil {
				return err
			}
			out[i] = rates
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) fetch(ctx context.Context, in model.Indicators) (model.Rates, error) {
	start := time.Now()
	defer func() { c.metrics.ObserveModelLatency(time.Since(start)) }()

	body, err := json.Marshal(model.PredictRequest{GDP: in.GDP, Life: in.Life, Urban: in.Urban})
	if err != nil {
		return model.Rates{}, fmt.Errorf("encode predict request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return model.Rates{}, fmt.Errorf("build predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return model.Rates{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var pr model.PredictResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		io.Copy(io.Discard, resp.Body)
		return model.Rates{}, fmt.Errorf("%w: decode response (status %d): %w", ErrUnavailable, resp.StatusCode, err)
	}
	if pr.Error != "" {
		return model.Rates{}, &RemoteError{Status: resp.StatusCode, Message: pr.Error}
	}
	if resp.StatusCode != http.StatusOK {
		return model.Rates{}, &RemoteError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	return pr.Rates(), nil
}
