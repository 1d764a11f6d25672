package handler

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"pyramid-engine/internal/chart"
	"pyramid-engine/internal/engine"
	"pyramid-engine/internal/input"
	"pyramid-engine/internal/longrange"
	"pyramid-engine/internal/metrics"
	"pyramid-engine/internal/model"
	"pyramid-engine/internal/presets"
	"pyramid-engine/internal/ratemodel"
	"pyramid-engine/internal/report"
	"pyramid-engine/internal/session"
)

const (
	requestTimeout  = 30 * time.Second
	requestIDHeader = "X-Request-ID"
	noBaselineError = "Load a preset to get starting population."
	formTitle       = "Population Pyramid"
)

// Deps are the collaborators a Handler routes to. Predictor may be nil when
// no rate model is configured.
type Deps struct {
	Sessions      *session.Service
	Presets       presets.Provider
	Predictor     ratemodel.Predictor
	Projector     *longrange.Projector
	ReferenceYear int
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
	Gatherer      prometheus.Gatherer
}

type Handler struct {
	sessions      *session.Service
	presets       presets.Provider
	predictor     ratemodel.Predictor
	projector     *longrange.Projector
	referenceYear int
	log           *slog.Logger
	metrics       *metrics.Metrics
	exposition    fasthttp.RequestHandler
}

func New(d Deps) *Handler {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	referenceYear := d.ReferenceYear
	if referenceYear == 0 {
		referenceYear = model.ReferenceYear
	}
	return &Handler{
		sessions:      d.Sessions,
		presets:       d.Presets,
		predictor:     d.Predictor,
		projector:     d.Projector,
		referenceYear: referenceYear,
		log:           log,
		metrics:       d.Metrics,
		exposition:    fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})),
	}
}

// Handle is the fasthttp entry point.
func (h *Handler) Handle(ctx *fasthttp.RequestCtx) {
	start := time.Now()
	id := string(ctx.Request.Header.Peek(requestIDHeader))
	if id == "" {
		id = uuid.NewString()
	}
	ctx.Response.Header.Set(requestIDHeader, id)

	rc, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	ctx.SetUserValue(contextKey{}, rc)

	route := h.route(ctx)
	h.metrics.ObserveRequest(route, strconv.Itoa(ctx.Response.StatusCode()), time.Since(start))
}

type contextKey struct{}

// requestContext bounds downstream calls made for one request.
func requestContext(ctx *fasthttp.RequestCtx) context.Context {
	if rc, ok := ctx.UserValue(contextKey{}).(context.Context); ok {
		return rc
	}
	return context.Background()
}

// route dispatches on the path and returns the route label for metrics.
func (h *Handler) route(ctx *fasthttp.RequestCtx) string {
	path := strings.Trim(string(ctx.Path()), "/")
	parts := strings.Split(path, "/")

	switch {
	case path == "healthz":
		if allow(ctx, fasthttp.MethodGet) {
			writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
		}
		return "healthz"
	case path == "metrics":
		if allow(ctx, fasthttp.MethodGet) {
			h.exposition(ctx)
		}
		return "metrics"
	case path == "presets":
		if allow(ctx, fasthttp.MethodGet) {
			h.listPresets(ctx)
		}
		return "presets"
	case len(parts) == 2 && parts[0] == "get-country-data":
		if allow(ctx, fasthttp.MethodGet) {
			h.countryData(ctx, parts[1])
		}
		return "get-country-data"
	case path == "project_population":
		if allow(ctx, fasthttp.MethodPost) {
			h.projectPopulation(ctx)
		}
		return "project_population"
	case path == "predict":
		if allow(ctx, fasthttp.MethodPost) {
			h.predict(ctx)
		}
		return "predict"
	case path == "pyramid":
		if allow(ctx, fasthttp.MethodPost) {
			h.pyramidForm(ctx)
		}
		return "pyramid"
	case path == "pyramid.pdf":
		if allow(ctx, fasthttp.MethodPost) {
			h.pyramidPDF(ctx)
		}
		return "pyramid.pdf"
	case path == "project_pyramid":
		if allow(ctx, fasthttp.MethodPost) {
			h.projectPyramid(ctx)
		}
		return "project_pyramid"
	case parts[0] == "sessions":
		return h.routeSession(ctx, parts[1:])
	}

	writeError(ctx, fasthttp.StatusNotFound, "Not found")
	return "unknown"
}

func (h *Handler) routeSession(ctx *fasthttp.RequestCtx, parts []string) string {
	switch {
	case len(parts) == 0:
		if allow(ctx, fasthttp.MethodPost) {
			h.createSession(ctx)
		}
		return "sessions"
	case len(parts) == 1:
		if allow(ctx, fasthttp.MethodGet) {
			h.getSession(ctx, parts[0])
		}
		return "sessions/get"
	case len(parts) == 3 && parts[1] == "preset":
		if allow(ctx, fasthttp.MethodPost) {
			h.loadPreset(ctx, parts[0], parts[2])
		}
		return "sessions/preset"
	case len(parts) == 2 && parts[1] == "clear":
		if allow(ctx, fasthttp.MethodPost) {
			h.clearSession(ctx, parts[0])
		}
		return "sessions/clear"
	case len(parts) == 2 && parts[1] == "project_year":
		if allow(ctx, fasthttp.MethodPost) {
			h.projectYear(ctx, parts[0])
		}
		return "sessions/project_year"
	case len(parts) == 2 && parts[1] == "projection":
		if allow(ctx, fasthttp.MethodPost) {
			h.projection(ctx, parts[0])
		}
		return "sessions/projection"
	}

	writeError(ctx, fasthttp.StatusNotFound, "Not found")
	return "unknown"
}

func (h *Handler) listPresets(ctx *fasthttp.RequestCtx) {
	names, err := h.presets.List(requestContext(ctx))
	if err != nil {
		h.fail(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, map[string][]string{"presets": names})
}

func (h *Handler) countryData(ctx *fasthttp.RequestCtx, name string) {
	data, err := h.presets.Get(requestContext(ctx), name)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, data)
}

func (h *Handler) projectPopulation(ctx *fasthttp.RequestCtx) {
	var req projectPopulationRequest
	if !decode(ctx, &req) {
		return
	}
	lr := req.toLongRange()
	if req.Country != "" {
		data, err := h.presets.Get(requestContext(ctx), req.Country)
		if err != nil {
			h.fail(ctx, err)
			return
		}
		lr.Indicators = data.Indicators()
	}

	res, err := h.projector.Project(requestContext(ctx), lr)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, res)
}

func (h *Handler) predict(ctx *fasthttp.RequestCtx) {
	if h.predictor == nil {
		writeError(ctx, fasthttp.StatusServiceUnavailable, "Rate model is not configured")
		return
	}
	var req predictRequest
	if !decode(ctx, &req) {
		return
	}
	rates, err := h.predictor.Predict(requestContext(ctx), model.Indicators{
		GDP:   req.GDP.Float(),
		Life:  req.Life.Float(),
		Urban: req.Urban.Float(),
	})
	if err != nil {
		h.fail(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, model.PredictResponse{
		BirthRate:     rates.Birth,
		DeathRate:     rates.Death,
		MigrationRate: rates.Migration,
	})
}

type pyramidFormResponse struct {
	Pyramid model.Pyramid  `json:"pyramid"`
	Summary engine.Summary `json:"summary"`
	Chart   chart.Config   `json:"chart"`
}

// pyramidForm renders a percentage pyramid posted as male_i/female_i fields.
func (h *Handler) pyramidForm(ctx *fasthttp.RequestCtx) {
	p, ok := readPercentForm(ctx)
	if !ok {
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, pyramidFormResponse{
		Pyramid: p,
		Summary: engine.Summarize(p),
		Chart:   chart.Pyramid(p, formTitle),
	})
}

func (h *Handler) pyramidPDF(ctx *fasthttp.RequestCtx) {
	p, ok := readPercentForm(ctx)
	if !ok {
		return
	}
	title := formTitle
	if t := strings.TrimSpace(string(ctx.FormValue("title"))); t != "" {
		title = t
	}
	doc, err := report.RenderPyramidPDF(title, p)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	ctx.SetContentType("application/pdf")
	ctx.Response.Header.Set("Content-Disposition", `attachment; filename="pyramid.pdf"`)
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBody(doc)
}

func readPercentForm(ctx *fasthttp.RequestCtx) (model.Pyramid, bool) {
	p := input.ParsePyramidForm(func(name string) string {
		return string(ctx.FormValue(name))
	})
	if err := input.ValidatePercentTotal(p); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, err.Error())
		return model.Pyramid{}, false
	}
	return p, true
}

type projectPyramidResponse struct {
	Year    int            `json:"year"`
	Pyramid model.Pyramid  `json:"pyramid"`
	Summary engine.Summary `json:"summary"`
	Chart   chart.Config   `json:"chart"`
}

// projectPyramid is the stateless form of a session's project_year.
func (h *Handler) projectPyramid(ctx *fasthttp.RequestCtx) {
	var req projectPyramidRequest
	if !decode(ctx, &req) {
		return
	}

	var baseline model.Pyramid
	switch {
	case req.Pyramid != nil:
		baseline = *req.Pyramid
	case req.Preset != "":
		data, err := h.presets.Get(requestContext(ctx), req.Preset)
		if err != nil {
			h.fail(ctx, err)
			return
		}
		snapshot, err := data.Snapshot(h.referenceYear)
		if err != nil {
			h.fail(ctx, err)
			return
		}
		baseline = snapshot.Pyramid
	default:
		writeError(ctx, fasthttp.StatusBadRequest, "Either pyramid or preset is required")
		return
	}

	year := req.Year.Int()
	if year == 0 {
		year = h.referenceYear
	}
	projected := engine.Project(baseline, year-h.referenceYear, req.BirthRate.Float(), req.DeathRate.Float()).Rounded(1)
	h.metrics.IncrementProjection("cohort")

	writeJSON(ctx, fasthttp.StatusOK, projectPyramidResponse{
		Year:    year,
		Pyramid: projected,
		Summary: engine.Summarize(projected),
		Chart:   chart.Pyramid(projected, chart.PyramidTitle(year, h.referenceYear)),
	})
}

func (h *Handler) createSession(ctx *fasthttp.RequestCtx) {
	sess, err := h.sessions.Create(requestContext(ctx))
	if err != nil {
		h.fail(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusCreated, map[string]string{"id": sess.ID})
}

func (h *Handler) getSession(ctx *fasthttp.RequestCtx, id string) {
	sess, err := h.sessions.Get(requestContext(ctx), id)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, sess)
}

func (h *Handler) loadPreset(ctx *fasthttp.RequestCtx, id, name string) {
	view, err := h.sessions.LoadPreset(requestContext(ctx), id, name)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, view)
}

func (h *Handler) clearSession(ctx *fasthttp.RequestCtx, id string) {
	view, err := h.sessions.Clear(requestContext(ctx), id)
	if err != nil {
		h.fail(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, view)
}

func (h *Handler) projectYear(ctx *fasthttp.RequestCtx, id string) {
	var req projectYearRequest
	if !decode(ctx, &req) {
		return
	}
	view, err := h.sessions.ProjectYear(requestContext(ctx), id, req.toSession())
	if err != nil {
		h.fail(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, view)
}

func (h *Handler) projection(ctx *fasthttp.RequestCtx, id string) {
	var req projectionRequest
	if !decode(ctx, &req) {
		return
	}
	view, err := h.sessions.ProjectSeries(requestContext(ctx), id, req.toSession())
	if err != nil {
		h.fail(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, view)
}

// fail maps err to a status and writes it. Unexpected errors are logged and
// hidden from the client.
func (h *Handler) fail(ctx *fasthttp.RequestCtx, err error) {
	status, message := classify(err)
	if status >= fasthttp.StatusInternalServerError {
		h.log.Error("request failed",
			"request_id", string(ctx.Response.Header.Peek(requestIDHeader)),
			"method", string(ctx.Method()),
			"path", string(ctx.Path()),
			"status", status,
			"error", err,
		)
	}
	writeError(ctx, status, message)
}

func classify(err error) (int, string) {
	var remote *ratemodel.RemoteError
	switch {
	case errors.Is(err, presets.ErrNotFound):
		return fasthttp.StatusNotFound, err.Error()
	case errors.Is(err, session.ErrNotFound):
		return fasthttp.StatusNotFound, err.Error()
	case errors.Is(err, session.ErrNoBaseline):
		return fasthttp.StatusConflict, noBaselineError
	case errors.Is(err, longrange.ErrInvalidRequest):
		return fasthttp.StatusBadRequest, err.Error()
	case errors.As(err, &remote):
		return fasthttp.StatusBadGateway, remote.Message
	case errors.Is(err, ratemodel.ErrUnavailable):
		return fasthttp.StatusBadGateway, "Rate model unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return fasthttp.StatusGatewayTimeout, "Request timed out"
	}
	return fasthttp.StatusInternalServerError, "Internal server error"
}

func allow(ctx *fasthttp.RequestCtx, method string) bool {
	if string(ctx.Method()) == method {
		return true
	}
	ctx.Response.Header.Set("Allow", method)
	writeError(ctx, fasthttp.StatusMethodNotAllowed, "Method not allowed")
	return false
}

func decode(ctx *fasthttp.RequestCtx, v any) bool {
	if err := json.Unmarshal(ctx.PostBody(), v); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = fasthttp.StatusInternalServerError
		body, _ = json.Marshal(model.ErrorResponse{Error: "Internal server error"})
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

func writeError(ctx *fasthttp.RequestCtx, status int, message string) {
	writeJSON(ctx, status, model.ErrorResponse{Error: message})
}
