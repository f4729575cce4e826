// Package httpapi exposes the voice search pipeline and engine controls over
// HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"findd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Search(ctx context.Context, req types.SearchRequest) (types.SearchResponse, error)
	Status() types.StatusResponse
	Instances(ctx context.Context) []types.RunningInstance
	Ensure(ctx context.Context, req types.EnsureRequest) error
	BlockAutostart(req types.BlockAutostartRequest)
	Shutdown(ctx context.Context, req types.ShutdownRequest) bool
	History(ctx context.Context, limit int) ([]types.HistoryEntry, error)
	Events() []types.EngineEvent
	Ready(ctx context.Context) bool
}

const defaultHistoryLimit = 50

type api struct {
	svc Service
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(middleware.Compress(5))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}

	a := &api{svc: svc}
	r.Post("/search", a.search)
	r.Get("/status", a.status)
	r.Get("/instances", a.instances)
	r.Get("/history", a.history)
	r.Get("/events", a.events)
	r.Route("/engine", func(r chi.Router) {
		r.Post("/ensure", a.ensure)
		r.Post("/block-autostart", a.blockAutostart)
		r.Post("/shutdown", a.shutdown)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", a.readyz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	MountSwagger(r)
	return r
}

// decodeJSON enforces the content type and body limit. An empty body leaves
// dst untouched when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	if allowEmpty && r.ContentLength == 0 {
		return true
	}
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// search godoc
// @Summary      Run a voice search command
// @Description  Normalizes the utterance, makes sure the engine answers, searches and optionally opens the best match.
// @Tags         search
// @Accept       json
// @Produce      json
// @Param        request  body      types.SearchRequest  true  "Utterance"
// @Success      200      {object}  types.SearchResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      415      {object}  types.ErrorResponse
// @Router       /search [post]
func (a *api) search(w http.ResponseWriter, r *http.Request) {
	var req types.SearchRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if strings.TrimSpace(req.Utterance) == "" {
		writeJSONError(w, http.StatusBadRequest, "utterance is required")
		return
	}

	start := time.Now()
	lvl := requestLogLevel(r)
	if e := requestEvent(r, lvl, LevelInfo); e != nil {
		e.Bool("open", req.Open).Msg("search start")
	}
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	if searchTimeout > 0 {
		var tcancel context.CancelFunc
		ctx, tcancel = context.WithTimeout(ctx, searchTimeout)
		defer tcancel()
	}

	resp, err := a.svc.Search(ctx, req)
	if err != nil {
		// client went away or the server is shutting down
		if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
			return
		}
		status := writeServiceError(w, err)
		logSearchEnd(r, lvl, status, start, nil, err)
		return
	}
	if resp.Paths == nil {
		resp.Paths = []string{}
	}
	if resp.Statuses == nil {
		resp.Statuses = []types.StatusMessage{}
	}
	writeJSON(w, http.StatusOK, resp)
	logSearchEnd(r, lvl, http.StatusOK, start, &resp, nil)
}

// status godoc
// @Summary  Engine and service status
// @Tags     engine
// @Produce  json
// @Success  200  {object}  types.StatusResponse
// @Router   /status [get]
func (a *api) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.svc.Status())
}

// instances godoc
// @Summary  Running engine processes
// @Tags     engine
// @Produce  json
// @Success  200  {object}  types.InstancesResponse
// @Router   /instances [get]
func (a *api) instances(w http.ResponseWriter, r *http.Request) {
	list := a.svc.Instances(r.Context())
	if list == nil {
		list = []types.RunningInstance{}
	}
	writeJSON(w, http.StatusOK, types.InstancesResponse{Instances: list})
}

// events godoc
// @Summary  Recent engine lifecycle events, oldest first
// @Tags     engine
// @Produce  json
// @Success  200  {object}  types.EventsResponse
// @Router   /events [get]
func (a *api) events(w http.ResponseWriter, r *http.Request) {
	list := a.svc.Events()
	if list == nil {
		list = []types.EngineEvent{}
	}
	writeJSON(w, http.StatusOK, types.EventsResponse{Events: list})
}

// history godoc
// @Summary  Recent voice searches, newest first
// @Tags     search
// @Produce  json
// @Param    limit  query     int  false  "Maximum entries"  default(50)
// @Success  200    {object}  types.HistoryResponse
// @Failure  400    {object}  types.ErrorResponse
// @Router   /history [get]
func (a *api) history(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSONError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	entries, err := a.svc.History(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []types.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, types.HistoryResponse{Entries: entries})
}

// ensure godoc
// @Summary  Make the engine answer queries
// @Tags     engine
// @Accept   json
// @Produce  json
// @Param    request  body      types.EnsureRequest  false  "Options"
// @Success  200      {object}  types.EngineActionResponse
// @Failure  409      {object}  types.ErrorResponse
// @Failure  503      {object}  types.ErrorResponse
// @Router   /engine/ensure [post]
func (a *api) ensure(w http.ResponseWriter, r *http.Request) {
	var req types.EnsureRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}
	if req.TimeoutSeconds < 0 {
		writeJSONError(w, http.StatusBadRequest, "timeout_seconds must not be negative")
		return
	}
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	if err := a.svc.Ensure(ctx, req); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.EngineActionResponse{OK: true})
}

// blockAutostart godoc
// @Summary  Suppress engine starts for a while
// @Tags     engine
// @Accept   json
// @Produce  json
// @Param    request  body      types.BlockAutostartRequest  true  "Duration"
// @Success  200      {object}  types.EngineActionResponse
// @Failure  400      {object}  types.ErrorResponse
// @Router   /engine/block-autostart [post]
func (a *api) blockAutostart(w http.ResponseWriter, r *http.Request) {
	var req types.BlockAutostartRequest
	if !decodeJSON(w, r, &req, false) {
		return
	}
	if req.Seconds <= 0 {
		writeJSONError(w, http.StatusBadRequest, "seconds must be positive")
		return
	}
	a.svc.BlockAutostart(req)
	writeJSON(w, http.StatusOK, types.EngineActionResponse{OK: true})
}

// shutdown godoc
// @Summary  Stop engine instances started by findd
// @Tags     engine
// @Accept   json
// @Produce  json
// @Param    request  body      types.ShutdownRequest  false  "Options"
// @Success  200      {object}  types.EngineActionResponse
// @Router   /engine/shutdown [post]
func (a *api) shutdown(w http.ResponseWriter, r *http.Request) {
	var req types.ShutdownRequest
	if !decodeJSON(w, r, &req, true) {
		return
	}
	resp := types.EngineActionResponse{OK: a.svc.Shutdown(r.Context(), req)}
	if !resp.OK {
		resp.Error = "no engine instance was stopped"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *api) readyz(w http.ResponseWriter, r *http.Request) {
	if a.svc.Ready(r.Context()) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("not ready"))
}
