package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"circuitmap/internal/codec"
	"circuitmap/internal/loader"
	"circuitmap/internal/metrics"
	"circuitmap/internal/repository"
	"circuitmap/internal/service"
	"circuitmap/internal/topology"
	"circuitmap/internal/viewport"
)

// maxImportBytes bounds uploaded inventory documents
const maxImportBytes = 10 << 20

var validate = validator.New()

// Handler serves the circuitmap API
type Handler struct {
	scenes   *service.SceneService
	sessions *service.SessionService
	events   http.Handler
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

// New creates a new handler. events serves the SSE stream and may be nil.
func New(scenes *service.SceneService, sessions *service.SessionService, events http.Handler, m *metrics.Metrics, log zerolog.Logger) *Handler {
	return &Handler{
		scenes:   scenes,
		sessions: sessions,
		events:   events,
		metrics:  m,
		log:      log.With().Str("component", "http").Logger(),
	}
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Router builds the HTTP routes
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.accessLog)
	r.Use(h.observe)

	r.Get("/healthz", h.handleHealthz)
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	if h.events != nil {
		r.Method(http.MethodGet, "/events", h.events)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(15 * time.Second))

		r.Get("/modes", h.handleModes)
		r.Get("/scene", h.handleGetScene)

		r.Route("/sites", func(r chi.Router) {
			r.Get("/", h.handleListSites)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.handleGetSite)
				r.Put("/", h.handlePutSite)
				r.Delete("/", h.handleDeleteSite)
				r.Put("/coordinates", h.handlePutCoordinates)
			})
		})
		r.Get("/facilities", h.handleListFacilities)

		r.Post("/import", h.handleImport)
		r.Get("/export/{format}", h.handleExport)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.handleCreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Delete("/", h.handleDeleteSession)
				r.Get("/scene", h.handleSessionScene)
				r.Post("/resize", h.handleResize)
				r.Post("/drag/start", h.handleDragStart)
				r.Post("/drag/move", h.handleDragMove)
				r.Post("/drag/end", h.handleDragEnd)
			})
		})
	})

	return r
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		h.log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("http_request")
	})
}

// observe records request metrics labelled by route pattern so that IDs in
// the path do not explode label cardinality
func (h *Handler) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		pattern := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			pattern = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		h.metrics.ObserveHTTPRequest(r.Method, pattern, status, time.Since(start))
	})
}

func (h *Handler) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, map[string]any{"ok": true}, http.StatusOK)
}

// Helper methods

func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("failed to encode JSON")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	h.writeJSON(w, ErrorResponse{Error: error, Details: details}, statusCode)
}

// fail maps a service error to a status code and writes it
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().
			Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg(msg)
	}
	h.writeError(w, msg, err.Error(), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, viewport.ErrUnknownNode):
		return http.StatusNotFound
	case errors.Is(err, loader.ErrInvalidInventory),
		errors.Is(err, codec.ErrUnsupportedFormat),
		errors.Is(err, topology.ErrUnknownMode):
		return http.StatusBadRequest
	case errors.Is(err, viewport.ErrDragInProgress),
		errors.Is(err, viewport.ErrNotDragging),
		errors.Is(err, viewport.ErrLayoutNotReady):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// decodeJSONStrict decodes a single JSON value, rejecting unknown fields and
// trailing data
func decodeJSONStrict(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return errors.New("unexpected extra data after JSON body")
		}
		return err
	}
	return nil
}

// decodeRequest decodes a request body and checks its validate tags
func decodeRequest(r *http.Request, dst any) error {
	if err := decodeJSONStrict(r, dst); err != nil {
		return err
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			parts := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				parts = append(parts, fmt.Sprintf("%s fails %s", fe.Field(), fe.Tag()))
			}
			return errors.New(strings.Join(parts, "; "))
		}
		return err
	}
	return nil
}
