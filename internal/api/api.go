// Package api exposes the scoring engine and stored investigation data over
// a small JSON HTTP interface mounted under /api/.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
	apperrors "github.com/lueurxax/threat-monitor/internal/core/errors"
	"github.com/lueurxax/threat-monitor/internal/output/narrative"
	"github.com/lueurxax/threat-monitor/internal/process/botdetect"
	"github.com/lueurxax/threat-monitor/internal/process/content"
	"github.com/lueurxax/threat-monitor/internal/process/extract"
	"github.com/lueurxax/threat-monitor/internal/process/linkage"
	db "github.com/lueurxax/threat-monitor/internal/storage"
)

const (
	maxBodyBytes     = 20 << 20
	defaultListLimit = 100
	maxListLimit     = 1000
)

// Store is the read surface the API needs from storage.
type Store interface {
	ListThreats(ctx context.Context, minScore, limit int) ([]domain.ThreatRecord, error)
	GetAccount(ctx context.Context, id string) (*domain.AccountSummary, error)
	ListAccounts(ctx context.Context, limit int) ([]domain.AccountSummary, error)
	ListAlerts(ctx context.Context, openOnly bool, limit int) ([]domain.Alert, error)
	AcknowledgeAlert(ctx context.Context, id string) error
	ListConnections(ctx context.Context, limit int) ([]domain.Connection, error)
}

var _ Store = (*db.DB)(nil)

// Engine bundles the scoring components served by the API.
type Engine struct {
	Analyzer  *content.Analyzer
	Extractor *extract.Extractor
	Detector  *botdetect.Detector
	Builder   *linkage.Builder
	Renderer  *narrative.Renderer
}

// Handler serves the JSON API.
type Handler struct {
	store        Store
	engine       Engine
	workers      int
	accountLimit int
	validate     *validator.Validate
	logger       *zerolog.Logger
	mux          *http.ServeMux
}

// New creates the API handler. The graph endpoint reads at most accountLimit accounts.
func New(store Store, engine Engine, workers, accountLimit int, logger *zerolog.Logger) *Handler {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	h := &Handler{
		store:        store,
		engine:       engine,
		workers:      workers,
		accountLimit: accountLimit,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		logger:       logger,
		mux:          http.NewServeMux(),
	}

	h.mux.HandleFunc("POST /api/analyze", h.analyze)
	h.mux.HandleFunc("POST /api/extract", h.extract)
	h.mux.HandleFunc("POST /api/bot", h.bot)
	h.mux.HandleFunc("GET /api/graph", h.graph)
	h.mux.HandleFunc("GET /api/connections", h.connections)
	h.mux.HandleFunc("GET /api/alerts", h.alerts)
	h.mux.HandleFunc("POST /api/alerts/{id}/ack", h.acknowledge)
	h.mux.HandleFunc("GET /api/threats", h.threats)
	h.mux.HandleFunc("GET /api/accounts", h.accounts)
	h.mux.HandleFunc("GET /api/accounts/{id}/narrative", h.narrative)

	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request: %w: %w", apperrors.ErrInvalidInput, err)
	}

	if err := h.validate.Struct(dst); err != nil {
		return fmt.Errorf("validate request: %w: %w", apperrors.ErrInvalidInput, err)
	}

	return nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn().Err(err).Msg("failed to write response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("api request failed")
	}

	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func queryInt(r *http.Request, key string, def, maxVal int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("query %s=%q: %w", key, raw, apperrors.ErrInvalidInput)
	}

	return min(v, maxVal), nil
}
