package api

import (
	"fmt"
	"net/http"

	"github.com/lueurxax/threat-monitor/internal/core/domain"
	apperrors "github.com/lueurxax/threat-monitor/internal/core/errors"
	"github.com/lueurxax/threat-monitor/internal/output/narrative"
	"github.com/lueurxax/threat-monitor/internal/process/content"
	"github.com/lueurxax/threat-monitor/internal/process/extract"
	"github.com/lueurxax/threat-monitor/internal/process/linkage"
)

type analyzeRequest struct {
	Text     string          `json:"text" validate:"required_without=Items"`
	Platform string          `json:"platform"`
	Items    []content.Input `json:"items" validate:"omitempty,max=1000"`
}

type batchResponse struct {
	Results    []domain.ContentAnalysis `json:"results"`
	Statistics content.Statistics       `json:"statistics"`
}

func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if len(req.Items) == 0 {
		h.writeJSON(w, http.StatusOK, h.engine.Analyzer.Analyze(req.Text, domain.ParsePlatform(req.Platform)))
		return
	}

	for i := range req.Items {
		req.Items[i].Platform = domain.ParsePlatform(string(req.Items[i].Platform))
	}

	results, err := h.engine.Analyzer.AnalyzeBatch(r.Context(), req.Items, h.workers)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, batchResponse{Results: results, Statistics: content.Summarize(results)})
}

type extractRequest struct {
	Text   string   `json:"text" validate:"required_without=Images"`
	Images [][]byte `json:"images" validate:"max=10"`
}

type extractResponse struct {
	Metadata *domain.ExtractedMetadata `json:"metadata"`
	Summary  extract.Summary           `json:"summary"`
}

func (h *Handler) extract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	meta := h.engine.Extractor.Extract(r.Context(), req.Text, req.Images)

	h.writeJSON(w, http.StatusOK, extractResponse{Metadata: meta, Summary: extract.Summarize(meta)})
}

type botRequest struct {
	Platform string             `json:"platform"`
	Messages []domain.TimedText `json:"messages" validate:"required,min=1,max=1000"`
}

func (h *Handler) bot(w http.ResponseWriter, r *http.Request) {
	var req botRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, h.engine.Detector.Detect(req.Messages, domain.ParsePlatform(req.Platform)))
}

func (h *Handler) graph(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", h.accountLimit, h.accountLimit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	accounts, err := h.store.ListAccounts(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	g := h.engine.Builder.Build(accounts)
	if r.URL.Query().Get("include_accounts") != "true" {
		g = withoutAccounts(g)
	}

	h.writeJSON(w, http.StatusOK, graphResponse{
		Graph:        g,
		AccountLimit: limit,
		Truncated:    len(accounts) >= limit,
	})
}

// graphResponse is a graph over the top accounts by threat score. When
// Truncated is set, lower-scored accounts were left out, and links and
// betweenness that run through them are missing.
type graphResponse struct {
	linkage.Graph

	AccountLimit int  `json:"account_limit"`
	Truncated    bool `json:"truncated"`
}

func withoutAccounts(g linkage.Graph) linkage.Graph {
	nodes := make([]linkage.Node, len(g.Nodes))
	for i, n := range g.Nodes {
		n.Account = domain.AccountSummary{ID: n.ID, Platform: n.Account.Platform}
		nodes[i] = n
	}

	g.Nodes = nodes

	return g
}

func (h *Handler) connections(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultListLimit, maxListLimit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	conns, err := h.store.ListConnections(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, conns)
}

func (h *Handler) alerts(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultListLimit, maxListLimit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	alerts, err := h.store.ListAlerts(r.Context(), r.URL.Query().Get("open") == "true", limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, alerts)
}

func (h *Handler) acknowledge(w http.ResponseWriter, r *http.Request) {
	if err := h.store.AcknowledgeAlert(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) threats(w http.ResponseWriter, r *http.Request) {
	minScore, err := queryInt(r, "min_score", 0, 100)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	limit, err := queryInt(r, "limit", defaultListLimit, maxListLimit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	threats, err := h.store.ListThreats(r.Context(), minScore, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, threats)
}

func (h *Handler) accounts(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultListLimit, maxListLimit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	accounts, err := h.store.ListAccounts(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, accounts)
}

type narrativeResponse struct {
	Account   string `json:"account"`
	Narrative string `json:"narrative"`
}

func (h *Handler) narrative(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	acc, err := h.store.GetAccount(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if acc == nil {
		h.writeError(w, r, fmt.Errorf("account %s: %w", id, apperrors.ErrNotFound))
		return
	}

	text, err := h.engine.Renderer.ThreatNarrative(narrative.Suspect{
		Name:        acc.Username,
		ThreatScore: acc.ThreatScore,
		Platforms:   []string{string(acc.Platform)},
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, narrativeResponse{Account: acc.ID, Narrative: text})
}
