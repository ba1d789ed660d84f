// Package httphandler exposes the JSON API: token issuance, catalog reads,
// and manual collection triggers.
package httphandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rulehound/rulehound/internal/application"
	"github.com/rulehound/rulehound/internal/domain/port/driven"
)

// CollectTrigger triggers an immediate collection run.
type CollectTrigger interface {
	TriggerCollect(ctx context.Context) error
}

// Handler serves the JSON API.
type Handler struct {
	store   driven.CatalogStore
	collect CollectTrigger
	tokens  *application.TokenService
	logger  *slog.Logger
}

// NewHandler creates a new Handler with all required dependencies.
func NewHandler(store driven.CatalogStore, collect CollectTrigger, tokens *application.TokenService, logger *slog.Logger) *Handler {
	return &Handler{
		store:   store,
		collect: collect,
		tokens:  tokens,
		logger:  logger,
	}
}

// RegisterAPIRoutes registers all API routes on the mux. Catalog reads and
// collection triggers require a bearer token issued by the token endpoint.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/health", h.Health)
	mux.HandleFunc("POST /api/core/issueToken", h.IssueToken)
	mux.Handle("GET /api/catalog", h.requireAuth(http.HandlerFunc(h.ListCatalog)))
	mux.Handle("GET /api/catalog/{owner}/{repo}", h.requireAuth(http.HandlerFunc(h.GetCatalogEntry)))
	mux.Handle("POST /api/collect", h.requireAuth(http.HandlerFunc(h.TriggerCollect)))
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// IssueToken exchanges the X-API-Key header for a signed bearer token.
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	apiKey := r.Header.Get("X-API-Key")
	if apiKey == "" {
		writeError(w, http.StatusBadRequest, "missing X-API-Key header")
		return
	}

	token, err := h.tokens.IssueToken(apiKey)
	if errors.Is(err, application.ErrUnknownAPIKey) {
		writeError(w, http.StatusUnauthorized, "unknown API key")
		return
	}
	if err != nil {
		h.logger.Error("token issuance failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Status: "success", Token: token})
}

// ListCatalog returns all stored catalog entries without rule sets.
func (h *Handler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.ListEntries(r.Context())
	if err != nil {
		h.logger.Error("list catalog failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]entryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, toEntryResponse(entry, false))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetCatalogEntry returns one catalog entry with its full rule sets.
func (h *Handler) GetCatalogEntry(w http.ResponseWriter, r *http.Request) {
	owner := r.PathValue("owner")
	repo := r.PathValue("repo")

	entry, err := h.store.GetByRepo(r.Context(), owner, repo)
	if err != nil {
		h.logger.Error("get catalog entry failed", "owner", owner, "repo", repo, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if entry == nil {
		writeError(w, http.StatusNotFound, "catalog entry not found")
		return
	}

	writeJSON(w, http.StatusOK, toEntryResponse(*entry, true))
}

// TriggerCollect runs an immediate collection and blocks until it finishes.
func (h *Handler) TriggerCollect(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("manual collection triggered", "client", clientFrom(r.Context()))

	if err := h.collect.TriggerCollect(r.Context()); err != nil {
		h.logger.Error("manual collection failed", "error", err)
		writeError(w, http.StatusInternalServerError, "collection failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
