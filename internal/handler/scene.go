package handler

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"circuitmap/internal/codec"
	"circuitmap/internal/domain"
	"circuitmap/internal/layout"
	"circuitmap/internal/routing"
)

// SceneResponse is a layout pass as served to viewers
type SceneResponse struct {
	*domain.Scene
	Dropped        map[routing.DropReason]int `json:"dropped,omitempty"`
	DuplicateSites int                        `json:"duplicate_sites,omitempty"`
	Unassigned     []string                   `json:"unassigned,omitempty"`
}

// CoordinatesRequest sets a site's committed position
type CoordinatesRequest struct {
	X *float64 `json:"x" validate:"required"`
	Y *float64 `json:"y" validate:"required"`
}

func (h *Handler) handleModes(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, map[string]any{
		"default": h.scenes.DefaultMode(),
		"modes":   h.scenes.Engine().Modes(),
	}, http.StatusOK)
}

func (h *Handler) handleGetScene(w http.ResponseWriter, r *http.Request) {
	mode := domain.Mode(strings.TrimSpace(r.URL.Query().Get("mode")))

	result, err := h.scenes.Layout(r.Context(), mode)
	if err != nil {
		h.fail(w, r, "Failed to lay out scene", err)
		return
	}

	resp := SceneResponse{
		Scene:          result.Scene,
		Dropped:        result.Stats.Dropped,
		DuplicateSites: result.DuplicateSites,
	}
	if result.Assignment != nil {
		for _, site := range result.Assignment.Unassigned {
			resp.Unassigned = append(resp.Unassigned, site.ID)
		}
	}
	h.writeJSON(w, resp, http.StatusOK)
}

func (h *Handler) handleListSites(w http.ResponseWriter, r *http.Request) {
	sites, err := h.scenes.ListSites(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to list sites", err)
		return
	}
	h.writeJSON(w, sites, http.StatusOK)
}

func (h *Handler) handleGetSite(w http.ResponseWriter, r *http.Request) {
	site, err := h.scenes.GetSite(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Failed to get site", err)
		return
	}
	h.writeJSON(w, site, http.StatusOK)
}

func (h *Handler) handlePutSite(w http.ResponseWriter, r *http.Request) {
	var site domain.Site
	if err := decodeJSONStrict(r, &site); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	id := chi.URLParam(r, "id")
	if site.ID != "" && site.ID != id {
		h.writeError(w, "Invalid request body", "site id does not match path", http.StatusBadRequest)
		return
	}
	site.ID = id
	if site.Connections == nil {
		site.Connections = make([]domain.Connection, 0)
	}

	if err := h.scenes.UpsertSite(r.Context(), &site); err != nil {
		h.fail(w, r, "Failed to save site", err)
		return
	}
	h.writeJSON(w, site, http.StatusOK)
}

func (h *Handler) handleDeleteSite(w http.ResponseWriter, r *http.Request) {
	if err := h.scenes.DeleteSite(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, "Failed to delete site", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePutCoordinates(w http.ResponseWriter, r *http.Request) {
	var req CoordinatesRequest
	if err := decodeRequest(r, &req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	id := chi.URLParam(r, "id")
	p := layout.ClampCommitted(domain.Point2D{X: *req.X, Y: *req.Y})
	if err := h.scenes.UpdateSiteCoordinates(r.Context(), id, p); err != nil {
		h.fail(w, r, "Failed to update coordinates", err)
		return
	}

	h.writeJSON(w, map[string]any{"site_id": id, "coordinates": p}, http.StatusOK)
}

func (h *Handler) handleListFacilities(w http.ResponseWriter, r *http.Request) {
	facilities, err := h.scenes.ListFacilities(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to list facilities", err)
		return
	}
	h.writeJSON(w, facilities, http.StatusOK)
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "yaml"
		if strings.Contains(r.Header.Get("Content-Type"), "json") {
			format = "json"
		}
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		h.writeError(w, "Failed to read request body", err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.scenes.ImportData(r.Context(), data, format)
	if err != nil {
		h.fail(w, r, "Failed to import inventory", err)
		return
	}

	h.writeJSON(w, result, http.StatusOK)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	c, err := codec.ForFormat(format)
	if err != nil {
		h.writeError(w, "Unsupported export format", err.Error(), http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	mode := domain.Mode(r.URL.Query().Get("mode"))
	if err := h.scenes.Export(r.Context(), mode, c.Format(), &buf); err != nil {
		h.fail(w, r, "Failed to export scene", err)
		return
	}

	contentType := "application/json"
	if c.Format() == "yaml" {
		contentType = "application/x-yaml"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename=scene."+c.Format())
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.log.Warn().Err(err).Msg("failed to write export")
	}
}
