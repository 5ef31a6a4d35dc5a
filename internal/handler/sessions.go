package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"circuitmap/internal/domain"
	"circuitmap/internal/routing"
	"circuitmap/internal/service"
)

// CreateSessionRequest opens a viewport session. Width and height may be
// zero when the viewer has not measured its container yet.
type CreateSessionRequest struct {
	Mode   string  `json:"mode"`
	Width  float64 `json:"width" validate:"gte=0"`
	Height float64 `json:"height" validate:"gte=0"`
}

// ResizeRequest reports a measured container size
type ResizeRequest struct {
	Width  float64 `json:"width" validate:"gt=0"`
	Height float64 `json:"height" validate:"gt=0"`
}

// DragRequest is one pointer event of a drag, in pixels
type DragRequest struct {
	SiteID string  `json:"site_id" validate:"required"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// SessionResponse describes an open session
type SessionResponse struct {
	ID         string            `json:"id"`
	Mode       domain.Mode       `json:"mode"`
	Dimensions domain.Dimensions `json:"dimensions"`
	Scene      *domain.Scene     `json:"scene"`
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*service.Session, bool) {
	sess, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "Unknown session", err)
		return nil, false
	}
	return sess, true
}

// sessionScene returns the pixel scene when the session has a size and the
// normalized one before that
func sessionScene(sess *service.Session, emphasis routing.Emphasis, frame string) (*domain.Scene, error) {
	if frame == string(domain.FrameNormalized) || (frame == "" && !sess.State.Dimensions().Positive()) {
		return sess.State.Scene(emphasis)
	}
	return sess.State.PixelScene(emphasis)
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := decodeRequest(r, &req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	dims := domain.Dimensions{Width: req.Width, Height: req.Height}
	sess, err := h.sessions.Create(r.Context(), domain.Mode(req.Mode), dims)
	if err != nil {
		h.fail(w, r, "Failed to open session", err)
		return
	}

	scene, err := sessionScene(sess, routing.Emphasis{}, "")
	if err != nil {
		h.fail(w, r, "Failed to render session", err)
		return
	}

	h.writeJSON(w, SessionResponse{
		ID:         sess.ID,
		Mode:       sess.Mode,
		Dimensions: sess.State.Dimensions(),
		Scene:      scene,
	}, http.StatusCreated)
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, "Failed to close session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSessionScene(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	emphasis := routing.Emphasis{Selected: q.Get("selected"), Hovered: q.Get("hovered")}
	frame := q.Get("frame")
	if frame != "" && frame != string(domain.FrameNormalized) && frame != string(domain.FramePixel) {
		h.writeError(w, "Invalid frame", "frame must be normalized or pixel", http.StatusBadRequest)
		return
	}

	scene, err := sessionScene(sess, emphasis, frame)
	if err != nil {
		h.fail(w, r, "Failed to render session", err)
		return
	}
	h.writeJSON(w, SessionResponse{
		ID:         sess.ID,
		Mode:       sess.Mode,
		Dimensions: sess.State.Dimensions(),
		Scene:      scene,
	}, http.StatusOK)
}

func (h *Handler) handleResize(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req ResizeRequest
	if err := decodeRequest(r, &req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	sess.Resize(domain.Dimensions{Width: req.Width, Height: req.Height})
	scene, err := sess.State.PixelScene(routing.Emphasis{})
	if err != nil {
		h.fail(w, r, "Failed to render session", err)
		return
	}
	h.writeJSON(w, SessionResponse{
		ID:         sess.ID,
		Mode:       sess.Mode,
		Dimensions: sess.State.Dimensions(),
		Scene:      scene,
	}, http.StatusOK)
}

func (h *Handler) handleDragStart(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req DragRequest
	if err := decodeRequest(r, &req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	if err := sess.State.DragStart(req.SiteID); err != nil {
		h.fail(w, r, "Failed to start drag", err)
		return
	}
	h.writeJSON(w, map[string]string{"site_id": req.SiteID, "status": "dragging"}, http.StatusOK)
}

func (h *Handler) handleDragMove(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req DragRequest
	if err := decodeRequest(r, &req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	px, err := sess.State.DragMove(req.SiteID, domain.Point2D{X: req.X, Y: req.Y})
	if err != nil {
		h.fail(w, r, "Failed to move site", err)
		return
	}
	h.writeJSON(w, map[string]any{"site_id": req.SiteID, "position": px}, http.StatusOK)
}

func (h *Handler) handleDragEnd(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req DragRequest
	if err := decodeRequest(r, &req); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	p, err := sess.State.DragEnd(r.Context(), req.SiteID, domain.Point2D{X: req.X, Y: req.Y})
	if err != nil {
		h.fail(w, r, "Failed to commit drag", err)
		return
	}
	h.writeJSON(w, map[string]any{"site_id": req.SiteID, "coordinates": p}, http.StatusOK)
}
