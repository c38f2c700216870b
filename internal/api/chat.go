package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/vladimiradmaev/mediplus/internal/errors"
	"github.com/vladimiradmaev/mediplus/internal/interfaces"
	"github.com/vladimiradmaev/mediplus/internal/services"
)

type chatHandler struct {
	svc interfaces.ChatServiceInterface
}

func (h *chatHandler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListSessions(r.Context(), chi.URLParam(r, "feature"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *chatHandler) create(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.CreateSession(r.Context(), chi.URLParam(r, "feature"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (h *chatHandler) get(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.GetSession(r.Context(), chi.URLParam(r, "feature"), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *chatHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteSession(r.Context(), chi.URLParam(r, "feature"), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sendRequest struct {
	Text string `json:"text"`
	Hint string `json:"hint,omitempty"`
}

func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	reply, err := h.svc.SendContext(r.Context(), chi.URLParam(r, "feature"), chi.URLParam(r, "id"), req.Text, req.Hint)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

type bulletsRequest struct {
	Text string `json:"text"`
}

// bullets splits a reply into lines that can be inserted as questions.
func (h *chatHandler) bullets(w http.ResponseWriter, r *http.Request) {
	var req bulletsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Text == "" {
		writeError(w, r, apperrors.NewValidationError("text is required"))
		return
	}
	lines := services.ExtractBullets(req.Text)
	if lines == nil {
		lines = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"bullets": lines})
}
