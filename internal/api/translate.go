package api

import (
	"net/http"

	"github.com/vladimiradmaev/mediplus/internal/interfaces"
	"github.com/vladimiradmaev/mediplus/internal/services"
)

type translateHandler struct {
	svc interfaces.TranslationServiceInterface
}

func (h *translateHandler) languages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, services.Languages)
}

type translateRequest struct {
	Target string   `json:"target"`
	Items  []string `json:"items"`
}

func (h *translateHandler) translate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.svc.Translate(r.Context(), req.Target, req.Items)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"items": out})
}
