package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/vladimiradmaev/mediplus/internal/errors"
	"github.com/vladimiradmaev/mediplus/internal/interfaces"
	"github.com/vladimiradmaev/mediplus/internal/services"
	"github.com/vladimiradmaev/mediplus/internal/vitals"
)

type insightsHandler struct {
	svc interfaces.InsightServiceInterface
}

// month answers with the remote overview, or with the local headline when
// local=1 is given.
func (h *insightsHandler) month(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lookup := h.svc.MonthInsights
	if q.Get("local") == "1" {
		lookup = h.svc.LocalMonthInsights
	}
	res, err := lookup(r.Context(), q.Get("month"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *insightsHandler) vital(w http.ResponseWriter, r *http.Request) {
	kind, err := queryKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	day, err := queryInt(r, "day", 1)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	res, err := h.svc.VitalInsights(r.Context(), kind, q.Get("month"), vitals.ParseView(q.Get("view")), day)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

var insightSlots = map[string]string{
	"month": services.SlotMonthInsight,
	"vital": services.SlotVitalInsight,
}

func (h *insightsHandler) latest(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "slot")
	slot, ok := insightSlots[name]
	if !ok {
		writeError(w, r, apperrors.NewValidationError("slot must be month or vital"))
		return
	}
	res, ok := h.svc.Latest(slot)
	if !ok {
		writeError(w, r, apperrors.NewNotFoundError("insight", name))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
