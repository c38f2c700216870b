package api

import (
	"encoding/json"
	"net/http"
	"time"

	apperrors "github.com/vladimiradmaev/mediplus/internal/errors"
	"github.com/vladimiradmaev/mediplus/internal/domain"
	"github.com/vladimiradmaev/mediplus/internal/interfaces"
	"github.com/vladimiradmaev/mediplus/internal/vitals"
)

type vitalsHandler struct {
	svc interfaces.VitalsServiceInterface
}

type kindInfo struct {
	Kind   domain.VitalKind `json:"kind"`
	Slug   string           `json:"slug"`
	Unit   string           `json:"unit"`
	Paired bool             `json:"paired"`
}

func (h *vitalsHandler) kinds(w http.ResponseWriter, r *http.Request) {
	out := make([]kindInfo, 0, len(vitals.AllKinds()))
	for _, k := range vitals.AllKinds() {
		spec := vitals.MustLookup(k)
		out = append(out, kindInfo{Kind: k, Slug: spec.Slug, Unit: spec.Unit, Paired: spec.Paired()})
	}
	writeJSON(w, http.StatusOK, out)
}

func queryKind(r *http.Request) (domain.VitalKind, error) {
	raw := r.URL.Query().Get("kind")
	if raw == "" {
		return domain.KindBloodSugar, nil
	}
	k, err := vitals.ParseKind(raw)
	if err != nil {
		return "", apperrors.NewValidationError(err.Error())
	}
	return k, nil
}

func (h *vitalsHandler) samples(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("kind") == "" {
		all, err := h.svc.Samples(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, all)
		return
	}
	kind, err := queryKind(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	recent, err := h.svc.Recent(r.Context(), kind, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recent)
}

type checkInRequest struct {
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value"`
	TS    int64           `json:"ts,omitempty"`
}

// toSample converts a check-in body. Value is a number, or {sys, dia} for
// blood pressure.
func (req checkInRequest) toSample() (domain.Sample, error) {
	kind, err := vitals.ParseKind(req.Kind)
	if err != nil {
		return domain.Sample{}, apperrors.NewValidationError(err.Error())
	}
	if len(req.Value) == 0 {
		return domain.Sample{}, apperrors.NewValidationError("value is required")
	}
	var ts time.Time
	if req.TS > 0 {
		ts = time.UnixMilli(req.TS)
	}
	if kind == domain.KindBloodPressure {
		var bp domain.BloodPressure
		if err := json.Unmarshal(req.Value, &bp); err != nil || bp.Systolic <= 0 || bp.Diastolic <= 0 {
			return domain.Sample{}, apperrors.NewValidationError("blood pressure value must be {sys, dia}")
		}
		return domain.Sample{Timestamp: ts, Kind: kind, Pressure: &bp}, nil
	}
	var v float64
	if err := json.Unmarshal(req.Value, &v); err != nil {
		return domain.Sample{}, apperrors.NewValidationError(string(kind) + " value must be a number")
	}
	return domain.Sample{Timestamp: ts, Kind: kind, Value: v}, nil
}

func (h *vitalsHandler) checkIn(w http.ResponseWriter, r *http.Request) {
	var req checkInRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	sample, err := req.toSample()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.CheckIn(r.Context(), sample); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

func (h *vitalsHandler) seed(w http.ResponseWriter, r *http.Request) {
	seeded, err := h.svc.SeedIfEmpty(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"seeded": seeded})
}

func (h *vitalsHandler) months(w http.ResponseWriter, r *http.Request) {
	months, err := h.svc.Months(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, months)
}

type seriesResponse struct {
	Kind   domain.VitalKind `json:"kind"`
	View   domain.View      `json:"view"`
	Month  string           `json:"month,omitempty"`
	Day    int              `json:"day,omitempty"`
	Points []domain.Point   `json:"points"`
}

func (h *vitalsHandler) series(w http.ResponseWriter, r *http.Request) {
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
	view := vitals.ParseView(q.Get("view"))
	month := q.Get("month")

	points, err := h.svc.Series(r.Context(), kind, view, month, day)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := seriesResponse{Kind: kind, View: view, Month: month, Points: points}
	if view == domain.ViewDay {
		resp.Day = day
	}
	writeJSON(w, http.StatusOK, resp)
}
