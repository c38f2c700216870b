package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vladimiradmaev/mediplus/internal/domain"
	"github.com/vladimiradmaev/mediplus/internal/interfaces"
)

type questionsHandler struct {
	svc interfaces.ChecklistServiceInterface
}

// specialty reads the target list; empty means the active specialty.
func specialty(r *http.Request) string {
	return r.URL.Query().Get("specialty")
}

func (h *questionsHandler) respondState(w http.ResponseWriter, r *http.Request, st domain.QuestionState, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *questionsHandler) state(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.State(r.Context())
	h.respondState(w, r, st, err)
}

type generateRequest struct {
	Specialty string `json:"specialty,omitempty"`
}

type addedResponse struct {
	Added int `json:"added"`
}

// generate fills one specialty when named, otherwise every specialty.
func (h *questionsHandler) generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}
	var (
		n   int
		err error
	)
	if req.Specialty != "" {
		n, err = h.svc.GenerateForSpecialty(r.Context(), req.Specialty)
	} else {
		n, err = h.svc.GenerateAll(r.Context())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, addedResponse{Added: n})
}

type specialtyRequest struct {
	Name     string `json:"name"`
	Generate bool   `json:"generate,omitempty"`
}

func (h *questionsHandler) addSpecialty(w http.ResponseWriter, r *http.Request) {
	var req specialtyRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	st, err := h.svc.AddSpecialty(r.Context(), req.Name)
	if err != nil || !req.Generate || st.Active == "" {
		h.respondState(w, r, st, err)
		return
	}
	if _, err := h.svc.GenerateForSpecialty(r.Context(), st.Active); err != nil {
		writeError(w, r, err)
		return
	}
	st, err = h.svc.State(r.Context())
	h.respondState(w, r, st, err)
}

type renameRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (h *questionsHandler) renameSpecialty(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	st, err := h.svc.RenameSpecialty(r.Context(), req.From, req.To)
	h.respondState(w, r, st, err)
}

func (h *questionsHandler) deleteSpecialty(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.DeleteSpecialty(r.Context(), r.URL.Query().Get("name"))
	h.respondState(w, r, st, err)
}

func (h *questionsHandler) selectSpecialty(w http.ResponseWriter, r *http.Request) {
	var req specialtyRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	st, err := h.svc.SelectSpecialty(r.Context(), req.Name)
	h.respondState(w, r, st, err)
}

type questionRequest struct {
	Text   string                `json:"text"`
	Source domain.QuestionSource `json:"source,omitempty"`
}

func (h *questionsHandler) addQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	q, err := h.svc.AddQuestion(r.Context(), specialty(r), req.Text, req.Source)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

type insertRequest struct {
	Texts  []string              `json:"texts"`
	Source domain.QuestionSource `json:"source,omitempty"`
}

func (h *questionsHandler) insertMany(w http.ResponseWriter, r *http.Request) {
	var req insertRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	n, err := h.svc.InsertMany(r.Context(), specialty(r), req.Texts, req.Source)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, addedResponse{Added: n})
}

type reorderRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (h *questionsHandler) reorder(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	list, err := h.svc.ReorderQuestion(r.Context(), specialty(r), req.From, req.To)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *questionsHandler) editQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	q, err := h.svc.EditQuestion(r.Context(), specialty(r), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *questionsHandler) toggleQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := h.svc.ToggleQuestion(r.Context(), specialty(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *questionsHandler) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteQuestion(r.Context(), specialty(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
