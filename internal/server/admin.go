package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-formsuite/internal/log"
	"github.com/goliatone/go-formsuite/internal/memstore"
	"github.com/goliatone/go-formsuite/pkg/embed"
	"github.com/goliatone/go-formsuite/pkg/model"
	"github.com/goliatone/go-formsuite/pkg/orchestrator"
	"github.com/goliatone/go-formsuite/pkg/render"
	"github.com/goliatone/go-formsuite/pkg/submission"
	"github.com/goliatone/go-formsuite/pkg/validation"
)

// FormList is the body of GET /forms.
type FormList struct {
	Items []model.Form `json:"items"`
	Total int          `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
}

// EmbedCode is one generated snippet.
type EmbedCode struct {
	Type     model.DisplayStyle `json:"type"`
	FrameURL string             `json:"frameUrl"`
	Code     string             `json:"code"`
}

// PreviewResult is the body of POST /forms/{id}/preview/validate.
type PreviewResult struct {
	Valid  bool                `json:"valid"`
	Errors validation.ErrorMap `json:"errors,omitempty"`
}

// StatusPayload is the body of PUT /submissions/{id}/status.
type StatusPayload struct {
	Status      model.SubmissionStatus `json:"status"`
	ReviewNotes string                 `json:"reviewNotes,omitempty"`
}

func (s *Server) ListForms(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := memstore.FormFilter{
		Status:   model.FormStatus(query.Get("status")),
		Category: model.Category(query.Get("category")),
		Search:   query.Get("search"),
		Page:     intParam(query.Get("page"), 1),
		Limit:    intParam(query.Get("limit"), submission.DefaultLimit),
	}
	if filter.Limit > submission.MaxLimit {
		filter.Limit = submission.MaxLimit
	}
	forms, total, err := s.forms.ListForms(r.Context(), filter)
	if err != nil {
		respondError(w, r, "forms.list", err)
		return
	}
	respondJSON(w, r, http.StatusOK, FormList{Items: forms, Total: total, Page: filter.Page, Limit: filter.Limit})
}

func (s *Server) GetForm(w http.ResponseWriter, r *http.Request) {
	form, err := s.forms.GetForm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, "forms.get", err)
		return
	}
	respondJSON(w, r, http.StatusOK, form)
}

// CreateForm validates and stores a new form. Any id in the body is ignored.
func (s *Server) CreateForm(w http.ResponseWriter, r *http.Request) {
	var form model.Form
	if !decodeJSON(w, r, &form) {
		return
	}
	form.ID = ""
	saved, err := s.saveForm(r, form)
	if err != nil {
		respondError(w, r, "forms.create", err)
		return
	}
	respondJSON(w, r, http.StatusCreated, saved)
}

// UpdateForm replaces an existing form.
func (s *Server) UpdateForm(w http.ResponseWriter, r *http.Request) {
	var form model.Form
	if !decodeJSON(w, r, &form) {
		return
	}
	id := chi.URLParam(r, "id")
	existing, err := s.forms.GetForm(r.Context(), id)
	if err != nil {
		respondError(w, r, "forms.update", err)
		return
	}
	form.ID = id
	if form.CreatedAt == nil {
		form.CreatedAt = existing.CreatedAt
	}
	saved, err := s.saveForm(r, form)
	if err != nil {
		respondError(w, r, "forms.update", err)
		return
	}
	respondJSON(w, r, http.StatusOK, saved)
}

func (s *Server) saveForm(r *http.Request, form model.Form) (model.Form, error) {
	if errs := validation.ValidateForm(form); !errs.Empty() {
		return model.Form{}, &validation.SchemaValidationError{Errors: errs}
	}
	saved, err := s.forms.SaveForm(r.Context(), form)
	if err != nil {
		return model.Form{}, err
	}
	s.invalidate(r.Context(), saved.ID)
	log.WithFields(log.Fields{"form": saved.ID, "status": saved.Status}).Infof("form saved")
	return saved, nil
}

func (s *Server) DeleteForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.forms.DeleteForm(r.Context(), id); err != nil {
		respondError(w, r, "forms.delete", err)
		return
	}
	s.invalidate(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

// EmbedCode returns the snippet for `type`, or every strategy when type is
// omitted. `style` picks the widget style.
func (s *Server) EmbedCode(w http.ResponseWriter, r *http.Request) {
	form, err := s.forms.GetForm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, "forms.embed", err)
		return
	}
	gen := s.generator()
	if gen.BaseURL == "" {
		gen.BaseURL = requestBase(r)
	}
	style := r.URL.Query().Get("style")

	types := embed.EmbedTypes()
	if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
		types = []model.DisplayStyle{model.DisplayStyle(raw)}
	}
	codes := make([]EmbedCode, 0, len(types))
	for _, typ := range types {
		frame, err := gen.FrameURL(form.ID, typ, style, form.EmbedSettings)
		if err != nil {
			respondStatus(w, r, http.StatusBadRequest, submission.CodeInvalidRequest, err.Error())
			return
		}
		code, err := gen.Generate(form.ID, typ, style, form.EmbedSettings)
		if err != nil {
			respondStatus(w, r, http.StatusBadRequest, submission.CodeInvalidRequest, err.Error())
			return
		}
		if s.metrics != nil {
			s.metrics.ObserveEmbed(string(typ))
		}
		codes = append(codes, EmbedCode{Type: typ, FrameURL: frame, Code: code})
	}
	respondJSON(w, r, http.StatusOK, codes)
}

// PreviewForm renders the live preview at `viewport`.
func (s *Server) PreviewForm(w http.ResponseWriter, r *http.Request) {
	form, err := s.forms.GetForm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, "forms.preview", err)
		return
	}
	start := time.Now()
	body, err := s.orchestrator.Generate(r.Context(), orchestrator.Request{
		Form:    &form,
		Surface: render.SurfacePreview,
		RenderOptions: render.RenderOptions{
			Viewport:    render.ParseViewport(r.URL.Query().Get("viewport")),
			ValidateURL: APIPrefix + "/forms/" + url.PathEscape(form.ID) + "/preview/validate",
		},
	})
	s.observeRender(render.SurfacePreview, start, err)
	writeHTML(w, r, "forms.preview", body, err)
}

// ValidatePreview checks sample answers typed into the preview against the
// form. Nothing is stored.
func (s *Server) ValidatePreview(w http.ResponseWriter, r *http.Request) {
	var payload SubmitPayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	form, err := s.forms.GetForm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, "forms.preview_validate", err)
		return
	}
	errs := s.manager.Validator().ValidateSubmission(form, payload.values())
	respondJSON(w, r, http.StatusOK, PreviewResult{Valid: errs.Empty(), Errors: errs})
}

// CanvasForm renders the builder canvas with `selected` highlighted.
func (s *Server) CanvasForm(w http.ResponseWriter, r *http.Request) {
	form, err := s.forms.GetForm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, "forms.canvas", err)
		return
	}
	start := time.Now()
	body, err := s.orchestrator.Canvas(r.Context(), form, r.URL.Query().Get("selected"))
	s.observeRender(render.SurfaceCanvas, start, err)
	writeHTML(w, r, "forms.canvas", body, err)
}

func (s *Server) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	query, err := submission.ParseListQuery(r.URL.Query())
	if err != nil {
		respondError(w, r, "submissions.list", err)
		return
	}
	page, err := s.manager.List(r.Context(), chi.URLParam(r, "id"), query)
	if err != nil {
		respondError(w, r, "submissions.list", err)
		return
	}
	respondJSON(w, r, http.StatusOK, page)
}

// ExportSubmissions streams the filtered submissions as CSV.
func (s *Server) ExportSubmissions(w http.ResponseWriter, r *http.Request) {
	form, err := s.forms.GetForm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, "submissions.export", err)
		return
	}
	query, err := submission.ParseListQuery(r.URL.Query())
	if err != nil {
		respondError(w, r, "submissions.export", err)
		return
	}
	if _, err := query.Normalize(); err != nil {
		respondError(w, r, "submissions.export", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", form.ID+"-submissions.csv"))
	if err := s.manager.Export(r.Context(), form, query, w); err != nil {
		// Headers are gone once rows were written.
		log.WithError(err).Errorf("submissions.export %s", form.ID)
	}
}

func (s *Server) SubmissionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.manager.Stats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, "submissions.stats", err)
		return
	}
	respondJSON(w, r, http.StatusOK, stats)
}

func (s *Server) GetSubmission(w http.ResponseWriter, r *http.Request) {
	sub, err := s.manager.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, "submissions.get", err)
		return
	}
	respondJSON(w, r, http.StatusOK, sub)
}

func (s *Server) UpdateSubmissionStatus(w http.ResponseWriter, r *http.Request) {
	var payload StatusPayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	sub, err := s.manager.UpdateStatus(r.Context(), chi.URLParam(r, "id"), payload.Status, payload.ReviewNotes)
	if err != nil {
		respondError(w, r, "submissions.status", err)
		return
	}
	respondJSON(w, r, http.StatusOK, sub)
}

func (s *Server) DeleteSubmission(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, "submissions.delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BulkAction applies one action to many submissions. Per-id failures are
// reported in the outcome with a 200.
func (s *Server) BulkAction(w http.ResponseWriter, r *http.Request) {
	var req submission.BulkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	outcome, err := s.manager.BulkAction(r.Context(), req)
	if err != nil {
		respondError(w, r, "submissions.bulk", err)
		return
	}
	respondJSON(w, r, http.StatusOK, outcome)
}

func intParam(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func requestBase(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded == "http" || forwarded == "https" {
		scheme = forwarded
	}
	return scheme + "://" + r.Host
}
