package server

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-formsuite/internal/log"
	"github.com/goliatone/go-formsuite/pkg/client"
	"github.com/goliatone/go-formsuite/pkg/embed"
	"github.com/goliatone/go-formsuite/pkg/model"
	"github.com/goliatone/go-formsuite/pkg/orchestrator"
	"github.com/goliatone/go-formsuite/pkg/render"
	"github.com/goliatone/go-formsuite/pkg/submission"
)

// UserHeader carries the authenticated user id set by an upstream auth
// layer. The login gate and per-user duplicate check read it.
const UserHeader = client.UserHeader

// SubmitPayload is the public submit body. Answers arrive under `data`;
// `formData` is accepted from clients that use the older name.
type SubmitPayload struct {
	Data          map[string]any       `json:"data"`
	FormData      map[string]any       `json:"formData,omitempty"`
	SubmitterInfo *model.SubmitterInfo `json:"submitterInfo,omitempty"`
	CaptchaToken  string               `json:"captchaToken,omitempty"`
}

func (p SubmitPayload) values() map[string]any {
	switch {
	case p.Data != nil:
		return p.Data
	case p.FormData != nil:
		return p.FormData
	default:
		return map[string]any{}
	}
}

// GetPublicForm serves an active form's definition without its staff-only
// settings. Drafts and archived forms are reported as missing.
func (s *Server) GetPublicForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	form, err := s.publicForm(r.Context(), id)
	if err != nil {
		respondError(w, r, "public.get_form", err)
		return
	}
	if form.Status != model.FormStatusActive {
		respondError(w, r, "public.get_form", fmt.Errorf("%w: %q is %s", model.ErrFormNotFound, id, form.Status))
		return
	}
	respondJSON(w, r, http.StatusOK, form.PublicView())
}

// SubmitForm runs a respondent's answers through the submission manager.
func (s *Server) SubmitForm(w http.ResponseWriter, r *http.Request) {
	var payload SubmitPayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	form, err := s.publicForm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, "public.submit", err)
		return
	}
	sub, err := s.manager.Submit(r.Context(), form, submission.SubmitRequest{
		Data:         payload.values(),
		UserID:       strings.TrimSpace(r.Header.Get(UserHeader)),
		Submitter:    payload.SubmitterInfo,
		IPAddress:    remoteIP(r),
		UserAgent:    r.UserAgent(),
		CaptchaToken: payload.CaptchaToken,
	})
	if err != nil && !errors.Is(err, submission.ErrNotification) {
		respondError(w, r, "public.submit", err)
		return
	}
	if err != nil {
		log.WithError(err).Warnf("submission %s stored without notification", sub.ID)
	}
	respondJSON(w, r, http.StatusCreated, sub)
}

// PublicPage renders the standalone page. `theme` and `variant` query
// parameters override the form styling.
func (s *Server) PublicPage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	query := r.URL.Query()
	body, err := s.orchestrator.Generate(r.Context(), orchestrator.Request{
		FormID:       chi.URLParam(r, "id"),
		Surface:      render.SurfacePublic,
		ThemeName:    query.Get("theme"),
		ThemeVariant: firstNonEmpty(query.Get("variant"), s.variant),
	})
	s.observeRender(render.SurfacePublic, start, err)
	writeHTML(w, r, "public.page", body, err)
}

// WidgetPage renders the iframe document embed snippets point at. The
// parent origin comes from the `origin` query parameter or the Referer.
func (s *Server) WidgetPage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	query := r.URL.Query()
	params := render.EmbedParams{
		Style:           firstNonEmpty(query.Get("style"), embed.DefaultStyle),
		ShowTitle:       boolParam(query.Get("showTitle"), true),
		ShowDescription: boolParam(query.Get("showDescription"), true),
		Popup:           boolParam(query.Get("popup"), false),
		Sidebar:         boolParam(query.Get("sidebar"), false),
	}
	body, err := s.orchestrator.Generate(r.Context(), orchestrator.Request{
		FormID:       chi.URLParam(r, "id"),
		Surface:      render.SurfaceWidget,
		ThemeName:    query.Get("theme"),
		ThemeVariant: firstNonEmpty(query.Get("variant"), s.variant),
		RenderOptions: render.RenderOptions{
			Embed:        params,
			ParentOrigin: parentOrigin(r),
		},
	})
	s.observeRender(render.SurfaceWidget, start, err)
	writeHTML(w, r, "public.widget", body, err)
}

// Upload stores one multipart "file" part and answers with its URL.
func (s *Server) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+(1<<20))
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondStatus(w, r, http.StatusRequestEntityTooLarge, "upload_too_large", "file is too large")
			return
		}
		respondStatus(w, r, http.StatusBadRequest, submission.CodeInvalidRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	up, err := s.uploads.SaveUpload(r.Context(), header.Filename, header.Header.Get("Content-Type"), file, s.maxUploadBytes)
	if err != nil {
		respondError(w, r, "upload.save", err)
		return
	}
	respondJSON(w, r, http.StatusCreated, model.FileReference{
		URL:         s.absolute(APIPrefix + "/uploads/" + up.ID),
		Name:        up.Name,
		Size:        up.Size,
		ContentType: up.ContentType,
	})
}

// GetUpload streams a stored file back.
func (s *Server) GetUpload(w http.ResponseWriter, r *http.Request) {
	up, err := s.uploads.GetUpload(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, "upload.get", err)
		return
	}
	contentType := up.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(up.Size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", up.Name))
	_, _ = w.Write(up.Data)
}

func (s *Server) observeRender(surface render.Surface, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.ObserveRender(string(surface), time.Since(start), err)
	}
}

func parentOrigin(r *http.Request) string {
	for _, candidate := range []string{r.URL.Query().Get("origin"), r.Referer()} {
		if candidate == "" {
			continue
		}
		if origin, err := embed.OriginOf(candidate); err == nil {
			return origin
		}
	}
	return ""
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func boolParam(raw string, fallback bool) bool {
	if v, err := strconv.ParseBool(strings.TrimSpace(raw)); err == nil {
		return v
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
