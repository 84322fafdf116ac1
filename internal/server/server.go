// Package server exposes forms, submissions and their rendered surfaces over
// HTTP. The JSON API lives under /api and mirrors the collaborator contract
// pkg/client speaks; rendered pages and assets live at the root.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/goliatone/go-formsuite/internal/log"
	"github.com/goliatone/go-formsuite/internal/memstore"
	"github.com/goliatone/go-formsuite/internal/metrics"
	"github.com/goliatone/go-formsuite/pkg/embed"
	"github.com/goliatone/go-formsuite/pkg/model"
	"github.com/goliatone/go-formsuite/pkg/orchestrator"
	"github.com/goliatone/go-formsuite/pkg/renderers/vanilla"
	"github.com/goliatone/go-formsuite/pkg/submission"
)

const (
	// APIPrefix is where the JSON API is mounted.
	APIPrefix = "/api"

	defaultMaxUploadBytes = 10 << 20
)

// FormStore persists form definitions.
type FormStore interface {
	GetForm(ctx context.Context, id string) (model.Form, error)
	SaveForm(ctx context.Context, form model.Form) (model.Form, error)
	DeleteForm(ctx context.Context, id string) error
	ListForms(ctx context.Context, filter memstore.FormFilter) ([]model.Form, int, error)
}

// UploadStore keeps files posted by respondents.
type UploadStore interface {
	SaveUpload(ctx context.Context, name, contentType string, r io.Reader, maxBytes int64) (memstore.Upload, error)
	GetUpload(ctx context.Context, id string) (memstore.Upload, error)
}

// FormCache fronts public form lookups.
type FormCache interface {
	GetForm(ctx context.Context, id string) (model.Form, error)
	Invalidate(ctx context.Context, ids ...string) error
}

// Option customises a Server.
type Option func(*Server)

// WithOrchestrator replaces the default orchestrator.
func WithOrchestrator(o *orchestrator.Orchestrator) Option {
	return func(s *Server) {
		s.orchestrator = o
	}
}

// WithUploads enables the upload endpoints.
func WithUploads(store UploadStore, maxBytes int64) Option {
	return func(s *Server) {
		s.uploads = store
		if maxBytes > 0 {
			s.maxUploadBytes = maxBytes
		}
	}
}

// WithCache routes public lookups through cache. Admin writes invalidate it.
func WithCache(cache FormCache) Option {
	return func(s *Server) {
		s.cache = cache
	}
}

// WithMetrics records request, render and embed metrics. path mounts the
// exposition handler when not empty.
func WithMetrics(m *metrics.Metrics, path string) Option {
	return func(s *Server) {
		s.metrics = m
		s.metricsPath = path
	}
}

// WithAdminToken requires `Authorization: Bearer <token>` on admin routes.
func WithAdminToken(token string) Option {
	return func(s *Server) {
		s.adminToken = strings.TrimSpace(token)
	}
}

// WithBaseURL sets the public origin used in upload URLs and embed snippets.
func WithBaseURL(base string) Option {
	return func(s *Server) {
		s.baseURL = strings.TrimRight(strings.TrimSpace(base), "/")
	}
}

// WithThemeVariant sets the theme variant used when a request names none.
func WithThemeVariant(variant string) Option {
	return func(s *Server) {
		s.variant = strings.TrimSpace(variant)
	}
}

// Server wires stores, the submission manager and the orchestrator into
// HTTP handlers.
type Server struct {
	forms          FormStore
	manager        *submission.Manager
	orchestrator   *orchestrator.Orchestrator
	uploads        UploadStore
	cache          FormCache
	metrics        *metrics.Metrics
	metricsPath    string
	adminToken     string
	baseURL        string
	variant        string
	maxUploadBytes int64
}

// New builds a Server. The orchestrator defaults to one reading forms through
// the cache (when set) and posting to this server's API.
func New(forms FormStore, manager *submission.Manager, opts ...Option) (*Server, error) {
	if forms == nil {
		return nil, errors.New("server: form store is required")
	}
	if manager == nil {
		return nil, errors.New("server: submission manager is required")
	}
	s := &Server{forms: forms, manager: manager, maxUploadBytes: defaultMaxUploadBytes}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.orchestrator == nil {
		s.orchestrator = orchestrator.New(
			orchestrator.WithFormSource(orchestrator.FormSourceFunc(s.publicForm)),
			orchestrator.WithEndpoints(APIPrefix+"/public/forms", APIPrefix+"/uploads"),
			orchestrator.WithValidator(manager.Validator()),
		)
	}
	return s, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.RealIP, middleware.RequestID, requestLogger, middleware.Recoverer)
	if s.metrics != nil {
		root.Use(s.observeRequests)
	}

	root.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	root.Mount(APIPrefix, s.apiRouter())

	root.Get("/f/{id}", s.PublicPage)
	root.Get("/embed/{id}", s.WidgetPage)

	root.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.FS(vanilla.AssetsFS()))))
	if s.metrics != nil && s.metricsPath != "" {
		root.Handle(s.metricsPath, s.metrics.Handler())
	}
	return root
}

func (s *Server) apiRouter() http.Handler {
	api := chi.NewRouter()

	api.Get("/public/forms/{id}", s.GetPublicForm)
	api.Post("/public/forms/{id}/submit", s.SubmitForm)
	if s.uploads != nil {
		api.Post("/uploads", s.Upload)
		api.Get("/uploads/{id}", s.GetUpload)
	}

	api.Group(func(r chi.Router) {
		r.Use(s.requireAdmin)

		r.Get("/forms", s.ListForms)
		r.Post("/forms", s.CreateForm)
		r.Get("/forms/{id}", s.GetForm)
		r.Put("/forms/{id}", s.UpdateForm)
		r.Delete("/forms/{id}", s.DeleteForm)
		r.Get("/forms/{id}/embed", s.EmbedCode)
		r.Get("/forms/{id}/preview", s.PreviewForm)
		r.Post("/forms/{id}/preview/validate", s.ValidatePreview)
		r.Get("/forms/{id}/canvas", s.CanvasForm)

		r.Get("/forms/{id}/submissions", s.ListSubmissions)
		r.Get("/forms/{id}/submissions/export", s.ExportSubmissions)
		r.Get("/forms/{id}/submissions/stats", s.SubmissionStats)

		r.Post("/submissions/bulk-action", s.BulkAction)
		r.Get("/submissions/{id}", s.GetSubmission)
		r.Put("/submissions/{id}/status", s.UpdateSubmissionStatus)
		r.Delete("/submissions/{id}", s.DeleteSubmission)
	})
	return api
}

// Timeouts bound the http.Server built by Run.
type Timeouts struct {
	Read     time.Duration
	Write    time.Duration
	Shutdown time.Duration
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string, timeouts Timeouts) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadTimeout:       timeouts.Read,
		ReadHeaderTimeout: timeouts.Read,
		WriteTimeout:      timeouts.Write,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: listen: %w", err)
	case <-ctx.Done():
	}

	shutdown := timeouts.Shutdown
	if shutdown <= 0 {
		shutdown = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdown)
	defer cancel()
	log.Infof("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

// publicForm reads through the cache when one is configured.
func (s *Server) publicForm(ctx context.Context, id string) (model.Form, error) {
	if s.cache != nil {
		return s.cache.GetForm(ctx, id)
	}
	return s.forms.GetForm(ctx, id)
}

func (s *Server) invalidate(ctx context.Context, id string) {
	if s.cache == nil || id == "" {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		log.WithError(err).Warnf("invalidate cached form %s", id)
	}
}

func (s *Server) absolute(path string) string {
	return s.baseURL + path
}

func (s *Server) generator() embed.Generator {
	return embed.Generator{BaseURL: s.baseURL}
}
