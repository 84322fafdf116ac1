package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formsuite/internal/cache"
	"github.com/goliatone/go-formsuite/internal/config"
	"github.com/goliatone/go-formsuite/internal/log"
	"github.com/goliatone/go-formsuite/internal/memstore"
	"github.com/goliatone/go-formsuite/internal/metrics"
	"github.com/goliatone/go-formsuite/internal/server"
	"github.com/goliatone/go-formsuite/pkg/client"
	"github.com/goliatone/go-formsuite/pkg/formfile"
	"github.com/goliatone/go-formsuite/pkg/model"
	"github.com/goliatone/go-formsuite/pkg/orchestrator"
	"github.com/goliatone/go-formsuite/pkg/submission"
	themes "github.com/goliatone/go-formsuite/pkg/theme"
	"github.com/goliatone/go-formsuite/pkg/validation"
)

func serveCmd(a *app) *cobra.Command {
	var (
		addr    string
		baseURL string
		seedDir string
		store   string
		cacheBE string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			flags := cmd.Flags()
			if flags.Changed("addr") {
				cfg.Server.Addr = addr
			}
			if flags.Changed("base-url") {
				cfg.Server.BaseURL = baseURL
			}
			if flags.Changed("seed-dir") {
				cfg.Server.SeedDir = seedDir
			}
			if flags.Changed("store") {
				cfg.Store.Backend = store
			}
			if flags.Changed("cache") {
				cfg.Cache.Backend = cacheBE
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&addr, "addr", "", "Listen address (host:port)")
	flags.StringVar(&baseURL, "base-url", "", "Public origin used in embed snippets and upload URLs")
	flags.StringVar(&seedDir, "seed-dir", "", "Directory of form files loaded into the memory store")
	flags.StringVar(&store, "store", "", "Store backend (memory, rest)")
	flags.StringVar(&cacheBE, "cache", "", "Form cache backend (none, memory, redis)")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	uploads := memstore.New()

	var (
		forms server.FormStore
		store submission.Store
	)
	switch cfg.Store.Backend {
	case "rest":
		c, err := client.New(cfg.Store.APIURL, client.WithToken(cfg.Store.APIToken), client.WithUserAgent(appName+"/"+Version))
		if err != nil {
			return err
		}
		forms, store = restForms{client: c}, c
		log.Infof("forms and submissions proxied to %s", c.BaseURL())
	default:
		mem := uploads
		if cfg.Server.SeedDir != "" {
			if err := seed(ctx, mem, cfg.Server.SeedDir); err != nil {
				return err
			}
		}
		forms, store = mem, mem
	}

	var formCache *cache.Forms
	switch cfg.Cache.Backend {
	case "memory":
		formCache = cache.NewForms(forms, cache.NewMemory(nil), cfg.Cache.TTL)
	case "redis":
		backend, err := cache.Dial(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		if err != nil {
			return err
		}
		defer backend.Close()
		formCache = cache.NewForms(forms, backend, cfg.Cache.TTL)
		log.Infof("form cache on redis %s", cfg.Cache.RedisAddr)
	}

	catalog, err := themes.New(themes.WithDefaultTheme(cfg.Theme.Default))
	if err != nil {
		return err
	}
	var source orchestrator.FormSource = forms
	if formCache != nil {
		source = formCache
	}
	orch := orchestrator.New(
		orchestrator.WithFormSource(source),
		orchestrator.WithThemeCatalog(catalog),
		orchestrator.WithEndpoints(server.APIPrefix+"/public/forms", server.APIPrefix+"/uploads"),
	)

	managerOpts := []submission.Option{
		submission.WithFormGetter(forms),
		submission.WithNotifier(logNotifier{}),
	}
	opts := []server.Option{
		server.WithOrchestrator(orch),
		server.WithUploads(uploads, cfg.Uploads.MaxBytes),
		server.WithAdminToken(cfg.Server.AdminToken),
		server.WithBaseURL(cfg.Server.BaseURL),
		server.WithThemeVariant(cfg.Theme.Variant),
	}
	if formCache != nil {
		opts = append(opts, server.WithCache(formCache))
	}
	if cfg.Metrics.Enabled {
		m := metrics.New()
		managerOpts = append(managerOpts, submission.WithObserver(m))
		opts = append(opts, server.WithMetrics(m, cfg.Metrics.Path))
	}

	manager, err := submission.NewManager(store, managerOpts...)
	if err != nil {
		return err
	}
	srv, err := server.New(forms, manager, opts...)
	if err != nil {
		return err
	}
	if cfg.Server.AdminToken == "" {
		log.Warnf("admin API is open: set server.adminToken or FORMSUITE_ADMIN_TOKEN")
	}
	return srv.Run(ctx, cfg.Server.Addr, server.Timeouts{
		Read:     cfg.Server.ReadTimeout,
		Write:    cfg.Server.WriteTimeout,
		Shutdown: cfg.Server.ShutdownTimeout,
	})
}

// seed loads every form file under dir. Invalid definitions abort the start.
func seed(ctx context.Context, store *memstore.Store, dir string) error {
	defs, err := formfile.LoadDir(dir)
	if err != nil {
		return err
	}
	for _, form := range defs {
		if errs := validation.ValidateForm(form); !errs.Empty() {
			return fmt.Errorf("seed %s: %w", form.ID, &validation.SchemaValidationError{Errors: errs})
		}
		if _, err := store.SaveForm(ctx, form); err != nil {
			return fmt.Errorf("seed %s: %w", form.ID, err)
		}
	}
	log.WithFields(log.Fields{"dir": dir, "forms": len(defs)}).Info("seeded forms")
	return nil
}

// restForms adapts the REST client to the server's form store.
type restForms struct {
	client *client.Client
}

func (r restForms) GetForm(ctx context.Context, id string) (model.Form, error) {
	return r.client.GetForm(ctx, id)
}

func (r restForms) SaveForm(ctx context.Context, form model.Form) (model.Form, error) {
	return r.client.SaveForm(ctx, form)
}

func (r restForms) DeleteForm(ctx context.Context, id string) error {
	return r.client.DeleteForm(ctx, id)
}

func (r restForms) ListForms(ctx context.Context, filter memstore.FormFilter) ([]model.Form, int, error) {
	list, err := r.client.ListForms(ctx, client.FormQuery{
		Status:   filter.Status,
		Category: filter.Category,
		Search:   filter.Search,
		Page:     filter.Page,
		Limit:    filter.Limit,
	})
	if err != nil {
		return nil, 0, err
	}
	return list.Items, list.Total, nil
}

// logNotifier reports submissions of forms with email notification enabled.
// Delivery is left to whatever ships the process logs.
type logNotifier struct{}

func (logNotifier) SubmissionCreated(_ context.Context, form model.Form, sub model.Submission) error {
	log.WithFields(log.Fields{
		"form":       form.ID,
		"submission": sub.ID,
		"recipients": form.Settings.EmailNotification.Recipients,
		"subject":    form.Settings.EmailNotification.Subject,
	}).Info("new submission")
	return nil
}
