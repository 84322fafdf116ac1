package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formsuite/internal/log"
	"github.com/goliatone/go-formsuite/pkg/client"
	"github.com/goliatone/go-formsuite/pkg/embed"
	"github.com/goliatone/go-formsuite/pkg/formfile"
	"github.com/goliatone/go-formsuite/pkg/model"
	"github.com/goliatone/go-formsuite/pkg/orchestrator"
	"github.com/goliatone/go-formsuite/pkg/render"
	"github.com/goliatone/go-formsuite/pkg/renderers/tui"
	themes "github.com/goliatone/go-formsuite/pkg/theme"
	"github.com/goliatone/go-formsuite/pkg/validation"
)

var errInvalidDefinitions = errors.New("invalid form definitions")

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check form definition files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				form, err := formfile.ReadFile(path)
				if err != nil {
					fmt.Fprintf(out, "%s: %v\n", path, err)
					failed++
					continue
				}
				errs := validation.ValidateForm(form)
				if errs.Empty() {
					fmt.Fprintf(out, "%s: ok (%d fields)\n", path, len(form.Fields))
					continue
				}
				failed++
				for _, key := range errs.Keys() {
					for _, msg := range errs[key] {
						fmt.Fprintf(out, "%s: %s: %s\n", path, key, msg)
					}
				}
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d of %d", errInvalidDefinitions, failed, len(args))
			}
			return nil
		},
	}
}

func renderCmd(a *app) *cobra.Command {
	var (
		surface  string
		viewport string
		themeArg string
		variant  string
		selected string
		output   string
	)
	cmd := &cobra.Command{
		Use:   "render FILE",
		Short: "Render a form definition to HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := loadDefinition(args[0])
			if err != nil {
				return err
			}
			catalog, err := themes.New(themes.WithDefaultTheme(a.cfg.Theme.Default))
			if err != nil {
				return err
			}
			if variant == "" {
				variant = a.cfg.Theme.Variant
			}
			orch := orchestrator.New(orchestrator.WithThemeCatalog(catalog))
			html, err := orch.Generate(cmd.Context(), orchestrator.Request{
				Form:         &form,
				Surface:      render.Surface(surface),
				ThemeName:    themeArg,
				ThemeVariant: variant,
				RenderOptions: render.RenderOptions{
					Viewport:      render.ParseViewport(viewport),
					SelectedField: selected,
				},
			})
			if err != nil {
				return err
			}
			return writeOutput(cmd, output, html)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&surface, "surface", string(render.SurfacePreview), "Surface (canvas, preview, public, widget)")
	flags.StringVar(&viewport, "viewport", string(render.ViewportDesktop), "Preview viewport (mobile, tablet, desktop)")
	flags.StringVar(&themeArg, "theme", "", "Theme overriding the form styling")
	flags.StringVar(&variant, "variant", "", "Theme variant")
	flags.StringVar(&selected, "selected", "", "Field highlighted on the canvas")
	flags.StringVarP(&output, "output", "o", "", "Output file (stdout if empty)")
	return cmd
}

func embedCmd(a *app) *cobra.Command {
	var (
		kind    string
		style   string
		baseURL string
	)
	cmd := &cobra.Command{
		Use:   "embed FILE",
		Short: "Print the embed snippets of a form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := loadDefinition(args[0])
			if err != nil {
				return err
			}
			if baseURL == "" {
				baseURL = a.cfg.Server.BaseURL
			}
			gen := embed.Generator{BaseURL: baseURL}
			kinds := embed.EmbedTypes()
			if kind != "all" {
				kinds = []model.DisplayStyle{model.DisplayStyle(kind)}
			}
			out := cmd.OutOrStdout()
			for _, k := range kinds {
				snippet, err := gen.Generate(form.ID, k, style, form.EmbedSettings)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, snippet)
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&kind, "type", "all", "Embed type (inline, popup, sidebar, all)")
	flags.StringVar(&style, "style", embed.DefaultStyle, "Widget style")
	flags.StringVar(&baseURL, "base-url", "", "Origin serving the widget (defaults to server.baseUrl)")
	return cmd
}

func fillCmd(a *app) *cobra.Command {
	var (
		apiURL string
		formID string
		submit bool
		name   string
		email  string
	)
	cmd := &cobra.Command{
		Use:   "fill [FILE]",
		Short: "Fill a form in the terminal",
		Long: `Fill a local definition, or a published form fetched with --id.

With --submit the answers are posted to the public submit endpoint and file
fields upload local paths first. Without it the answers are printed as the
JSON submit payload.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if apiURL == "" {
				apiURL = strings.TrimRight(a.cfg.Server.BaseURL, "/") + "/api"
			}
			c, err := client.New(apiURL, client.WithHTTPClient(newHTTPClient(30*time.Second)), client.WithUserAgent(appName+"/"+Version))
			if err != nil {
				return err
			}

			var form model.Form
			switch {
			case len(args) == 1:
				if form, err = loadDefinition(args[0]); err != nil {
					return err
				}
			case formID != "":
				if form, err = c.GetPublicForm(ctx, formID); err != nil {
					return err
				}
			default:
				return errors.New("fill: a definition file or --id is required")
			}

			opts := []tui.Option{}
			if submit {
				opts = append(opts, tui.WithUploader(c.UploadFile))
			}
			renderer, err := tui.New(opts...)
			if err != nil {
				return err
			}
			values, err := renderer.Fill(ctx, form, render.RenderOptions{})
			if err != nil {
				return err
			}

			if !submit {
				payload, err := json.MarshalIndent(map[string]any{"data": values}, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(payload))
				return nil
			}
			var submitter *model.SubmitterInfo
			if name != "" || email != "" {
				submitter = &model.SubmitterInfo{Name: name, Email: email}
			}
			sub, err := c.Submit(ctx, form.ID, values, submitter)
			if err != nil {
				return err
			}
			log.WithFields(log.Fields{"form": form.ID, "submission": sub.ID}).Info("submitted")
			fmt.Fprintln(cmd.OutOrStdout(), sub.ID)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&apiURL, "api", "", "API base URL (defaults to server.baseUrl + /api)")
	flags.StringVar(&formID, "id", "", "Published form id")
	flags.BoolVar(&submit, "submit", false, "Post the answers")
	flags.StringVar(&name, "name", "", "Submitter name")
	flags.StringVar(&email, "email", "", "Submitter email")
	return cmd
}

func pushCmd(a *app) *cobra.Command {
	var (
		apiURL string
		token  string
	)
	cmd := &cobra.Command{
		Use:   "push DIR",
		Short: "Create or update every form definition in DIR on a server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if apiURL == "" {
				apiURL = strings.TrimRight(a.cfg.Server.BaseURL, "/") + "/api"
			}
			if token == "" {
				token = a.cfg.Server.AdminToken
			}
			c, err := client.New(apiURL, client.WithToken(token), client.WithUserAgent(appName+"/"+Version))
			if err != nil {
				return err
			}
			defs, err := formfile.LoadDir(args[0])
			if err != nil {
				return err
			}
			for _, form := range defs {
				if _, err := c.GetForm(cmd.Context(), form.ID); errors.Is(err, model.ErrFormNotFound) {
					form.ID = ""
				} else if err != nil {
					return err
				}
				saved, err := c.SaveForm(cmd.Context(), form)
				if err != nil {
					return fmt.Errorf("push %s: %w", form.Title, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", saved.ID, saved.Title)
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&apiURL, "api", "", "API base URL (defaults to server.baseUrl + /api)")
	flags.StringVar(&token, "token", "", "Admin token (defaults to server.adminToken)")
	return cmd
}

// loadDefinition reads a form file, deriving a missing id from its name.
func loadDefinition(path string) (model.Form, error) {
	form, err := formfile.ReadFile(path)
	if err != nil {
		return model.Form{}, err
	}
	if strings.TrimSpace(form.ID) == "" {
		base := filepath.Base(path)
		form.ID = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return form, nil
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	log.Infof("written to %s", path)
	return nil
}
