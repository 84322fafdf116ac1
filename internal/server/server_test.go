package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formsuite/internal/cache"
	"github.com/goliatone/go-formsuite/internal/memstore"
	"github.com/goliatone/go-formsuite/internal/metrics"
	"github.com/goliatone/go-formsuite/internal/server"
	"github.com/goliatone/go-formsuite/pkg/client"
	"github.com/goliatone/go-formsuite/pkg/model"
	"github.com/goliatone/go-formsuite/pkg/submission"
	"github.com/goliatone/go-formsuite/pkg/validation"
)

const adminToken = "s3cret"

type harness struct {
	ts      *httptest.Server
	store   *memstore.Store
	metrics *metrics.Metrics
	admin   *client.Client
	public  *client.Client
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := memstore.New()
	manager, err := submission.NewManager(store, submission.WithFormGetter(store))
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	ts := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(ts.Close)

	m := metrics.New()
	srv, err := server.New(store, manager,
		server.WithUploads(store, 1<<10),
		server.WithCache(cache.NewForms(store, cache.NewMemory(nil), 0)),
		server.WithMetrics(m, "/metrics"),
		server.WithAdminToken(adminToken),
		server.WithBaseURL(ts.URL),
	)
	if err != nil {
		t.Fatalf("server: %v", err)
	}
	ts.Config.Handler = srv.Handler()

	admin, err := client.New(ts.URL+server.APIPrefix, client.WithToken(adminToken))
	if err != nil {
		t.Fatalf("admin client: %v", err)
	}
	public, err := client.New(ts.URL + server.APIPrefix)
	if err != nil {
		t.Fatalf("public client: %v", err)
	}
	return &harness{ts: ts, store: store, metrics: m, admin: admin, public: public}
}

func contactForm() model.Form {
	return model.Form{
		Title:    "Contact us",
		Status:   model.FormStatusActive,
		Category: model.CategoryContact,
		Fields: []model.Field{
			{ID: "name", Type: model.FieldTypeText, Label: "Name", Required: true},
			{ID: "email", Type: model.FieldTypeEmail, Label: "Email", Required: true},
		},
	}
}

func (h *harness) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(h.ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func (h *harness) post(t *testing.T, path, token string, body io.Reader) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, h.ts.URL+path, body)
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	return resp, raw
}

func TestServer_SubmissionLifecycleThroughClient(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()

	form, err := h.admin.SaveForm(ctx, contactForm())
	if err != nil {
		t.Fatalf("save form: %v", err)
	}
	if form.ID == "" {
		t.Fatalf("expected assigned id")
	}
	public, err := h.public.GetPublicForm(ctx, form.ID)
	if err != nil || public.Title != "Contact us" {
		t.Fatalf("public form: %#v %v", public, err)
	}

	_, err = h.public.Submit(ctx, form.ID, map[string]any{"name": "Ada", "email": "not-an-email"}, nil)
	var fieldErr *validation.FieldValidationError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("expected field validation error, got %v", err)
	}
	if diff := cmp.Diff([]string{"email"}, fieldErr.Fields()); diff != "" {
		t.Fatalf("invalid fields mismatch (-want +got):\n%s", diff)
	}

	submitter := &model.SubmitterInfo{Name: "Ada", Email: "ada@example.com"}
	sub, err := h.public.Submit(ctx, form.ID, map[string]any{"name": "Ada", "email": "ada@example.com"}, submitter)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.ID == "" || sub.Status != model.SubmissionPending {
		t.Fatalf("unexpected submission: %#v", sub)
	}
	if _, err := h.public.Submit(ctx, form.ID, map[string]any{"name": "Ada", "email": "ada@example.com"}, submitter); !errors.Is(err, submission.ErrDuplicateSubmission) {
		t.Fatalf("expected duplicate, got %v", err)
	}

	remote, err := submission.NewManager(h.admin)
	if err != nil {
		t.Fatalf("remote manager: %v", err)
	}
	page, err := remote.List(ctx, form.ID, submission.ListQuery{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 1 || page.Items[0].ID != sub.ID {
		t.Fatalf("unexpected page: %#v", page)
	}

	outcome, err := remote.BulkAction(ctx, submission.BulkRequest{
		Action:        submission.BulkUpdateStatus,
		SubmissionIDs: []string{sub.ID, "missing"},
		Status:        model.SubmissionApproved,
	})
	if err != nil {
		t.Fatalf("bulk: %v", err)
	}
	if diff := cmp.Diff([]string{sub.ID}, outcome.Succeeded); diff != "" || len(outcome.Failed) != 1 || outcome.Failed[0].ID != "missing" {
		t.Fatalf("unexpected outcome %#v (-want +got):\n%s", outcome, diff)
	}

	stats, err := remote.Stats(ctx, form.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 1 || stats.ByStatus[model.SubmissionApproved] != 1 {
		t.Fatalf("unexpected stats: %#v", stats)
	}

	var csv bytes.Buffer
	if err := remote.Export(ctx, form, submission.ListQuery{}, &csv); err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(csv.String(), sub.ID) || !strings.HasPrefix(csv.String(), "id,status,createdAt") {
		t.Fatalf("unexpected export:\n%s", csv.String())
	}

	if _, err := h.admin.GetSubmission(ctx, "missing"); !errors.Is(err, submission.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestServer_RejectsIncompleteForms(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	_, err := h.admin.CreateForm(context.Background(), model.Form{Title: " "})
	var schemaErr *validation.SchemaValidationError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected schema validation error, got %v", err)
	}
	if diff := cmp.Diff([]string{"fields", "title"}, schemaErr.Fields()); diff != "" {
		t.Fatalf("schema errors mismatch (-want +got):\n%s", diff)
	}
}

func TestServer_AdminRoutesRequireToken(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	_, err := h.public.ListForms(context.Background(), client.FormQuery{})
	var tErr *client.TransportError
	if !errors.As(err, &tErr) || tErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 transport error, got %v", err)
	}
}

func TestServer_ClosedFormsAreNotPublic(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	draft := contactForm()
	draft.Status = model.FormStatusDraft
	form, err := h.admin.SaveForm(ctx, draft)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := h.public.GetPublicForm(ctx, form.ID); !errors.Is(err, model.ErrFormNotFound) {
		t.Fatalf("expected ErrFormNotFound for draft, got %v", err)
	}
	if _, err := h.public.Submit(ctx, form.ID, map[string]any{"name": "Ada"}, nil); !errors.Is(err, submission.ErrFormClosed) {
		t.Fatalf("expected ErrFormClosed, got %v", err)
	}
	if resp, _ := h.get(t, "/f/"+form.ID); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for draft page, got %d", resp.StatusCode)
	}
}

func TestServer_CacheInvalidatedOnUpdate(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	form, err := h.admin.SaveForm(ctx, contactForm())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := h.public.GetPublicForm(ctx, form.ID); err != nil {
		t.Fatalf("warm cache: %v", err)
	}
	form.Title = "Write to us"
	if _, err := h.admin.SaveForm(ctx, form); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := h.public.GetPublicForm(ctx, form.ID)
	if err != nil || got.Title != "Write to us" {
		t.Fatalf("expected fresh title, got %#v %v", got, err)
	}
}

func TestServer_RenderedSurfaces(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	form, err := h.admin.SaveForm(context.Background(), contactForm())
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	resp, body := h.get(t, "/f/"+form.ID)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `action="/api/public/forms/`+form.ID+`/submit"`) {
		t.Fatalf("unexpected public page %d:\n%s", resp.StatusCode, body)
	}

	resp, body = h.get(t, "/embed/"+form.ID+"?style=modern&showTitle=false&origin=https://host.example/page")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `var target = "https://host.example";`) {
		t.Fatalf("unexpected widget %d:\n%s", resp.StatusCode, body)
	}

	if resp, _ := h.get(t, "/assets/formsuite-runtime.js"); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected runtime asset, got %d", resp.StatusCode)
	}

	if _, body := h.get(t, "/metrics"); !strings.Contains(body, `formsuite_renders_total{result="ok",surface="public"} 1`) {
		t.Fatalf("expected render counter in metrics:\n%s", body)
	}
}

func TestServer_EmbedCodes(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	form, err := h.admin.SaveForm(context.Background(), contactForm())
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	req, _ := http.NewRequest(http.MethodGet, h.ts.URL+"/api/forms/"+form.ID+"/embed?type=popup", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var codes []server.EmbedCode
	if err := json.NewDecoder(resp.Body).Decode(&codes); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := h.ts.URL + "/embed/" + form.ID + "?style=modern&showTitle=false&showDescription=false&popup=true"
	if len(codes) != 1 || codes[0].Type != model.DisplayPopup || codes[0].FrameURL != want {
		t.Fatalf("unexpected embed codes: %#v", codes)
	}
	if !strings.Contains(codes[0].Code, h.ts.URL+"/embed/"+form.ID) {
		t.Fatalf("snippet does not point at the widget:\n%s", codes[0].Code)
	}
}

func TestServer_UploadRoundTrip(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ref, err := h.public.Upload(context.Background(), "notes.txt", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(ref.URL, h.ts.URL+"/api/uploads/") || ref.Size != 5 {
		t.Fatalf("unexpected reference: %#v", ref)
	}
	resp, body := h.get(t, strings.TrimPrefix(ref.URL, h.ts.URL))
	if resp.StatusCode != http.StatusOK || body != "hello" {
		t.Fatalf("unexpected download %d %q", resp.StatusCode, body)
	}

	_, err = h.public.Upload(context.Background(), "big.bin", strings.NewReader(strings.Repeat("x", 2<<10)))
	var tErr *client.TransportError
	if !errors.As(err, &tErr) || tErr.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %v", err)
	}
}

func TestServer_PreviewValidatesSampleValues(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	form, err := h.admin.SaveForm(ctx, contactForm())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	validateURL := server.APIPrefix + "/forms/" + form.ID + "/preview/validate"

	req, err := http.NewRequest(http.MethodGet, h.ts.URL+server.APIPrefix+"/forms/"+form.ID+"/preview?viewport=mobile", nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	page, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(page), `data-validate-url="`+validateURL+`"`) {
		t.Fatalf("unexpected preview %d:\n%s", resp.StatusCode, page)
	}

	if resp, _ := h.post(t, validateURL, "", strings.NewReader(`{"data":{}}`)); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	resp, raw := h.post(t, validateURL, adminToken, strings.NewReader(`{"data":{"name":"","email":"not-an-email"}}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("validate: %d %s", resp.StatusCode, raw)
	}
	var result server.PreviewResult
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := server.PreviewResult{Errors: validation.ErrorMap{
		"name":  {validation.MsgRequired},
		"email": {validation.MsgEmail},
	}}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Fatalf("preview result mismatch (-want +got):\n%s", diff)
	}

	_, raw = h.post(t, validateURL, adminToken, strings.NewReader(`{"data":{"name":"Ada","email":"ada@example.com"}}`))
	result = server.PreviewResult{}
	if err := json.Unmarshal(raw, &result); err != nil || !result.Valid || len(result.Errors) != 0 {
		t.Fatalf("expected valid preview, got %s (%v)", raw, err)
	}

	subs, err := h.store.ListSubmissions(ctx, form.ID, nil)
	if err != nil || subs.Total != 0 {
		t.Fatalf("preview validation must not store submissions: %#v %v", subs, err)
	}
}

func TestServer_SubmitAcceptsFormDataBody(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	form, err := h.admin.SaveForm(context.Background(), contactForm())
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	resp, raw := h.post(t, server.APIPrefix+"/public/forms/"+form.ID+"/submit", "",
		strings.NewReader(`{"formData":{"name":"Ada","email":"ada@example.com"}}`))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, raw)
	}
	var sub model.Submission
	if err := json.Unmarshal(raw, &sub); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]any{"name": "Ada", "email": "ada@example.com"}
	if diff := cmp.Diff(want, sub.Data); diff != "" {
		t.Fatalf("stored data mismatch (-want +got):\n%s", diff)
	}
}

func TestServer_PublicFormHidesStaffSettings(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := context.Background()
	draft := contactForm()
	draft.Settings.SubmissionLimit = model.IntPtr(10)
	draft.Settings.EmailNotification = model.EmailNotification{
		Enabled:    true,
		Recipients: []string{"ops@example.com"},
		Subject:    "New lead",
	}
	form, err := h.admin.SaveForm(ctx, draft)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	resp, body := h.get(t, server.APIPrefix+"/public/forms/"+form.ID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	for _, secret := range []string{"ops@example.com", "New lead", "submissionLimit"} {
		if strings.Contains(body, secret) {
			t.Fatalf("public form leaks %q:\n%s", secret, body)
		}
	}

	full, err := h.admin.GetForm(ctx, form.ID)
	if err != nil {
		t.Fatalf("admin get: %v", err)
	}
	if diff := cmp.Diff([]string{"ops@example.com"}, full.Settings.EmailNotification.Recipients); diff != "" {
		t.Fatalf("admin view lost recipients (-want +got):\n%s", diff)
	}
}

func TestServer_RejectsOversizedJSONBody(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	form, err := h.admin.SaveForm(context.Background(), contactForm())
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	body := `{"data":{"name":"` + strings.Repeat("a", 2<<20) + `"}}`
	req := httptest.NewRequest(http.MethodPost, server.APIPrefix+"/public/forms/"+form.ID+"/submit", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ts.Config.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %s", rec.Code, rec.Body.String())
	}
}
