package memstore_test

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formsuite/internal/memstore"
	"github.com/goliatone/go-formsuite/pkg/model"
	"github.com/goliatone/go-formsuite/pkg/submission"
)

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return prefix + strconv.Itoa(n)
	}
}

func newStore() *memstore.Store {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return memstore.New(
		memstore.WithIDGenerator(sequentialIDs("id-")),
		memstore.WithClock(func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		}),
	)
}

func TestStore_SaveFormAssignsIDAndKeepsCreatedAt(t *testing.T) {
	t.Parallel()

	store := newStore()
	ctx := context.Background()

	created, err := store.SaveForm(ctx, model.Form{Title: "Survey"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if created.ID != "id-1" || created.Status != model.FormStatusDraft || created.CreatedAt == nil {
		t.Fatalf("unexpected created form: %#v", created)
	}

	created.Title = "Survey v2"
	updated, err := store.SaveForm(ctx, created)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.CreatedAt.Equal(*created.CreatedAt) || !updated.UpdatedAt.After(*created.CreatedAt) {
		t.Fatalf("expected createdAt kept and updatedAt advanced: %#v", updated)
	}

	if _, err := store.GetForm(ctx, "missing"); !errors.Is(err, model.ErrFormNotFound) {
		t.Fatalf("expected ErrFormNotFound, got %v", err)
	}
}

func TestStore_ListFormsFilters(t *testing.T) {
	t.Parallel()

	store := newStore()
	ctx := context.Background()
	for _, form := range []model.Form{
		{Title: "Customer feedback", Status: model.FormStatusActive, Category: model.CategoryFeedback},
		{Title: "Event registration", Status: model.FormStatusActive, Category: model.CategoryRegistration},
		{Title: "Old feedback", Status: model.FormStatusArchived, Category: model.CategoryFeedback},
	} {
		if _, err := store.SaveForm(ctx, form); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	forms, total, err := store.ListForms(ctx, memstore.FormFilter{Status: model.FormStatusActive, Search: "FEEDBACK"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || forms[0].Title != "Customer feedback" {
		t.Fatalf("unexpected forms: %d %#v", total, forms)
	}

	forms, total, err = store.ListForms(ctx, memstore.FormFilter{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	titles := []string{forms[0].Title, forms[1].Title}
	if diff := cmp.Diff([]string{"Old feedback", "Event registration"}, titles); diff != "" || total != 3 {
		t.Fatalf("newest first mismatch (total %d) (-want +got):\n%s", total, diff)
	}
}

func TestStore_SubmissionsWithManager(t *testing.T) {
	t.Parallel()

	store := newStore()
	ctx := context.Background()
	form, _ := store.SaveForm(ctx, model.Form{
		Title:  "Contact",
		Status: model.FormStatusActive,
		Settings: model.FormSettings{
			AllowMultipleSubmissions: false,
		},
		Fields: []model.Field{{ID: "message", Type: model.FieldTypeTextarea, Label: "Message", Required: true}},
	})

	manager, err := submission.NewManager(store)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	first, err := manager.Submit(ctx, form, submission.SubmitRequest{
		Data:      map[string]any{"message": "Hello there"},
		Submitter: &model.SubmitterInfo{Email: "ada@example.com"},
	})
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := manager.Submit(ctx, form, submission.SubmitRequest{
		Data:      map[string]any{"message": "Again"},
		Submitter: &model.SubmitterInfo{Email: "Ada@Example.com"},
	}); !errors.Is(err, submission.ErrDuplicateSubmission) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	second, err := manager.Submit(ctx, form, submission.SubmitRequest{
		Data:      map[string]any{"message": "Different person"},
		Submitter: &model.SubmitterInfo{Email: "grace@example.com"},
	})
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}

	outcome, err := manager.BulkAction(ctx, submission.BulkRequest{
		Action:        submission.BulkUpdateStatus,
		SubmissionIDs: []string{first.ID, "nope"},
		Status:        model.SubmissionApproved,
	})
	if err != nil {
		t.Fatalf("bulk: %v", err)
	}
	if len(outcome.Succeeded) != 1 || len(outcome.Failed) != 1 || !errors.Is(outcome.Err(), submission.ErrNotFound) {
		t.Fatalf("unexpected outcome: %#v", outcome)
	}

	page, err := manager.List(ctx, form.ID, submission.ListQuery{Status: "approved"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 1 || page.Items[0].ID != first.ID {
		t.Fatalf("unexpected approved page: %#v", page)
	}

	page, err = manager.List(ctx, form.ID, submission.ListQuery{Search: "different", SortBy: "createdAt", Order: "asc"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if page.Total != 1 || page.Items[0].ID != second.ID {
		t.Fatalf("unexpected search page: %#v", page)
	}
}

func TestStore_ListSubmissionsOrderAndRange(t *testing.T) {
	t.Parallel()

	store := newStore()
	ctx := context.Background()
	form, _ := store.SaveForm(ctx, model.Form{Title: "Poll"})
	base := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if _, err := store.CreateSubmission(ctx, model.Submission{FormID: form.ID, CreatedAt: base.Add(time.Duration(i) * 24 * time.Hour)}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	from := base.Add(12 * time.Hour)
	params := submission.ListQuery{From: &from, Order: "asc", SortBy: "createdAt", Page: 1, Limit: 10}.Params()
	result, err := store.ListSubmissions(ctx, form.ID, params)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := []time.Time{result.Items[0].CreatedAt, result.Items[1].CreatedAt}
	want := []time.Time{base.Add(24 * time.Hour), base.Add(48 * time.Hour)}
	if diff := cmp.Diff(want, got); diff != "" || result.Total != 2 {
		t.Fatalf("range mismatch (-want +got):\n%s", diff)
	}

	if _, err := store.ListSubmissions(ctx, form.ID, url.Values{"flagged": {"maybe"}}); err == nil {
		t.Fatalf("expected invalid flagged error")
	}
	if _, err := store.CreateSubmission(ctx, model.Submission{FormID: "ghost"}); !errors.Is(err, model.ErrFormNotFound) {
		t.Fatalf("expected ErrFormNotFound for unknown form, got %v", err)
	}
}

func TestStore_Uploads(t *testing.T) {
	t.Parallel()

	store := newStore()
	ctx := context.Background()

	up, err := store.SaveUpload(ctx, "../../etc/cv.pdf", "application/pdf", strings.NewReader("%PDF"), 16)
	if err != nil {
		t.Fatalf("save upload: %v", err)
	}
	if up.Name != "cv.pdf" || up.Size != 4 {
		t.Fatalf("unexpected upload: %#v", up)
	}
	got, err := store.GetUpload(ctx, up.ID)
	if err != nil || string(got.Data) != "%PDF" {
		t.Fatalf("get upload: %#v %v", got, err)
	}

	if _, err := store.SaveUpload(ctx, "big.bin", "", strings.NewReader(strings.Repeat("x", 17)), 16); !errors.Is(err, memstore.ErrUploadTooLarge) {
		t.Fatalf("expected ErrUploadTooLarge, got %v", err)
	}
	if _, err := store.GetUpload(ctx, "missing"); !errors.Is(err, memstore.ErrUploadNotFound) {
		t.Fatalf("expected ErrUploadNotFound, got %v", err)
	}
}
