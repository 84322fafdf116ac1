package submission_test

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formsuite/pkg/submission"
)

func TestListQuery_ParamsAndParse(t *testing.T) {
	t.Parallel()

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	query, err := submission.ListQuery{Search: "  ada ", Status: "Approved", From: &from, Order: "ASC"}.Normalize()
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	want := url.Values{
		"page":   {"1"},
		"limit":  {"10"},
		"status": {"approved"},
		"search": {"ada"},
		"sort":   {"createdAt"},
		"order":  {"asc"},
		"from":   {"2026-01-01T00:00:00Z"},
	}
	if diff := cmp.Diff(want, query.Params()); diff != "" {
		t.Fatalf("params mismatch (-want +got):\n%s", diff)
	}

	parsed, err := submission.ParseListQuery(query.Params())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if diff := cmp.Diff(query, parsed); diff != "" {
		t.Fatalf("parsed query mismatch (-want +got):\n%s", diff)
	}
}

func TestListQuery_Rejects(t *testing.T) {
	t.Parallel()

	later := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	earlier := later.Add(-24 * time.Hour)
	cases := map[string]submission.ListQuery{
		"negative page":  {Page: -1},
		"limit too high": {Limit: submission.MaxLimit + 1},
		"unknown sort":   {SortBy: "title"},
		"bad order":      {Order: "sideways"},
		"reversed range": {From: &later, To: &earlier},
	}
	for name, query := range cases {
		if _, err := query.Normalize(); !errors.Is(err, submission.ErrInvalidRequest) {
			t.Fatalf("%s: expected ErrInvalidRequest, got %v", name, err)
		}
	}

	if _, err := submission.ParseListQuery(url.Values{"page": {"two"}}); err == nil {
		t.Fatalf("expected malformed page error")
	}
	if _, err := submission.ParseListQuery(url.Values{"from": {"yesterday"}}); err == nil {
		t.Fatalf("expected malformed from error")
	}
}

func TestNewPage(t *testing.T) {
	t.Parallel()

	page := submission.NewPage(submission.ListResult{Total: 21}, 3, 10)
	want := submission.Page{Total: 21, Page: 3, Limit: 10, TotalPages: 3, HasNext: false, HasPrevious: true}
	if diff := cmp.Diff(want, page); diff != "" {
		t.Fatalf("page mismatch (-want +got):\n%s", diff)
	}
}

func TestListQuery_IdentityFilters(t *testing.T) {
	t.Parallel()

	flagged := true
	query := submission.ListQuery{Page: 1, Limit: 1, SubmittedBy: "user-7", Email: "ada@example.com", Flagged: &flagged}
	params := query.Params()
	if params.Get("submittedBy") != "user-7" || params.Get("email") != "ada@example.com" || params.Get("flagged") != "true" {
		t.Fatalf("identity filters not encoded: %v", params)
	}
	parsed, err := submission.ParseListQuery(params)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if diff := cmp.Diff(query, parsed); diff != "" {
		t.Fatalf("parsed query mismatch (-want +got):\n%s", diff)
	}
	if _, err := submission.ParseListQuery(url.Values{"flagged": {"maybe"}}); !errors.Is(err, submission.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for flagged, got %v", err)
	}
}
