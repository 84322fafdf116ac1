package submission

import (
	"context"
	"io"
	"net/url"
	"time"

	"github.com/goliatone/go-formsuite/pkg/model"
)

// Store is the persistence collaborator for submissions.
type Store interface {
	CreateSubmission(ctx context.Context, sub model.Submission) (model.Submission, error)
	GetSubmission(ctx context.Context, id string) (model.Submission, error)
	// SetStatus records a review decision. at is the review time.
	SetStatus(ctx context.Context, id string, status model.SubmissionStatus, notes string, at time.Time) (model.Submission, error)
	FlagSubmission(ctx context.Context, id, reason string) (model.Submission, error)
	DeleteSubmission(ctx context.Context, id string) error
	// ListSubmissions receives the query already encoded as collaborator
	// parameters (see ListQuery.Params).
	ListSubmissions(ctx context.Context, formID string, params url.Values) (ListResult, error)
	CountSubmissions(ctx context.Context, formID string, filter CountFilter) (int, error)
}

// BulkStore is implemented by stores that run bulk actions server side.
// Manager.BulkAction delegates to it after validating the request.
type BulkStore interface {
	BulkAction(ctx context.Context, req BulkRequest) (BulkOutcome, error)
}

// Exporter is implemented by stores that stream an export file.
type Exporter interface {
	ExportSubmissions(ctx context.Context, formID string, params url.Values) (io.ReadCloser, error)
}

// FormGetter resolves forms for SubmitTo.
type FormGetter interface {
	GetForm(ctx context.Context, id string) (model.Form, error)
}

// Notifier is told about stored submissions of forms with email
// notification enabled.
type Notifier interface {
	SubmissionCreated(ctx context.Context, form model.Form, sub model.Submission) error
}

// CaptchaVerifier checks captcha tokens for forms with captcha enabled.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) (bool, error)
}

// Observer receives lifecycle outcomes, typically to feed metrics.
type Observer interface {
	SubmitObserved(formID string, outcome string)
	BulkObserved(action BulkActionType, succeeded, failed int)
}

// CountFilter narrows CountSubmissions. Empty fields do not filter.
type CountFilter struct {
	SubmittedBy string
	Email       string
	Status      model.SubmissionStatus
	Flagged     *bool
}

// ListResult is one page of submissions as returned by the store.
type ListResult struct {
	Items []model.Submission `json:"items"`
	Total int                `json:"total"`
}

// Page is a listing result with pagination metadata.
type Page struct {
	Items       []model.Submission `json:"items"`
	Total       int                `json:"total"`
	Page        int                `json:"page"`
	Limit       int                `json:"limit"`
	TotalPages  int                `json:"totalPages"`
	HasNext     bool               `json:"hasNext"`
	HasPrevious bool               `json:"hasPrevious"`
}

// NewPage derives the pagination metadata for a store result.
func NewPage(result ListResult, page, limit int) Page {
	totalPages := 0
	if limit > 0 {
		totalPages = (result.Total + limit - 1) / limit
	}
	return Page{
		Items:       result.Items,
		Total:       result.Total,
		Page:        page,
		Limit:       limit,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
}
