package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-formsuite/pkg/model"
	"github.com/goliatone/go-formsuite/pkg/submission"
)

var (
	_ submission.Store     = (*Client)(nil)
	_ submission.BulkStore = (*Client)(nil)
	_ submission.Exporter  = (*Client)(nil)
)

// submitPayload is the public submit body.
type submitPayload struct {
	Data          map[string]any       `json:"data"`
	SubmitterInfo *model.SubmitterInfo `json:"submitterInfo,omitempty"`
}

// UserHeader carries the authenticated respondent id on submit calls.
const UserHeader = "X-Formsuite-User"

// Submit calls POST /public/forms/{id}/submit with the respondent's answers.
// Gate failures unwrap to the submission sentinels; field errors unwrap to
// *validation.FieldValidationError.
func (c *Client) Submit(ctx context.Context, formID string, data map[string]any, submitter *model.SubmitterInfo) (model.Submission, error) {
	return c.submit(ctx, formID, submitPayload{Data: data, SubmitterInfo: submitter}, nil)
}

// CreateSubmission posts sub through the public submit endpoint. The
// respondent id, address and user agent travel as request headers so the
// collaborator's login and duplicate gates see the original respondent.
func (c *Client) CreateSubmission(ctx context.Context, sub model.Submission) (model.Submission, error) {
	header := http.Header{}
	if user := strings.TrimSpace(sub.SubmittedBy); user != "" {
		header.Set(UserHeader, user)
	}
	if ip := strings.TrimSpace(sub.IPAddress); ip != "" {
		header.Set("X-Forwarded-For", ip)
	}
	if agent := strings.TrimSpace(sub.UserAgent); agent != "" {
		header.Set("User-Agent", agent)
	}
	return c.submit(ctx, sub.FormID, submitPayload{Data: sub.Data, SubmitterInfo: sub.SubmitterInfo}, header)
}

func (c *Client) submit(ctx context.Context, formID string, payload submitPayload, header http.Header) (model.Submission, error) {
	var out model.Submission
	err := c.doJSON(ctx, call{
		op: "submit", method: http.MethodPost, url: c.endpoint(nil, "public", "forms", formID, "submit"),
		header: header, notFound: model.ErrFormNotFound,
	}, payload, &out)
	return out, err
}

// GetSubmission calls GET /submissions/{id}.
func (c *Client) GetSubmission(ctx context.Context, id string) (model.Submission, error) {
	var out model.Submission
	err := c.do(ctx, call{
		op: "get submission", method: http.MethodGet, url: c.endpoint(nil, "submissions", id),
		notFound: submission.ErrNotFound,
	}, &out)
	return out, err
}

type statusPayload struct {
	Status      model.SubmissionStatus `json:"status"`
	ReviewNotes string                 `json:"reviewNotes,omitempty"`
}

// SetStatus calls PUT /submissions/{id}/status. The review time is assigned
// by the collaborator.
func (c *Client) SetStatus(ctx context.Context, id string, status model.SubmissionStatus, notes string, _ time.Time) (model.Submission, error) {
	var out model.Submission
	err := c.doJSON(ctx, call{
		op: "update submission status", method: http.MethodPut, url: c.endpoint(nil, "submissions", id, "status"),
		notFound: submission.ErrNotFound,
	}, statusPayload{Status: status, ReviewNotes: notes}, &out)
	return out, err
}

// FlagSubmission flags one submission through the bulk endpoint and reads
// it back.
func (c *Client) FlagSubmission(ctx context.Context, id, reason string) (model.Submission, error) {
	outcome, err := c.BulkAction(ctx, submission.BulkRequest{
		Action:        submission.BulkFlag,
		SubmissionIDs: []string{id},
		Reason:        reason,
	})
	if err != nil {
		return model.Submission{}, err
	}
	if err := outcome.Err(); err != nil {
		return model.Submission{}, err
	}
	return c.GetSubmission(ctx, id)
}

// DeleteSubmission calls DELETE /submissions/{id}.
func (c *Client) DeleteSubmission(ctx context.Context, id string) error {
	return c.do(ctx, call{
		op: "delete submission", method: http.MethodDelete, url: c.endpoint(nil, "submissions", id),
		notFound: submission.ErrNotFound,
	}, nil)
}

// ListSubmissions calls GET /forms/{id}/submissions with the encoded query.
func (c *Client) ListSubmissions(ctx context.Context, formID string, params url.Values) (submission.ListResult, error) {
	var result submission.ListResult
	err := c.doList(ctx, call{
		op: "list submissions", method: http.MethodGet, url: c.endpoint(params, "forms", formID, "submissions"),
		notFound: model.ErrFormNotFound,
	}, &result.Items, &result.Total)
	return result, err
}

// CountSubmissions asks for a one-item page and reads its total.
func (c *Client) CountSubmissions(ctx context.Context, formID string, filter submission.CountFilter) (int, error) {
	params := url.Values{"page": {"1"}, "limit": {"1"}}
	if filter.SubmittedBy != "" {
		params.Set("submittedBy", filter.SubmittedBy)
	}
	if filter.Email != "" {
		params.Set("email", filter.Email)
	}
	if filter.Status != "" {
		params.Set("status", string(filter.Status))
	}
	if filter.Flagged != nil {
		params.Set("flagged", strconv.FormatBool(*filter.Flagged))
	}
	result, err := c.ListSubmissions(ctx, formID, params)
	if err != nil {
		return 0, err
	}
	return result.Total, nil
}

// BulkAction calls POST /submissions/bulk-action. The outcome lists the
// ids the collaborator processed and the ones it could not.
func (c *Client) BulkAction(ctx context.Context, req submission.BulkRequest) (submission.BulkOutcome, error) {
	var out submission.BulkOutcome
	err := c.doJSON(ctx, call{op: "bulk action", method: http.MethodPost, url: c.endpoint(nil, "submissions", "bulk-action")}, req, &out)
	if err != nil {
		return submission.BulkOutcome{}, err
	}
	if out.Action == "" {
		out.Action = req.Action
	}
	if out.Requested == 0 {
		out.Requested = len(req.SubmissionIDs)
	}
	for i := range out.Failed {
		if out.Failed[i].Err == nil {
			out.Failed[i].Err = errors.New(out.Failed[i].Message)
		}
	}
	return out, nil
}

// ExportSubmissions calls GET /forms/{id}/submissions/export and returns the
// streamed file. The caller closes it.
func (c *Client) ExportSubmissions(ctx context.Context, formID string, params url.Values) (io.ReadCloser, error) {
	resp, err := c.open(ctx, call{
		op: "export submissions", method: http.MethodGet, url: c.endpoint(params, "forms", formID, "submissions", "export"),
		notFound: model.ErrFormNotFound,
	})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
