package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-formsuite/pkg/fieldtypes"
	"github.com/goliatone/go-formsuite/pkg/model"
	"github.com/goliatone/go-formsuite/pkg/validation"
)

// Submit outcomes reported to the Observer.
const (
	OutcomeAccepted      = "accepted"
	OutcomeClosed        = "closed"
	OutcomeLoginRequired = "login_required"
	OutcomeCaptchaFailed = "captcha_failed"
	OutcomeLimitReached  = "limit_reached"
	OutcomeDuplicate     = "duplicate"
	OutcomeInvalid       = "invalid"
	OutcomeError         = "error"
)

// SubmitRequest carries one respondent's answers and identity.
type SubmitRequest struct {
	Data map[string]any
	// UserID identifies a signed-in respondent.
	UserID       string
	Submitter    *model.SubmitterInfo
	IPAddress    string
	UserAgent    string
	CaptchaToken string
	// Now overrides the manager clock for this request.
	Now time.Time
}

// Stats counts a form's submissions per review status.
type Stats struct {
	Total    int                            `json:"total"`
	Flagged  int                            `json:"flagged"`
	ByStatus map[model.SubmissionStatus]int `json:"byStatus"`
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithFormGetter wires the form lookup used by SubmitTo.
func WithFormGetter(forms FormGetter) Option {
	return func(m *Manager) {
		m.forms = forms
	}
}

// WithCaptchaVerifier wires the verifier consulted for forms with captcha
// enabled. Without one, captcha forms reject every submission.
func WithCaptchaVerifier(verifier CaptchaVerifier) Option {
	return func(m *Manager) {
		m.captcha = verifier
	}
}

// WithNotifier wires the notifier for forms with email notification
// enabled.
func WithNotifier(notifier Notifier) Option {
	return func(m *Manager) {
		m.notifier = notifier
	}
}

// WithObserver wires an outcome observer.
func WithObserver(observer Observer) Option {
	return func(m *Manager) {
		m.observer = observer
	}
}

// WithValidator overrides the submit-time validator.
func WithValidator(v *validation.Validator) Option {
	return func(m *Manager) {
		if v != nil {
			m.validator = v
		}
	}
}

// WithFieldTypes overrides the registry used to find presentational fields.
func WithFieldTypes(reg *fieldtypes.Registry) Option {
	return func(m *Manager) {
		if reg != nil {
			m.types = reg
		}
	}
}

// Manager drives the submission lifecycle against a Store.
type Manager struct {
	store     Store
	forms     FormGetter
	captcha   CaptchaVerifier
	notifier  Notifier
	observer  Observer
	validator *validation.Validator
	types     *fieldtypes.Registry
	now       func() time.Time
}

// NewManager builds a Manager. store is required.
func NewManager(store Store, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, errors.New("submission: store is required")
	}
	m := &Manager{
		store:     store,
		validator: validation.New(),
		types:     fieldtypes.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m, nil
}

// Store returns the underlying store.
func (m *Manager) Store() Store {
	return m.store
}

// Validator returns the validator submissions are checked with.
func (m *Manager) Validator() *validation.Validator {
	return m.validator
}

// Submit gates, validates and stores one submission. Gates run in order:
// status and window, login, captcha, limit, duplicate, field validation.
func (m *Manager) Submit(ctx context.Context, form model.Form, req SubmitRequest) (model.Submission, error) {
	sub, outcome, err := m.submit(ctx, form, req)
	m.observeSubmit(form.ID, outcome)
	return sub, err
}

// SubmitTo loads the form by id and submits to it.
func (m *Manager) SubmitTo(ctx context.Context, formID string, req SubmitRequest) (model.Submission, error) {
	if m.forms == nil {
		return model.Submission{}, fmt.Errorf("%w: no form getter configured", ErrFormNotFound)
	}
	form, err := m.forms.GetForm(ctx, formID)
	if err != nil {
		return model.Submission{}, fmt.Errorf("submission: load form %q: %w", formID, err)
	}
	return m.Submit(ctx, form, req)
}

func (m *Manager) submit(ctx context.Context, form model.Form, req SubmitRequest) (model.Submission, string, error) {
	if err := ctx.Err(); err != nil {
		return model.Submission{}, OutcomeError, err
	}
	now := req.Now
	if now.IsZero() {
		now = m.now()
	}
	settings := form.Settings

	if form.Status != model.FormStatusActive || !settings.Available(now) {
		return model.Submission{}, OutcomeClosed, fmt.Errorf("%w: %q", ErrFormClosed, form.ID)
	}
	userID := strings.TrimSpace(req.UserID)
	if settings.RequireLogin && userID == "" {
		return model.Submission{}, OutcomeLoginRequired, ErrLoginRequired
	}
	if settings.Captcha {
		if err := m.verifyCaptcha(ctx, req); err != nil {
			return model.Submission{}, OutcomeCaptchaFailed, err
		}
	}
	if settings.SubmissionLimit != nil {
		count, err := m.store.CountSubmissions(ctx, form.ID, CountFilter{})
		if err != nil {
			return model.Submission{}, OutcomeError, fmt.Errorf("submission: count: %w", err)
		}
		if count >= *settings.SubmissionLimit {
			return model.Submission{}, OutcomeLimitReached, ErrSubmissionLimit
		}
	}
	if !settings.AllowMultipleSubmissions {
		dup, err := m.alreadySubmitted(ctx, form.ID, userID, req.Submitter)
		if err != nil {
			return model.Submission{}, OutcomeError, err
		}
		if dup {
			return model.Submission{}, OutcomeDuplicate, ErrDuplicateSubmission
		}
	}

	values := req.Data
	if values == nil {
		values = map[string]any{}
	}
	if errs := m.validator.ValidateSubmission(form, values); !errs.Empty() {
		return model.Submission{}, OutcomeInvalid, &validation.FieldValidationError{Errors: errs}
	}

	sub := model.Submission{
		FormID:        form.ID,
		Data:          m.retainedValues(form, values),
		Status:        model.SubmissionPending,
		SubmittedBy:   userID,
		SubmitterInfo: req.Submitter,
		CreatedAt:     now,
		IPAddress:     req.IPAddress,
		UserAgent:     req.UserAgent,
	}
	stored, err := m.store.CreateSubmission(ctx, sub)
	if err != nil {
		return model.Submission{}, OutcomeError, fmt.Errorf("submission: create: %w", err)
	}

	if settings.EmailNotification.Enabled && m.notifier != nil {
		if err := m.notifier.SubmissionCreated(ctx, form, stored); err != nil {
			return stored, OutcomeAccepted, fmt.Errorf("%w: %w", ErrNotification, err)
		}
	}
	return stored, OutcomeAccepted, nil
}

func (m *Manager) verifyCaptcha(ctx context.Context, req SubmitRequest) error {
	if m.captcha == nil || strings.TrimSpace(req.CaptchaToken) == "" {
		return ErrCaptchaFailed
	}
	ok, err := m.captcha.Verify(ctx, req.CaptchaToken, req.IPAddress)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCaptchaFailed, err)
	}
	if !ok {
		return ErrCaptchaFailed
	}
	return nil
}

func (m *Manager) alreadySubmitted(ctx context.Context, formID, userID string, submitter *model.SubmitterInfo) (bool, error) {
	filters := make([]CountFilter, 0, 2)
	if userID != "" {
		filters = append(filters, CountFilter{SubmittedBy: userID})
	}
	if submitter != nil && strings.TrimSpace(submitter.Email) != "" {
		filters = append(filters, CountFilter{Email: strings.ToLower(strings.TrimSpace(submitter.Email))})
	}
	for _, filter := range filters {
		count, err := m.store.CountSubmissions(ctx, formID, filter)
		if err != nil {
			return false, fmt.Errorf("submission: count: %w", err)
		}
		if count > 0 {
			return true, nil
		}
	}
	return false, nil
}

// retainedValues keeps the answers of visible, value-bearing fields.
func (m *Manager) retainedValues(form model.Form, values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for _, field := range form.Fields {
		desc, err := m.types.Describe(field.Type)
		if err != nil || desc.Presentational {
			continue
		}
		if !m.validator.Visible(field, values) {
			continue
		}
		value, ok := values[field.ID]
		if !ok || validation.IsEmpty(value) {
			continue
		}
		out[field.ID] = value
	}
	return model.CloneValues(out)
}

// CanTransition reports whether a submission may move from one review
// status to another. Every known status is reachable from every other.
func CanTransition(from, to model.SubmissionStatus) bool {
	return from.Valid() && to.Valid()
}

// UpdateStatus records a review decision.
func (m *Manager) UpdateStatus(ctx context.Context, id string, status model.SubmissionStatus, notes string) (model.Submission, error) {
	if !status.Valid() {
		return model.Submission{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	current, err := m.store.GetSubmission(ctx, id)
	if err != nil {
		return model.Submission{}, fmt.Errorf("submission: get %q: %w", id, err)
	}
	if !CanTransition(current.Status, status) {
		return model.Submission{}, fmt.Errorf("%w: %s to %s", ErrInvalidStatus, current.Status, status)
	}
	updated, err := m.store.SetStatus(ctx, id, status, notes, m.now())
	if err != nil {
		return model.Submission{}, fmt.Errorf("submission: update status %q: %w", id, err)
	}
	return updated, nil
}

// Flag marks a submission for attention.
func (m *Manager) Flag(ctx context.Context, id, reason string) (model.Submission, error) {
	updated, err := m.store.FlagSubmission(ctx, id, reason)
	if err != nil {
		return model.Submission{}, fmt.Errorf("submission: flag %q: %w", id, err)
	}
	return updated, nil
}

// Delete removes a submission.
func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.store.DeleteSubmission(ctx, id); err != nil {
		return fmt.Errorf("submission: delete %q: %w", id, err)
	}
	return nil
}

// Get returns one submission.
func (m *Manager) Get(ctx context.Context, id string) (model.Submission, error) {
	sub, err := m.store.GetSubmission(ctx, id)
	if err != nil {
		return model.Submission{}, fmt.Errorf("submission: get %q: %w", id, err)
	}
	return sub, nil
}

// BulkAction applies one action to every requested id. Ids are processed
// independently: a failing id does not stop the others, and the returned
// error is nil as long as the request itself was valid. Use outcome.Err to
// surface partial failures.
func (m *Manager) BulkAction(ctx context.Context, req BulkRequest) (BulkOutcome, error) {
	req, err := req.Validate()
	if err != nil {
		return BulkOutcome{}, err
	}
	var outcome BulkOutcome
	if bulk, ok := m.store.(BulkStore); ok {
		outcome, err = bulk.BulkAction(ctx, req)
		if err != nil {
			return BulkOutcome{}, fmt.Errorf("submission: bulk %s: %w", req.Action, err)
		}
	} else {
		outcome = m.bulkEach(ctx, req)
	}
	if m.observer != nil {
		m.observer.BulkObserved(outcome.Action, len(outcome.Succeeded), len(outcome.Failed))
	}
	return outcome, nil
}

func (m *Manager) bulkEach(ctx context.Context, req BulkRequest) BulkOutcome {
	outcome := BulkOutcome{
		Action:    req.Action,
		Requested: len(req.SubmissionIDs),
		Succeeded: make([]string, 0, len(req.SubmissionIDs)),
	}
	now := m.now()
	for _, id := range req.SubmissionIDs {
		if err := ctx.Err(); err != nil {
			outcome.fail(id, err)
			continue
		}
		var err error
		switch req.Action {
		case BulkUpdateStatus:
			_, err = m.store.SetStatus(ctx, id, req.Status, "", now)
		case BulkFlag:
			_, err = m.store.FlagSubmission(ctx, id, req.Reason)
		case BulkDelete:
			err = m.store.DeleteSubmission(ctx, id)
		}
		if err != nil {
			outcome.fail(id, err)
			continue
		}
		outcome.Succeeded = append(outcome.Succeeded, id)
	}
	return outcome
}

// List returns one page of a form's submissions.
func (m *Manager) List(ctx context.Context, formID string, query ListQuery) (Page, error) {
	query, err := query.Normalize()
	if err != nil {
		return Page{}, err
	}
	result, err := m.store.ListSubmissions(ctx, formID, query.Params())
	if err != nil {
		return Page{}, fmt.Errorf("submission: list %q: %w", formID, err)
	}
	return NewPage(result, query.Page, query.Limit), nil
}

// Stats counts a form's submissions per review status.
func (m *Manager) Stats(ctx context.Context, formID string) (Stats, error) {
	stats := Stats{ByStatus: make(map[model.SubmissionStatus]int, len(model.SubmissionStatuses()))}
	for _, status := range model.SubmissionStatuses() {
		count, err := m.store.CountSubmissions(ctx, formID, CountFilter{Status: status})
		if err != nil {
			return Stats{}, fmt.Errorf("submission: stats %q: %w", formID, err)
		}
		stats.ByStatus[status] = count
		stats.Total += count
	}
	flagged := true
	count, err := m.store.CountSubmissions(ctx, formID, CountFilter{Flagged: &flagged})
	if err != nil {
		return Stats{}, fmt.Errorf("submission: stats %q: %w", formID, err)
	}
	stats.Flagged = count
	return stats, nil
}

func (m *Manager) observeSubmit(formID, outcome string) {
	if m.observer != nil {
		m.observer.SubmitObserved(formID, outcome)
	}
}
