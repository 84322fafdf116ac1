package submission

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formsuite/pkg/model"
)

var (
	// ErrFormNotFound is returned when the target form does not exist.
	ErrFormNotFound = model.ErrFormNotFound
	// ErrFormClosed is returned when the form is not active or outside its
	// start/end window.
	ErrFormClosed = errors.New("submission: form is not accepting submissions")
	// ErrLoginRequired is returned for anonymous submissions to forms that
	// require a signed-in user.
	ErrLoginRequired = errors.New("submission: login required")
	// ErrSubmissionLimit is returned once the form's submission limit is
	// reached.
	ErrSubmissionLimit = errors.New("submission: submission limit reached")
	// ErrDuplicateSubmission is returned when a respondent already submitted
	// to a form that allows a single submission.
	ErrDuplicateSubmission = errors.New("submission: already submitted")
	// ErrCaptchaFailed is returned when the captcha token does not verify.
	ErrCaptchaFailed = errors.New("submission: captcha verification failed")
	// ErrNotFound is returned by stores for unknown submission ids.
	ErrNotFound = errors.New("submission: not found")
	// ErrInvalidStatus is returned for unknown review statuses.
	ErrInvalidStatus = errors.New("submission: invalid status")
	// ErrNotification wraps notifier failures. The submission itself was
	// stored.
	ErrNotification = errors.New("submission: notification failed")
	// ErrInvalidRequest wraps malformed list queries and bulk requests.
	ErrInvalidRequest = errors.New("submission: invalid request")
)

// BulkFailure records why one id of a bulk action failed.
type BulkFailure struct {
	ID  string `json:"id"`
	Err error  `json:"-"`
	// Message is Err rendered for transport.
	Message string `json:"message"`
}

// PartialBulkFailure reports that some ids of a bulk action failed. The
// others were processed.
type PartialBulkFailure struct {
	Action    BulkActionType
	Requested int
	Failed    []BulkFailure
}

func (e *PartialBulkFailure) Error() string {
	ids := make([]string, 0, len(e.Failed))
	for _, failure := range e.Failed {
		ids = append(ids, failure.ID)
	}
	return fmt.Sprintf("submission: bulk %s: %d of %d failed (%s)", e.Action, len(e.Failed), e.Requested, strings.Join(ids, ", "))
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *PartialBulkFailure) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, failure := range e.Failed {
		if failure.Err != nil {
			errs = append(errs, failure.Err)
		}
	}
	return errs
}
