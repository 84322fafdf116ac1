package submission

import "errors"

// Stable error codes carried in collaborator error bodies.
const (
	CodeFormNotFound       = "form_not_found"
	CodeFormClosed         = "form_closed"
	CodeLoginRequired      = "login_required"
	CodeSubmissionLimit    = "submission_limit"
	CodeDuplicate          = "duplicate_submission"
	CodeCaptchaFailed      = "captcha_failed"
	CodeNotFound           = "submission_not_found"
	CodeInvalidStatus      = "invalid_status"
	CodeNotificationFailed = "notification_failed"
	CodeInvalidRequest     = "invalid_request"

	// Field and schema errors travel with a per-key errors map instead of a
	// sentinel.
	CodeInvalidSubmission = "invalid_submission"
	CodeInvalidForm       = "invalid_form"
)

var codeTable = []struct {
	code string
	err  error
}{
	{CodeFormNotFound, ErrFormNotFound},
	{CodeFormClosed, ErrFormClosed},
	{CodeLoginRequired, ErrLoginRequired},
	{CodeSubmissionLimit, ErrSubmissionLimit},
	{CodeDuplicate, ErrDuplicateSubmission},
	{CodeCaptchaFailed, ErrCaptchaFailed},
	{CodeNotFound, ErrNotFound},
	{CodeInvalidStatus, ErrInvalidStatus},
	{CodeNotificationFailed, ErrNotification},
	{CodeInvalidRequest, ErrInvalidRequest},
}

// ErrorCode returns the code of the first sentinel err matches, or "".
func ErrorCode(err error) string {
	for _, entry := range codeTable {
		if errors.Is(err, entry.err) {
			return entry.code
		}
	}
	return ""
}

// ErrorForCode returns the sentinel for code, or nil.
func ErrorForCode(code string) error {
	for _, entry := range codeTable {
		if entry.code == code {
			return entry.err
		}
	}
	return nil
}
