package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/goliatone/go-formsuite/internal/log"
	"github.com/goliatone/go-formsuite/internal/memstore"
	"github.com/goliatone/go-formsuite/pkg/model"
	"github.com/goliatone/go-formsuite/pkg/orchestrator"
	"github.com/goliatone/go-formsuite/pkg/submission"
	"github.com/goliatone/go-formsuite/pkg/validation"
)

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Status  int                 `json:"status"`
	Code    string              `json:"code,omitempty"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

func respondStatus(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respondJSON(w, r, status, ErrorResponse{Status: status, Code: code, Message: message})
}

// respondError maps err onto a status code and error body. Unexpected errors
// are logged and answered with a generic 500.
func respondError(w http.ResponseWriter, r *http.Request, op string, err error) {
	body := ErrorResponse{Code: submission.ErrorCode(err), Message: err.Error()}

	var fieldErr *validation.FieldValidationError
	var schemaErr *validation.SchemaValidationError
	switch {
	case errors.As(err, &fieldErr):
		body.Status = http.StatusUnprocessableEntity
		body.Code = submission.CodeInvalidSubmission
		body.Message = "Please correct the highlighted fields"
		body.Errors = fieldErr.Errors
	case errors.As(err, &schemaErr):
		body.Status = http.StatusUnprocessableEntity
		body.Code = submission.CodeInvalidForm
		body.Message = "Form definition is incomplete"
		body.Errors = schemaErr.Errors
	case errors.Is(err, model.ErrFormNotFound):
		body.Status = http.StatusNotFound
		body.Message = "Form not found"
	case errors.Is(err, submission.ErrNotFound), errors.Is(err, memstore.ErrUploadNotFound):
		body.Status = http.StatusNotFound
		body.Message = http.StatusText(http.StatusNotFound)
	case errors.Is(err, orchestrator.ErrFormUnavailable), errors.Is(err, submission.ErrFormClosed):
		body.Status = http.StatusForbidden
		body.Code = submission.CodeFormClosed
		body.Message = "This form is not accepting submissions"
	case errors.Is(err, submission.ErrLoginRequired):
		body.Status = http.StatusUnauthorized
	case errors.Is(err, submission.ErrCaptchaFailed):
		body.Status = http.StatusForbidden
	case errors.Is(err, submission.ErrSubmissionLimit), errors.Is(err, submission.ErrDuplicateSubmission):
		body.Status = http.StatusConflict
	case errors.Is(err, submission.ErrInvalidStatus), errors.Is(err, submission.ErrInvalidRequest):
		body.Status = http.StatusBadRequest
	case errors.Is(err, memstore.ErrUploadTooLarge):
		body.Status = http.StatusRequestEntityTooLarge
	default:
		log.WithError(err).Errorf("%s", op)
		body.Status = http.StatusInternalServerError
		body.Code = ""
		body.Message = http.StatusText(http.StatusInternalServerError)
	}
	if body.Status < http.StatusInternalServerError {
		log.WithError(err).Debugf("%s: %d", op, body.Status)
	}
	respondJSON(w, r, body.Status, body)
}

// maxJSONBytes caps every JSON request body.
const maxJSONBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, maxJSONBytes), v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondStatus(w, r, http.StatusRequestEntityTooLarge, "body_too_large", "request body is too large")
			return false
		}
		respondStatus(w, r, http.StatusBadRequest, submission.CodeInvalidRequest, "malformed JSON body")
		return false
	}
	return true
}

func writeHTML(w http.ResponseWriter, r *http.Request, op string, body []byte, err error) {
	if err != nil {
		respondError(w, r, op, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(body)
}
