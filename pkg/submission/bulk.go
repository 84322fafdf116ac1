package submission

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-formsuite/pkg/model"
)

// BulkActionType names a bulk operation over submissions.
type BulkActionType string

const (
	BulkUpdateStatus BulkActionType = "updateStatus"
	BulkFlag         BulkActionType = "flag"
	BulkDelete       BulkActionType = "delete"
)

// BulkRequest selects submissions and the action applied to each.
type BulkRequest struct {
	Action        BulkActionType         `json:"action" validate:"required,oneof=updateStatus flag delete"`
	SubmissionIDs []string               `json:"submissionIds" validate:"required,min=1,dive,required"`
	Status        model.SubmissionStatus `json:"status,omitempty" validate:"omitempty,oneof=pending reviewed approved rejected spam"`
	Reason        string                 `json:"reason,omitempty" validate:"max=500"`
}

// Validate checks the request shape and returns a copy with trimmed,
// deduplicated ids in first-seen order.
func (r BulkRequest) Validate() (BulkRequest, error) {
	ids := make([]string, 0, len(r.SubmissionIDs))
	seen := make(map[string]struct{}, len(r.SubmissionIDs))
	for _, id := range r.SubmissionIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	r.SubmissionIDs = ids
	if err := validate.Struct(r); err != nil {
		return BulkRequest{}, fmt.Errorf("%w: bulk: %w", ErrInvalidRequest, describeValidation(err))
	}
	if r.Action == BulkUpdateStatus && r.Status == "" {
		return BulkRequest{}, fmt.Errorf("%w: bulk: status is required for %s", ErrInvalidRequest, r.Action)
	}
	return r, nil
}

// BulkOutcome reports per-id results of a bulk action.
type BulkOutcome struct {
	Action    BulkActionType `json:"action"`
	Requested int            `json:"requested"`
	Succeeded []string       `json:"succeeded"`
	Failed    []BulkFailure  `json:"failed,omitempty"`
}

// Err returns a *PartialBulkFailure when any id failed, nil otherwise.
func (o BulkOutcome) Err() error {
	if len(o.Failed) == 0 {
		return nil
	}
	return &PartialBulkFailure{
		Action:    o.Action,
		Requested: o.Requested,
		Failed:    append([]BulkFailure(nil), o.Failed...),
	}
}

func (o *BulkOutcome) fail(id string, err error) {
	o.Failed = append(o.Failed, BulkFailure{ID: id, Err: err, Message: err.Error()})
}
