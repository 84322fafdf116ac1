package model

import "time"

// SubmissionStatus is the review status of a submission. The set is flat:
// every status is reachable from every other status.
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionReviewed SubmissionStatus = "reviewed"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
	SubmissionSpam     SubmissionStatus = "spam"
)

// SubmissionStatuses lists every review status.
func SubmissionStatuses() []SubmissionStatus {
	return []SubmissionStatus{
		SubmissionPending, SubmissionReviewed, SubmissionApproved,
		SubmissionRejected, SubmissionSpam,
	}
}

// Valid reports whether s is a known status.
func (s SubmissionStatus) Valid() bool {
	for _, candidate := range SubmissionStatuses() {
		if s == candidate {
			return true
		}
	}
	return false
}

// SubmitterInfo identifies an anonymous respondent.
type SubmitterInfo struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// FileReference is the value stored for file fields once the upload endpoint
// returned a location.
type FileReference struct {
	URL         string `json:"url"`
	Name        string `json:"name,omitempty"`
	Size        int64  `json:"size,omitempty"`
	ContentType string `json:"contentType,omitempty"`
}

// Submission is one respondent's answer set against a form. Data is keyed by
// field id.
type Submission struct {
	ID            string           `json:"id,omitempty"`
	FormID        string           `json:"formId"`
	Data          map[string]any   `json:"data"`
	Status        SubmissionStatus `json:"status"`
	SubmittedBy   string           `json:"submittedBy,omitempty"`
	SubmitterInfo *SubmitterInfo   `json:"submitterInfo,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	ReviewedAt    *time.Time       `json:"reviewedAt,omitempty"`
	ReviewNotes   string           `json:"reviewNotes,omitempty"`
	Flagged       bool             `json:"flagged,omitempty"`
	FlagReason    string           `json:"flagReason,omitempty"`
	IPAddress     string           `json:"ipAddress,omitempty"`
	UserAgent     string           `json:"userAgent,omitempty"`
}
