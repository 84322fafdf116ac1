package memstore

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-formsuite/pkg/model"
	"github.com/goliatone/go-formsuite/pkg/submission"
)

var _ submission.Store = (*Store)(nil)

// CreateSubmission stores sub under a new id.
func (s *Store) CreateSubmission(ctx context.Context, sub model.Submission) (model.Submission, error) {
	if err := ctx.Err(); err != nil {
		return model.Submission{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.forms[sub.FormID]; !ok {
		return model.Submission{}, fmt.Errorf("memstore: %w: %q", model.ErrFormNotFound, sub.FormID)
	}
	sub = sub.Clone()
	sub.ID = s.newID()
	if sub.Status == "" {
		sub.Status = model.SubmissionPending
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = s.now()
	}
	s.submissions[sub.ID] = sub
	return sub.Clone(), nil
}

// GetSubmission returns the submission or submission.ErrNotFound.
func (s *Store) GetSubmission(ctx context.Context, id string) (model.Submission, error) {
	if err := ctx.Err(); err != nil {
		return model.Submission{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.submissions[id]
	if !ok {
		return model.Submission{}, notFound(id)
	}
	return sub.Clone(), nil
}

// SetStatus records a review decision.
func (s *Store) SetStatus(ctx context.Context, id string, status model.SubmissionStatus, notes string, at time.Time) (model.Submission, error) {
	return s.update(ctx, id, func(sub *model.Submission) {
		sub.Status = status
		sub.ReviewNotes = notes
		reviewed := at
		sub.ReviewedAt = &reviewed
	})
}

// FlagSubmission marks a submission for attention.
func (s *Store) FlagSubmission(ctx context.Context, id, reason string) (model.Submission, error) {
	return s.update(ctx, id, func(sub *model.Submission) {
		sub.Flagged = true
		sub.FlagReason = reason
	})
}

func (s *Store) update(ctx context.Context, id string, fn func(*model.Submission)) (model.Submission, error) {
	if err := ctx.Err(); err != nil {
		return model.Submission{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submissions[id]
	if !ok {
		return model.Submission{}, notFound(id)
	}
	fn(&sub)
	s.submissions[id] = sub
	return sub.Clone(), nil
}

// DeleteSubmission removes a submission.
func (s *Store) DeleteSubmission(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.submissions[id]; !ok {
		return notFound(id)
	}
	delete(s.submissions, id)
	return nil
}

// ListSubmissions applies the listing parameters produced by
// submission.ListQuery.Params.
func (s *Store) ListSubmissions(ctx context.Context, formID string, params url.Values) (submission.ListResult, error) {
	if err := ctx.Err(); err != nil {
		return submission.ListResult{}, err
	}
	query, err := submission.ParseListQuery(params)
	if err != nil {
		return submission.ListResult{}, fmt.Errorf("memstore: %w", err)
	}
	filter := submission.CountFilter{
		SubmittedBy: query.SubmittedBy,
		Email:       query.Email,
		Status:      model.SubmissionStatus(query.Status),
		Flagged:     query.Flagged,
	}

	s.mu.RLock()
	matched := make([]model.Submission, 0)
	for _, sub := range s.submissions {
		if sub.FormID != formID || !matches(sub, filter) || !inQuery(sub, query) {
			continue
		}
		matched = append(matched, sub.Clone())
	}
	s.mu.RUnlock()

	sortSubmissions(matched, query.SortBy, query.Order)
	start, end := pageBounds(len(matched), query.Page, query.Limit)
	return submission.ListResult{Items: matched[start:end], Total: len(matched)}, nil
}

// CountSubmissions counts a form's submissions matching filter.
func (s *Store) CountSubmissions(ctx context.Context, formID string, filter submission.CountFilter) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, sub := range s.submissions {
		if sub.FormID == formID && matches(sub, filter) {
			count++
		}
	}
	return count, nil
}

func matches(sub model.Submission, filter submission.CountFilter) bool {
	if filter.SubmittedBy != "" && sub.SubmittedBy != filter.SubmittedBy {
		return false
	}
	if filter.Email != "" && (sub.SubmitterInfo == nil || !strings.EqualFold(sub.SubmitterInfo.Email, filter.Email)) {
		return false
	}
	if filter.Status != "" && sub.Status != filter.Status {
		return false
	}
	if filter.Flagged != nil && sub.Flagged != *filter.Flagged {
		return false
	}
	return true
}

func inQuery(sub model.Submission, query submission.ListQuery) bool {
	if query.From != nil && sub.CreatedAt.Before(*query.From) {
		return false
	}
	if query.To != nil && sub.CreatedAt.After(*query.To) {
		return false
	}
	if search := strings.ToLower(strings.TrimSpace(query.Search)); search != "" {
		return strings.Contains(searchText(sub), search)
	}
	return true
}

// searchText is the lower-cased text a search term is matched against:
// submitter identity plus every scalar answer.
func searchText(sub model.Submission) string {
	parts := []string{sub.SubmittedBy}
	if sub.SubmitterInfo != nil {
		parts = append(parts, sub.SubmitterInfo.Name, sub.SubmitterInfo.Email)
	}
	for _, value := range sub.Data {
		switch v := value.(type) {
		case string:
			parts = append(parts, v)
		case []any:
			for _, item := range v {
				if str, ok := item.(string); ok {
					parts = append(parts, str)
				}
			}
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func sortSubmissions(items []model.Submission, sortBy, order string) {
	desc := order != "asc"
	less := func(a, b model.Submission) bool {
		switch sortBy {
		case "status":
			if a.Status != b.Status {
				return a.Status < b.Status
			}
		case "submittedBy":
			if a.SubmittedBy != b.SubmittedBy {
				return a.SubmittedBy < b.SubmittedBy
			}
		case "reviewedAt":
			at, bt := timeOrZero(a.ReviewedAt), timeOrZero(b.ReviewedAt)
			if !at.Equal(bt) {
				return at.Before(bt)
			}
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	}
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

func notFound(id string) error {
	return fmt.Errorf("memstore: %w: %q", submission.ErrNotFound, id)
}
