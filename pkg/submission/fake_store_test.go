package submission_test

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-formsuite/pkg/model"
	"github.com/goliatone/go-formsuite/pkg/submission"
)

type fakeStore struct {
	mu      sync.Mutex
	seq     int
	items   map[string]model.Submission
	order   []string
	params  url.Values
	failIDs map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: map[string]model.Submission{}, failIDs: map[string]error{}}
}

func (s *fakeStore) CreateSubmission(_ context.Context, sub model.Submission) (model.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	sub.ID = "sub-" + strconv.Itoa(s.seq)
	s.items[sub.ID] = sub
	s.order = append(s.order, sub.ID)
	return sub, nil
}

func (s *fakeStore) GetSubmission(_ context.Context, id string) (model.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.items[id]
	if !ok {
		return model.Submission{}, fmt.Errorf("%w: %s", submission.ErrNotFound, id)
	}
	return sub, nil
}

func (s *fakeStore) SetStatus(_ context.Context, id string, status model.SubmissionStatus, notes string, at time.Time) (model.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failIDs[id]; err != nil {
		return model.Submission{}, err
	}
	sub, ok := s.items[id]
	if !ok {
		return model.Submission{}, fmt.Errorf("%w: %s", submission.ErrNotFound, id)
	}
	sub.Status = status
	sub.ReviewNotes = notes
	sub.ReviewedAt = &at
	s.items[id] = sub
	return sub, nil
}

func (s *fakeStore) FlagSubmission(_ context.Context, id, reason string) (model.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.items[id]
	if !ok {
		return model.Submission{}, fmt.Errorf("%w: %s", submission.ErrNotFound, id)
	}
	sub.Flagged = true
	sub.FlagReason = reason
	s.items[id] = sub
	return sub, nil
}

func (s *fakeStore) DeleteSubmission(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("%w: %s", submission.ErrNotFound, id)
	}
	delete(s.items, id)
	return nil
}

func (s *fakeStore) ListSubmissions(_ context.Context, formID string, params url.Values) (submission.ListResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = params
	var matched []model.Submission
	for _, id := range s.order {
		sub, ok := s.items[id]
		if !ok || sub.FormID != formID {
			continue
		}
		if status := params.Get("status"); status != "" && string(sub.Status) != status {
			continue
		}
		matched = append(matched, sub)
	}
	page, _ := strconv.Atoi(params.Get("page"))
	limit, _ := strconv.Atoi(params.Get("limit"))
	start := (page - 1) * limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return submission.ListResult{Items: matched[start:end], Total: len(matched)}, nil
}

func (s *fakeStore) CountSubmissions(_ context.Context, formID string, filter submission.CountFilter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, sub := range s.items {
		if sub.FormID != formID {
			continue
		}
		if filter.SubmittedBy != "" && sub.SubmittedBy != filter.SubmittedBy {
			continue
		}
		if filter.Email != "" && (sub.SubmitterInfo == nil || !strings.EqualFold(sub.SubmitterInfo.Email, filter.Email)) {
			continue
		}
		if filter.Status != "" && sub.Status != filter.Status {
			continue
		}
		if filter.Flagged != nil && sub.Flagged != *filter.Flagged {
			continue
		}
		count++
	}
	return count, nil
}

type recordingObserver struct {
	outcomes []string
	bulk     []string
}

func (o *recordingObserver) SubmitObserved(_ string, outcome string) {
	o.outcomes = append(o.outcomes, outcome)
}

func (o *recordingObserver) BulkObserved(action submission.BulkActionType, succeeded, failed int) {
	o.bulk = append(o.bulk, fmt.Sprintf("%s:%d/%d", action, succeeded, failed))
}
