// Package memstore keeps forms, submissions and uploads in process memory.
// It backs the development server and the tests of the HTTP layer.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-formsuite/pkg/model"
)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now for form timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides uuid generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// Store is a concurrency-safe in-memory store. Values are cloned on the way
// in and out so callers never share maps with the store.
type Store struct {
	mu          sync.RWMutex
	forms       map[string]model.Form
	submissions map[string]model.Submission
	uploads     map[string]Upload
	now         func() time.Time
	newID       func() string
}

// New builds an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		forms:       make(map[string]model.Form),
		submissions: make(map[string]model.Submission),
		uploads:     make(map[string]Upload),
		now:         time.Now,
		newID:       func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// FormFilter narrows ListForms.
type FormFilter struct {
	Status   model.FormStatus
	Category model.Category
	Search   string
	Page     int
	Limit    int
}

// SaveForm creates forms without an id and replaces the rest.
func (s *Store) SaveForm(ctx context.Context, form model.Form) (model.Form, error) {
	if err := ctx.Err(); err != nil {
		return model.Form{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	form = form.Clone()
	if strings.TrimSpace(form.ID) == "" {
		form.ID = s.newID()
		form.CreatedAt = &now
	} else if existing, ok := s.forms[form.ID]; ok {
		form.CreatedAt = existing.CreatedAt
	} else if form.CreatedAt == nil {
		form.CreatedAt = &now
	}
	if form.Status == "" {
		form.Status = model.FormStatusDraft
	}
	form.UpdatedAt = &now
	s.forms[form.ID] = form
	return form.Clone(), nil
}

// GetForm returns the form or model.ErrFormNotFound.
func (s *Store) GetForm(ctx context.Context, id string) (model.Form, error) {
	if err := ctx.Err(); err != nil {
		return model.Form{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	form, ok := s.forms[id]
	if !ok {
		return model.Form{}, fmt.Errorf("memstore: %w: %q", model.ErrFormNotFound, id)
	}
	return form.Clone(), nil
}

// DeleteForm removes a form and its submissions.
func (s *Store) DeleteForm(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.forms[id]; !ok {
		return fmt.Errorf("memstore: %w: %q", model.ErrFormNotFound, id)
	}
	delete(s.forms, id)
	for subID, sub := range s.submissions {
		if sub.FormID == id {
			delete(s.submissions, subID)
		}
	}
	return nil
}

// ListForms returns forms matching filter, newest first, and the total
// before pagination.
func (s *Store) ListForms(ctx context.Context, filter FormFilter) ([]model.Form, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	s.mu.RLock()
	matched := make([]model.Form, 0, len(s.forms))
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	for _, form := range s.forms {
		if filter.Status != "" && form.Status != filter.Status {
			continue
		}
		if filter.Category != "" && form.Category != filter.Category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(form.Title+" "+form.Description), search) {
			continue
		}
		matched = append(matched, form.Clone())
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := timeOrZero(matched[i].CreatedAt), timeOrZero(matched[j].CreatedAt)
		if a.Equal(b) {
			return matched[i].ID < matched[j].ID
		}
		return a.After(b)
	})
	start, end := pageBounds(len(matched), filter.Page, filter.Limit)
	return matched[start:end], len(matched), nil
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// pageBounds maps a 1-based page onto slice bounds. A non-positive limit
// returns everything.
func pageBounds(total, page, limit int) (int, int) {
	if limit <= 0 {
		return 0, total
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return start, end
}
