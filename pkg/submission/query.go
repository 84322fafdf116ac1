package submission

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Listing defaults.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	DefaultSort  = "createdAt"
	DefaultOrder = "desc"
)

// ListQuery filters and paginates a submission listing.
type ListQuery struct {
	Search string     `json:"search,omitempty" validate:"max=200"`
	Status string     `json:"status,omitempty" validate:"omitempty,oneof=pending reviewed approved rejected spam"`
	From   *time.Time `json:"from,omitempty"`
	To     *time.Time `json:"to,omitempty"`
	SortBy string     `json:"sortBy,omitempty" validate:"omitempty,oneof=createdAt status reviewedAt submittedBy"`
	Order  string     `json:"order,omitempty" validate:"omitempty,oneof=asc desc"`
	Page   int        `json:"page,omitempty" validate:"gte=0"`
	Limit  int        `json:"limit,omitempty" validate:"gte=0,lte=100"`

	// Identity filters used by duplicate checks and staff lookups.
	SubmittedBy string `json:"submittedBy,omitempty" validate:"max=200"`
	Email       string `json:"email,omitempty" validate:"omitempty,max=254"`
	Flagged     *bool  `json:"flagged,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Normalize validates q and fills defaults (page 1, limit 10, createdAt
// desc).
func (q ListQuery) Normalize() (ListQuery, error) {
	q.Search = strings.TrimSpace(q.Search)
	q.Status = strings.ToLower(strings.TrimSpace(q.Status))
	q.Order = strings.ToLower(strings.TrimSpace(q.Order))
	q.SortBy = strings.TrimSpace(q.SortBy)
	if err := validate.Struct(q); err != nil {
		return ListQuery{}, fmt.Errorf("%w: list query: %w", ErrInvalidRequest, describeValidation(err))
	}
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		return ListQuery{}, fmt.Errorf("%w: list query: to must not be before from", ErrInvalidRequest)
	}
	if q.Page == 0 {
		q.Page = DefaultPage
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.SortBy == "" {
		q.SortBy = DefaultSort
	}
	if q.Order == "" {
		q.Order = DefaultOrder
	}
	return q, nil
}

// Params encodes the query as collaborator parameters: page, limit,
// status, search, sort, order, from, to plus the identity filters when set.
func (q ListQuery) Params() url.Values {
	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("limit", strconv.Itoa(q.Limit))
	if q.Status != "" {
		params.Set("status", q.Status)
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	if q.SortBy != "" {
		params.Set("sort", q.SortBy)
	}
	if q.Order != "" {
		params.Set("order", q.Order)
	}
	if q.From != nil {
		params.Set("from", q.From.UTC().Format(time.RFC3339))
	}
	if q.To != nil {
		params.Set("to", q.To.UTC().Format(time.RFC3339))
	}
	if q.SubmittedBy != "" {
		params.Set("submittedBy", q.SubmittedBy)
	}
	if q.Email != "" {
		params.Set("email", q.Email)
	}
	if q.Flagged != nil {
		params.Set("flagged", strconv.FormatBool(*q.Flagged))
	}
	return params
}

// ParseListQuery reads a ListQuery from collaborator parameters, the
// inverse of Params. Malformed numbers and times are errors.
func ParseListQuery(params url.Values) (ListQuery, error) {
	q := ListQuery{
		Search: params.Get("search"),
		Status: params.Get("status"),
		SortBy: params.Get("sort"),
		Order:  params.Get("order"),

		SubmittedBy: strings.TrimSpace(params.Get("submittedBy")),
		Email:       strings.TrimSpace(params.Get("email")),
	}
	var err error
	if q.Page, err = atoiParam(params, "page"); err != nil {
		return ListQuery{}, err
	}
	if q.Limit, err = atoiParam(params, "limit"); err != nil {
		return ListQuery{}, err
	}
	if q.From, err = timeParam(params, "from"); err != nil {
		return ListQuery{}, err
	}
	if q.To, err = timeParam(params, "to"); err != nil {
		return ListQuery{}, err
	}
	if raw := strings.TrimSpace(params.Get("flagged")); raw != "" {
		flagged, err := strconv.ParseBool(raw)
		if err != nil {
			return ListQuery{}, fmt.Errorf("%w: flagged %q", ErrInvalidRequest, raw)
		}
		q.Flagged = &flagged
	}
	return q, nil
}

func atoiParam(params url.Values, key string) (int, error) {
	raw := strings.TrimSpace(params.Get(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrInvalidRequest, key, raw)
	}
	return n, nil
}

func timeParam(params url.Values, key string) (*time.Time, error) {
	raw := strings.TrimSpace(params.Get(key))
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return &parsed, nil
		}
	}
	return nil, fmt.Errorf("%w: %s %q", ErrInvalidRequest, key, raw)
}

// describeValidation flattens validator errors into `field: tag` pairs.
func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		part := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:] + ": " + fe.Tag()
		if fe.Param() != "" {
			part += "=" + fe.Param()
		}
		parts = append(parts, part)
	}
	return errors.New(strings.Join(parts, "; "))
}
