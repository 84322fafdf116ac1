package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-formsuite/pkg/model"
)

// FormQuery filters GET /forms.
type FormQuery struct {
	Status   model.FormStatus
	Category model.Category
	Search   string
	Page     int
	Limit    int
}

// Params encodes the query.
func (q FormQuery) Params() url.Values {
	params := url.Values{}
	if q.Status != "" {
		params.Set("status", string(q.Status))
	}
	if q.Category != "" {
		params.Set("category", string(q.Category))
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		params.Set("search", s)
	}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	return params
}

// FormList is one page of forms.
type FormList struct {
	Items []model.Form `json:"items"`
	Total int          `json:"total"`
}

// ListForms calls GET /forms.
func (c *Client) ListForms(ctx context.Context, query FormQuery) (FormList, error) {
	var list FormList
	err := c.doList(ctx, call{op: "list forms", method: http.MethodGet, url: c.endpoint(query.Params(), "forms")}, &list.Items, &list.Total)
	return list, err
}

// GetForm calls GET /forms/{id}. Unknown ids unwrap to
// model.ErrFormNotFound.
func (c *Client) GetForm(ctx context.Context, id string) (model.Form, error) {
	var form model.Form
	err := c.do(ctx, call{
		op: "get form", method: http.MethodGet, url: c.endpoint(nil, "forms", id),
		notFound: model.ErrFormNotFound,
	}, &form)
	return form, err
}

// GetPublicForm calls GET /public/forms/{id}, the respondent view of an
// active form.
func (c *Client) GetPublicForm(ctx context.Context, id string) (model.Form, error) {
	var form model.Form
	err := c.do(ctx, call{
		op: "get public form", method: http.MethodGet, url: c.endpoint(nil, "public", "forms", id),
		notFound: model.ErrFormNotFound,
	}, &form)
	return form, err
}

// CreateForm calls POST /forms and returns the stored form with its id.
func (c *Client) CreateForm(ctx context.Context, form model.Form) (model.Form, error) {
	var out model.Form
	err := c.doJSON(ctx, call{op: "create form", method: http.MethodPost, url: c.endpoint(nil, "forms")}, form, &out)
	return out, err
}

// UpdateForm calls PUT /forms/{id}.
func (c *Client) UpdateForm(ctx context.Context, form model.Form) (model.Form, error) {
	var out model.Form
	err := c.doJSON(ctx, call{
		op: "update form", method: http.MethodPut, url: c.endpoint(nil, "forms", form.ID),
		notFound: model.ErrFormNotFound,
	}, form, &out)
	return out, err
}

// SaveForm creates forms without an id and updates the rest. It satisfies
// builder.Store.
func (c *Client) SaveForm(ctx context.Context, form model.Form) (model.Form, error) {
	if strings.TrimSpace(form.ID) == "" {
		return c.CreateForm(ctx, form)
	}
	return c.UpdateForm(ctx, form)
}

// DeleteForm calls DELETE /forms/{id}.
func (c *Client) DeleteForm(ctx context.Context, id string) error {
	return c.do(ctx, call{
		op: "delete form", method: http.MethodDelete, url: c.endpoint(nil, "forms", id),
		notFound: model.ErrFormNotFound,
	}, nil)
}

// listPayload accepts `{"items": [...], "total": n}`, the enveloped
// `{"data": [...], "total": n}` and a bare array.
type listPayload struct {
	Items json.RawMessage `json:"items"`
	Data  json.RawMessage `json:"data"`
	Total *int            `json:"total"`
	Meta  struct {
		Total *int `json:"total"`
	} `json:"meta"`
}

func (c *Client) doList(ctx context.Context, cl call, items any, total *int) error {
	var raw json.RawMessage
	resp, err := c.open(ctx, cl)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return &TransportError{Op: cl.op, Method: cl.method, URL: cl.url, StatusCode: resp.StatusCode, Message: "decode response", Err: err}
	}

	decodeErr := func(err error) error {
		return &TransportError{Op: cl.op, Method: cl.method, URL: cl.url, StatusCode: resp.StatusCode, Message: "decode response", Err: err}
	}

	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(raw, items); err != nil {
			return decodeErr(err)
		}
		*total = countRaw(raw)
		return nil
	}

	var payload listPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return decodeErr(err)
	}
	list := payload.Items
	if len(list) == 0 {
		list = payload.Data
	}
	// {"data": {"items": [...], "total": n}}
	if len(list) > 0 && strings.HasPrefix(strings.TrimSpace(string(list)), "{") {
		var inner listPayload
		if err := json.Unmarshal(list, &inner); err != nil {
			return decodeErr(err)
		}
		list = inner.Items
		if payload.Total == nil {
			payload.Total = inner.Total
		}
	}
	if len(list) > 0 && string(list) != "null" {
		if err := json.Unmarshal(list, items); err != nil {
			return decodeErr(err)
		}
	}
	switch {
	case payload.Total != nil:
		*total = *payload.Total
	case payload.Meta.Total != nil:
		*total = *payload.Meta.Total
	default:
		*total = countRaw(list)
	}
	return nil
}

func countRaw(raw json.RawMessage) int {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return 0
	}
	return len(items)
}
