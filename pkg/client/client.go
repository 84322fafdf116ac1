package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-formsuite/pkg/submission"
	"github.com/goliatone/go-formsuite/pkg/validation"
)

const defaultTimeout = 30 * time.Second

// maxErrorBody bounds how much of a failed response is read for its message.
const maxErrorBody = 64 << 10

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithToken sends a bearer token on every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// WithHeader adds a static header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		if key != "" {
			c.headers.Set(key, value)
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return WithHeader("User-Agent", ua)
}

// Client talks to the forms REST collaborator. It implements the form and
// submission store contracts used by the builder, orchestrator and
// submission manager.
type Client struct {
	base    *url.URL
	http    *http.Client
	token   string
	headers http.Header
}

// New builds a Client for baseURL, e.g. "https://forms.example.com/api".
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("client: base url is required")
	}
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("client: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("client: base url %q must be http(s)", baseURL)
	}
	c := &Client{
		base:    base,
		http:    &http.Client{Timeout: defaultTimeout},
		headers: http.Header{"User-Agent": {"go-formsuite"}},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// BaseURL returns the configured collaborator root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

func (c *Client) endpoint(query url.Values, segments ...string) string {
	u := *c.base
	escaped := make([]string, 0, len(segments))
	for _, segment := range segments {
		escaped = append(escaped, url.PathEscape(segment))
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.Join(escaped, "/")
	u.RawPath = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// call describes one request.
type call struct {
	op          string
	method      string
	url         string
	body        io.Reader
	contentType string
	header      http.Header
	// notFound is the sentinel mapped to 404 responses.
	notFound error
}

func (c *Client) newRequest(ctx context.Context, cl call) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, cl.method, cl.url, cl.body)
	if err != nil {
		return nil, &TransportError{Op: cl.op, Method: cl.method, URL: cl.url, Err: err}
	}
	for key, values := range c.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	for key, values := range cl.header {
		req.Header[key] = values
	}
	req.Header.Set("Accept", "application/json")
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// open performs the request and returns the response when the status is
// 2xx. The caller closes the body.
func (c *Client) open(ctx context.Context, cl call) (*http.Response, error) {
	req, err := c.newRequest(ctx, cl)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: cl.op, Method: cl.method, URL: cl.url, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer func() {
			_ = resp.Body.Close()
		}()
		return nil, statusError(cl, resp)
	}
	return resp, nil
}

// do performs the request and decodes the (optionally enveloped) JSON body
// into out. out may be nil.
func (c *Client) do(ctx context.Context, cl call, out any) error {
	resp, err := c.open(ctx, cl)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: cl.op, Method: cl.method, URL: cl.url, StatusCode: resp.StatusCode, Err: err}
	}
	if err := json.Unmarshal(unwrapEnvelope(raw), out); err != nil {
		return &TransportError{Op: cl.op, Method: cl.method, URL: cl.url, StatusCode: resp.StatusCode, Message: "decode response", Err: err}
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, cl call, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("client: %s: encode request: %w", cl.op, err)
	}
	cl.body = bytes.NewReader(payload)
	cl.contentType = "application/json"
	return c.do(ctx, cl, out)
}

// envelopeKeys are the members that may sit next to "data" in a response
// envelope. An object with any other member is a payload in its own right.
var envelopeKeys = map[string]struct{}{
	"data": {}, "success": {}, "message": {}, "status": {}, "meta": {},
}

// unwrapEnvelope returns the "data" member of an enveloped response, or raw
// unchanged.
func unwrapEnvelope(raw []byte) []byte {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil {
		return raw
	}
	data, ok := members["data"]
	if !ok {
		return raw
	}
	for key := range members {
		if _, allowed := envelopeKeys[key]; !allowed {
			return raw
		}
	}
	return data
}

type errorBody struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Error   string              `json:"error"`
	Errors  map[string][]string `json:"errors"`
}

func statusError(cl call, resp *http.Response) error {
	tErr := &TransportError{Op: cl.op, Method: cl.method, URL: cl.url, StatusCode: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		tErr.Message = body.Message
		if tErr.Message == "" {
			tErr.Message = body.Error
		}
		tErr.Errors = body.Errors
		tErr.Err = submission.ErrorForCode(body.Code)
		switch {
		case tErr.Err != nil:
		case body.Code == submission.CodeInvalidForm:
			tErr.Err = &validation.SchemaValidationError{Errors: validation.ErrorMap(body.Errors)}
		case len(body.Errors) > 0 && resp.StatusCode == http.StatusUnprocessableEntity:
			tErr.Err = &validation.FieldValidationError{Errors: validation.ErrorMap(body.Errors)}
		}
	} else {
		tErr.Message = strings.TrimSpace(string(raw))
	}
	if tErr.Err == nil && resp.StatusCode == http.StatusNotFound && cl.notFound != nil {
		tErr.Err = cl.notFound
	}
	return tErr
}
