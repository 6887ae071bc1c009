// Package client is a Go client for the tripshare API. It attaches the
// session's access token to every request and, on a 401, exchanges the
// refresh token once and retries. Concurrent 401s share one exchange.
package client

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/singleflight"
)

const refreshPath = "/auth/refresh"

// noRefresh lists paths whose 401 is a credential failure, not an expired
// session. They are never refreshed or retried.
var noRefresh = map[string]bool{
	refreshPath:      true,
	"/auth/login":    true,
	"/auth/register": true,
}

// File is a multipart file part
type File struct {
	FieldName string
	FileName  string
	Content   []byte
}

// Request describes one API call. Path is relative to the client's base URL.
// Result, when set, receives the decoded JSON body of a successful response.
type Request struct {
	Method string
	Path   string
	Query  map[string]string
	Body   interface{}
	Form   map[string]string
	File   *File
	Result interface{}
}

// Client talks to the API on behalf of one session
type Client struct {
	http    *resty.Client
	session Session
	flight  singleflight.Group
	// epoch advances on logout so an in-flight refresh cannot revive the session
	epoch atomic.Uint64
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the per-request timeout (default 30s)
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// WithHTTPClient swaps the underlying transport client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		base := c.http.BaseURL
		c.http = resty.NewWithClient(hc).SetBaseURL(base).SetHeader("Accept", "application/json")
	}
}

// New creates a client for the API rooted at baseURL (for example
// "https://api.tripshare.app/api/v1")
func New(baseURL string, session Session, opts ...Option) *Client {
	if session == nil {
		session = NewMemorySession(nil)
	}
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Accept", "application/json").
			SetTimeout(30 * time.Second),
		session: session,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the session the client reads tokens from
func (c *Client) Session() Session {
	return c.session
}

// Do performs req. On a 401 it refreshes the session once and retries the
// request exactly once with the new access token. Login, register and refresh
// calls are sent once.
func (c *Client) Do(ctx context.Context, req *Request) error {
	sentWith := c.session.AccessToken()
	resp, err := c.send(ctx, req, sentWith)
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusUnauthorized || noRefresh[req.Path] {
		return result(resp)
	}
	unauthorized := toAPIError(resp)

	// Another request already refreshed while this one was in flight
	if current := c.session.AccessToken(); current != "" && current != sentWith {
		return c.retry(ctx, req, current)
	}

	token, err := c.refresh(ctx, sentWith)
	if err != nil {
		if errors.Is(err, errNoSession) {
			return unauthorized
		}
		return err
	}
	return c.retry(ctx, req, token)
}

func (c *Client) retry(ctx context.Context, req *Request, token string) error {
	resp, err := c.send(ctx, req, token)
	if err != nil {
		return err
	}
	return result(resp)
}

func (c *Client) send(ctx context.Context, req *Request, token string) (*resty.Response, error) {
	r := c.http.R().
		SetContext(ctx).
		SetError(&errorBody{})
	if req.Result != nil {
		r.SetResult(req.Result)
	}
	if token != "" {
		r.SetAuthToken(token)
	}
	if len(req.Query) > 0 {
		r.SetQueryParams(req.Query)
	}

	switch {
	case req.File != nil:
		// A fresh reader per attempt so a retry resends the whole file
		r.SetFileReader(req.File.FieldName, req.File.FileName, bytes.NewReader(req.File.Content))
		if len(req.Form) > 0 {
			r.SetFormData(req.Form)
		}
	case req.Body != nil:
		r.SetBody(req.Body)
	}

	resp, err := r.Execute(req.Method, req.Path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &networkError{cause: err}
	}
	return resp, nil
}

func result(resp *resty.Response) error {
	if resp.IsError() {
		return toAPIError(resp)
	}
	return nil
}

// refresh exchanges the refresh token for a new pair. Callers that fail with
// the same stale access token share one exchange. The exchange ignores
// cancellation of ctx; a logout that lands meanwhile wins and the new pair
// is discarded.
func (c *Client) refresh(ctx context.Context, stale string) (string, error) {
	v, err, _ := c.flight.Do(refreshPath, func() (interface{}, error) {
		// A flight that finished just before this one started already rotated
		if current := c.session.AccessToken(); current != "" && current != stale {
			return current, nil
		}

		refreshToken := c.session.RefreshToken()
		if refreshToken == "" {
			c.session.Clear()
			return "", errNoSession
		}

		epoch := c.epoch.Load()
		var out RefreshResponse
		resp, err := c.send(context.WithoutCancel(ctx), &Request{
			Method: http.MethodPost,
			Path:   refreshPath,
			Body:   map[string]string{"refreshToken": refreshToken},
			Result: &out,
		}, "")
		if err == nil {
			err = result(resp)
		}
		if err != nil {
			c.session.Clear()
			return "", err
		}

		if c.epoch.Load() != epoch || out.Tokens == nil {
			c.session.Clear()
			return "", errNoSession
		}
		c.session.SetTokens(out.Tokens)
		return out.Tokens.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// endSession forgets the tokens and invalidates any refresh in flight
func (c *Client) endSession() {
	c.epoch.Add(1)
	c.session.Clear()
}
