package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Register creates an account and stores the returned tokens
func (c *Client) Register(ctx context.Context, in RegisterInput) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.Do(ctx, &Request{Method: http.MethodPost, Path: "/auth/register", Body: in, Result: &out}); err != nil {
		return nil, err
	}
	c.session.SetTokens(out.Tokens)
	return &out, nil
}

// Login authenticates with an email or username and stores the returned tokens
func (c *Client) Login(ctx context.Context, emailOrUsername, password string) (*AuthResponse, error) {
	var out AuthResponse
	err := c.Do(ctx, &Request{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Body:   map[string]string{"emailOrUsername": emailOrUsername, "password": password},
		Result: &out,
	})
	if err != nil {
		return nil, err
	}
	c.session.SetTokens(out.Tokens)
	return &out, nil
}

// Logout revokes the session's refresh token. Local tokens are cleared even
// when the call fails.
func (c *Client) Logout(ctx context.Context) error {
	defer c.endSession()

	refreshToken := c.session.RefreshToken()
	if refreshToken == "" {
		return nil
	}
	return c.Do(ctx, &Request{
		Method: http.MethodPost,
		Path:   "/auth/logout",
		Body:   map[string]string{"refreshToken": refreshToken},
	})
}

// LogoutAll revokes every refresh token of the user and clears the session
func (c *Client) LogoutAll(ctx context.Context) error {
	defer c.endSession()
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: "/auth/logout-all"})
}

// Me returns the signed-in user
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out struct {
		User *User `json:"user"`
	}
	if err := c.Do(ctx, &Request{Method: http.MethodGet, Path: "/auth/me", Result: &out}); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *Client) CreateGroup(ctx context.Context, in CreateGroupInput) (*Group, error) {
	var out Group
	if err := c.Do(ctx, &Request{Method: http.MethodPost, Path: "/groups", Body: in, Result: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListGroups returns the groups the user is an active member of
func (c *Client) ListGroups(ctx context.Context) ([]*Group, error) {
	var out []*Group
	if err := c.Do(ctx, &Request{Method: http.MethodGet, Path: "/groups", Result: &out}); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetGroup(ctx context.Context, groupID string) (*Group, error) {
	var out Group
	if err := c.Do(ctx, &Request{Method: http.MethodGet, Path: "/groups/" + url.PathEscape(groupID), Result: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// JoinWithCode joins a group by invite code. message is sent to the admins
// when the group requires approval; it may be empty.
func (c *Client) JoinWithCode(ctx context.Context, code, message string) (*JoinResult, error) {
	req := &Request{Method: http.MethodPost, Path: "/groups/join/" + url.PathEscape(code)}
	if message != "" {
		req.Body = map[string]string{"message": message}
	}
	var out JoinResult
	req.Result = &out
	if err := c.Do(ctx, req); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AcceptInvite(ctx context.Context, token string) (*JoinResult, error) {
	var out JoinResult
	if err := c.Do(ctx, &Request{Method: http.MethodPost, Path: "/groups/invites/" + url.PathEscape(token) + "/accept", Result: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadMedia sends one file to a group gallery as multipart/form-data
func (c *Client) UploadMedia(ctx context.Context, groupID string, in UploadMediaInput) (*Media, error) {
	form := map[string]string{}
	if in.MediaType != "" {
		form["mediaType"] = in.MediaType
	}
	if in.Caption != "" {
		form["caption"] = in.Caption
	}
	if in.Metadata != "" {
		form["metadata"] = in.Metadata
	}

	var out Media
	err := c.Do(ctx, &Request{
		Method: http.MethodPost,
		Path:   "/groups/" + url.PathEscape(groupID) + "/media",
		Form:   form,
		File:   &File{FieldName: "file", FileName: in.FileName, Content: in.Content},
		Result: &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListMedia(ctx context.Context, groupID string, opts ListMediaOptions) (*MediaPage, error) {
	query := map[string]string{}
	if opts.Page > 0 {
		query["page"] = strconv.Itoa(opts.Page)
	}
	if opts.Limit > 0 {
		query["limit"] = strconv.Itoa(opts.Limit)
	}
	if opts.MediaType != "" {
		query["mediaType"] = opts.MediaType
	}
	if opts.UploadedBy != "" {
		query["uploadedBy"] = opts.UploadedBy
	}
	if opts.DateFrom != nil {
		query["dateFrom"] = opts.DateFrom.Format(time.RFC3339)
	}
	if opts.DateTo != nil {
		query["dateTo"] = opts.DateTo.Format(time.RFC3339)
	}

	var out MediaPage
	if err := c.Do(ctx, &Request{Method: http.MethodGet, Path: "/groups/" + url.PathEscape(groupID) + "/media", Query: query, Result: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}
