package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":      http.StatusText(status),
		"message":    message,
		"statusCode": status,
	})
}

// fakeAPI accepts access token "new" and rotates refresh token "r1" to it
type fakeAPI struct {
	refreshCalls    atomic.Int32
	meCalls         atomic.Int32
	credentialCalls atomic.Int32
	// refreshGate, when set, holds the refresh response until closed
	refreshGate chan struct{}
	refreshFail bool
	alwaysDeny  bool
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		f.refreshCalls.Add(1)
		assert.Empty(t, r.Header.Get("Authorization"))
		if f.refreshGate != nil {
			select {
			case <-f.refreshGate:
			case <-time.After(5 * time.Second):
			}
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if f.refreshFail || body["refreshToken"] != "r1" {
			writeAPIError(w, http.StatusUnauthorized, "Invalid refresh token")
			return
		}
		writeJSON(w, http.StatusOK, RefreshResponse{
			Message: "Token refreshed successfully",
			Tokens:  &Tokens{AccessToken: "new", RefreshToken: "r2", ExpiresIn: 900},
		})
	})
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		f.credentialCalls.Add(1)
		writeAPIError(w, http.StatusUnauthorized, "Invalid credentials")
	})
	mux.HandleFunc("POST /auth/register", func(w http.ResponseWriter, r *http.Request) {
		f.credentialCalls.Add(1)
		writeAPIError(w, http.StatusUnauthorized, "Unauthorized")
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		f.meCalls.Add(1)
		if f.alwaysDeny || r.Header.Get("Authorization") != "Bearer new" {
			writeAPIError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"message": "User retrieved successfully", "user": User{ID: "u1", Username: "ana"}})
	})
	return mux
}

func newTestClient(t *testing.T, api *fakeAPI, tokens *Tokens) (*Client, *httptest.Server) {
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)
	return New(srv.URL, NewMemorySession(tokens), WithTimeout(5*time.Second)), srv
}

func TestDo_AttachesBearer(t *testing.T) {
	api := &fakeAPI{}
	c, _ := newTestClient(t, api, &Tokens{AccessToken: "new", RefreshToken: "r1"})

	user, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ana", user.Username)
	assert.Equal(t, int32(0), api.refreshCalls.Load())
}

func TestDo_RefreshesAndRetriesOnce(t *testing.T) {
	api := &fakeAPI{}
	c, _ := newTestClient(t, api, &Tokens{AccessToken: "old", RefreshToken: "r1"})

	user, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, int32(1), api.refreshCalls.Load())
	assert.Equal(t, int32(2), api.meCalls.Load())
	assert.Equal(t, "new", c.Session().AccessToken())
	assert.Equal(t, "r2", c.Session().RefreshToken())
}

func TestDo_RetriesOnlyOnce(t *testing.T) {
	api := &fakeAPI{alwaysDeny: true}
	c, _ := newTestClient(t, api, &Tokens{AccessToken: "old", RefreshToken: "r1"})

	_, err := c.Me(context.Background())

	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.Equal(t, int32(1), api.refreshCalls.Load())
	assert.Equal(t, int32(2), api.meCalls.Load())
}

func TestLogin_WrongPasswordIsSentOnce(t *testing.T) {
	api := &fakeAPI{}
	c, _ := newTestClient(t, api, &Tokens{AccessToken: "a0", RefreshToken: "r1"})

	for i := 0; i < 3; i++ {
		_, err := c.Login(context.Background(), "ana", "wrong")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		assert.Equal(t, "Invalid credentials", apiErr.Message)
	}

	assert.Equal(t, int32(3), api.credentialCalls.Load())
	assert.Equal(t, int32(0), api.refreshCalls.Load())
	assert.Equal(t, "r1", c.Session().RefreshToken(), "a failed login leaves the session alone")
}

func TestRegister_UnauthorizedIsNotRetried(t *testing.T) {
	api := &fakeAPI{}
	c, _ := newTestClient(t, api, &Tokens{AccessToken: "a0", RefreshToken: "r1"})

	_, err := c.Register(context.Background(), RegisterInput{Email: "ana@example.com", Username: "ana", Password: "Passw0rd!"})

	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.Equal(t, int32(1), api.credentialCalls.Load())
	assert.Equal(t, int32(0), api.refreshCalls.Load())
}

func TestDo_NoRefreshTokenReturnsOriginalError(t *testing.T) {
	api := &fakeAPI{}
	c, _ := newTestClient(t, api, &Tokens{AccessToken: "old"})

	_, err := c.Me(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid or expired token", apiErr.Message)
	assert.Equal(t, int32(0), api.refreshCalls.Load())
	assert.Empty(t, c.Session().AccessToken())
}

func TestDo_RefreshFailureClearsSession(t *testing.T) {
	api := &fakeAPI{refreshFail: true}
	c, _ := newTestClient(t, api, &Tokens{AccessToken: "old", RefreshToken: "r1"})

	_, err := c.Me(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid refresh token", apiErr.Message)
	assert.Equal(t, int32(1), api.meCalls.Load())
	assert.Empty(t, c.Session().AccessToken())
	assert.Empty(t, c.Session().RefreshToken())
}

func TestDo_ConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	const n = 8
	api := &fakeAPI{refreshGate: make(chan struct{})}
	c, _ := newTestClient(t, api, &Tokens{AccessToken: "old", RefreshToken: "r1"})

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Me(context.Background())
		}(i)
	}

	// Every request has been rejected once before the exchange completes
	require.Eventually(t, func() bool { return api.meCalls.Load() >= n }, 5*time.Second, 5*time.Millisecond)
	close(api.refreshGate)
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "request %d", i)
	}
	assert.Equal(t, int32(1), api.refreshCalls.Load())
	assert.Equal(t, int32(2*n), api.meCalls.Load())
}

func TestDo_LogoutDuringRefreshWins(t *testing.T) {
	api := &fakeAPI{refreshGate: make(chan struct{})}
	c, _ := newTestClient(t, api, &Tokens{AccessToken: "old", RefreshToken: "r1"})

	done := make(chan error, 1)
	go func() {
		_, err := c.Me(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool { return api.refreshCalls.Load() == 1 }, 5*time.Second, 5*time.Millisecond)

	c.endSession()
	close(api.refreshGate)

	err := <-done
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.Empty(t, c.Session().AccessToken())
	assert.Empty(t, c.Session().RefreshToken())
}

func TestDo_APIErrorMessageVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusConflict, "User with this email or username already exists")
	}))
	t.Cleanup(srv.Close)
	c := New(srv.URL, nil)

	_, err := c.Register(context.Background(), RegisterInput{Email: "a@b.co"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "User with this email or username already exists", err.Error())
}

func TestDo_NonJSONErrorFallsBackToStatusText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	_, err := New(srv.URL, nil).ListGroups(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusText(http.StatusBadGateway), apiErr.Message)
}

func TestDo_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, nil).ListGroups(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNetwork))
	assert.Equal(t, "Network error. Please check your connection.", err.Error())
}

func TestLoginStoresTokensAndLogoutClears(t *testing.T) {
	var logoutBody map[string]string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, AuthResponse{Message: "Login successful", User: &User{ID: "u1"}, Tokens: &Tokens{AccessToken: "a1", RefreshToken: "r1"}})
	})
	mux.HandleFunc("POST /auth/logout", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer a1", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&logoutBody)
		writeAPIError(w, http.StatusInternalServerError, "Internal server error")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c := New(srv.URL, nil)

	resp, err := c.Login(context.Background(), "ana", "Secret1!")
	require.NoError(t, err)
	assert.Equal(t, "u1", resp.User.ID)
	assert.Equal(t, "a1", c.Session().AccessToken())

	err = c.Logout(context.Background())
	assert.Error(t, err)
	assert.Equal(t, "r1", logoutBody["refreshToken"])
	assert.Empty(t, c.Session().AccessToken())
	assert.Empty(t, c.Session().RefreshToken())
}

func TestUploadMedia_ResendsFileAfterRefresh(t *testing.T) {
	var uploads atomic.Int32
	api := &fakeAPI{}
	mux := http.NewServeMux()
	mux.Handle("/auth/", api.handler(t))
	mux.HandleFunc("POST /groups/{id}/media", func(w http.ResponseWriter, r *http.Request) {
		uploads.Add(1)
		if r.Header.Get("Authorization") != "Bearer new" {
			writeAPIError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			writeAPIError(w, http.StatusBadRequest, "No file uploaded")
			return
		}
		content, _ := io.ReadAll(file)
		assert.Equal(t, "beach.jpg", header.Filename)
		assert.Equal(t, "image", r.FormValue("mediaType"))
		writeJSON(w, http.StatusCreated, Media{ID: "m1", GroupID: r.PathValue("id"), FileSize: int64(len(content))})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c := New(srv.URL, NewMemorySession(&Tokens{AccessToken: "old", RefreshToken: "r1"}))

	media, err := c.UploadMedia(context.Background(), "g1", UploadMediaInput{FileName: "beach.jpg", Content: []byte("jpeg-bytes"), MediaType: "image"})

	require.NoError(t, err)
	assert.Equal(t, "g1", media.GroupID)
	assert.Equal(t, int64(len("jpeg-bytes")), media.FileSize)
	assert.Equal(t, int32(2), uploads.Load())
}

func TestListMedia_Query(t *testing.T) {
	var query map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		writeJSON(w, http.StatusOK, MediaPage{Media: []*Media{}, Page: 2, Limit: 10})
	}))
	t.Cleanup(srv.Close)
	from := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	page, err := New(srv.URL, nil).ListMedia(context.Background(), "g1", ListMediaOptions{Page: 2, Limit: 10, MediaType: "video", DateFrom: &from})

	require.NoError(t, err)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, []string{"2"}, query["page"])
	assert.Equal(t, []string{"10"}, query["limit"])
	assert.Equal(t, []string{"video"}, query["mediaType"])
	assert.Equal(t, []string{"2026-05-01T00:00:00Z"}, query["dateFrom"])
	assert.NotContains(t, query, "uploadedBy")
}

func TestJoinWithCode_OptionalMessage(t *testing.T) {
	var contentLength int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentLength = r.ContentLength
		assert.Equal(t, "/groups/join/K7QX2MPA9ZTB", r.URL.Path)
		writeJSON(w, http.StatusOK, JoinResult{Message: "Successfully joined group", Group: &Group{ID: "g1"}})
	}))
	t.Cleanup(srv.Close)

	res, err := New(srv.URL, NewMemorySession(&Tokens{AccessToken: "a"})).JoinWithCode(context.Background(), "K7QX2MPA9ZTB", "")

	require.NoError(t, err)
	assert.Equal(t, "g1", res.Group.ID)
	assert.Equal(t, int64(0), contentLength)
}
