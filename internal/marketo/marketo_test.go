package marketo

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/snapfront/internal/retry"
	"git.home.luguber.info/inful/snapfront/internal/upstream"
)

// fakeMarketo records every request and answers from a per-route handler.
type fakeMarketo struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   []string
	handle   func(w http.ResponseWriter, r *http.Request)
}

func (f *fakeMarketo) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, r)
	f.bodies = append(f.bodies, string(body))
	f.mu.Unlock()
	f.handle(w, r)
}

func newClient(t *testing.T, handle func(w http.ResponseWriter, r *http.Request)) (*Client, *fakeMarketo) {
	t.Helper()
	fake := &fakeMarketo{handle: handle}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	c := New(Config{BaseURL: srv.URL, ClientID: "fake_id", ClientSecret: "fake_secret"},
		upstream.WithRetryPolicy(retry.NoRetry()))
	return c, fake
}

func jsonReply(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestGetUser_AuthenticatesLazily(t *testing.T) {
	c, fake := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/identity/oauth/token":
			q := r.URL.Query()
			assert.Equal(t, "client_credentials", q.Get("grant_type"))
			assert.Equal(t, "fake_id", q.Get("client_id"))
			assert.Equal(t, "fake_secret", q.Get("client_secret"))
			jsonReply(w, http.StatusOK, map[string]string{"access_token": "test"})
		case "/rest/v1/leads.json":
			q := r.URL.Query()
			assert.Equal(t, "test", q.Get("access_token"))
			assert.Equal(t, "email", q.Get("filterType"))
			assert.Equal(t, "testing@testing.com", q.Get("filterValues"))
			assert.Equal(t, "id", q.Get("fields"))
			jsonReply(w, http.StatusOK, map[string]any{"result": []map[string]string{{"id": "test"}}})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	user, err := c.GetUser(context.Background(), "testing@testing.com")
	require.NoError(t, err)
	assert.Equal(t, Lead{"id": "test"}, user)
	assert.Len(t, fake.requests, 2)
}

func TestGetUser_NoResult(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		jsonReply(w, http.StatusOK, map[string]any{"result": []any{}})
	})
	c.SetToken("test")

	_, err := c.GetUser(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrLeadNotFound)
}

func TestGetNewsletterSubscription(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/lead/test.json", r.URL.Path)
		assert.Equal(t, "id,email,snapcraftnewsletter", r.URL.Query().Get("fields"))
		jsonReply(w, http.StatusOK, map[string]any{"result": []map[string]bool{{"snapcraftnewsletter": true}}})
	})
	c.SetToken("test")

	sub, err := c.GetNewsletterSubscription(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, Lead{"snapcraftnewsletter": true}, sub)
	assert.True(t, IsSubscribed(sub))
}

func TestGetNewsletterSubscription_BadResponse(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		jsonReply(w, http.StatusOK, map[string]string{"badkey": "bad"})
	})
	c.SetToken("test")

	sub, err := c.GetNewsletterSubscription(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, Lead{}, sub)
	assert.False(t, IsSubscribed(sub))
}

func TestSetNewsletterSubscription(t *testing.T) {
	c, fake := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/leads.json", r.URL.Path)
		assert.Equal(t, "test", r.URL.Query().Get("access_token"))
		jsonReply(w, http.StatusOK, map[string]any{})
	})
	c.SetToken("test")

	resp, err := c.SetNewsletterSubscription(context.Background(), "test", true)
	require.NoError(t, err)
	assert.Equal(t, Lead{}, resp)
	require.Len(t, fake.bodies, 1)
	assert.JSONEq(t, `{"input":[{"id":"test","snapcraftnewsletter":true}]}`, fake.bodies[0])
}

func TestTokenRefresh_OnStatus(t *testing.T) {
	c, fake := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/identity/oauth/token":
			jsonReply(w, http.StatusOK, map[string]string{"access_token": "refreshed_token"})
		case "/rest/v1/leads.json":
			if r.URL.Query().Get("access_token") == "test" {
				w.WriteHeader(codeTokenExpired)
				return
			}
			jsonReply(w, http.StatusOK, map[string]any{"result": []map[string]string{{"id": "test"}}})
		}
	})
	c.SetToken("test")

	user, err := c.GetUser(context.Background(), "testing@testing.com")
	require.NoError(t, err)
	assert.Equal(t, Lead{"id": "test"}, user)
	assert.Equal(t, "refreshed_token", c.Token())
	assert.Len(t, fake.requests, 3)
}

func TestTokenRefresh_OnBodyCode(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/identity/oauth/token":
			jsonReply(w, http.StatusOK, map[string]string{"access_token": "refreshed_token"})
		default:
			if r.URL.Query().Get("access_token") == "test" {
				jsonReply(w, http.StatusOK, map[string]any{
					"success": false,
					"errors":  []map[string]string{{"code": "601", "message": "Access token invalid"}},
				})
				return
			}
			jsonReply(w, http.StatusOK, map[string]any{"result": []map[string]bool{{"snapcraftnewsletter": false}}})
		}
	})
	c.SetToken("test")

	sub, err := c.GetNewsletterSubscription(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, Lead{"snapcraftnewsletter": false}, sub)
	assert.Equal(t, "refreshed_token", c.Token())
}

func TestTokenRefresh_OnlyOnce(t *testing.T) {
	c, fake := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/identity/oauth/token" {
			jsonReply(w, http.StatusOK, map[string]string{"access_token": "still-bad"})
			return
		}
		w.WriteHeader(codeTokenExpired)
	})
	c.SetToken("test")

	_, err := c.GetUser(context.Background(), "testing@testing.com")
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Len(t, fake.requests, 3)
}

func TestTokenRefresh_ConcurrentRejectionsShareOneRefresh(t *testing.T) {
	var refreshes atomic.Int32
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/identity/oauth/token" {
			refreshes.Add(1)
			jsonReply(w, http.StatusOK, map[string]string{"access_token": "refreshed_token"})
			return
		}
		if r.URL.Query().Get("access_token") != "refreshed_token" {
			w.WriteHeader(codeTokenExpired)
			return
		}
		jsonReply(w, http.StatusOK, map[string]any{"result": []map[string]string{{"id": "test"}}})
	})
	c.SetToken("test")

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.GetUser(context.Background(), "testing@testing.com")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), refreshes.Load())
	assert.Equal(t, "refreshed_token", c.Token())
}

func TestMissingCredentials(t *testing.T) {
	t.Setenv("MARKETO_CLIENT_ID", "")
	t.Setenv("MARKETO_CLIENT_SECRET", "")
	c := New(Config{BaseURL: "http://unused.invalid"})

	_, err := c.GetUser(context.Background(), "a@b.c")
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestWithEnvDefaults(t *testing.T) {
	t.Setenv("MARKETO_CLIENT_ID", "env_id")
	t.Setenv("MARKETO_CLIENT_SECRET", "env_secret")

	cfg := Config{ClientID: "explicit"}.WithEnvDefaults()
	assert.Equal(t, "explicit", cfg.ClientID)
	assert.Equal(t, "env_secret", cfg.ClientSecret)
}

func TestLeadID(t *testing.T) {
	assert.Equal(t, "318581", LeadID(Lead{"id": float64(318581)}))
	assert.Equal(t, "test", LeadID(Lead{"id": "test"}))
	assert.Equal(t, "", LeadID(Lead{}))
}
