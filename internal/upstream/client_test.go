package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/snapfront/internal/config"
	"git.home.luguber.info/inful/snapfront/internal/foundation/errors"
	"git.home.luguber.info/inful/snapfront/internal/retry"
)

func fastPolicy(retries int) retry.Policy {
	return retry.NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, retries)
}

func TestNewRequest_JoinsPathAndQuery(t *testing.T) {
	c := New("store", "https://dashboard.example/base/", WithHeader("X-Extra", "1"))

	req, err := c.NewRequest(context.Background(), http.MethodPost, "/dev/api/stores/abc/users",
		url.Values{"a": {"b"}}, map[string]string{"k": "v"})
	require.NoError(t, err)

	assert.Equal(t, "https://dashboard.example/base/dev/api/stores/abc/users?a=b", req.URL.String())
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.Equal(t, "1", req.Header.Get("X-Extra"))
	assert.Contains(t, req.Header.Get("User-Agent"), "snapfront/")
}

func TestDo_DecodesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Link", `<next>; rel="next"`)
		_ = json.NewEncoder(w).Encode(map[string]string{"name": "snap"})
	}))
	defer srv.Close()

	c := New("store", srv.URL)
	req, err := c.NewRequest(context.Background(), http.MethodGet, "/thing", nil, nil)
	require.NoError(t, err)

	var out struct{ Name string }
	header, err := c.Do(req, "thing", &out)
	require.NoError(t, err)
	assert.Equal(t, "snap", out.Name)
	assert.Equal(t, `<next>; rel="next"`, header.Get("Link"))
}

func TestDo_ClassifiesStatus(t *testing.T) {
	cases := []struct {
		status   int
		category errors.ErrorCategory
	}{
		{http.StatusUnauthorized, errors.CategoryAuth},
		{http.StatusForbidden, errors.CategoryForbidden},
		{http.StatusNotFound, errors.CategoryNotFound},
		{http.StatusBadRequest, errors.CategoryUpstream},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			c := New("github", srv.URL, WithRetryPolicy(fastPolicy(2)))
			req, err := c.NewRequest(context.Background(), http.MethodGet, "/x", nil, nil)
			require.NoError(t, err)

			_, err = c.Do(req, "x", nil)
			require.Error(t, err)
			assert.True(t, errors.HasCategory(err, tc.category))
			assert.Equal(t, tc.status, StatusCode(err))
		})
	}
}

func TestDo_RetriesServerErrorsOnGet(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New("store", srv.URL, WithRetryPolicy(fastPolicy(2)))
	req, err := c.NewRequest(context.Background(), http.MethodGet, "/flaky", nil, nil)
	require.NoError(t, err)

	_, err = c.Do(req, "flaky", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDo_DoesNotRetryPost(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New("store", srv.URL, WithRetryPolicy(fastPolicy(3)))
	req, err := c.NewRequest(context.Background(), http.MethodPost, "/write", nil, map[string]int{"a": 1})
	require.NoError(t, err)

	_, err = c.Do(req, "write", nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDo_UsesErrorDecoder(t *testing.T) {
	sentinel := errors.ValidationError("decoded").Build()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error_list":[]}`))
	}))
	defer srv.Close()

	c := New("store", srv.URL, WithErrorDecoder(func(status int, body []byte) error {
		if status == http.StatusBadRequest && string(body) == `{"error_list":[]}` {
			return sentinel
		}
		return nil
	}))
	req, err := c.NewRequest(context.Background(), http.MethodGet, "/x", nil, nil)
	require.NoError(t, err)

	_, err = c.Do(req, "x", nil)
	assert.ErrorIs(t, err, sentinel)
}
