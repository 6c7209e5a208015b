package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/snapfront/internal/foundation/errors"
	"git.home.luguber.info/inful/snapfront/internal/retry"
	"git.home.luguber.info/inful/snapfront/internal/upstream"
)

func TestGetUserRepositories_FollowsLinkPagination(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/repos", r.URL.Path)
		assert.Equal(t, "Bearer gh-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))

		switch r.URL.Query().Get("page") {
		case "":
			w.Header().Set("Link", fmt.Sprintf(`<%s/user/repos?per_page=100&page=2>; rel="next", <%s/user/repos?per_page=100&page=2>; rel="last"`, srv.URL, srv.URL))
			_, _ = w.Write([]byte(`[{"id":1,"name":"one","full_name":"me/one","owner":{"login":"me"}}]`))
		case "2":
			_, _ = w.Write([]byte(`[{"id":2,"name":"two","full_name":"me/two","owner":{"login":"me"}}]`))
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	repos, err := c.GetUserRepositories(context.Background(), "gh-token")
	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Equal(t, "me/one", repos[0].FullName)
	assert.Equal(t, "two", repos[1].Name)
}

func TestGetOrgRepositories(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orgs/canonical/repos", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":9,"name":"snapcraft","owner":{"login":"canonical","type":"Organization"}}]`))
	}))
	defer srv.Close()

	repos, err := New(srv.URL).GetOrgRepositories(context.Background(), "gh-token", "canonical")
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, "Organization", repos[0].Owner.Type)
}

func TestUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, upstream.WithRetryPolicy(retry.NoRetry()))

	_, err := c.GetUserRepositories(context.Background(), "expired")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = c.GetUserRepositories(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestGetOrgRepositories_RejectsBadOrg(t *testing.T) {
	c := New("http://unused.invalid")
	for _, org := range []string{"", "  ", "a/b", ".", "..", " .. ", `a\b`} {
		_, err := c.GetOrgRepositories(context.Background(), "t", org)
		assert.True(t, errors.HasCategory(err, errors.CategoryValidation), "org %q", org)
	}
}

func TestNextPageQuery(t *testing.T) {
	cases := []struct {
		name string
		link string
		want string
	}{
		{"empty", "", ""},
		{"last only", `<https://api.github.com/user/repos?page=3>; rel="last"`, ""},
		{"next first", `<https://api.github.com/user/repos?page=2&per_page=100>; rel="next", <https://api.github.com/user/repos?page=3>; rel="last"`, "page=2&per_page=100"},
		{"next second", `<https://api.github.com/user/repos?page=1>; rel="prev", <https://api.github.com/user/repos?page=3>; rel="next"`, "page=3"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := nextPageQuery(tc.link)
			if tc.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tc.want, got.Encode())
		})
	}
}
