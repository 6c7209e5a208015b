// Package github lists the repositories a publisher can build from.
package github

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/snapfront/internal/foundation/errors"
	"git.home.luguber.info/inful/snapfront/internal/upstream"
)

// DefaultAPIURL is the public GitHub REST endpoint.
const DefaultAPIURL = "https://api.github.com"

const perPage = 100

// maxPages stops runaway pagination on accounts with huge repository counts.
const maxPages = 50

// ErrUnauthorized is returned when GitHub rejects (or we lack) the user's token.
var ErrUnauthorized = errors.AuthError("GitHub authentication required").Build()

// Owner is the account owning a repository.
type Owner struct {
	Login string `json:"login"`
	Type  string `json:"type,omitempty"`
}

// Repository is the subset of GitHub's repository object the publisher UI uses.
type Repository struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	FullName      string    `json:"full_name"`
	Private       bool      `json:"private"`
	HTMLURL       string    `json:"html_url"`
	CloneURL      string    `json:"clone_url"`
	DefaultBranch string    `json:"default_branch"`
	Archived      bool      `json:"archived"`
	UpdatedAt     time.Time `json:"updated_at"`
	Owner         Owner     `json:"owner"`
}

// Client is a GitHub REST client.
type Client struct {
	base *upstream.Client
}

// New creates a Client for the API at apiURL.
func New(apiURL string, opts ...upstream.Option) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	opts = append([]upstream.Option{
		upstream.WithHeader("Accept", "application/vnd.github+json"),
		upstream.WithHeader("X-GitHub-Api-Version", "2022-11-28"),
	}, opts...)
	return &Client{base: upstream.New("github", apiURL, opts...)}
}

// GetUserRepositories lists repositories of the token owner.
func (c *Client) GetUserRepositories(ctx context.Context, token string) ([]Repository, error) {
	return c.list(ctx, token, "/user/repos", "user_repos")
}

// GetOrgRepositories lists repositories of org visible to the token owner.
func (c *Client) GetOrgRepositories(ctx context.Context, token, org string) ([]Repository, error) {
	if !validOrg(org) {
		return nil, errors.ValidationError("invalid organization name").WithContext("org", org).Build()
	}
	return c.list(ctx, token, "/orgs/"+org+"/repos", "org_repos")
}

// validOrg accepts a single path segment that path cleaning leaves intact.
func validOrg(org string) bool {
	switch strings.TrimSpace(org) {
	case "", ".", "..":
		return false
	}
	return !strings.ContainsAny(org, "/\\?#")
}

func (c *Client) list(ctx context.Context, token, endpoint, operation string) ([]Repository, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	query := url.Values{"per_page": {strconv.Itoa(perPage)}, "sort": {"updated"}}
	var all []Repository
	for page := 0; page < maxPages && query != nil; page++ {
		req, err := c.base.NewRequest(ctx, http.MethodGet, endpoint, query, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)

		var repos []Repository
		header, err := c.base.Do(req, operation, &repos)
		if err != nil {
			if errors.HasCategory(err, errors.CategoryAuth) {
				return nil, ErrUnauthorized
			}
			return nil, err
		}
		all = append(all, repos...)
		query = nextPageQuery(header.Get("Link"))
	}
	return all, nil
}

// nextPageQuery extracts the query of the rel="next" target of a Link header.
// It returns nil when there is no next page.
func nextPageQuery(link string) url.Values {
	for _, part := range strings.Split(link, ",") {
		segments := strings.Split(part, ";")
		if len(segments) < 2 {
			continue
		}
		isNext := false
		for _, attr := range segments[1:] {
			if strings.TrimSpace(attr) == `rel="next"` {
				isNext = true
				break
			}
		}
		if !isNext {
			continue
		}
		target := strings.Trim(strings.TrimSpace(segments[0]), "<>")
		u, err := url.Parse(target)
		if err != nil {
			return nil
		}
		return u.Query()
	}
	return nil
}
