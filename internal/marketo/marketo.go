// Package marketo reads and updates newsletter preferences of Marketo leads.
package marketo

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync"

	"github.com/tidwall/gjson"

	"git.home.luguber.info/inful/snapfront/internal/foundation/errors"
	"git.home.luguber.info/inful/snapfront/internal/logfields"
	"git.home.luguber.info/inful/snapfront/internal/upstream"
)

// DefaultBaseURL is the Marketo REST instance used by snapcraft.io.
const DefaultBaseURL = "https://066-eov-335.mktorest.com"

// NewsletterField is the lead field holding the subscription flag.
const NewsletterField = "snapcraftnewsletter"

// Marketo signals an invalid (601) or expired (602) access token either
// through the HTTP status or inside the response body.
const (
	codeTokenInvalid = 601
	codeTokenExpired = 602
)

var (
	// ErrMissingCredentials signals that no client id/secret is configured.
	ErrMissingCredentials = errors.ConfigError("marketo client credentials missing").Build()

	// ErrTokenExpired signals that the access token was rejected.
	ErrTokenExpired = errors.AuthError("marketo access token expired").Build()

	// ErrLeadNotFound signals that no lead matched the lookup.
	ErrLeadNotFound = errors.NotFoundError("marketo lead not found").Build()
)

// Config holds the Marketo credentials and endpoint.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
}

// WithEnvDefaults fills empty credentials from MARKETO_CLIENT_ID and MARKETO_CLIENT_SECRET.
func (c Config) WithEnvDefaults() Config {
	if c.ClientID == "" {
		c.ClientID = os.Getenv("MARKETO_CLIENT_ID")
	}
	if c.ClientSecret == "" {
		c.ClientSecret = os.Getenv("MARKETO_CLIENT_SECRET")
	}
	return c
}

// Lead is a Marketo lead record as returned by the REST API.
type Lead map[string]any

// Client is a Marketo REST client. The access token is fetched on first use
// and refreshed once whenever Marketo reports it invalid or expired.
type Client struct {
	base         *upstream.Client
	clientID     string
	clientSecret string

	mu    sync.Mutex
	token string

	// refreshMu serializes token fetches so concurrent requests that see
	// the same rejected token trigger a single refresh.
	refreshMu sync.Mutex
}

// New creates a Client. Rate limiting and retries come from opts.
func New(cfg Config, opts ...upstream.Option) *Client {
	cfg = cfg.WithEnvDefaults()
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	opts = append(opts, upstream.WithErrorDecoder(decodeError))
	return &Client{
		base:         upstream.New("marketo", cfg.BaseURL, opts...),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
	}
}

// Token returns the current access token.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// SetToken installs an access token, skipping the initial authentication.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Authenticate requests a fresh access token.
func (c *Client) Authenticate(ctx context.Context) error {
	if c.clientID == "" || c.clientSecret == "" {
		return ErrMissingCredentials
	}
	query := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}
	req, err := c.base.NewRequest(ctx, http.MethodGet, "/identity/oauth/token", query, nil)
	if err != nil {
		return err
	}
	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if _, err := c.base.Do(req, "authenticate", &payload); err != nil {
		return err
	}
	if payload.AccessToken == "" {
		return errors.AuthError("marketo returned no access token").Build()
	}
	c.SetToken(payload.AccessToken)
	return nil
}

// GetUser looks up the lead registered with email.
func (c *Client) GetUser(ctx context.Context, email string) (Lead, error) {
	query := url.Values{
		"filterType":   {"email"},
		"filterValues": {email},
		"fields":       {"id"},
	}
	body, err := c.request(ctx, http.MethodGet, "/rest/v1/leads.json", query, nil, "get_user")
	if err != nil {
		return nil, err
	}
	first := body.Get("result.0")
	if !first.IsObject() {
		return nil, ErrLeadNotFound
	}
	return toLead(first), nil
}

// GetNewsletterSubscription returns the lead's newsletter fields, or an empty
// Lead when Marketo answers without a result.
func (c *Client) GetNewsletterSubscription(ctx context.Context, leadID string) (Lead, error) {
	query := url.Values{"fields": {"id,email," + NewsletterField}}
	body, err := c.request(ctx, http.MethodGet, "/rest/v1/lead/"+leadID+".json", query, nil, "get_newsletter_subscription")
	if err != nil {
		return nil, err
	}
	first := body.Get("result.0")
	if !first.IsObject() {
		return Lead{}, nil
	}
	return toLead(first), nil
}

// SetNewsletterSubscription updates the lead's newsletter flag and returns
// Marketo's response body.
func (c *Client) SetNewsletterSubscription(ctx context.Context, leadID string, subscribed bool) (Lead, error) {
	payload := map[string]any{
		"input": []map[string]any{{"id": leadID, NewsletterField: subscribed}},
	}
	body, err := c.request(ctx, http.MethodPost, "/rest/v1/leads.json", nil, payload, "set_newsletter_subscription")
	if err != nil {
		return nil, err
	}
	if !body.IsObject() {
		return Lead{}, nil
	}
	return toLead(body), nil
}

// LeadID returns the lead's id as a string; Marketo sends it as a number.
func LeadID(lead Lead) string {
	switch v := lead["id"].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// IsSubscribed reads the newsletter flag out of a lead.
func IsSubscribed(lead Lead) bool {
	v, _ := lead[NewsletterField].(bool)
	return v
}

func (c *Client) request(ctx context.Context, method, endpoint string, query url.Values, body any, operation string) (gjson.Result, error) {
	token := c.Token()
	if token == "" {
		var err error
		if token, err = c.renewToken(ctx, ""); err != nil {
			return gjson.Result{}, err
		}
	}

	for attempt := 0; ; attempt++ {
		result, err := c.once(ctx, token, method, endpoint, query, body, operation)
		if err == nil && tokenRejected(result) {
			err = ErrTokenExpired
		}
		if !stderrors.Is(err, ErrTokenExpired) || attempt > 0 {
			return result, err
		}
		if token, err = c.renewToken(ctx, token); err != nil {
			return gjson.Result{}, err
		}
	}
}

// renewToken replaces stale with a fresh access token. When another request
// already replaced it, the current token is returned without calling Marketo.
func (c *Client) renewToken(ctx context.Context, stale string) (string, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if current := c.Token(); current != stale {
		return current, nil
	}
	if stale != "" {
		c.base.Recorder().IncTokenRefresh(c.base.Service())
		c.base.Logger().Info("Refreshing marketo access token", logfields.Service(c.base.Service()))
	}
	if err := c.Authenticate(ctx); err != nil {
		return "", err
	}
	return c.Token(), nil
}

func (c *Client) once(ctx context.Context, token, method, endpoint string, query url.Values, body any, operation string) (gjson.Result, error) {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	q.Set("access_token", token)

	req, err := c.base.NewRequest(ctx, method, endpoint, q, body)
	if err != nil {
		return gjson.Result{}, err
	}
	var raw json.RawMessage
	if _, err := c.base.Do(req, operation, &raw); err != nil {
		return gjson.Result{}, err
	}
	return gjson.ParseBytes(raw), nil
}

// tokenRejected reports whether a 200 response carries a 601/602 error item.
func tokenRejected(body gjson.Result) bool {
	rejected := false
	body.Get("errors").ForEach(func(_, item gjson.Result) bool {
		code := item.Get("code").Int()
		if code == codeTokenInvalid || code == codeTokenExpired {
			rejected = true
			return false
		}
		return true
	})
	return rejected
}

func decodeError(status int, body []byte) error {
	if status == codeTokenInvalid || status == codeTokenExpired || tokenRejected(gjson.ParseBytes(body)) {
		return ErrTokenExpired.WithContext("code", status)
	}
	return nil
}

func toLead(r gjson.Result) Lead {
	if m, ok := r.Value().(map[string]any); ok {
		return m
	}
	return Lead{}
}
