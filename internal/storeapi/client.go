// Package storeapi is a client for the store dashboard admin API.
package storeapi

import (
	"context"
	"net/http"

	"git.home.luguber.info/inful/snapfront/internal/upstream"
)

// Client talks to the dashboard on behalf of a logged-in publisher.
type Client struct {
	base *upstream.Client
}

// New creates a Client for the dashboard at baseURL.
func New(baseURL string, opts ...upstream.Option) *Client {
	opts = append(opts, upstream.WithErrorDecoder(decodeError))
	return &Client{base: upstream.New("store", baseURL, opts...)}
}

type storeResponse struct {
	Store Store    `json:"store"`
	Users []Member `json:"users"`
}

// GetStores returns the stores in which the account is an admin.
func (c *Client) GetStores(ctx context.Context, creds Credentials) ([]Store, error) {
	var account struct {
		Stores []Store `json:"stores"`
	}
	if err := c.call(ctx, creds, http.MethodGet, "/dev/api/account", "get_stores", nil, &account); err != nil {
		return nil, err
	}
	stores := make([]Store, 0, len(account.Stores))
	for _, s := range account.Stores {
		if s.HasRole(RoleAdmin) {
			stores = append(stores, s)
		}
	}
	return stores, nil
}

// GetStore returns a single store.
func (c *Client) GetStore(ctx context.Context, creds Credentials, storeID string) (*Store, error) {
	var resp storeResponse
	if err := c.call(ctx, creds, http.MethodGet, storePath(storeID), "get_store", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Store, nil
}

// GetStoreSnaps lists the snaps included in a store.
func (c *Client) GetStoreSnaps(ctx context.Context, creds Credentials, storeID string) ([]Snap, error) {
	var resp struct {
		Snaps []Snap `json:"snaps"`
	}
	if err := c.call(ctx, creds, http.MethodGet, storePath(storeID)+"/snaps", "get_store_snaps", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Snaps, nil
}

// GetStoreMembers lists the users of a store.
func (c *Client) GetStoreMembers(ctx context.Context, creds Credentials, storeID string) ([]Member, error) {
	var resp storeResponse
	if err := c.call(ctx, creds, http.MethodGet, storePath(storeID), "get_store_members", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// UpdateStoreMembers changes the roles of existing store members.
func (c *Client) UpdateStoreMembers(ctx context.Context, creds Credentials, storeID string, members []MemberChange) error {
	return c.call(ctx, creds, http.MethodPost, storePath(storeID)+"/users", "update_store_members", members, nil)
}

// InviteStoreMembers invites new members by email.
func (c *Client) InviteStoreMembers(ctx context.Context, creds Credentials, storeID string, members []MemberChange) error {
	return c.call(ctx, creds, http.MethodPost, storePath(storeID)+"/invites", "invite_store_members", members, nil)
}

// ChangeStoreSettings updates the store settings.
func (c *Client) ChangeStoreSettings(ctx context.Context, creds Credentials, storeID string, settings Settings) error {
	return c.call(ctx, creds, http.MethodPut, storePath(storeID), "change_store_settings", settings, nil)
}

func (c *Client) call(ctx context.Context, creds Credentials, method, endpoint, operation string, body, result any) error {
	if !creds.Valid() {
		return ErrMissingCredentials
	}
	req, err := c.base.NewRequest(ctx, method, endpoint, nil, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", creds.authorization())
	_, err = c.base.Do(req, operation, result)
	return err
}

func storePath(storeID string) string {
	return "/dev/api/stores/" + storeID
}
