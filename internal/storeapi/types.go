package storeapi

import "slices"

// RoleAdmin is the store role that grants access to the admin pages.
const RoleAdmin = "admin"

// Credentials is the publisher's macaroon pair.
type Credentials struct {
	Root      string
	Discharge string
}

// Valid reports whether both halves of the macaroon pair are present.
func (c Credentials) Valid() bool {
	return c.Root != "" && c.Discharge != ""
}

func (c Credentials) authorization() string {
	return `Macaroon root="` + c.Root + `", discharge="` + c.Discharge + `"`
}

// Store is a brand store as returned by the dashboard.
type Store struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Roles              []string `json:"roles,omitempty"`
	Private            bool     `json:"private"`
	ManualReviewPolicy string   `json:"manual-review-policy,omitempty"`
}

// HasRole reports whether the current account holds role in the store.
func (s Store) HasRole(role string) bool {
	return slices.Contains(s.Roles, role)
}

// Release summarizes the most recent release of a snap.
type Release struct {
	Channel   string `json:"channel"`
	Revision  int    `json:"revision"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// Snap is a snap included in a store.
type Snap struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Private       bool     `json:"private"`
	LatestRelease *Release `json:"latest-release,omitempty"`
}

// Member is a store user.
type Member struct {
	ID          string   `json:"id,omitempty"`
	Email       string   `json:"email"`
	Username    string   `json:"username,omitempty"`
	DisplayName string   `json:"displayname,omitempty"`
	Roles       []string `json:"roles"`
	CurrentUser bool     `json:"current_user,omitempty"`
}

// MemberChange is one entry of a members update or invite request.
type MemberChange struct {
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// Settings is the body of a store settings change.
type Settings struct {
	Private            bool   `json:"private"`
	ManualReviewPolicy string `json:"manual-review-policy,omitempty"`
}
