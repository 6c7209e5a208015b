package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"slices"
	"strings"

	"git.home.luguber.info/inful/snapfront/internal/foundation/errors"
	"git.home.luguber.info/inful/snapfront/internal/session"
	"git.home.luguber.info/inful/snapfront/internal/storeapi"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names.
const (
	PageSnaps         = "snaps"
	PageMembers       = "members"
	PageManageMembers = "manage_members"
	PageSettings      = "settings"
	PageModels        = "models"
	PageError         = "error"
)

// StoreRoles are the roles a store member can hold.
var StoreRoles = []string{"admin", "review", "view", "access"}

// ReviewPolicies are the accepted manual review policies.
var ReviewPolicies = []string{"allow", "avoid", "require"}

// PageData is the template context shared by every page.
type PageData struct {
	Stores         []storeapi.Store
	Store          *storeapi.Store
	Snaps          []storeapi.Snap
	Members        []storeapi.Member
	Models         []string
	Roles          []string
	ReviewPolicies []string
	Flashes        []session.Flash
	CSRFToken      string

	Status     int
	StatusText string
	Messages   []string
}

// Views holds one parsed template set per page.
type Views struct {
	pages map[string]*template.Template
}

// NewViews parses the embedded page templates.
func NewViews() (*Views, error) {
	funcs := template.FuncMap{
		"join":    strings.Join,
		"hasRole": func(roles []string, role string) bool { return slices.Contains(roles, role) },
	}
	layout, err := template.New("layout").Funcs(funcs).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	v := &Views{pages: make(map[string]*template.Template)}
	for _, page := range []string{PageSnaps, PageMembers, PageManageMembers, PageSettings, PageModels, PageError} {
		t, err := template.Must(layout.Clone()).ParseFS(templateFS, "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		v.pages[page] = t
	}
	return v, nil
}

// Render executes page into a buffer and writes it with status.
func (v *Views) Render(w http.ResponseWriter, status int, page string, data PageData) error {
	t, ok := v.pages[page]
	if !ok {
		return errors.InternalError("unknown page").WithContext("page", page).Build()
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return errors.InternalError("failed to render page").
			WithCause(err).
			WithContext("page", page).
			Build()
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}
