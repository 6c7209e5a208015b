package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/snapfront/internal/foundation/errors"
	"git.home.luguber.info/inful/snapfront/internal/logfields"
	"git.home.luguber.info/inful/snapfront/internal/server/middleware"
	"git.home.luguber.info/inful/snapfront/internal/session"
	"git.home.luguber.info/inful/snapfront/internal/storeapi"
)

// MessageChangesSaved is flashed after a successful store update.
const MessageChangesSaved = "Changes saved"

// StoreAdmin is the dashboard API used by the admin pages.
type StoreAdmin interface {
	GetStores(ctx context.Context, creds storeapi.Credentials) ([]storeapi.Store, error)
	GetStore(ctx context.Context, creds storeapi.Credentials, storeID string) (*storeapi.Store, error)
	GetStoreSnaps(ctx context.Context, creds storeapi.Credentials, storeID string) ([]storeapi.Snap, error)
	GetStoreMembers(ctx context.Context, creds storeapi.Credentials, storeID string) ([]storeapi.Member, error)
	UpdateStoreMembers(ctx context.Context, creds storeapi.Credentials, storeID string, members []storeapi.MemberChange) error
	InviteStoreMembers(ctx context.Context, creds storeapi.Credentials, storeID string, members []storeapi.MemberChange) error
	ChangeStoreSettings(ctx context.Context, creds storeapi.Credentials, storeID string, settings storeapi.Settings) error
}

// AdminConfig holds the URLs the admin pages redirect to.
type AdminConfig struct {
	LoginURL     string
	AgreementURL string
}

// AdminHandlers serves the store administration pages.
type AdminHandlers struct {
	store        StoreAdmin
	sessions     *session.Store
	views        *Views
	cfg          AdminConfig
	errorAdapter *errors.HTTPErrorAdapter
	logger       *slog.Logger
}

// NewAdminHandlers creates the admin handlers.
func NewAdminHandlers(store StoreAdmin, sessions *session.Store, views *Views, cfg AdminConfig, logger *slog.Logger) *AdminHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandlers{
		store:        store,
		sessions:     sessions,
		views:        views,
		cfg:          cfg,
		errorAdapter: errors.NewHTTPErrorAdapter(logger),
		logger:       logger,
	}
}

// HandleStores redirects to the snaps page of the first administered store.
func (h *AdminHandlers) HandleStores(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	stores, err := h.store.GetStores(r.Context(), credentials(sess))
	if err != nil {
		h.handleError(w, r, sess, err)
		return
	}
	if len(stores) == 0 {
		h.renderError(w, r, sess, http.StatusForbidden, nil)
		return
	}
	http.Redirect(w, r, storeURL(stores[0].ID, "snaps"), http.StatusFound)
}

// HandleSnaps renders the snaps included in a store.
func (h *AdminHandlers) HandleSnaps(w http.ResponseWriter, r *http.Request) {
	h.renderStorePage(w, r, PageSnaps, fetchSnaps)
}

// HandleMembers renders the store members.
func (h *AdminHandlers) HandleMembers(w http.ResponseWriter, r *http.Request) {
	h.renderStorePage(w, r, PageMembers, fetchMembers)
}

// HandleManageMembers renders the member management form.
func (h *AdminHandlers) HandleManageMembers(w http.ResponseWriter, r *http.Request) {
	h.renderStorePage(w, r, PageManageMembers, fetchMembers)
}

// HandleSettings renders the store settings form.
func (h *AdminHandlers) HandleSettings(w http.ResponseWriter, r *http.Request) {
	h.renderStorePage(w, r, PageSettings, 0)
}

// HandleModels renders the store models page. Models are not served by the
// dashboard yet, so the list is always empty.
func (h *AdminHandlers) HandleModels(w http.ResponseWriter, r *http.Request) {
	h.renderStorePage(w, r, PageModels, 0)
}

// HandleUpdateMembers applies role changes posted from the manage page.
func (h *AdminHandlers) HandleUpdateMembers(w http.ResponseWriter, r *http.Request) {
	h.changeMembers(w, r, h.store.UpdateStoreMembers)
}

// HandleInviteMembers sends the invites posted from the manage page.
func (h *AdminHandlers) HandleInviteMembers(w http.ResponseWriter, r *http.Request) {
	h.changeMembers(w, r, h.store.InviteStoreMembers)
}

// HandleUpdateSettings applies the posted store settings.
func (h *AdminHandlers) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	storeID := chi.URLParam(r, "store_id")
	settings := storeapi.Settings{
		Private:            r.PostFormValue("is_public") == "",
		ManualReviewPolicy: r.PostFormValue("manual-review-policy"),
	}

	if err := h.store.ChangeStoreSettings(r.Context(), credentials(sess), storeID, settings); err != nil {
		if !flashErrorList(sess, err) {
			h.handleError(w, r, sess, err)
			return
		}
	} else {
		sess.Flash(MessageChangesSaved, session.FlashPositive)
	}
	h.redirect(w, r, sess, storeURL(storeID, "settings"))
}

type memberChanger func(ctx context.Context, creds storeapi.Credentials, storeID string, members []storeapi.MemberChange) error

func (h *AdminHandlers) changeMembers(w http.ResponseWriter, r *http.Request, apply memberChanger) {
	sess := session.FromContext(r.Context())
	storeID := chi.URLParam(r, "store_id")

	var members []storeapi.MemberChange
	if err := json.Unmarshal([]byte(r.PostFormValue("members")), &members); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.ValidationError("members must be a JSON list").
			WithCause(err).
			WithContext("store_id", storeID).
			Build())
		return
	}

	if err := apply(r.Context(), credentials(sess), storeID, members); err != nil {
		if !flashErrorList(sess, err) {
			h.handleError(w, r, sess, err)
			return
		}
	} else {
		sess.Flash(MessageChangesSaved, session.FlashPositive)
	}
	h.redirect(w, r, sess, storeURL(storeID, "members/manage"))
}

// Extra data a store page needs beyond the store list and the store itself.
const (
	fetchSnaps = 1 << iota
	fetchMembers
)

func (h *AdminHandlers) renderStorePage(w http.ResponseWriter, r *http.Request, page string, extra int) {
	sess := session.FromContext(r.Context())
	storeID := chi.URLParam(r, "store_id")
	creds := credentials(sess)

	data := PageData{Roles: StoreRoles, ReviewPolicies: ReviewPolicies}
	if page == PageModels {
		data.Models = []string{}
	}

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		stores, err := h.store.GetStores(ctx, creds)
		data.Stores = stores
		return err
	})
	g.Go(func() error {
		store, err := h.store.GetStore(ctx, creds, storeID)
		data.Store = store
		return err
	})
	if extra&fetchSnaps != 0 {
		g.Go(func() error {
			snaps, err := h.store.GetStoreSnaps(ctx, creds, storeID)
			data.Snaps = snaps
			return err
		})
	}
	if extra&fetchMembers != 0 {
		g.Go(func() error {
			members, err := h.store.GetStoreMembers(ctx, creds, storeID)
			data.Members = members
			return err
		})
	}
	if err := g.Wait(); err != nil {
		h.logger.Debug("Store page fetch failed", logfields.Store(storeID), logfields.Error(err))
		h.handleError(w, r, sess, err)
		return
	}
	h.render(w, r, sess, http.StatusOK, page, data)
}

// handleError maps upstream failures to the publisher-facing responses.
func (h *AdminHandlers) handleError(w http.ResponseWriter, r *http.Request, sess *session.Session, err error) {
	var list *storeapi.ErrorList
	switch {
	case stderrors.As(err, &list):
		if list.HasCode(storeapi.CodeUserNotReady) {
			http.Redirect(w, r, h.cfg.AgreementURL, http.StatusFound)
			return
		}
		status := list.Status
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		h.renderError(w, r, sess, status, list.Messages())
	case errors.HasCategory(err, errors.CategoryAuth):
		h.sessions.Clear(w, sess)
		http.Redirect(w, r, middleware.LoginRedirect(h.cfg.LoginURL, r), http.StatusFound)
	default:
		h.errorAdapter.WriteErrorResponse(w, r, err)
	}
}

func (h *AdminHandlers) renderError(w http.ResponseWriter, r *http.Request, sess *session.Session, status int, messages []string) {
	h.render(w, r, sess, status, PageError, PageData{
		Status:     status,
		StatusText: http.StatusText(status),
		Messages:   messages,
	})
}

func (h *AdminHandlers) render(w http.ResponseWriter, r *http.Request, sess *session.Session, status int, page string, data PageData) {
	data.Flashes = sess.PopFlashes()
	data.CSRFToken = sess.CSRFToken
	h.saveSession(w, sess)
	if err := h.views.Render(w, status, page, data); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
	}
}

func (h *AdminHandlers) redirect(w http.ResponseWriter, r *http.Request, sess *session.Session, target string) {
	h.saveSession(w, sess)
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *AdminHandlers) saveSession(w http.ResponseWriter, sess *session.Session) {
	if err := h.sessions.Save(w, sess); err != nil {
		h.logger.Error("Failed to save session", logfields.Error(err))
	}
}

// flashErrorList queues one negative flash per item when err is an error list.
func flashErrorList(sess *session.Session, err error) bool {
	var list *storeapi.ErrorList
	if !stderrors.As(err, &list) {
		return false
	}
	for _, msg := range list.Messages() {
		sess.Flash(msg, session.FlashNegative)
	}
	return true
}

func credentials(sess *session.Session) storeapi.Credentials {
	return storeapi.Credentials{Root: sess.MacaroonRoot, Discharge: sess.MacaroonDischarge}
}

func storeURL(storeID, page string) string {
	return "/admin/" + storeID + "/" + page
}
