package handlers

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"

	"git.home.luguber.info/inful/snapfront/internal/foundation/errors"
	"git.home.luguber.info/inful/snapfront/internal/logfields"
	"git.home.luguber.info/inful/snapfront/internal/marketo"
	"git.home.luguber.info/inful/snapfront/internal/server/responses"
	"git.home.luguber.info/inful/snapfront/internal/session"
)

// NewsletterService reads and writes lead newsletter preferences.
type NewsletterService interface {
	GetUser(ctx context.Context, email string) (marketo.Lead, error)
	GetNewsletterSubscription(ctx context.Context, leadID string) (marketo.Lead, error)
	SetNewsletterSubscription(ctx context.Context, leadID string, subscribed bool) (marketo.Lead, error)
}

// AccountHandlers serves account preferences.
type AccountHandlers struct {
	newsletter   NewsletterService
	errorAdapter *errors.HTTPErrorAdapter
	logger       *slog.Logger
}

// NewAccountHandlers creates the account handlers.
func NewAccountHandlers(newsletter NewsletterService, logger *slog.Logger) *AccountHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountHandlers{
		newsletter:   newsletter,
		errorAdapter: errors.NewHTTPErrorAdapter(logger),
		logger:       logger,
	}
}

// HandleGetNewsletter reports whether the session account is subscribed.
// Accounts unknown to Marketo are reported as not subscribed.
func (h *AccountHandlers) HandleGetNewsletter(w http.ResponseWriter, r *http.Request) {
	email, ok := h.sessionEmail(w, r)
	if !ok {
		return
	}
	lead, err := h.newsletter.GetUser(r.Context(), email)
	if stderrors.Is(err, marketo.ErrLeadNotFound) {
		_ = writeJSON(w, http.StatusOK, responses.NewsletterResponse{Email: email})
		return
	}
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	sub, err := h.newsletter.GetNewsletterSubscription(r.Context(), marketo.LeadID(lead))
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, responses.NewsletterResponse{Email: email, Subscribed: marketo.IsSubscribed(sub)})
}

// HandleSetNewsletter updates the subscription from the `newsletter` form field.
func (h *AccountHandlers) HandleSetNewsletter(w http.ResponseWriter, r *http.Request) {
	email, ok := h.sessionEmail(w, r)
	if !ok {
		return
	}
	subscribed, err := parseCheckbox(r.PostFormValue("newsletter"))
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.ValidationError("newsletter must be a boolean").
			WithCause(err).
			Build())
		return
	}

	lead, err := h.newsletter.GetUser(r.Context(), email)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	leadID := marketo.LeadID(lead)
	if _, err := h.newsletter.SetNewsletterSubscription(r.Context(), leadID, subscribed); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	h.logger.Info("Newsletter preference updated", logfields.Lead(leadID), slog.Bool("subscribed", subscribed))
	_ = writeJSON(w, http.StatusOK, responses.NewsletterResponse{Email: email, Subscribed: subscribed})
}

func (h *AccountHandlers) sessionEmail(w http.ResponseWriter, r *http.Request) (string, bool) {
	email := session.FromContext(r.Context()).Email
	if email == "" {
		h.errorAdapter.WriteErrorResponse(w, r, errors.ValidationError("account email unknown").Build())
		return "", false
	}
	return email, true
}

// parseCheckbox accepts HTML checkbox values as well as boolean literals.
// An absent field means unchecked.
func parseCheckbox(v string) (bool, error) {
	switch v {
	case "":
		return false, nil
	case "on":
		return true, nil
	}
	return strconv.ParseBool(v)
}
