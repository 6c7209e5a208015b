package handlers

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"

	"git.home.luguber.info/inful/snapfront/internal/builds"
	"git.home.luguber.info/inful/snapfront/internal/foundation/errors"
	"git.home.luguber.info/inful/snapfront/internal/github"
	"git.home.luguber.info/inful/snapfront/internal/logfields"
	"git.home.luguber.info/inful/snapfront/internal/server/responses"
	"git.home.luguber.info/inful/snapfront/internal/session"
)

// maxBuildStatesBody bounds the build states payload.
const maxBuildStatesBody = 1 << 20

// MessageGitHubAuth is returned when the session has no usable GitHub token.
const MessageGitHubAuth = "You need to be authenticated on GitHub"

// RepositoryLister lists the GitHub repositories a publisher can build.
type RepositoryLister interface {
	GetUserRepositories(ctx context.Context, token string) ([]github.Repository, error)
	GetOrgRepositories(ctx context.Context, token, org string) ([]github.Repository, error)
}

// PublisherHandlers serves the publisher JSON views.
type PublisherHandlers struct {
	github       RepositoryLister
	bsiURL       string
	errorAdapter *errors.HTTPErrorAdapter
	logger       *slog.Logger
}

// NewPublisherHandlers creates the publisher handlers. bsiURL is the build
// service base used for build page links.
func NewPublisherHandlers(gh RepositoryLister, bsiURL string, logger *slog.Logger) *PublisherHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &PublisherHandlers{
		github:       gh,
		bsiURL:       bsiURL,
		errorAdapter: errors.NewHTTPErrorAdapter(logger),
		logger:       logger,
	}
}

// HandleGetRepos lists the user's repositories, or those of ?org= when given.
func (h *PublisherHandlers) HandleGetRepos(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	org := r.URL.Query().Get("org")

	var (
		repos []github.Repository
		err   error
	)
	if org != "" {
		repos, err = h.github.GetOrgRepositories(r.Context(), sess.GitHubSecret, org)
	} else {
		repos, err = h.github.GetUserRepositories(r.Context(), sess.GitHubSecret)
	}
	if stderrors.Is(err, github.ErrUnauthorized) {
		_ = writeJSON(w, http.StatusUnauthorized, responses.ErrorResponse{Error: MessageGitHubAuth})
		return
	}
	if err != nil {
		h.logger.Warn("Listing GitHub repositories failed", logfields.Org(org), logfields.Error(err))
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if repos == nil {
		repos = []github.Repository{}
	}
	if err := writeJSON(w, http.StatusOK, repos); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.WrapError(err, errors.CategoryInternal, "failed to write repositories").Build())
	}
}

// HandleBuildStatus reduces per-architecture build states to a single status.
func (h *PublisherHandlers) HandleBuildStatus(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBuildStatesBody))
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, errors.ValidationError("failed to read request body").WithCause(err).Build())
		return
	}
	states, err := builds.ParseArchStates(body)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	status := builds.MapSnapBuildStatus(states)
	h.logger.Debug("Build status aggregated", logfields.BuildStatus(string(status)), slog.Int("archs", len(states)))
	_ = writeJSON(w, http.StatusOK, responses.BuildStatusResponse{Status: string(status)})
}

// HandleBuildLink returns the build service page of a build, given the git
// repository URL (?repository=) and the build self link (?build=).
func (h *PublisherHandlers) HandleBuildLink(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	link, err := builds.BuildLink(h.bsiURL, q.Get("repository"), q.Get("build"))
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, responses.BuildLinkResponse{Link: link})
}
