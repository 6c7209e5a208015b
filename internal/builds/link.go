package builds

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/snapfront/internal/foundation/errors"
)

// githubPrefixLen is len("https://github.com/"), the hostname prefix of every
// repository URL the build service accepts.
const githubPrefixLen = 19

// ErrInvalidRepositoryURL signals a git remote that does not name exactly one owner/repo pair.
var ErrInvalidRepositoryURL = errors.ValidationError("invalid git repository URL").Build()

// BuildLink returns the build service page for a Launchpad build, e.g.
// https://build.snapcraft.io/user/owner/repo/123.
func BuildLink(bsiURL, gitRepositoryURL, selfLink string) (string, error) {
	buildID := selfLink[strings.LastIndex(selfLink, "/")+1:]

	if len(gitRepositoryURL) < githubPrefixLen {
		return "", ErrInvalidRepositoryURL.WithContext("url", gitRepositoryURL)
	}
	parts := strings.Split(gitRepositoryURL[githubPrefixLen:], "/")
	if len(parts) != 2 {
		return "", ErrInvalidRepositoryURL.WithContext("url", gitRepositoryURL)
	}
	owner, repo := parts[0], parts[1]

	return fmt.Sprintf("%s/user/%s/%s/%s", bsiURL, owner, repo, buildID), nil
}
