package builds

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLink(t *testing.T) {
	link, err := BuildLink(
		"https://build.snapcraft.io",
		"https://github.com/canonical/snapcraft",
		"https://api.launchpad.net/devel/~build.snapcraft.io/+snap/abc/+build/1234567",
	)
	require.NoError(t, err)
	assert.Equal(t, "https://build.snapcraft.io/user/canonical/snapcraft/1234567", link)
}

func TestBuildLink_SelfLinkWithoutSlash(t *testing.T) {
	link, err := BuildLink("https://bsi", "https://github.com/o/r", "42")
	require.NoError(t, err)
	assert.Equal(t, "https://bsi/user/o/r/42", link)
}

func TestBuildLink_InvalidRepository(t *testing.T) {
	for _, repoURL := range []string{
		"https://github.com/only-owner",
		"https://github.com/a/b/c",
		"short",
	} {
		_, err := BuildLink("https://bsi", repoURL, "x/1")
		require.Error(t, err, repoURL)
		assert.True(t, errors.Is(err, ErrInvalidRepositoryURL), repoURL)
	}
}
