package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/snapfront/internal/config"
	"git.home.luguber.info/inful/snapfront/internal/foundation/errors"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var cli CLI
	out := &bytes.Buffer{}
	g := &Global{Out: out}
	parser, err := kong.New(&cli, kong.Vars{"version": "test"}, kong.Bind(g))
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	err = ctx.Run(&cli)
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestBuildStatusCmd(t *testing.T) {
	path := writeFile(t, "states.json",
		`{"amd64":{"buildstate":"Successfully built","store_upload_status":"Uploaded"},`+
			`"i386":{"buildstate":"Failed to build","store_upload_status":"Unscheduled"}}`)

	out, err := run(t, "build-status", path)
	require.NoError(t, err)
	assert.Equal(t, "failed_to_build\n", out)
}

func TestBuildStatusCmd_InvalidInput(t *testing.T) {
	path := writeFile(t, "states.json", `"nope"`)
	_, err := run(t, "build-status", path)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))

	_, err = run(t, "build-status", filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestBuildLinkCmd(t *testing.T) {
	out, err := run(t, "build-link",
		"-r", "https://github.com/owner/repo",
		"-b", "https://api.launchpad.net/devel/~owner/+snap/repo/+build/42")
	require.NoError(t, err)
	assert.Equal(t, "https://build.snapcraft.io/user/owner/repo/42\n", out)

	_, err = run(t, "build-link", "-r", "https://github.com/owner", "-b", "x/1")
	assert.Error(t, err)
}

func TestRenderCmd(t *testing.T) {
	path := writeFile(t, "description.md", "Hello *world*\n\n# Not a heading")
	out, err := run(t, "render", path)
	require.NoError(t, err)
	assert.Contains(t, out, "<em>world</em>")
	assert.NotContains(t, out, "<h1>")
}

func TestNewServer(t *testing.T) {
	cfg := config.Default()
	cfg.Server.SecretKey = "0123456789abcdef0123"
	cfg.Metrics.Enabled = true

	srv, err := NewServer(cfg, nil)
	require.NoError(t, err)
	assert.NotNil(t, srv.Handler())
}
