// Package commands implements the snapfront CLI subcommands.
package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
)

// Global is shared state handed to every subcommand.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Serve       ServeCmd       `cmd:"" help:"Serve the publisher admin pages and JSON views"`
	BuildStatus BuildStatusCmd `cmd:"" name:"build-status" help:"Reduce per-architecture build states from a JSON file to one status"`
	BuildLink   BuildLinkCmd   `cmd:"" name:"build-link" help:"Print the build service page of a Launchpad build"`
	Render      RenderCmd      `cmd:"" help:"Render a snap description to HTML"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	g.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(g.Logger)
	return nil
}

// readInput reads path, or stdin when path is "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
