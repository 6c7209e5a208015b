package commands

import (
	"fmt"

	"git.home.luguber.info/inful/snapfront/internal/builds"
	"git.home.luguber.info/inful/snapfront/internal/foundation/errors"
	"git.home.luguber.info/inful/snapfront/internal/logfields"
)

// BuildStatusCmd implements the 'build-status' command.
type BuildStatusCmd struct {
	File string `arg:"" help:"JSON file of states keyed by architecture ('-' for stdin)"`
}

func (b *BuildStatusCmd) Run(g *Global) error {
	data, err := readInput(b.File)
	if err != nil {
		return errors.WrapError(err, errors.CategoryValidation, "failed to read build states").
			WithContext("path", b.File).
			Build()
	}
	states, err := builds.ParseArchStates(data)
	if err != nil {
		return err
	}
	status := builds.MapSnapBuildStatus(states)
	g.Logger.Debug("Build status aggregated", logfields.BuildStatus(string(status)))
	_, err = fmt.Fprintln(g.Out, status)
	return err
}

// BuildLinkCmd implements the 'build-link' command.
type BuildLinkCmd struct {
	Repository string `short:"r" required:"" help:"GitHub repository URL, e.g. https://github.com/owner/repo"`
	Build      string `short:"b" required:"" help:"Launchpad build self link"`
	BSIURL     string `name:"bsi-url" help:"Build service base URL" default:"https://build.snapcraft.io"`
}

func (b *BuildLinkCmd) Run(g *Global) error {
	link, err := builds.BuildLink(b.BSIURL, b.Repository, b.Build)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(g.Out, link)
	return err
}
