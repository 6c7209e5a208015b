package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/snapfront/cmd/snapfront/commands"
	"git.home.luguber.info/inful/snapfront/internal/foundation/errors"
	"git.home.luguber.info/inful/snapfront/internal/version"
)

func main() {
	var cli commands.CLI
	global := &commands.Global{Out: os.Stdout}
	ctx := kong.Parse(&cli,
		kong.Name("snapfront"),
		kong.Description("Snap store publisher front-end."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)

	if err := ctx.Run(&cli); err != nil {
		adapter := errors.NewCLIErrorAdapter(cli.Verbose, global.Logger)
		adapter.Log(err)
		fmt.Fprintln(os.Stderr, adapter.FormatError(err))
		os.Exit(adapter.ExitCodeFor(err))
	}
}
