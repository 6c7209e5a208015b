package commands

import (
	"fmt"

	"git.home.luguber.info/inful/snapfront/internal/foundation/errors"
	"git.home.luguber.info/inful/snapfront/internal/markdown"
)

// RenderCmd implements the 'render' command.
type RenderCmd struct {
	File string `arg:"" help:"Description file ('-' for stdin)"`
}

func (r *RenderCmd) Run(g *Global) error {
	data, err := readInput(r.File)
	if err != nil {
		return errors.WrapError(err, errors.CategoryValidation, "failed to read description").
			WithContext("path", r.File).
			Build()
	}
	_, err = fmt.Fprint(g.Out, markdown.RenderDescription(string(data)))
	return err
}
