package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitebundle/cmd/sitebundle/commands"
	foundation "git.home.luguber.info/inful/sitebundle/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebundle/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("sitebundle"),
		kong.Description("Minify and bundle a static website for distribution."),
		kong.Vars{"version": version.Version},
		kong.UsageOnError(),
	)

	err := parser.Run(&commands.Global{Logger: slog.Default()}, cli)
	foundation.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
