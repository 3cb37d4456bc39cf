package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/chronodeck/cmd/chronodeck/commands"
	"git.home.luguber.info/inful/chronodeck/internal/errors"
	"git.home.luguber.info/inful/chronodeck/internal/version"
)

func main() {
	var cli commands.CLI
	global := &commands.Global{LevelVar: new(slog.LevelVar)}

	ctx := kong.Parse(&cli,
		kong.Name("chronodeck"),
		kong.Description("Countdown timers and stopwatches that survive restarts."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)

	err := ctx.Run(global, &cli)
	errors.NewCLIErrorAdapter(cli.Verbose, global.Logger).HandleError(err)
}
