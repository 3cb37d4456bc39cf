package commands

import (
	"context"
	"io"
	"os"
	"time"

	"git.home.luguber.info/inful/chronodeck/internal/app"
	"git.home.luguber.info/inful/chronodeck/internal/config"
	"git.home.luguber.info/inful/chronodeck/internal/view"
)

// ListCmd implements the 'list' command.
type ListCmd struct{}

func (l *ListCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	return RunList(context.Background(), cfg, os.Stdout, app.WithLogger(g.Logger))
}

// RunList restores both collections, prints them and flushes the restored
// state back. Running entities keep running in the persisted state.
func RunList(ctx context.Context, cfg *config.Config, w io.Writer, opts ...app.Option) error {
	a, err := app.New(cfg, opts...)
	if err != nil {
		return err
	}
	if err := a.Start(ctx); err != nil {
		_ = a.Stop(ctx)
		return err
	}

	werr := view.WriteTimers(w, a.Timers().List())
	if werr == nil {
		_, werr = io.WriteString(w, "\n")
	}
	if werr == nil {
		werr = view.WriteStopwatches(w, a.Stopwatches().List())
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Stop(stopCtx); err != nil {
		return err
	}
	return werr
}
