package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/chronodeck/cmd/chronodeck/interactive"
	"git.home.luguber.info/inful/chronodeck/internal/app"
	"git.home.luguber.info/inful/chronodeck/internal/config"
	"git.home.luguber.info/inful/chronodeck/internal/logfields"
)

const shutdownTimeout = 30 * time.Second

// RunCmd implements the 'run' command.
type RunCmd struct {
	Watch     bool `help:"Print every display update"`
	NoWatcher bool `name:"no-watch-config" help:"Do not reload the configuration file when it changes"`
}

func (r *RunCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sh, err := interactive.New()
	if err != nil {
		return err
	}

	// Log through the shell so lines do not land in the middle of the prompt.
	logger := config.NewLogger(cfg.Logging, sh.Stderr(), g.LevelVar)
	g.LevelVar.Set(root.level(cfg.Logging.Level.SlogLevel()))
	slog.SetDefault(logger)

	a, err := app.New(cfg, app.WithLogger(logger), app.WithLevelVar(g.LevelVar))
	if err != nil {
		_ = sh.Close()
		return err
	}
	sh.Attach(a)
	if r.Watch {
		sh.Exec(ctx, "watch on")
	}
	if err := a.Start(ctx); err != nil {
		_ = sh.Close()
		return fmt.Errorf("start: %w", err)
	}

	var watcher *config.Watcher
	if !r.NoWatcher {
		watcher = startWatcher(ctx, root, a, g)
	}

	go sh.Run(ctx, cancel)
	<-ctx.Done()
	_ = sh.Close()

	if watcher != nil {
		if err := watcher.Stop(); err != nil {
			slog.Warn("Failed to stop config watcher", logfields.Error(err))
		}
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()
	if err := a.Stop(stopCtx); err != nil {
		return fmt.Errorf("failed to stop: %w", err)
	}
	return nil
}

// startWatcher reloads the configuration on change. A missing file is not
// watched.
func startWatcher(ctx context.Context, root *CLI, a *app.App, g *Global) *config.Watcher {
	if _, err := os.Stat(root.Config); err != nil {
		return nil
	}
	w, err := config.NewWatcher(root.Config, func(cfg *config.Config) {
		a.ApplyConfig(cfg)
		g.LevelVar.Set(root.level(cfg.Logging.Level.SlogLevel()))
	})
	if err != nil {
		slog.Warn("Config watcher unavailable", logfields.Error(err))
		return nil
	}
	if err := w.Start(ctx); err != nil {
		slog.Warn("Config watcher unavailable", logfields.Error(err))
		_ = w.Stop()
		return nil
	}
	return w
}
