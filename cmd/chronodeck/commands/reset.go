package commands

import (
	"context"

	"git.home.luguber.info/inful/chronodeck/internal/app"
	"git.home.luguber.info/inful/chronodeck/internal/config"
	"git.home.luguber.info/inful/chronodeck/internal/logfields"
)

// ResetStateCmd implements the 'reset-state' command.
type ResetStateCmd struct{}

func (r *ResetStateCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	return r.run(context.Background(), g, cfg)
}

func (r *ResetStateCmd) run(ctx context.Context, g *Global, cfg *config.Config) error {
	if err := app.ResetState(ctx, cfg); err != nil {
		return err
	}
	g.Logger.Info("Persisted state deleted",
		logfields.StorageDriver(string(cfg.Storage.Driver)),
		logfields.Path(cfg.Storage.Path))
	return nil
}
