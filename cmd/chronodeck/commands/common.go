package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/chronodeck/internal/config"
)

// Global carries state shared by subcommands.
type Global struct {
	Logger   *slog.Logger
	LevelVar *slog.LevelVar
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"chronodeck.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Run        RunCmd        `cmd:"" default:"1" help:"Start the timers and stopwatches with an interactive shell"`
	List       ListCmd       `cmd:"" help:"Print the persisted timers and stopwatches"`
	Init       InitCmd       `cmd:"" help:"Initialize a new configuration file"`
	ResetState ResetStateCmd `cmd:"" name:"reset-state" help:"Delete all persisted timers and stopwatches"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	if g.LevelVar == nil {
		g.LevelVar = new(slog.LevelVar)
	}
	g.LevelVar.Set(c.level(slog.LevelInfo))
	g.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: g.LevelVar}))
	slog.SetDefault(g.Logger)
	return nil
}

// level is fallback unless --verbose is set.
func (c *CLI) level(fallback slog.Level) slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	return fallback
}

// loadConfig reads the configuration, using the defaults when the file does
// not exist yet.
func loadConfig(root *CLI) (*config.Config, error) {
	return config.LoadOrDefault(root.Config)
}
