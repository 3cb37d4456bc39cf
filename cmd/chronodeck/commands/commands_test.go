package commands

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/chronodeck/internal/config"
	"git.home.luguber.info/inful/chronodeck/internal/storage"
)

func parse(t *testing.T, args ...string) (*kong.Context, *CLI, *Global) {
	t.Helper()
	var cli CLI
	g := &Global{LevelVar: new(slog.LevelVar)}
	parser, err := kong.New(&cli, kong.Bind(g), kong.Vars{"version": "test"}, kong.Exit(func(int) {}))
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	return ctx, &cli, g
}

func TestParseDefaults(t *testing.T) {
	ctx, cli, g := parse(t)
	assert.Equal(t, "run", ctx.Command())
	assert.Equal(t, "chronodeck.yaml", cli.Config)
	assert.Equal(t, slog.LevelInfo, g.LevelVar.Level())
	require.NotNil(t, g.Logger)
}

func TestParseVerboseResetState(t *testing.T) {
	ctx, cli, g := parse(t, "-v", "-c", "other.yaml", "reset-state")
	assert.Equal(t, "reset-state", ctx.Command())
	assert.Equal(t, "other.yaml", cli.Config)
	assert.Equal(t, slog.LevelDebug, g.LevelVar.Level())
}

func TestInitWritesLoadableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chronodeck.yaml")
	require.NoError(t, RunInit(path, false))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.CurrentVersion, cfg.Version)

	require.Error(t, RunInit(path, false), "existing file needs --force")
	require.NoError(t, RunInit(path, true))
}

func fileConfig(t *testing.T, dir string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.Driver = config.StorageFile
	cfg.Storage.Path = filepath.Join(dir, "state.json")
	cfg.History.Path = filepath.Join(dir, "history.db")
	return cfg
}

func TestRunListPrintsAndPersistsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg := fileConfig(t, dir)

	var out bytes.Buffer
	require.NoError(t, RunList(context.Background(), cfg, &out))
	assert.Contains(t, out.String(), "Timers (1)")
	assert.Contains(t, out.String(), "Timer 1")
	assert.Contains(t, out.String(), "Stopwatches (1)")

	st, err := storage.Open(string(cfg.Storage.Driver), cfg.Storage.Path)
	require.NoError(t, err)
	defer func() { _ = st.Close() }()
	raw, ok, err := st.Get(context.Background(), storage.KeyTimers)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, string(raw), `"label":"Timer 1"`)
}

func TestResetStateDeletesKeys(t *testing.T) {
	dir := t.TempDir()
	cfg := fileConfig(t, dir)
	var out bytes.Buffer
	require.NoError(t, RunList(context.Background(), cfg, &out))

	data, err := os.ReadFile(cfg.Storage.Path)
	require.NoError(t, err)
	require.Contains(t, string(data), storage.KeyStopwatches)

	g := &Global{Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))}
	require.NoError(t, (&ResetStateCmd{}).run(context.Background(), g, cfg))

	data, err = os.ReadFile(cfg.Storage.Path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), storage.KeyStopwatches)
}
