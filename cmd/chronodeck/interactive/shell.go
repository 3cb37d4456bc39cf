// Package interactive provides the command shell of `chronodeck run`.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"git.home.luguber.info/inful/chronodeck/internal/app"
	"git.home.luguber.info/inful/chronodeck/internal/collection"
	"git.home.luguber.info/inful/chronodeck/internal/eventstore"
	"git.home.luguber.info/inful/chronodeck/internal/metrics"
	"git.home.luguber.info/inful/chronodeck/internal/timer"
	"git.home.luguber.info/inful/chronodeck/internal/view"
)

const historyLimit = 20

// Shell reads commands and turns them into intents on the app's collections.
type Shell struct {
	rl       *readline.Instance
	out      io.Writer
	app      *app.App
	renderer *view.TextRenderer
}

// New creates a shell on the terminal.
func New() (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "chronodeck> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Shell{rl: rl, out: rl.Stdout()}, nil
}

// newWithWriter creates a shell without a terminal; commands go through Exec.
func newWithWriter(w io.Writer) *Shell {
	return &Shell{out: w}
}

// Stdout returns a writer that does not garble the prompt.
func (s *Shell) Stdout() io.Writer { return s.out }

// Stderr returns a writer for log output that does not garble the prompt.
func (s *Shell) Stderr() io.Writer {
	if s.rl == nil {
		return s.out
	}
	return s.rl.Stderr()
}

// Attach connects the shell to a, rendering both collections to Stdout.
func (s *Shell) Attach(a *app.App) {
	s.app = a
	s.renderer = view.NewTextRenderer(s.out, a.Clock())
	a.Timers().SetRenderer(s.renderer.Timers())
	a.Stopwatches().SetRenderer(s.renderer.Stopwatches())
}

// Close releases the terminal and unblocks a pending Run.
func (s *Shell) Close() error {
	if s.rl == nil {
		return nil
	}
	return s.rl.Close()
}

// Run reads lines until quit, EOF or ctx is done. cancel is called when the
// user leaves the shell.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc) {
	defer func() { _ = s.rl.Close() }()

	s.printHelp()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			_, _ = fmt.Fprintln(s.out, "Exiting...")
			cancel()
			return
		}
		if s.Exec(ctx, line) {
			_, _ = fmt.Fprintln(s.out, "Exiting...")
			cancel()
			return
		}
	}
}

// Exec runs one command line and reports whether the shell should exit.
func (s *Shell) Exec(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()
	case "timers", "t":
		s.report(view.WriteTimers(s.out, s.app.Timers().List()))
	case "stopwatches", "sw":
		s.report(view.WriteStopwatches(s.out, s.app.Stopwatches().List()))
	case "add-timer", "at":
		s.cmdAddTimer(ctx, args)
	case "add-stopwatch", "as":
		s.cmdAddStopwatch(ctx, args)
	case "start", "stop", "reset", "delete", "rm":
		s.cmdControl(ctx, cmd, args)
	case "set":
		s.cmdSet(args)
	case "label":
		s.cmdLabel(args)
	case "history", "h":
		s.cmdHistory(ctx, args)
	case "stats":
		s.cmdStats()
	case "watch":
		s.cmdWatch(args)
	case "quit", "exit", "q":
		return true
	default:
		s.printf("Unknown command: %s (type 'help' for commands)", cmd)
	}
	return false
}

func (s *Shell) printHelp() {
	_, _ = fmt.Fprintln(s.out, `
chronodeck commands:
  Lists:
    timers                      - List timers
    stopwatches                 - List stopwatches

  Create:
    add-timer [label] [h m s]   - Add a timer (default duration without h m s)
    add-stopwatch [label]       - Add a stopwatch

  Control (kind is t or s):
    start <kind> <id>           - Start
    stop <kind> <id>            - Stop
    reset <kind> <id>           - Reset
    delete <kind> <id>          - Delete
    set <id> <h> <m> <s>        - Change a stopped timer's duration
    label <kind> <id> <text>    - Rename

  Other:
    history [<kind> <id>]       - Show recent activity
    stats                       - Show metrics
    watch on|off                - Print every tick
    help                        - Show this help
    quit                        - Exit`)
}

func (s *Shell) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.out, format+"\n", args...)
}

func (s *Shell) report(err error) {
	if err != nil {
		s.printf("Error: %v", err)
	}
}

// cmdAddTimer takes an optional label followed by an optional "h m s"
// triple; the triple is recognized when the last three words are integers.
func (s *Shell) cmdAddTimer(ctx context.Context, args []string) {
	timers := s.app.Timers()
	d := timers.Defaults()
	if n := len(args); n >= 3 && allInts(args[n-3:]) {
		d = timer.ParseDuration(args[n-3], args[n-2], args[n-1])
		args = args[:n-3]
	}
	t, err := timers.Add(ctx, strings.Join(args, " "), d)
	if err != nil {
		s.report(err)
		return
	}
	s.printf("Added timer %d (%s, %s)", t.ID(), t.Label(), t.Display())
}

func (s *Shell) cmdAddStopwatch(ctx context.Context, args []string) {
	sw, err := s.app.Stopwatches().Add(ctx, strings.Join(args, " "))
	if err != nil {
		s.report(err)
		return
	}
	s.printf("Added stopwatch %d (%s)", sw.ID(), sw.Label())
}

// control is the part of the entity surface shared by both kinds.
type control interface {
	collection.Entity
	Reset()
	UpdateLabel(string) bool
}

// parseRef resolves "<t|s> <id>" to a kind name and id.
func (s *Shell) parseRef(kindArg, idArg string) (string, int, bool) {
	var kind string
	switch strings.ToLower(kindArg) {
	case "t", "timer":
		kind = collection.KindTimer
	case "s", "sw", "stopwatch":
		kind = collection.KindStopwatch
	default:
		s.printf("Unknown kind: %s (use t or s)", kindArg)
		return "", 0, false
	}
	id, err := strconv.Atoi(idArg)
	if err != nil {
		s.printf("Invalid id: %s", idArg)
		return "", 0, false
	}
	return kind, id, true
}

func (s *Shell) lookup(kindArg, idArg string) (string, int, control, bool) {
	kind, id, ok := s.parseRef(kindArg, idArg)
	if !ok {
		return "", 0, nil, false
	}
	if kind == collection.KindTimer {
		if t, found := s.app.Timers().Get(id); found {
			return kind, id, t, true
		}
	} else if sw, found := s.app.Stopwatches().Get(id); found {
		return kind, id, sw, true
	}
	s.printf("No %s with id %d", kind, id)
	return kind, id, nil, false
}

func (s *Shell) cmdControl(ctx context.Context, cmd string, args []string) {
	if len(args) != 2 {
		s.printf("Usage: %s <t|s> <id>", cmd)
		return
	}
	kind, id, c, ok := s.lookup(args[0], args[1])
	if !ok {
		return
	}
	switch cmd {
	case "start":
		c.Start()
	case "stop":
		c.Stop()
	case "reset":
		c.Reset()
	case "delete", "rm":
		var removed bool
		if kind == collection.KindTimer {
			removed = s.app.Timers().Delete(ctx, id)
		} else {
			removed = s.app.Stopwatches().Delete(ctx, id)
		}
		if removed {
			s.printf("Deleted %s %d", kind, id)
		}
	}
}

func (s *Shell) cmdSet(args []string) {
	if len(args) != 4 {
		s.printf("Usage: set <id> <h> <m> <s>")
		return
	}
	_, _, c, ok := s.lookup("t", args[0])
	if !ok {
		return
	}
	t := c.(*timer.Timer)
	if !t.ReconfigureText(args[1], args[2], args[3]) {
		s.printf("Timer %d is running; stop it first", t.ID())
		return
	}
	s.printf("Timer %d set to %s", t.ID(), t.Display())
}

func (s *Shell) cmdLabel(args []string) {
	if len(args) < 3 {
		s.printf("Usage: label <t|s> <id> <text>")
		return
	}
	_, _, c, ok := s.lookup(args[0], args[1])
	if !ok {
		return
	}
	if !c.UpdateLabel(strings.Join(args[2:], " ")) {
		s.printf("Label must not be blank")
	}
}

func (s *Shell) cmdHistory(ctx context.Context, args []string) {
	h := s.app.History()
	if h == nil {
		s.printf("Activity log is disabled")
		return
	}

	var (
		events []eventstore.Event
		err    error
	)
	switch len(args) {
	case 0:
		events, err = h.Recent(ctx, historyLimit)
	case 2:
		// Deleted entities keep their history, so no lookup.
		kind, id, ok := s.parseRef(args[0], args[1])
		if !ok {
			return
		}
		events, err = h.ByEntity(ctx, kind, id)
	default:
		s.printf("Usage: history [<t|s> <id>]")
		return
	}
	if err != nil {
		s.report(err)
		return
	}
	if len(events) == 0 {
		s.printf("No activity")
		return
	}
	for _, e := range events {
		line := fmt.Sprintf("%s  %-9s %-3d %s", e.At.Format("2006-01-02 15:04:05"), e.Kind, e.EntityID, e.Type)
		if e.Detail != "" {
			line += "  " + e.Detail
		}
		s.printf("%s", line)
	}
}

func (s *Shell) cmdStats() {
	reg := s.app.MetricsRegistry()
	if reg == nil {
		s.printf("Metrics are disabled (set metrics.enabled: true)")
		return
	}
	s.report(metrics.WriteText(s.out, reg))
}

func (s *Shell) cmdWatch(args []string) {
	if len(args) == 1 {
		switch strings.ToLower(args[0]) {
		case "on":
			s.renderer.SetShowTicks(true)
		case "off":
			s.renderer.SetShowTicks(false)
		default:
			s.printf("Usage: watch on|off")
			return
		}
	}
	state := "off"
	if s.renderer.ShowTicks() {
		state = "on"
	}
	s.printf("Watch is %s", state)
}

func allInts(args []string) bool {
	for _, a := range args {
		if _, err := strconv.Atoi(a); err != nil {
			return false
		}
	}
	return true
}
