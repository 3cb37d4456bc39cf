package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"git.home.luguber.info/inful/chronodeck/internal/stopwatch"
	"git.home.luguber.info/inful/chronodeck/internal/timer"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	idStyle     = lipgloss.NewStyle().Width(4).Align(lipgloss.Right).PaddingRight(1)
	labelStyle  = lipgloss.NewStyle().Width(24)
	clockStyle  = lipgloss.NewStyle().Width(14)
)

// WriteTimers prints one row per timer in display order.
func WriteTimers(w io.Writer, timers []*timer.Timer) error {
	rows := make([]string, 0, len(timers)+1)
	rows = append(rows, headerStyle.Render(fmt.Sprintf("Timers (%d)", len(timers))))
	for _, t := range timers {
		state := runState(t.Running())
		if t.IsCompleted() {
			state = "completed"
		}
		rows = append(rows, row(t.ID(), t.Label(), t.Display(), state+"  "+timer.Format(t.Configured().TotalSeconds())))
	}
	return writeRows(w, rows)
}

// WriteStopwatches prints one row per stopwatch in display order.
func WriteStopwatches(w io.Writer, stopwatches []*stopwatch.Stopwatch) error {
	rows := make([]string, 0, len(stopwatches)+1)
	rows = append(rows, headerStyle.Render(fmt.Sprintf("Stopwatches (%d)", len(stopwatches))))
	for _, s := range stopwatches {
		rows = append(rows, row(s.ID(), s.Label(), s.Display(), runState(s.Running())))
	}
	return writeRows(w, rows)
}

func row(id int, label, display, state string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		idStyle.Render(fmt.Sprint(id)),
		labelStyle.Render(truncate(label, 23)),
		clockStyle.Render(display),
		state)
}

func writeRows(w io.Writer, rows []string) error {
	_, err := io.WriteString(w, strings.Join(rows, "\n")+"\n")
	return err
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
