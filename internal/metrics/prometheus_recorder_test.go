package metrics

import (
	"bytes"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncAlarm()
	pr.IncAlarm()
	pr.IncLifecycle("timer", "started")
	pr.ObservePersist("timer", 3*time.Millisecond, ResultSuccess)
	pr.IncRestoreRecord("stopwatch", ResultDiscarded)
	pr.SetEntities("timer", 4)

	var buf bytes.Buffer
	if err := WriteText(&buf, pr.Registry()); err != nil {
		t.Fatalf("write text: %v", err)
	}
	out := buf.String()
	for _, name := range []string{
		"chronodeck_alarms_total 2",
		`chronodeck_entities{kind="timer"} 4`,
		`chronodeck_restore_records_total{kind="stopwatch",result="discarded"} 1`,
		`chronodeck_persist_total{kind="timer",result="success"} 1`,
		`chronodeck_lifecycle_changes_total{change="started",kind="timer"} 1`,
	} {
		if !strings.Contains(out, name) {
			t.Errorf("expected %q in exposition output:\n%s", name, out)
		}
	}
}

func TestNewPrometheusRecorderNilRegistry(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	if pr.Registry() == nil {
		t.Fatal("expected a private registry")
	}
}
