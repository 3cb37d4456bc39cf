package metrics

import (
	"fmt"
	"io"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const namespace = "chronodeck"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg             *prom.Registry
	alarms          prom.Counter
	lifecycle       *prom.CounterVec
	persistTotal    *prom.CounterVec
	persistDuration *prom.HistogramVec
	restoreRecords  *prom.CounterVec
	entities        *prom.GaugeVec
}

// NewPrometheusRecorder constructs and registers the collectors on reg, or on
// a fresh registry when reg is nil.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{reg: reg}
	pr.alarms = prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "alarms_total",
		Help:      "Timers that counted down to zero",
	})
	pr.lifecycle = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "lifecycle_changes_total",
		Help:      "Entity lifecycle transitions by kind and change",
	}, []string{"kind", "change"})
	pr.persistTotal = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "persist_total",
		Help:      "Collection persist attempts by kind and result",
	}, []string{"kind", "result"})
	pr.persistDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "persist_duration_seconds",
		Help:      "Duration of collection persists",
		Buckets:   prom.ExponentialBuckets(0.0005, 2, 12),
	}, []string{"kind"})
	pr.restoreRecords = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "restore_records_total",
		Help:      "Persisted records processed on restore by kind and result",
	}, []string{"kind", "result"})
	pr.entities = prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "entities",
		Help:      "Entities currently held per kind",
	}, []string{"kind"})
	reg.MustRegister(pr.alarms, pr.lifecycle, pr.persistTotal, pr.persistDuration, pr.restoreRecords, pr.entities)
	return pr
}

func (p *PrometheusRecorder) IncAlarm() { p.alarms.Inc() }

func (p *PrometheusRecorder) IncLifecycle(kind, change string) {
	p.lifecycle.WithLabelValues(kind, change).Inc()
}

func (p *PrometheusRecorder) ObservePersist(kind string, d time.Duration, result ResultLabel) {
	p.persistTotal.WithLabelValues(kind, string(result)).Inc()
	p.persistDuration.WithLabelValues(kind).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRestoreRecord(kind string, result ResultLabel) {
	p.restoreRecords.WithLabelValues(kind, string(result)).Inc()
}

func (p *PrometheusRecorder) SetEntities(kind string, n int) {
	p.entities.WithLabelValues(kind).Set(float64(n))
}

// Registry returns the registry the collectors are registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

// WriteText gathers reg and writes it in the Prometheus text exposition format.
func WriteText(w io.Writer, reg *prom.Registry) error {
	mfs, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
