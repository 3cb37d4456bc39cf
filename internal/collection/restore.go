package collection

import (
	"context"
	"encoding/json"
	"time"

	chronoerrors "git.home.luguber.info/inful/chronodeck/internal/errors"
	"git.home.luguber.info/inful/chronodeck/internal/lifecycle"
	"git.home.luguber.info/inful/chronodeck/internal/logfields"
	"git.home.luguber.info/inful/chronodeck/internal/metrics"
)

type restored[E Entity] struct {
	entity  E
	resume  bool
	created bool
}

// Restore loads the persisted collection. Records that cannot be decoded are
// dropped individually. When nothing usable is found (missing key, storage
// failure, malformed payload, or every record rejected) the collection starts
// with a single default entity. Entities that were running are started again.
// Restore never fails; problems are logged and counted.
//
// Restore is meant for a freshly created manager and does nothing if the
// collection already holds entities.
func (m *Manager[E]) Restore(ctx context.Context) {
	m.mu.Lock()
	if len(m.entities) > 0 || m.closed {
		m.mu.Unlock()
		m.logger.Warn("Restore skipped on non-empty collection")
		return
	}
	m.mu.Unlock()

	now := m.clk.Now()
	items, maxID := m.load(ctx, now)
	storedNext := m.loadCounter(ctx)

	m.mu.Lock()
	m.nextID = max(storedNext, maxID+1, 1)
	if len(items) == 0 {
		e := m.kind.New(m.nextID)
		m.nextID++
		items = append(items, restored[E]{entity: e, created: true})
		m.recorder.IncRestoreRecord(m.kind.Name, metrics.ResultDefaulted)
		m.logger.Info("No persisted entities, created default", logfields.EntityID(e.ID()))
	}
	for _, it := range items {
		it.entity.OnChange(m.hookFor(it.entity))
		m.entities = append(m.entities, it.entity)
	}
	n := len(m.entities)
	r := m.renderer
	m.mu.Unlock()

	m.recorder.SetEntities(m.kind.Name, n)
	for _, it := range items {
		if r != nil {
			r.Attach(it.entity)
		}
		change := lifecycle.Restored
		if it.created {
			change = lifecycle.Created
		}
		m.record(ctx, it.entity, change, it.entity.Label())
	}
	for _, it := range items {
		if it.resume {
			it.entity.Start()
		}
	}
	m.logger.Info("Collection restored", logfields.Count(n))
	_ = m.Persist(ctx)
}

// load decodes the persisted list. It returns the usable entities in stored
// order and the highest id seen.
func (m *Manager[E]) load(ctx context.Context, now time.Time) ([]restored[E], int) {
	raw, ok, err := m.store.Get(ctx, m.kind.ListKey)
	if err != nil {
		m.logger.Warn("Reading persisted collection failed",
			logfields.StorageKey(m.kind.ListKey), logfields.Error(err))
		return nil, 0
	}
	if !ok {
		return nil, 0
	}

	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		cerr := chronoerrors.CorruptSnapshot(m.kind.ListKey, err)
		m.logger.Warn("Discarding malformed collection snapshot",
			logfields.StorageKey(m.kind.ListKey), logfields.Error(cerr))
		return nil, 0
	}

	var (
		items []restored[E]
		maxID int
		seen  = make(map[int]bool, len(records))
	)
	for i, rec := range records {
		e, resume, err := m.kind.Restore(rec, now)
		if err == nil && seen[e.ID()] {
			err = chronoerrors.ValidationFailed("id", "duplicate id in snapshot")
		}
		if err != nil {
			m.recorder.IncRestoreRecord(m.kind.Name, metrics.ResultDiscarded)
			m.logger.Warn("Discarding malformed record",
				logfields.StorageKey(m.kind.ListKey),
				logfields.Count(i),
				logfields.Error(err))
			continue
		}
		seen[e.ID()] = true
		maxID = max(maxID, e.ID())
		items = append(items, restored[E]{entity: e, resume: resume})
		m.recorder.IncRestoreRecord(m.kind.Name, metrics.ResultSuccess)
	}
	return items, maxID
}

// loadCounter reads the stored next id; anything unreadable counts as 0.
func (m *Manager[E]) loadCounter(ctx context.Context) int {
	raw, ok, err := m.store.Get(ctx, m.kind.CounterKey)
	if err != nil || !ok {
		return 0
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		m.logger.Debug("Ignoring malformed id counter", logfields.StorageKey(m.kind.CounterKey), logfields.Error(err))
		return 0
	}
	return n
}
