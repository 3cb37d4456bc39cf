// Package collection owns the ordered set of timers or stopwatches of one
// kind: id allocation, persistence to storage.Store and recovery after a
// restart.
package collection

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"git.home.luguber.info/inful/chronodeck/internal/clock"
	chronoerrors "git.home.luguber.info/inful/chronodeck/internal/errors"
	"git.home.luguber.info/inful/chronodeck/internal/eventstore"
	"git.home.luguber.info/inful/chronodeck/internal/lifecycle"
	"git.home.luguber.info/inful/chronodeck/internal/logfields"
	"git.home.luguber.info/inful/chronodeck/internal/metrics"
	"git.home.luguber.info/inful/chronodeck/internal/storage"
)

// ErrClosed is returned by Insert after Shutdown.
var ErrClosed = stdErrors.New("collection is shut down")

// Entity is what a Manager needs from a timer or stopwatch.
type Entity interface {
	ID() int
	Label() string
	Start()
	Stop()
	OnChange(lifecycle.Hook)
}

// Kind describes how one entity type is created, snapshotted and restored.
type Kind[E Entity] struct {
	// Name is the short kind name used in logs, metrics and the activity log.
	Name string
	// ListKey and CounterKey are the storage keys of the snapshot list and
	// the next-id counter.
	ListKey    string
	CounterKey string
	// New builds a fresh entity with default settings.
	New func(id int) E
	// Snapshot returns the JSON-serializable state of e as of now.
	Snapshot func(e E, now time.Time) any
	// Restore rebuilds an entity from one persisted record. resume reports
	// whether it should be started once it is back in the collection.
	Restore func(raw json.RawMessage, now time.Time) (e E, resume bool, err error)
}

// Renderer is the view side of a collection. Attach is called for every
// entity entering the collection, Detach for every entity leaving it.
type Renderer[E Entity] interface {
	Attach(E)
	Detach(E)
}

// Deps are the collaborators of a Manager. Only Store is required.
type Deps struct {
	Store    storage.Store
	Clock    clock.Clock
	Logger   *slog.Logger
	Recorder metrics.Recorder
	History  eventstore.Store
}

// Manager is a generic, concurrency-safe entity collection.
type Manager[E Entity] struct {
	kind     Kind[E]
	store    storage.Store
	clk      clock.Clock
	logger   *slog.Logger
	recorder metrics.Recorder
	history  eventstore.Store

	// persistMu serializes snapshot-and-write so an older snapshot never
	// lands after a newer one.
	persistMu sync.Mutex

	mu       sync.Mutex
	entities []E
	nextID   int
	closed   bool
	renderer Renderer[E]
}

// New creates an empty manager. Call Restore before use to load persisted state.
func New[E Entity](kind Kind[E], deps Deps) *Manager[E] {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager[E]{
		kind:     kind,
		store:    deps.Store,
		clk:      clock.OrReal(deps.Clock),
		logger:   logger.With(logfields.EntityKind(kind.Name)),
		recorder: metrics.OrNoop(deps.Recorder),
		history:  deps.History,
		nextID:   1,
	}
}

// Kind returns the kind name.
func (m *Manager[E]) Kind() string { return m.kind.Name }

// SetRenderer replaces the renderer, moving every current entity over to it.
func (m *Manager[E]) SetRenderer(r Renderer[E]) {
	m.mu.Lock()
	old := m.renderer
	m.renderer = r
	current := slices.Clone(m.entities)
	m.mu.Unlock()

	for _, e := range current {
		if old != nil {
			old.Detach(e)
		}
		if r != nil {
			r.Attach(e)
		}
	}
}

// Insert allocates the next id, builds an entity with it, appends it and
// persists the collection.
func (m *Manager[E]) Insert(ctx context.Context, build func(id int) E) (E, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		var zero E
		return zero, ErrClosed
	}
	id := m.nextID
	m.nextID++
	e := build(id)
	e.OnChange(m.hookFor(e))
	m.entities = append(m.entities, e)
	n := len(m.entities)
	r := m.renderer
	m.mu.Unlock()

	if r != nil {
		r.Attach(e)
	}
	m.recorder.SetEntities(m.kind.Name, n)
	m.recorder.IncLifecycle(m.kind.Name, lifecycle.Created.String())
	m.record(ctx, e, lifecycle.Created, e.Label())
	m.logger.Debug("Entity created", logfields.EntityID(id), logfields.Label(e.Label()))
	_ = m.Persist(ctx)
	return e, nil
}

// Delete removes the entity with id. Its schedule is cancelled before it
// leaves the collection. Reports whether anything was removed.
func (m *Manager[E]) Delete(ctx context.Context, id int) bool {
	e, ok := m.Get(id)
	if !ok {
		return false
	}
	e.OnChange(nil)
	e.Stop()

	m.mu.Lock()
	idx := slices.IndexFunc(m.entities, func(x E) bool { return x.ID() == id })
	if idx < 0 {
		m.mu.Unlock()
		return false
	}
	m.entities = slices.Delete(m.entities, idx, idx+1)
	n := len(m.entities)
	r := m.renderer
	m.mu.Unlock()

	if r != nil {
		r.Detach(e)
	}
	m.recorder.SetEntities(m.kind.Name, n)
	m.recorder.IncLifecycle(m.kind.Name, lifecycle.Deleted.String())
	m.record(ctx, e, lifecycle.Deleted, "")
	m.logger.Debug("Entity deleted", logfields.EntityID(id))
	_ = m.Persist(ctx)
	return true
}

// Get returns the entity with id.
func (m *Manager[E]) Get(id int) (E, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entities {
		if e.ID() == id {
			return e, true
		}
	}
	var zero E
	return zero, false
}

// List returns the entities in display order.
func (m *Manager[E]) List() []E {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.entities)
}

// Len returns the number of entities.
func (m *Manager[E]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entities)
}

// NextID returns the id the next Insert will use.
func (m *Manager[E]) NextID() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nextID
}

// Persist writes every snapshot and the id counter in one atomic storage
// write. Failures are logged and counted; the returned error is informational.
// After Shutdown it does nothing.
func (m *Manager[E]) Persist(ctx context.Context) error {
	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return nil
	}
	return m.writeLocked(ctx)
}

// writeLocked does the persist work. Caller holds persistMu.
func (m *Manager[E]) writeLocked(ctx context.Context) error {
	m.mu.Lock()
	current := slices.Clone(m.entities)
	nextID := m.nextID
	m.mu.Unlock()

	start := time.Now()
	err := m.write(ctx, current, nextID)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultFailure
		m.logger.Warn("Persist failed",
			logfields.StorageKey(m.kind.ListKey),
			logfields.Error(err))
	}
	m.recorder.ObservePersist(m.kind.Name, time.Since(start), result)
	return err
}

func (m *Manager[E]) write(ctx context.Context, current []E, nextID int) error {
	now := m.clk.Now()
	snaps := make([]any, 0, len(current))
	for _, e := range current {
		snaps = append(snaps, m.kind.Snapshot(e, now))
	}
	list, err := json.Marshal(snaps)
	if err != nil {
		return chronoerrors.InternalError("marshal snapshot", err).WithContext("kind", m.kind.Name)
	}
	return m.store.SetMany(ctx,
		storage.Entry{Key: m.kind.ListKey, Value: list},
		storage.Entry{Key: m.kind.CounterKey, Value: []byte(strconv.Itoa(nextID))},
	)
}

// Shutdown flushes the collection one last time and then stops every
// entity's schedule without persisting the stop, so running entities resume
// on the next Restore. Later Persist calls are no-ops.
func (m *Manager[E]) Shutdown(ctx context.Context) error {
	m.persistMu.Lock()
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		m.persistMu.Unlock()
		return nil
	}
	m.mu.Unlock()
	err := m.writeLocked(ctx)
	m.mu.Lock()
	m.closed = true
	current := slices.Clone(m.entities)
	r := m.renderer
	m.mu.Unlock()
	m.persistMu.Unlock()

	for _, e := range current {
		e.OnChange(nil)
		if r != nil {
			r.Detach(e)
		}
		e.Stop()
	}
	if err != nil {
		return fmt.Errorf("final %s persist: %w", m.kind.Name, err)
	}
	return nil
}

// hookFor returns the lifecycle hook installed on e. Every transition is
// counted, logged to the activity history and persisted.
func (m *Manager[E]) hookFor(e E) lifecycle.Hook {
	return func(c lifecycle.Change) {
		m.recorder.IncLifecycle(m.kind.Name, c.String())
		if c == lifecycle.Completed {
			m.recorder.IncAlarm()
			m.logger.Info("Alarm", logfields.EntityID(e.ID()), logfields.Label(e.Label()))
		}
		detail := ""
		if c == lifecycle.Relabeled {
			detail = e.Label()
		}
		ctx := context.Background()
		m.record(ctx, e, c, detail)
		_ = m.Persist(ctx)
	}
}

// record appends to the activity log. Best effort.
func (m *Manager[E]) record(ctx context.Context, e E, c lifecycle.Change, detail string) {
	if m.history == nil {
		return
	}
	ev := eventstore.NewEvent(m.kind.Name, e.ID(), c.String(), detail, m.clk.Now())
	if err := m.history.Append(ctx, ev); err != nil {
		m.logger.Debug("Activity log append failed", logfields.EntityID(e.ID()), logfields.Error(err))
	}
}
