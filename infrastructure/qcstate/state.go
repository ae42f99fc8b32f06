// Package qcstate holds the live shipment collection for a running process.
//
// State loads the collection once (seeding demo data into an empty store),
// runs every mutation through the qc rules, and writes the whole collection
// back through the repository after each change. Mutations and writes are
// serialized by one lock, so concurrent requests never interleave writes of
// the collection key. Another process may still write the same store (the
// snapshot CLI restoring a backup); State notices through the collection
// revision and reloads before its next mutation instead of overwriting it.
package qcstate

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"qctracker/core/qc"
	"qctracker/infrastructure/metrics"
	"qctracker/models"
)

const (
	MsgLoadFailed    = "Failed to load shipments"
	MsgSaveFailed    = "Failed to save shipment"
	MsgBackupFailed  = "Failed to back up store"
	MsgRestoreFailed = "Failed to restore backup"
)

// ErrNotFound is returned for an unknown shipment id.
var ErrNotFound = errors.New("shipment not found")

// Repository is the persistence contract State depends on.
type Repository interface {
	ListAll(ctx context.Context) ([]models.Shipment, error)
	Upsert(ctx context.Context, shipment models.Shipment) error
	Remove(ctx context.Context, id string) error
	Revision(ctx context.Context) (string, error)
}

// Snapshotter backs up and restores the whole store.
type Snapshotter interface {
	BackupAll(ctx context.Context) (string, error)
	RestoreAll(ctx context.Context, snapshot string) error
}

// Auditor records successful shipment changes and reads them back.
type Auditor interface {
	Record(ctx context.Context, action, shipmentID string, before, after any) error
	History(ctx context.Context, shipmentID string) ([]models.AuditLog, error)
}

type Option func(*State)

func WithAuditor(a Auditor) Option {
	return func(s *State) { s.audit = a }
}

func WithRecorder(r metrics.Recorder) Option {
	return func(s *State) {
		if r != nil {
			s.metrics = r
		}
	}
}

// WithSeed controls whether Load seeds demo shipments into an empty store.
func WithSeed(seed bool) Option {
	return func(s *State) { s.seed = seed }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *State) {
		if l != nil {
			s.log = l
		}
	}
}

// State is the session-scoped shipment holder.
type State struct {
	repo    Repository
	snap    Snapshotter
	audit   Auditor
	metrics metrics.Recorder
	log     *slog.Logger
	seed    bool

	loading atomic.Bool

	mu        sync.RWMutex
	shipments []models.Shipment
	rev       string
	errMsg    string
}

func New(repo Repository, snap Snapshotter, opts ...Option) *State {
	s := &State{
		repo:      repo,
		snap:      snap,
		metrics:   metrics.NoopRecorder{},
		log:       slog.Default(),
		seed:      true,
		shipments: []models.Shipment{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the collection from the repository. An empty store is seeded
// with the demo shipments, each persisted individually. A read failure sets
// the session error and leaves the collection empty.
func (s *State) Load(ctx context.Context) error {
	s.loading.Store(true)
	defer s.loading.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.repo.ListAll(ctx)
	if err != nil {
		s.fail(MsgLoadFailed, "load", err)
		s.shipments = []models.Shipment{}
		s.publish()
		return err
	}
	if len(list) == 0 && s.seed {
		list = DemoShipments()
		for _, shipment := range list {
			if err := s.repo.Upsert(ctx, shipment); err != nil {
				s.fail(MsgSaveFailed, "seed", err)
			}
		}
		s.log.Info("seeded demo shipments", slog.Int("count", len(list)))
	}
	s.shipments = list
	s.markSynced(ctx)
	s.publish()
	return nil
}

// Loading reports whether Load is in progress.
func (s *State) Loading() bool {
	return s.loading.Load()
}

// Err returns the current session error message, or "".
func (s *State) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// ClearErr dismisses the session error message.
func (s *State) ClearErr() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = ""
}

// Shipments returns a copy of the live collection.
func (s *State) Shipments() []models.Shipment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Shipment, 0, len(s.shipments))
	for _, shipment := range s.shipments {
		out = append(out, shipment.Clone())
	}
	return out
}

// Shipment returns a copy of one shipment.
func (s *State) Shipment(id string) (models.Shipment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.shipments[i].Clone(), true
	}
	return models.Shipment{}, false
}

// Stats returns dashboard counters for the live collection.
func (s *State) Stats() qc.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return qc.Summarize(s.shipments)
}

// AddShipment validates a manual entry and appends a pending shipment.
func (s *State) AddShipment(ctx context.Context, in qc.NewShipmentInput) (models.Shipment, error) {
	const op = "add_shipment"
	shipment, verr := qc.NewShipment(in)
	if verr != nil {
		s.metrics.IncOperation(op, metrics.ResultInvalid)
		return models.Shipment{}, verr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncLocked(ctx)
	if s.indexOf(shipment.ID) >= 0 {
		s.metrics.IncOperation(op, metrics.ResultInvalid)
		return models.Shipment{}, qc.DuplicateID()
	}
	s.shipments = append(s.shipments, shipment)
	s.persistAll(ctx)
	s.recordAudit(ctx, op, shipment.ID, nil, shipment)
	s.metrics.IncOperation(op, metrics.ResultSuccess)
	s.publish()
	return shipment.Clone(), nil
}

// SubmitLevel1 completes Level 1 for a shipment.
func (s *State) SubmitLevel1(ctx context.Context, id string, data models.Level1QC) (models.Shipment, error) {
	return s.mutate(ctx, "submit_level1", id, func(sh models.Shipment) (models.Shipment, error) {
		return qc.SubmitLevel1(sh, data)
	})
}

// SaveLevel1Draft stores Level 1 data without completing it.
func (s *State) SaveLevel1Draft(ctx context.Context, id string, data models.Level1QC) (models.Shipment, error) {
	return s.mutate(ctx, "save_level1_draft", id, func(sh models.Shipment) (models.Shipment, error) {
		return qc.SaveLevel1Draft(sh, data)
	})
}

// SubmitLevel2 completes Level 2 for a shipment.
func (s *State) SubmitLevel2(ctx context.Context, id string, data models.Level2QC) (models.Shipment, error) {
	return s.mutate(ctx, "submit_level2", id, func(sh models.Shipment) (models.Shipment, error) {
		return qc.SubmitLevel2(sh, data)
	})
}

// SaveLevel2Draft stores Level 2 data without completing it.
func (s *State) SaveLevel2Draft(ctx context.Context, id string, data models.Level2QC) (models.Shipment, error) {
	return s.mutate(ctx, "save_level2_draft", id, func(sh models.Shipment) (models.Shipment, error) {
		return qc.SaveLevel2Draft(sh, data)
	})
}

// History returns the recorded changes of one shipment, oldest first.
// Without an auditor the trail is empty.
func (s *State) History(ctx context.Context, id string) ([]models.AuditLog, error) {
	if _, ok := s.Shipment(id); !ok {
		return nil, ErrNotFound
	}
	if s.audit == nil {
		return []models.AuditLog{}, nil
	}
	return s.audit.History(ctx, id)
}

// Backup returns a snapshot of the whole store.
func (s *State) Backup(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot, err := s.snap.BackupAll(ctx)
	if err != nil {
		s.fail(MsgBackupFailed, "backup", err)
		return "", err
	}
	return snapshot, nil
}

// Restore applies a snapshot and reloads the collection from the
// repository. A malformed snapshot changes nothing.
func (s *State) Restore(ctx context.Context, snapshot string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.snap.RestoreAll(ctx, snapshot); err != nil {
		s.metrics.IncOperation("restore", metrics.ResultError)
		s.log.Warn("restore rejected", slog.Any("err", err))
		return err
	}
	list, err := s.repo.ListAll(ctx)
	if err != nil {
		s.fail(MsgRestoreFailed, "restore", err)
		return err
	}
	s.shipments = list
	s.markSynced(ctx)
	s.metrics.IncOperation("restore", metrics.ResultSuccess)
	s.publish()
	return nil
}

func (s *State) mutate(ctx context.Context, op, id string, fn func(models.Shipment) (models.Shipment, error)) (models.Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncLocked(ctx)

	i := s.indexOf(id)
	if i < 0 {
		s.metrics.IncOperation(op, metrics.ResultRefused)
		return models.Shipment{}, ErrNotFound
	}
	before := s.shipments[i]
	after, err := fn(before.Clone())
	if err != nil {
		s.metrics.IncOperation(op, outcome(err))
		return before.Clone(), err
	}

	s.shipments[i] = after
	s.persistAll(ctx)
	s.recordAudit(ctx, op, id, before, after)
	s.metrics.IncOperation(op, metrics.ResultSuccess)
	s.publish()
	return after.Clone(), nil
}

// persistAll writes every shipment through the repository. Failures set
// the session error; the in-memory collection stays authoritative.
func (s *State) persistAll(ctx context.Context) {
	for _, shipment := range s.shipments {
		if err := s.repo.Upsert(ctx, shipment); err != nil {
			s.fail(MsgSaveFailed, "save", err)
		}
	}
	s.markSynced(ctx)
}

// syncLocked reloads the collection when the stored revision differs from
// the one this State last read or wrote. If the revision can't be read the
// in-memory collection stays authoritative.
func (s *State) syncLocked(ctx context.Context) {
	rev, err := s.repo.Revision(ctx)
	if err != nil {
		s.log.Warn("read shipments revision", slog.Any("err", err))
		return
	}
	if rev == s.rev {
		return
	}
	list, err := s.repo.ListAll(ctx)
	if err != nil {
		s.log.Warn("reload shipments", slog.Any("err", err))
		return
	}
	s.log.Warn("stored shipments changed by another writer; reloaded", slog.Int("count", len(list)))
	s.shipments = list
	s.rev = rev
	s.metrics.IncOperation("reload", metrics.ResultSuccess)
	s.publish()
}

// markSynced records the stored revision after a read or write.
func (s *State) markSynced(ctx context.Context) {
	rev, err := s.repo.Revision(ctx)
	if err != nil {
		return
	}
	s.rev = rev
}

func (s *State) recordAudit(ctx context.Context, action, id string, before, after any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, action, id, before, after); err != nil {
		s.log.Warn("audit record failed", slog.String("action", action), slog.String("shipment_id", id), slog.Any("err", err))
	}
}

func (s *State) fail(msg, op string, err error) {
	s.errMsg = msg
	s.metrics.IncPersistenceError(op)
	s.log.Error("shipment persistence failed", slog.String("op", op), slog.Any("err", err))
}

func (s *State) publish() {
	counts := make(map[models.QCStatus]int)
	for _, shipment := range s.shipments {
		counts[shipment.Status]++
	}
	s.metrics.SetShipmentsByStatus(counts)
}

func (s *State) indexOf(id string) int {
	for i := range s.shipments {
		if s.shipments[i].ID == id {
			return i
		}
	}
	return -1
}

func outcome(err error) metrics.ResultLabel {
	var verr qc.ValidationError
	var terr *qc.TransitionError
	switch {
	case errors.As(err, &verr):
		return metrics.ResultInvalid
	case errors.As(err, &terr):
		return metrics.ResultRefused
	default:
		return metrics.ResultError
	}
}
