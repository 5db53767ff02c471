package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sparkify-data/sparkify-etl/internal/store"
	"github.com/sparkify-data/sparkify-etl/internal/testing/fixtures"
	"github.com/sparkify-data/sparkify-etl/pkg/sparkify"
)

type mockConnector struct {
	pool *pgxpool.Pool
	err  error
}

func (m *mockConnector) Connect(_ context.Context) (*pgxpool.Pool, error) {
	return m.pool, m.err
}

// recordingReporter captures progress events as strings.
type recordingReporter struct {
	mu     sync.Mutex
	events []string
	phases []sparkify.PhaseSummary
	runs   []sparkify.RunSummary
}

func (r *recordingReporter) PhaseStarted(phase, _ string, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, phase+" started")
}

func (r *recordingReporter) FileProcessed(_, _ int, file sparkify.DataFile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, file.RelativePath)
}

func (r *recordingReporter) PhaseFinished(s sparkify.PhaseSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, s.Phase+" finished")
	r.phases = append(r.phases, s)
}

func (r *recordingReporter) RunFinished(s sparkify.RunSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "run finished")
	r.runs = append(r.runs, s)
}

// faultyStore wraps a MemoryStore and fails one kind of operation.
type faultyStore struct {
	inner  *store.MemoryStore
	failOn string // "begin", "time", "songplay", "commit"
	err    error
	limit  int // number of failures to inject; 0 means every call
	fired  int
}

func (s *faultyStore) fail(op string) error {
	if s.failOn != op || (s.limit > 0 && s.fired >= s.limit) {
		return nil
	}
	s.fired++
	return s.err
}

func (s *faultyStore) Begin(ctx context.Context) (sparkify.UnitOfWork, error) {
	if err := s.fail("begin"); err != nil {
		return nil, err
	}
	uow, err := s.inner.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &faultyUnit{UnitOfWork: uow, store: s}, nil
}

type faultyUnit struct {
	sparkify.UnitOfWork
	store *faultyStore
}

func (u *faultyUnit) InsertTime(ctx context.Context, t sparkify.TimeRecord) error {
	if err := u.store.fail("time"); err != nil {
		return err
	}
	return u.UnitOfWork.InsertTime(ctx, t)
}

func (u *faultyUnit) InsertSongplay(ctx context.Context, r sparkify.SongplayRecord) error {
	if err := u.store.fail("songplay"); err != nil {
		return err
	}
	return u.UnitOfWork.InsertSongplay(ctx, r)
}

func (u *faultyUnit) Commit(ctx context.Context) error {
	if err := u.store.fail("commit"); err != nil {
		_ = u.UnitOfWork.Rollback(ctx)
		return err
	}
	return u.UnitOfWork.Commit(ctx)
}

var errConnLost = errors.New("insert time: connection failed: unexpected EOF")

func connectionLost() error {
	return errors.Join(sparkify.ErrConnectionFailed, errConnLost)
}

func strPtr(s string) *string      { return &s }
func floatPtr(f float64) *float64 { return &f }

func eventJSON(e fixtures.Event) (string, error) {
	b, err := json.Marshal(e)
	return string(b), err
}
