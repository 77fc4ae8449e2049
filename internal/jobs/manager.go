// Package jobs queues model runs on a bounded worker pool and keeps the
// most recent results in memory.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/jpkabala96/geeSSEBI/internal/ssebi"
)

// Status of a run.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// ErrNotFound is returned for unknown or evicted run IDs.
var ErrNotFound = errors.New("run not found")

// Runner executes one model run.
type Runner interface {
	Run(ctx context.Context, req ssebi.Request) (*ssebi.Result, error)
}

// Run is a snapshot of a submitted run.
type Run struct {
	ID        string
	Status    Status
	Request   ssebi.Request
	Submitted time.Time
	Started   time.Time
	Finished  time.Time
	Result    *ssebi.Result
	Err       error
}

// ErrorKind is the stable code of the failure, empty unless failed.
func (r Run) ErrorKind() string { return ssebi.Kind(r.Err) }

// Stats summarises the manager.
type Stats struct {
	Queued  int `json:"queued" msgpack:"queued"`
	Running int `json:"running" msgpack:"running"`
	Done    int `json:"done" msgpack:"done"`
	Failed  int `json:"failed" msgpack:"failed"`
	Workers int `json:"workers" msgpack:"workers"`
	Idle    int `json:"idle" msgpack:"idle"`
}

// Manager owns the run queue.
type Manager struct {
	runner Runner
	pool   *ants.Pool
	logger *zap.SugaredLogger
	retain int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.RWMutex
	runs  map[string]*Run
	order []string
}

// NewManager starts a pool of workers goroutines. At most retain runs are
// kept; the oldest finished ones are evicted first.
func NewManager(ctx context.Context, runner Runner, workers, retain int, logger *zap.SugaredLogger) (*Manager, error) {
	if workers <= 0 {
		workers = 1
	}
	if retain <= 0 {
		retain = 1
	}
	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(p interface{}) {
		logger.Errorf("run worker panicked: %v", p)
	}))
	if err != nil {
		return nil, fmt.Errorf("error creating run pool: %w", err)
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Manager{
		runner: runner,
		pool:   pool,
		logger: logger,
		retain: retain,
		ctx:    ctx,
		cancel: cancel,
		runs:   make(map[string]*Run),
	}, nil
}

// Submit validates the request and queues it. An empty region is rejected
// immediately without creating a run.
func (m *Manager) Submit(req ssebi.Request) (Run, error) {
	if req.Region == nil {
		return Run{}, ssebi.ErrEmptyRegion
	}
	if err := req.Region.Validate(); err != nil {
		return Run{}, err
	}

	r := &Run{ID: uuid.New().String(), Status: StatusQueued, Request: req, Submitted: time.Now()}
	// The shutdown check and wg.Add share the lock Close cancels under, so
	// no Add can follow the Wait in Close.
	m.mu.Lock()
	if err := m.ctx.Err(); err != nil {
		m.mu.Unlock()
		return Run{}, fmt.Errorf("manager is shut down: %w", err)
	}
	m.runs[r.ID] = r
	m.order = append(m.order, r.ID)
	m.evictLocked()
	snapshot := *r
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		// Submit blocks while every worker is busy; the run stays queued.
		err := m.pool.Submit(func() {
			defer m.wg.Done()
			m.execute(r.ID)
		})
		if err != nil {
			m.finish(r.ID, nil, fmt.Errorf("error scheduling run: %w", err))
			m.wg.Done()
		}
	}()

	m.logger.Infow("run queued", "run", r.ID, "sensor", req.Sensor)
	return snapshot, nil
}

func (m *Manager) execute(id string) {
	m.mu.Lock()
	r, ok := m.runs[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	r.Status = StatusRunning
	r.Started = time.Now()
	req := r.Request
	m.mu.Unlock()

	res, err := m.runner.Run(m.ctx, req)
	m.finish(id, res, err)
}

func (m *Manager) finish(id string, res *ssebi.Result, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[id]
	if !ok {
		return
	}
	r.Finished = time.Now()
	if err != nil {
		r.Status = StatusFailed
		r.Err = err
		m.logger.Warnw("run failed", "run", id, "kind", ssebi.Kind(err), "error", err)
		return
	}
	r.Status = StatusDone
	r.Result = res
	m.logger.Infow("run done", "run", id, "elapsed", r.Finished.Sub(r.Started))
}

// evictLocked drops the oldest finished runs beyond the retention limit.
func (m *Manager) evictLocked() {
	for i := 0; len(m.order) > m.retain && i < len(m.order); {
		r := m.runs[m.order[i]]
		if r.Status != StatusDone && r.Status != StatusFailed {
			i++
			continue
		}
		delete(m.runs, r.ID)
		m.order = append(m.order[:i], m.order[i+1:]...)
	}
}

// Get returns a snapshot of a run.
func (m *Manager) Get(id string) (Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.runs[id]
	if !ok {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *r, nil
}

// List returns snapshots of every retained run, oldest first.
func (m *Manager) List() []Run {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Run, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.runs[id])
	}
	return out
}

// Stats counts retained runs by status.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := Stats{Workers: m.pool.Cap(), Idle: m.pool.Free()}
	for _, r := range m.runs {
		switch r.Status {
		case StatusQueued:
			s.Queued++
		case StatusRunning:
			s.Running++
		case StatusDone:
			s.Done++
		case StatusFailed:
			s.Failed++
		}
	}
	return s
}

// Close cancels running work and waits for every submitted run to finish.
func (m *Manager) Close() {
	m.mu.Lock()
	m.cancel()
	m.mu.Unlock()
	m.wg.Wait()
	m.pool.Release()
}
