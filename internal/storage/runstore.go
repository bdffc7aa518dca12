package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/example/ride-sim/internal/monitor"
)

var ErrNotFound = errors.New("run not found")

// Run is a completed simulation and its report.
type Run struct {
	ID          string         `json:"run_id"`
	Fingerprint string         `json:"fingerprint"`
	EventCount  int            `json:"events"`
	Report      monitor.Report `json:"report"`
	CreatedAt   time.Time      `json:"created_at"`
}

// RunStore defines persistence operations for simulation runs.
type RunStore interface {
	SaveRun(ctx context.Context, r *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
}

type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]Run
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]Run)}
}

func (m *MemoryStore) SaveRun(_ context.Context, r *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[r.ID] = *r
	return nil
}

func (m *MemoryStore) GetRun(_ context.Context, id string) (*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}
