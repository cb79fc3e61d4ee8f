package archive

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/mcp-training/marsrover/rover/service"
)

var (
	ErrRunNotFound      = service.ErrRunNotFound
	ErrRunAlreadyExists = errors.New("run already exists")
	ErrInvalidRunID     = errors.New("invalid run ID")
)

// Manager keeps completed runs in memory, optionally backed by persistence
type Manager struct {
	runs        map[string]*service.Run
	persistence RunPersistence
	logger      *slog.Logger
	mu          sync.RWMutex
}

// NewManager creates an in-memory run archive. A nil logger uses slog.Default().
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		runs:   make(map[string]*service.Run),
		logger: logger,
	}
}

// NewManagerWithPersistence creates a run archive that also writes every run
// to persistence
func NewManagerWithPersistence(persistence RunPersistence, logger *slog.Logger) *Manager {
	m := NewManager(logger)
	m.persistence = persistence
	return m
}

// Create stores a run, assigning a new UUID when run.ID is empty
func (m *Manager) Create(run *service.Run) (*service.Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if !validID(run.ID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRunID, run.ID)
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(run.ID)
	if _, exists := m.runs[key]; exists {
		return nil, ErrRunAlreadyExists
	}
	m.runs[key] = run

	// Persistence failures never fail the simulation
	if m.persistence != nil {
		if err := m.persistence.Save(run); err != nil {
			m.logger.Warn("failed to persist run", "run_id", run.ID, "error", err)
		}
	}

	return run, nil
}

// Get retrieves a run by ID, falling back to persistence
func (m *Manager) Get(id string) (*service.Run, error) {
	key := strings.ToLower(id)

	m.mu.RLock()
	run, exists := m.runs[key]
	m.mu.RUnlock()

	if exists {
		return run, nil
	}

	if m.persistence != nil && m.persistence.Exists(id) {
		run, err := m.persistence.Load(id)
		if err != nil {
			return nil, fmt.Errorf("failed to load persisted run: %w", err)
		}

		m.mu.Lock()
		m.runs[key] = run
		m.mu.Unlock()

		return run, nil
	}

	return nil, ErrRunNotFound
}

// List returns the runs held in memory, newest first
func (m *Manager) List() []*service.Run {
	m.mu.RLock()
	result := make([]*service.Run, 0, len(m.runs))
	for _, run := range m.runs {
		result = append(result, run)
	}
	m.mu.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

// Delete removes a run from memory and persistence
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(id)
	_, inMemory := m.runs[key]
	delete(m.runs, key)

	if m.persistence != nil && m.persistence.Exists(id) {
		if err := m.persistence.Delete(id); err != nil {
			return fmt.Errorf("failed to delete persisted run: %w", err)
		}
		return nil
	}

	if !inMemory {
		return ErrRunNotFound
	}
	return nil
}

// DeleteFromMemory evicts a run from memory only
func (m *Manager) DeleteFromMemory(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(id)
	if _, exists := m.runs[key]; !exists {
		return ErrRunNotFound
	}
	delete(m.runs, key)
	return nil
}

// CleanupExpiredRuns evicts runs older than maxAge from memory. Persisted
// copies stay on disk and are reloaded on demand by Get.
func (m *Manager) CleanupExpiredRuns(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for key, run := range m.runs {
		if run.CreatedAt.Before(cutoff) {
			delete(m.runs, key)
			removed++
		}
	}

	return removed
}

// Count returns the number of runs held in memory
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.runs)
}

// LoadPersistedRuns loads every persisted run into memory
func (m *Manager) LoadPersistedRuns() error {
	if m.persistence == nil {
		return nil
	}

	ids, err := m.persistence.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list persisted runs: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	loaded := 0
	for _, id := range ids {
		key := strings.ToLower(id)
		if _, exists := m.runs[key]; exists {
			continue
		}

		run, err := m.persistence.Load(id)
		if err != nil {
			m.logger.Warn("failed to load persisted run", "run_id", id, "error", err)
			continue
		}

		m.runs[key] = run
		loaded++
	}

	if loaded > 0 {
		m.logger.Info("loaded persisted runs", "count", loaded)
	}

	return nil
}
