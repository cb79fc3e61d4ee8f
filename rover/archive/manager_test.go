package archive

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/mcp-training/marsrover/logging"
	"github.com/wricardo/mcp-training/marsrover/rover/engine"
	"github.com/wricardo/mcp-training/marsrover/rover/service"
)

func newTestRun(id string, createdAt time.Time) *service.Run {
	return &service.Run{
		ID:        id,
		Input:     []string{"1 1", "0 0 N", "M"},
		Boundary:  engine.Position{X: 1, Y: 1},
		Output:    []string{"0 1 N"},
		CreatedAt: createdAt,
	}
}

func TestManager_CreateAssignsUUID(t *testing.T) {
	m := NewManager(logging.Discard())

	run, err := m.Create(newTestRun("", time.Time{}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := uuid.Parse(run.ID); err != nil {
		t.Errorf("Expected UUID run ID, got %q", run.ID)
	}
	if run.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}
	if m.Count() != 1 {
		t.Errorf("Expected 1 run, got %d", m.Count())
	}
}

func TestManager_CreateDuplicate(t *testing.T) {
	m := NewManager(logging.Discard())

	if _, err := m.Create(newTestRun("abc", time.Now())); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := m.Create(newTestRun("ABC", time.Now())); !errors.Is(err, ErrRunAlreadyExists) {
		t.Errorf("Expected ErrRunAlreadyExists, got %v", err)
	}
	if _, err := m.Create(newTestRun("../x", time.Now())); !errors.Is(err, ErrInvalidRunID) {
		t.Errorf("Expected ErrInvalidRunID, got %v", err)
	}
}

func TestManager_GetAndDelete(t *testing.T) {
	m := NewManager(logging.Discard())
	created, _ := m.Create(newTestRun("abc", time.Now()))

	got, err := m.Get("ABC")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != created {
		t.Error("Expected the stored run")
	}

	if err := m.Delete("abc"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := m.Get("abc"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound, got %v", err)
	}
	if err := m.Delete("abc"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound, got %v", err)
	}
	if err := m.DeleteFromMemory("abc"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound, got %v", err)
	}
}

func TestManager_ListNewestFirst(t *testing.T) {
	m := NewManager(logging.Discard())
	base := time.Now()

	m.Create(newTestRun("old", base.Add(-2*time.Minute)))
	m.Create(newTestRun("new", base))
	m.Create(newTestRun("mid", base.Add(-time.Minute)))

	list := m.List()
	want := []string{"new", "mid", "old"}
	for i, id := range want {
		if list[i].ID != id {
			t.Errorf("Position %d: expected %s, got %s", i, id, list[i].ID)
		}
	}
}

func TestManager_CleanupExpiredRuns(t *testing.T) {
	m := NewManager(logging.Discard())
	m.Create(newTestRun("stale", time.Now().Add(-2*time.Hour)))
	m.Create(newTestRun("fresh", time.Now()))

	if removed := m.CleanupExpiredRuns(time.Hour); removed != 1 {
		t.Errorf("Expected 1 removed run, got %d", removed)
	}
	if _, err := m.Get("fresh"); err != nil {
		t.Errorf("Expected fresh run to survive: %v", err)
	}
	if _, err := m.Get("stale"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected stale run to be evicted, got %v", err)
	}
}

func TestManager_Concurrent(t *testing.T) {
	m := NewManager(logging.Discard())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			run, err := m.Create(newTestRun("", time.Now()))
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
				return
			}
			if _, err := m.Get(run.ID); err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
			m.List()
		}()
	}
	wg.Wait()

	if m.Count() != 50 {
		t.Errorf("Expected 50 runs, got %d", m.Count())
	}
}
