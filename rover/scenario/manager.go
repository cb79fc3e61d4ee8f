package scenario

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/wricardo/mcp-training/marsrover/rover/engine"
	"github.com/wricardo/mcp-training/marsrover/rover/service"
)

const (
	// DefaultID names the scenario used when a request does not pick one
	DefaultID = "default"

	fileExt = ".txt"
)

var (
	ErrScenarioNotFound    = service.ErrScenarioNotFound
	ErrInvalidScenario     = errors.New("invalid scenario")
	ErrInvalidScenarioName = service.ErrInvalidScenarioName
)

var validName = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// builtinLines is the scenario used when the directory holds no valid file
var builtinLines = []string{"5 5", "1 2 N", "LMLMLMLMM", "3 3 E", "MMRMMRMRRM"}

// Manager handles scenario loading and caching
type Manager struct {
	dir             string
	defaultScenario *service.Scenario
	scenarios       map[string]*service.Scenario
	mu              sync.RWMutex
}

// NewManager creates a scenario manager backed by dir, creating it if needed
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create scenario directory: %w", err)
	}

	m := &Manager{
		dir:       dir,
		scenarios: make(map[string]*service.Scenario),
	}

	if err := m.loadDefaultScenario(); err != nil {
		return nil, fmt.Errorf("failed to load default scenario: %w", err)
	}

	return m, nil
}

// LoadScenario loads a scenario by name. The name may carry the .txt extension.
// "default" resolves to the current default when no default.txt exists.
func (m *Manager) LoadScenario(name string) (*service.Scenario, error) {
	sc, err := m.load(strings.TrimSuffix(name, fileExt))
	if errors.Is(err, ErrScenarioNotFound) && strings.TrimSuffix(name, fileExt) == DefaultID {
		if def := m.GetDefault(); def != nil {
			return def, nil
		}
	}
	return sc, err
}

func (m *Manager) load(name string) (*service.Scenario, error) {
	if !validName.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidScenarioName, name)
	}

	m.mu.RLock()
	if sc, exists := m.scenarios[name]; exists {
		m.mu.RUnlock()
		return sc, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if sc, exists := m.scenarios[name]; exists {
		return sc, nil
	}

	f, err := os.Open(m.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrScenarioNotFound
		}
		return nil, fmt.Errorf("failed to open scenario file: %w", err)
	}
	defer f.Close()

	lines, err := engine.ReadLines(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	sc, err := newScenario(name, lines)
	if err != nil {
		return nil, err
	}

	m.scenarios[name] = sc
	return sc, nil
}

// ListScenarios returns information about every valid scenario file
func (m *Manager) ListScenarios() ([]*service.ScenarioInfo, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	var infos []*service.ScenarioInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileExt) {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), fileExt)
		sc, err := m.load(name)
		if err != nil {
			// Skip invalid scenarios
			continue
		}

		infos = append(infos, &service.ScenarioInfo{
			Filename:   entry.Name(),
			ScenarioID: name,
			Boundary:   sc.Boundary,
			Rovers:     sc.Rovers,
		})
	}

	return infos, nil
}

// GetDefault returns the default scenario
func (m *Manager) GetDefault() *service.Scenario {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultScenario
}

// SetDefault sets the default scenario by name
func (m *Manager) SetDefault(name string) error {
	sc, err := m.LoadScenario(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultScenario = sc
	return nil
}

// SaveScenario validates lines and writes them to <dir>/<name>.txt
func (m *Manager) SaveScenario(name string, lines []string) (*service.Scenario, error) {
	name = strings.TrimSuffix(name, fileExt)
	if !validName.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidScenarioName, name)
	}

	sc, err := newScenario(name, lines)
	if err != nil {
		return nil, err
	}

	data := strings.Join(sc.Lines, "\n") + "\n"
	if err := os.WriteFile(m.path(name), []byte(data), 0644); err != nil {
		return nil, fmt.Errorf("failed to write scenario file: %w", err)
	}

	m.mu.Lock()
	m.scenarios[name] = sc
	if name == DefaultID {
		m.defaultScenario = sc
	}
	m.mu.Unlock()

	return sc, nil
}

// RefreshCache drops cached scenarios and reloads the default from disk
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.scenarios = make(map[string]*service.Scenario)
	m.mu.Unlock()

	return m.loadDefaultScenario()
}

// loadDefaultScenario picks default.txt, then the first valid file, then the
// built-in scenario
func (m *Manager) loadDefaultScenario() error {
	sc, err := m.load(DefaultID)
	if err != nil {
		infos, listErr := m.ListScenarios()
		if listErr != nil {
			return listErr
		}
		if len(infos) == 0 {
			sc = builtin()
		} else if sc, err = m.load(infos[0].ScenarioID); err != nil {
			sc = builtin()
		}
	}

	m.mu.Lock()
	m.defaultScenario = sc
	m.mu.Unlock()
	return nil
}

func (m *Manager) path(name string) string {
	return filepath.Join(m.dir, name+fileExt)
}

// newScenario validates lines through the parser. Line terminators are
// stripped so stored scenarios round-trip through SaveScenario.
func newScenario(name string, lines []string) (*service.Scenario, error) {
	in, err := engine.ParseInstructions(lines)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrInvalidScenario, name, err)
	}

	trimmed := make([]string, len(lines))
	for i, line := range lines {
		trimmed[i] = strings.TrimRight(line, "\r\n")
	}

	return &service.Scenario{
		ID:       name,
		Lines:    trimmed,
		Boundary: in.Boundary,
		Rovers:   len(in.Plans),
	}, nil
}

func builtin() *service.Scenario {
	sc, err := newScenario(DefaultID, builtinLines)
	if err != nil {
		panic(err)
	}
	return sc
}
