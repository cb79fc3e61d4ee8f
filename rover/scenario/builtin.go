package scenario

import (
	"errors"
	"strings"

	"github.com/wricardo/mcp-training/marsrover/rover/service"
)

// ErrReadOnly is returned when saving to a store without a directory
var ErrReadOnly = errors.New("scenario store is read-only")

// BuiltinStore serves only the built-in default scenario. It never touches
// the filesystem.
type BuiltinStore struct {
	def *service.Scenario
}

// NewBuiltinStore creates a store holding the built-in default scenario
func NewBuiltinStore() *BuiltinStore {
	return &BuiltinStore{def: builtin()}
}

// LoadScenario returns the built-in scenario for "default"
func (b *BuiltinStore) LoadScenario(name string) (*service.Scenario, error) {
	if strings.TrimSuffix(name, fileExt) != DefaultID {
		return nil, ErrScenarioNotFound
	}
	return b.def, nil
}

// ListScenarios returns no entries; the built-in scenario has no file
func (b *BuiltinStore) ListScenarios() ([]*service.ScenarioInfo, error) {
	return nil, nil
}

// GetDefault returns the built-in scenario
func (b *BuiltinStore) GetDefault() *service.Scenario {
	return b.def
}

// SaveScenario always fails
func (b *BuiltinStore) SaveScenario(name string, lines []string) (*service.Scenario, error) {
	return nil, ErrReadOnly
}
