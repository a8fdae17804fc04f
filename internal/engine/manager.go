package engine

import (
	"context"
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Manager runs one Engine per asset as independent loops.
type Manager struct {
	logger *zap.Logger

	mu      sync.RWMutex
	engines map[string]*Engine
}

// NewManager creates an empty Manager.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{logger: logger, engines: make(map[string]*Engine)}
}

// Add registers e. A second engine for the same mint is rejected.
func (m *Manager) Add(e *Engine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.engines[e.Mint()]; ok {
		return errors.New("engine already registered for " + e.Mint())
	}
	m.engines[e.Mint()] = e
	return nil
}

// Engines returns registered engines ordered by mint.
func (m *Manager) Engines() []*Engine {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Engine, 0, len(m.engines))
	for _, e := range m.engines {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Mint() < out[j].Mint() })
	return out
}

// Engine returns the engine for mint.
func (m *Manager) Engine(mint string) (*Engine, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.engines[mint]
	return e, ok
}

// Run starts every engine and blocks until ctx is cancelled and all loops
// have returned.
func (m *Manager) Run(ctx context.Context) {
	engines := m.Engines()
	m.logger.Info("starting engines", zap.Int("assets", len(engines)))

	var wg sync.WaitGroup
	for _, e := range engines {
		wg.Add(1)
		go func(e *Engine) {
			defer wg.Done()
			if err := e.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				m.logger.Error("engine exited", zap.String("mint", e.Mint()), zap.Error(err))
			}
		}(e)
	}
	wg.Wait()
}
