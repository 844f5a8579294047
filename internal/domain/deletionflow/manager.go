package deletionflow

import "sync"

// Manager hands out one Flow per user. The deletion workflow is a single
// logical instance per account: two devices driving flows for the same user
// share the same machine and their operations serialize, never interleave.
type Manager struct {
	mu      sync.Mutex
	backend Backend
	log     ActivityLogger
	flows   map[string]*Flow
}

func NewManager(backend Backend, log ActivityLogger) *Manager {
	return &Manager{backend: backend, log: log, flows: map[string]*Flow{}}
}

func (m *Manager) Get(userID string) *Flow {
	m.mu.Lock()
	defer m.mu.Unlock()

	flow, ok := m.flows[userID]
	if !ok {
		flow = New(m.backend, m.log, userID)
		m.flows[userID] = flow
	}
	return flow
}

// Release drops a finished flow. A later Get starts fresh from idle.
func (m *Manager) Release(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.flows, userID)
}
