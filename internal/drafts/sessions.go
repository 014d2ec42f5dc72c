package drafts

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/synaptiq/synaptiq/admin-plane/pkg/models"
)

// DefaultSessionTTL is how long an edit session survives without activity.
const DefaultSessionTTL = 30 * time.Minute

// ErrSessionNotFound reports an unknown or expired edit session.
var ErrSessionNotFound = errors.New("edit session not found")

// Session is one open neurocore edit form. NeurocoreID is empty while a new
// neurocore is being drafted and is set once it has been persisted.
type Session struct {
	ID          string    `json:"id"`
	NeurocoreID string    `json:"neurocore_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`

	mu        sync.Mutex
	list      *List
	lastTouch time.Time
}

// WithList runs fn with the session's draft list, serializing concurrent
// requests against the same session and refreshing the idle timer.
func (s *Session) WithList(fn func(l *List)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastTouch = time.Now()
	fn(s.list)
}

// Manager owns the open edit sessions and evicts the ones left idle.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	doneCh   chan struct{}
}

// NewManager starts a session manager with the given idle TTL (0 means
// DefaultSessionTTL) and its background sweep.
func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	m := &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		doneCh:   make(chan struct{}),
	}
	go m.sweepLoop()
	return m
}

// Open creates a session seeded from the given agents. neurocoreID is empty
// for a create form.
func (m *Manager) Open(neurocoreID string, agents []models.Agent) *Session {
	s := &Session{
		ID:          uuid.NewString(),
		NeurocoreID: neurocoreID,
		CreatedAt:   time.Now().UTC(),
		list:        Seed(agents),
		lastTouch:   time.Now(),
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return s
}

// Get retrieves an open session by ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Close discards a session, typically after a successful save or an explicit
// cancel.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Shutdown stops the background sweep.
func (m *Manager) Shutdown() {
	close(m.doneCh)
}

// sweepLoop drops sessions idle past the TTL, once a minute.
func (m *Manager) sweepLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.doneCh:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Manager) sweep() {
	cutoff := time.Now().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		s.mu.Lock()
		idle := s.lastTouch.Before(cutoff)
		s.mu.Unlock()
		if idle {
			delete(m.sessions, id)
			log.Debug().Str("session_id", id).Msg("Evicted idle edit session")
		}
	}
}
