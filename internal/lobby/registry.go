// internal/lobby/registry.go
package lobby

import (
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrDuplicateLobby rejects registering a lobby id that is already live.
var ErrDuplicateLobby = errors.New("duplicate lobby id")

// Registry maps lobby ids to lobbies. It is the only state shared across
// lobbies; its lock guards short map operations and is never held while a
// lobby does its own work.
type Registry struct {
	mu      sync.RWMutex
	lobbies map[string]*Lobby

	ttl time.Duration
	log *logrus.Logger
}

// NewRegistry creates a registry whose lobbies live for ttl after creation.
func NewRegistry(ttl time.Duration, logger *logrus.Logger) *Registry {
	return &Registry{
		lobbies: make(map[string]*Lobby),
		ttl:     ttl,
		log:     logger,
	}
}

// Add registers a lobby, spawns its event loop and arms its death timer.
// The timer fires unconditionally: an in-progress game is abandoned at
// expiry.
func (r *Registry) Add(l *Lobby) error {
	r.mu.Lock()
	if _, exists := r.lobbies[l.ID]; exists {
		r.mu.Unlock()
		return ErrDuplicateLobby
	}
	r.lobbies[l.ID] = l
	r.mu.Unlock()

	go l.Run()
	time.AfterFunc(r.ttl, func() {
		if r.Drop(l.ID) {
			r.log.Infof("lobby %s expired after %s", l.ID, r.ttl)
		}
	})
	return nil
}

// Get looks a lobby up by id.
func (r *Registry) Get(id string) (*Lobby, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.lobbies[id]
	return l, ok
}

// Drop removes a lobby and tears it down. The teardown happens outside the
// registry lock.
func (r *Registry) Drop(id string) bool {
	r.mu.Lock()
	l, ok := r.lobbies[id]
	if ok {
		delete(r.lobbies, id)
	}
	r.mu.Unlock()

	if ok {
		l.Quit()
	}
	return ok
}

// Len reports how many lobbies are live.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.lobbies)
}
