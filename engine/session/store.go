package session

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown session ids.
var ErrNotFound = errors.New("session not found")

// Store keeps selectors keyed by a random id.
type Store struct {
	mu      sync.RWMutex
	factory func() *Selector
	byID    map[string]*Selector
}

// NewStore creates a Store that builds selectors with factory.
func NewStore(factory func() *Selector) *Store {
	return &Store{factory: factory, byID: make(map[string]*Selector)}
}

// Create registers a new selector and returns its id.
func (st *Store) Create() (string, *Selector) {
	id := uuid.NewString()
	sel := st.factory()
	st.mu.Lock()
	st.byID[id] = sel
	st.mu.Unlock()
	return id, sel
}

// Get looks up a selector.
func (st *Store) Get(id string) (*Selector, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	st.mu.RLock()
	defer st.mu.RUnlock()
	sel, ok := st.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sel, nil
}

// Delete drops a selector. Unknown ids are ignored.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	delete(st.byID, id)
	st.mu.Unlock()
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.byID)
}
