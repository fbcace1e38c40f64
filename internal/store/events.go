package store

import "github.com/google/uuid"

// Reason says why the tree changed.
type Reason int

const (
	// Added: a new item appeared under Parent at NewIndex.
	Added Reason = iota
	// Removed: the item left Parent; it sat at OldIndex.
	Removed
	// Renamed: the item's name changed; siblings re-sorted, moving it
	// from OldIndex to NewIndex.
	Renamed
	// Reloaded: the item (or a folder's contents) was refreshed in place
	// without an index shift observers need to animate.
	Reloaded
)

func (r Reason) String() string {
	switch r {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Renamed:
		return "renamed"
	case Reloaded:
		return "reloaded"
	}
	return "unknown"
}

// Event describes one mutation. It carries everything an observer needs
// so that handlers never have to call back into the Store.
type Event struct {
	Reason   Reason
	UUID     uuid.UUID
	Name     string
	IsFolder bool
	Parent   uuid.UUID
	// UUIDPath runs from the root to the affected item, inclusive.
	UUIDPath []uuid.UUID
	OldIndex int
	NewIndex int
}

// Subscribe registers fn for every subsequent mutation and returns the
// matching unsubscribe. Events are delivered synchronously in mutation
// order; fn must not mutate the Store re-entrantly.
func (s *Store) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notifyLocked(ev Event) {
	for _, fn := range s.subs {
		fn(ev)
	}
}
