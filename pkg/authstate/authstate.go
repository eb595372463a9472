// Package authstate publishes the client's derived authorization state.
//
// The session controller is the only writer; guards and UI components are
// readers. Pending is the startup value and means "don't render anything
// yet": it resolves exactly once into Authenticated or Anonymous, after
// which only logout or a failed retried request can flip it back to
// Anonymous.
package authstate

import "sync"

// Status is the tag of the authorization state union.
type Status int

const (
	// StatusPending means session recovery hasn't finished. Guards must
	// render nothing, not even a redirect, to avoid flashing the wrong UI.
	StatusPending Status = iota

	// StatusAuthenticated means a usable session exists.
	StatusAuthenticated

	// StatusAnonymous means there is no session: no token, a dead token, or
	// an explicit logout.
	StatusAnonymous
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Identity is who the server says we are. Derived from the identity
// endpoint, never stored independently of the session.
type Identity struct {
	Username        string `json:"username"`
	IsAuthenticated bool   `json:"is_authenticated"`
}

// State is the published value: a status plus, when authenticated, the
// resolved identity.
type State struct {
	Status   Status
	Identity Identity
}

// Pending is the state every Store starts in.
func Pending() State { return State{Status: StatusPending} }

// Anonymous is the terminal logged-out state.
func Anonymous() State { return State{Status: StatusAnonymous} }

// Authenticated wraps an identity in the logged-in state.
func Authenticated(id Identity) State {
	return State{Status: StatusAuthenticated, Identity: id}
}

// Store holds the current State and fans writes out to subscribers.
//
// Subscriber channels are buffered with capacity one and follow a
// most-recent-write-wins policy: if a subscriber hasn't drained the previous
// value yet, it is replaced rather than queued, and the publisher never
// blocks. A subscriber therefore always observes the latest state, possibly
// skipping intermediate ones.
type Store struct {
	mu    sync.RWMutex
	state State
	subs  map[chan State]struct{}
}

// NewStore returns a Store in the Pending state.
func NewStore() *Store {
	return &Store{
		state: Pending(),
		subs:  make(map[chan State]struct{}),
	}
}

// Get returns the current state.
func (s *Store) Get() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Set publishes a new state to all subscribers.
func (s *Store) Set(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = state
	for ch := range s.subs {
		// Drop the stale value if the subscriber hasn't read it yet.
		select {
		case <-ch:
		default:
		}
		ch <- state
	}
}

// Subscribe registers a listener and immediately delivers the current state
// so late subscribers don't have to poll. Callers must Unsubscribe when done.
func (s *Store) Subscribe() chan State {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan State, 1)
	ch <- s.state
	s.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a listener registered with Subscribe.
func (s *Store) Unsubscribe(ch chan State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(ch)
	}
}
