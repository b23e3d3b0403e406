package session

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrDuplicateID rejects a request whose id is already in flight on the
	// same connection.
	ErrDuplicateID = errors.New("request id already in flight")

	// ErrClosed rejects requests arriving after the connection began closing.
	ErrClosed = errors.New("session closed")
)

// Session tracks the in-flight requests of one client connection. Request
// ids are keyed by their raw JSON bytes, so the string "1" and the number 1
// are distinct ids. All methods are safe for concurrent use.
type Session struct {
	root   context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	inflight map[string]context.CancelFunc
}

func New(parent context.Context) *Session {
	root, cancel := context.WithCancel(parent)
	return &Session{
		root:     root,
		cancel:   cancel,
		inflight: make(map[string]context.CancelFunc),
	}
}

// Begin registers a request id and returns the context the request runs
// under, plus a completion func that releases the id. Requests without an id
// (notifications) are not tracked but still run under the session, so closing
// the connection cancels them too.
func (s *Session) Begin(id []byte) (context.Context, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.root.Err() != nil {
		return nil, nil, ErrClosed
	}

	ctx, cancel := context.WithCancel(s.root)
	if len(id) == 0 {
		return ctx, cancel, nil
	}

	key := string(id)
	if _, dup := s.inflight[key]; dup {
		cancel()
		return nil, nil, ErrDuplicateID
	}
	s.inflight[key] = cancel

	done := func() {
		s.mu.Lock()
		delete(s.inflight, key)
		s.mu.Unlock()
		cancel()
	}
	return ctx, done, nil
}

// Len reports how many identified requests are currently in flight.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inflight)
}

// Done is closed when the session is shut down.
func (s *Session) Done() <-chan struct{} {
	return s.root.Done()
}

// Close cancels every request still in flight. It is safe to call more than
// once.
func (s *Session) Close() {
	s.cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, cancel := range s.inflight {
		cancel()
		delete(s.inflight, key)
	}
}
