package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	// WaitPollInterval is how often Wait checks for an attached session.
	WaitPollInterval = 20 * time.Millisecond
	// WaitTimeout is how long Wait waits before giving up.
	WaitTimeout = 5 * time.Second
)

var ErrNoSession = errors.New("no session attached")

// TimeoutError is returned by Wait when no session attached in time.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("no session attached after %s", e.After)
}

func IsTimeoutError(err error) bool {
	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr)
}

// Registry holds the one active session. It is safe for concurrent use.
type Registry struct {
	lock    sync.RWMutex
	current *Session
	timeout time.Duration
}

func NewRegistry() *Registry {
	return &Registry{
		timeout: WaitTimeout,
	}
}

// Set makes s the active session, replacing any previous one.
func (r *Registry) Set(s *Session) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.current = s
}

// Clear removes the active session if it is s.
func (r *Registry) Clear(s *Session) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.current == s {
		r.current = nil
	}
}

func (r *Registry) Current() (*Session, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if r.current == nil {
		return nil, ErrNoSession
	}
	return r.current, nil
}

// Wait blocks until a session is attached, the timeout elapses or ctx is done.
func (r *Registry) Wait(ctx context.Context) (*Session, error) {
	if s, err := r.Current(); err == nil {
		return s, nil
	}

	ticker := time.NewTicker(WaitPollInterval)
	defer ticker.Stop()
	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, &TimeoutError{After: r.timeout}
		case <-ticker.C:
			if s, err := r.Current(); err == nil {
				return s, nil
			}
		}
	}
}
