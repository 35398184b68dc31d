package httpapi

import (
	"sync"
	"sync/atomic"

	"github.com/gunpashgun/SalesBestFriend/internal/session"
)

// SessionRegistry tracks ingest sessions and supports graceful draining.
// At most one session is live; attaching a new one supersedes the previous.
// When draining is enabled, new sessions are rejected while running ones
// finish naturally.
//
// The mu mutex makes the draining check and wg.Add atomic in Attach,
// preventing a race where StartDraining+Wait runs between the two.
type SessionRegistry struct {
	mu       sync.Mutex
	draining bool
	live     *session.Session
	wg       sync.WaitGroup
	count    atomic.Int64
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{}
}

// Attach makes s the live session. It returns false if the registry is
// draining. A previously live session is superseded and its worker stopped.
func (sr *SessionRegistry) Attach(s *session.Session) bool {
	sr.mu.Lock()
	if sr.draining {
		sr.mu.Unlock()
		return false
	}
	prev := sr.live
	sr.live = s
	sr.wg.Add(1)
	sr.count.Add(1)
	sr.mu.Unlock()

	if prev != nil {
		prev.Supersede()
	}
	return true
}

// Detach marks s as finished. Must be called exactly once per successful Attach.
func (sr *SessionRegistry) Detach(s *session.Session) {
	sr.mu.Lock()
	if sr.live == s {
		sr.live = nil
	}
	sr.mu.Unlock()
	sr.count.Add(-1)
	sr.wg.Done()
}

// Live returns the live session, or nil.
func (sr *SessionRegistry) Live() *session.Session {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	return sr.live
}

// StartDraining sets the draining flag so that future Attach calls return false.
func (sr *SessionRegistry) StartDraining() {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	sr.draining = true
}

func (sr *SessionRegistry) IsDraining() bool {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	return sr.draining
}

// ActiveCount returns the number of ingest connections still attached,
// including superseded ones that have not disconnected yet.
func (sr *SessionRegistry) ActiveCount() int64 {
	return sr.count.Load()
}

// Wait blocks until every attached session has been detached.
func (sr *SessionRegistry) Wait() {
	sr.wg.Wait()
}
