package service

import (
	"context"
	"sync"
	"time"

	"github.com/needsclan/Gk1/internal/domain"
)

// DefaultSessionIdle is how long an unused registry session stays open.
const DefaultSessionIdle = 10 * time.Minute

type sessionKey struct {
	me   domain.ParticipantID
	peer domain.ParticipantID
}

type registryEntry struct {
	session  *Session
	lastUsed time.Time
}

// SessionRegistry keeps one open session per (participant, peer) for
// surfaces that serve many calls, such as the RPC and MCP servers.
// Sessions unused for longer than the idle period are closed by Sweep.
type SessionRegistry struct {
	conversations *Conversations
	idle          time.Duration
	now           func() time.Time

	mu       sync.Mutex
	sessions map[sessionKey]*registryEntry
}

func NewSessionRegistry(conversations *Conversations) *SessionRegistry {
	return &SessionRegistry{
		conversations: conversations,
		idle:          DefaultSessionIdle,
		now:           time.Now,
		sessions:      make(map[sessionKey]*registryEntry),
	}
}

// SetIdle changes the idle period after which Sweep closes a session.
func (r *SessionRegistry) SetIdle(d time.Duration) {
	r.mu.Lock()
	r.idle = d
	r.mu.Unlock()
}

// Open returns the ready session for me and peer, entering it if needed.
// Enter runs without the registry lock; when two callers race, the first
// stored session wins and the other is closed.
func (r *SessionRegistry) Open(ctx context.Context, me, peer domain.ParticipantID) (*Session, error) {
	key := sessionKey{me: me, peer: peer}

	if s := r.lookup(key); s != nil {
		return s, nil
	}

	s, err := r.conversations.Enter(ctx, me, peer)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if e, ok := r.sessions[key]; ok && e.session.State() == SessionReady {
		e.lastUsed = r.now()
		r.mu.Unlock()
		s.Close()
		return e.session, nil
	}
	r.sessions[key] = &registryEntry{session: s, lastUsed: r.now()}
	r.mu.Unlock()
	return s, nil
}

func (r *SessionRegistry) lookup(key sessionKey) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[key]
	if !ok {
		return nil
	}
	if e.session.State() != SessionReady {
		delete(r.sessions, key)
		return nil
	}
	e.lastUsed = r.now()
	return e.session
}

// Sweep closes sessions idle for longer than the idle period and returns
// how many were closed.
func (r *SessionRegistry) Sweep() int {
	r.mu.Lock()
	cutoff := r.now().Add(-r.idle)
	var stale []*Session
	for key, e := range r.sessions {
		if e.lastUsed.Before(cutoff) {
			stale = append(stale, e.session)
			delete(r.sessions, key)
		}
	}
	r.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	return len(stale)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *SessionRegistry) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Len reports the number of tracked sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close closes and forgets the session for me and peer, if any.
func (r *SessionRegistry) Close(me, peer domain.ParticipantID) {
	key := sessionKey{me: me, peer: peer}

	r.mu.Lock()
	e, ok := r.sessions[key]
	delete(r.sessions, key)
	r.mu.Unlock()

	if ok {
		e.session.Close()
	}
}

func (r *SessionRegistry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[sessionKey]*registryEntry)
	r.mu.Unlock()

	for _, e := range sessions {
		e.session.Close()
	}
}
