package flow

import (
	"sync"
	"time"

	"lectorium/storage"
)

// Key identifies a conversation. Sessions are scoped to the (user, chat)
// pair so concurrent flows by different users never interfere.
type Key struct {
	UserID int64
	ChatID int64
}

// Type names a multi-step conversation.
type Type int

const (
	FlowNone Type = iota
	FlowAddLecture
	FlowAddFile
	FlowChat
)

// Step identifies the current position inside a flow.
type Step int

const (
	StepIdle Step = iota
	StepEnteringCourse
	StepEnteringTopic
	StepChoosingTopic
	StepChoosingFileKind
	StepAwaitingUpload
	StepChatting
)

// Session holds the transient per-conversation state collected so far.
type Session struct {
	Flow   Type
	Step   Step
	Course int
	Topic  string
	Kind   storage.FileKind

	touched time.Time
}

// Sessions is an in-process session store with a TTL. Abandoned flows are
// pruned so the map does not grow without bound.
type Sessions struct {
	mu    sync.RWMutex
	ttl   time.Duration
	byKey map[Key]Session

	now func() time.Time
}

const defaultSessionTTL = 30 * time.Minute

// NewSessions creates a session store; ttl <= 0 selects the default.
func NewSessions(ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &Sessions{
		ttl:   ttl,
		byKey: make(map[Key]Session),
		now:   time.Now,
	}
}

// Begin replaces any previous session for key with a fresh one, so state from
// an earlier flow can never leak into a new one.
func (s *Sessions) Begin(key Key, flow Type, step Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	s.byKey[key] = Session{Flow: flow, Step: step, touched: s.now()}
}

// Get returns a copy of the session for key. Expired sessions are reported
// as absent.
func (s *Sessions) Get(key Key) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.byKey[key]
	if !ok || s.expired(sess) {
		return Session{}, false
	}
	return sess, true
}

// Put stores the session for key, refreshing its TTL. The whole session is
// replaced atomically; a half-mutated copy is never observable.
func (s *Sessions) Put(key Key, sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.touched = s.now()
	s.byKey[key] = sess
}

// Clear removes the session for key.
func (s *Sessions) Clear(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byKey, key)
}

// Active reports whether key has a live, non-idle session.
func (s *Sessions) Active(key Key) bool {
	sess, ok := s.Get(key)
	return ok && sess.Step != StepIdle
}

// ActiveFlow returns the flow type for key, or FlowNone.
func (s *Sessions) ActiveFlow(key Key) Type {
	sess, ok := s.Get(key)
	if !ok {
		return FlowNone
	}
	return sess.Flow
}

func (s *Sessions) expired(sess Session) bool {
	return s.now().Sub(sess.touched) > s.ttl
}

func (s *Sessions) pruneLocked() {
	for key, sess := range s.byKey {
		if s.expired(sess) {
			delete(s.byKey, key)
		}
	}
}
