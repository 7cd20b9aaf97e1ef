package echoweb

import (
	"context"
	"sync"
	"time"

	"github.com/trezcool/schoolsite/core"
	"github.com/trezcool/schoolsite/core/crud"
)

// Sessions keeps one set of engines per signed-in session.
// Sessions idle for longer than the TTL are dropped on the next Get.
type Sessions struct {
	entities  map[string]crud.Entity
	validator *crud.Validator
	logger    core.Logger
	ttl       time.Duration
	now       func() time.Time

	mu    sync.Mutex
	items map[string]*Session
}

// Session serialises the dashboard actions of one user. Handlers hold its lock
// for the duration of an action.
type Session struct {
	sync.Mutex
	owner    *Sessions
	lastSeen time.Time
	engines  map[string]*crud.Engine
}

func NewSessions(entities map[string]crud.Entity, v *crud.Validator, logger core.Logger, ttl time.Duration) *Sessions {
	return &Sessions{
		entities:  entities,
		validator: v,
		logger:    logger,
		ttl:       ttl,
		now:       time.Now,
		items:     make(map[string]*Session),
	}
}

// Get returns the session id, creating it when missing or expired.
func (s *Sessions) Get(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)
	sess, ok := s.items[id]
	if !ok {
		sess = &Session{owner: s, engines: make(map[string]*crud.Engine)}
		s.items[id] = sess
	}
	sess.lastSeen = now
	return sess
}

func (s *Sessions) Drop(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Entity returns the configuration of slug.
func (s *Sessions) Entity(slug string) (crud.Entity, bool) {
	ent, ok := s.entities[slug]
	return ent, ok
}

func (s *Sessions) sweep(now time.Time) {
	if s.ttl <= 0 {
		return
	}
	for id, sess := range s.items {
		if now.Sub(sess.lastSeen) > s.ttl {
			delete(s.items, id)
		}
	}
}

// Engine returns the engine of slug, loading its first page on first use.
// The caller must hold the session lock.
func (sess *Session) Engine(ctx context.Context, slug string) (*crud.Engine, bool) {
	if eng, ok := sess.engines[slug]; ok {
		return eng, true
	}
	ent, ok := sess.owner.Entity(slug)
	if !ok {
		return nil, false
	}
	eng := crud.NewEngine(ent, sess.owner.validator, sess.owner.logger)
	sess.engines[slug] = eng
	eng.Load(ctx)
	return eng, true
}
