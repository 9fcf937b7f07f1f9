package workflow

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("session not found")

// Defaults for sessions that have not logged in yet.
const (
	DefaultAnonymousTTL = 30 * time.Minute
	DefaultMaxAnonymous = 10000
)

type entry struct {
	mu   sync.Mutex
	sess *Session
}

// Store keeps sessions in memory. A session idle for longer than the TTL is
// gone: lookups miss it and Sweep removes it. Sessions still awaiting login
// expire after the shorter anonymous TTL, and past the anonymous cap the
// oldest of them is dropped on Create.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry

	// created holds ids in creation order and covers every anonymous session
	created []string
	ttl     time.Duration
	anonTTL time.Duration
	maxAnon int
	now     func() time.Time
	log     *zap.Logger
}

func NewStore(ttl time.Duration, log *zap.Logger) *Store {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		sessions: map[string]*entry{},
		ttl:      ttl,
		anonTTL:  min(ttl, DefaultAnonymousTTL),
		maxAnon:  DefaultMaxAnonymous,
		now:      time.Now,
		log:      log,
	}
}

// LimitAnonymous sets the idle TTL and the cap for sessions that have not
// logged in. Non-positive values keep the current setting.
func (s *Store) LimitAnonymous(ttl time.Duration, maxSessions int) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ttl > 0 {
		s.anonTTL = min(ttl, s.ttl)
	}
	if maxSessions > 0 {
		s.maxAnon = maxSessions
	}
	return s
}

func (s *Store) TTL() time.Duration { return s.ttl }

// Create starts an unauthenticated session.
func (s *Store) Create() (*Session, error) {
	csrf, err := randomToken(32)
	if err != nil {
		return nil, fmt.Errorf("generate csrf token: %w", err)
	}
	sess := newSession(uuid.NewString(), csrf, s.now().UTC())

	s.mu.Lock()
	s.sessions[sess.ID] = &entry{sess: sess}
	s.created = append(s.created, sess.ID)
	var oldest []string
	for len(s.created) > s.maxAnon {
		oldest = append(oldest, s.created[0])
		s.created = s.created[1:]
	}
	s.mu.Unlock()

	for _, id := range oldest {
		s.evictAnonymous(id)
	}
	return sess, nil
}

// evictAnonymous drops id if it never got past the login step.
func (s *Store) evictAnonymous(id string) {
	e, err := s.lookup(id)
	if err != nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess.State() == AwaitingAuth {
		s.Delete(id)
		s.log.Debug("anonymous session evicted", zap.String("session", id))
	}
}

func (s *Store) lookup(id string) (*entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

// Update runs fn with exclusive access to the session and marks it as seen.
func (s *Store) Update(id string, fn func(*Session) error) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	now := s.now().UTC()
	if s.expired(e.sess, now) {
		s.Delete(id)
		return ErrNotFound
	}
	e.sess.LastSeen = now
	return fn(e.sess)
}

// View is Update for readers; fn must not keep the pointer.
func (s *Store) View(id string, fn func(*Session)) error {
	return s.Update(id, func(sess *Session) error {
		fn(sess)
		return nil
	})
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) expired(sess *Session, now time.Time) bool {
	ttl := s.ttl
	if sess.State() == AwaitingAuth {
		ttl = s.anonTTL
	}
	return now.Sub(sess.LastSeen) > ttl
}

// Sweep drops sessions idle past the TTL and returns how many went.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	candidates := make(map[string]*entry, len(s.sessions))
	for id, e := range s.sessions {
		candidates[id] = e
	}
	s.mu.Unlock()

	removed := 0
	for id, e := range candidates {
		// skip sessions busy in a request; the next sweep gets them
		if !e.mu.TryLock() {
			continue
		}
		if s.expired(e.sess, now) {
			s.Delete(id)
			removed++
		}
		e.mu.Unlock()
	}
	return removed
}

// Run sweeps every interval until ctx is cancelled.
func (s *Store) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Sweep(s.now().UTC()); n > 0 {
				s.log.Info("expired sessions removed", zap.Int("count", n), zap.Int("remaining", s.Len()))
			}
		}
	}
}

func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
