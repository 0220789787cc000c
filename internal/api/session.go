package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fridgesaver/fridgesaver/internal/workflow"
)

const sessionCookie = "fridgesaver-session"

// ControllerFactory builds the upload controller for a new page session.
type ControllerFactory func(sessionID string, notifier workflow.Notifier, navigator workflow.Navigator) *workflow.Controller

// Session is the server side of one visitor's page view.
type Session struct {
	ID         string
	Controller *workflow.Controller
	Flash      *FlashNotifier
	Navigator  *SessionNavigator

	expiresAt time.Time
}

// SessionStore keeps page sessions in memory. Expired sessions are closed,
// which releases any file they still hold.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	factory  ControllerFactory
	logger   *zap.Logger
	now      func() time.Time

	stop chan struct{}
	done chan struct{}
}

func NewSessionStore(ttl time.Duration, factory ControllerFactory, logger *zap.Logger) *SessionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		factory:  factory,
		logger:   logger,
		now:      time.Now,
	}
}

// Start runs the expiry sweep every interval until Close is called.
func (s *SessionStore) Start(interval time.Duration) {
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.CleanupExpired()
			case <-s.stop:
				return
			}
		}
	}()
}

// Close stops the sweep and closes every session.
func (s *SessionStore) Close() {
	if s.stop != nil {
		close(s.stop)
		<-s.done
	}

	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Controller.Close()
	}
}

// Get returns the live session with the given id and extends its lifetime.
func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if s.now().After(sess.expiresAt) {
		return nil, false
	}
	sess.expiresAt = s.now().Add(s.ttl)
	return sess, true
}

func (s *SessionStore) New() *Session {
	sess := s.build(uuid.New().String())

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.logger.Debug("session created", zap.String("session_id", sess.ID))
	return sess
}

// Reset replaces the page state of a session, keeping its id.
func (s *SessionStore) Reset(id string) *Session {
	fresh := s.build(id)

	s.mu.Lock()
	old := s.sessions[id]
	s.sessions[id] = fresh
	s.mu.Unlock()

	if old != nil {
		old.Controller.Close()
	}
	return fresh
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// CleanupExpired closes and forgets the sessions past their expiry.
func (s *SessionStore) CleanupExpired() int {
	now := s.now()

	s.mu.Lock()
	var expired []*Session
	for id, sess := range s.sessions {
		if now.After(sess.expiresAt) {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.Controller.Close()
		s.logger.Debug("session expired", zap.String("session_id", sess.ID))
	}
	return len(expired)
}

func (s *SessionStore) build(id string) *Session {
	sess := &Session{
		ID:        id,
		Flash:     &FlashNotifier{},
		Navigator: &SessionNavigator{},
		expiresAt: s.now().Add(s.ttl),
	}
	sess.Controller = s.factory(id, sess.Flash, sess.Navigator)
	return sess
}

type sessionKey struct{}

func sessionFrom(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionKey{}).(*Session)
	return sess
}

// Middleware attaches the visitor's session to the request context, creating
// one and setting the cookie when needed.
func (s *SessionStore) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sess *Session
		if c, err := r.Cookie(sessionCookie); err == nil {
			sess, _ = s.Get(c.Value)
		}
		if sess == nil {
			sess = s.New()
		}

		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   int(s.ttl.Seconds()),
		})

		ctx := context.WithValue(r.Context(), sessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
