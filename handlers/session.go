package handlers

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
)

// SessionCookie identifies a browser session for in-flight query exclusion
const SessionCookie = "sv_session"

// sessionID returns the caller's session ID, issuing a new cookie when the
// request has none or an invalid one
func sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// QueryGate allows at most one outstanding query per session
type QueryGate struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewQueryGate creates an empty gate
func NewQueryGate() *QueryGate {
	return &QueryGate{inFlight: make(map[string]struct{})}
}

// TryAcquire marks key as having a query in flight. It returns false if one
// is already outstanding. Every successful call must be paired with Release.
func (g *QueryGate) TryAcquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.inFlight[key]; busy {
		return false
	}
	g.inFlight[key] = struct{}{}
	return true
}

// Release clears the in-flight mark for key
func (g *QueryGate) Release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inFlight, key)
}

// InFlight returns the number of sessions with an outstanding query
func (g *QueryGate) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.inFlight)
}
