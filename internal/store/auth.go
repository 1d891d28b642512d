package store

import "github.com/gridswap/swapdash/internal/types"

// SetSession records the authenticated user and token for this session.
func (s *Store) SetSession(user *types.User, token string) {
	s.mu.Lock()
	s.user = user
	s.token = token
	s.mu.Unlock()

	s.notify(Event{Slice: SliceAuth, Action: "setSession"})
}

// ClearSession removes the session's user and token. Called on logout,
// regardless of whether the remote logout call succeeded.
func (s *Store) ClearSession() {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.mu.Unlock()

	s.notify(Event{Slice: SliceAuth, Action: "clearSession"})
}

// Session returns the current user and token.
func (s *Store) Session() (*types.User, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.token
}
