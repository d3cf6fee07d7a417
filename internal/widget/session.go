// Package widget implements the thumbs up/down rating widget: per-session
// vote guarding, optimistic counts and the bulk ratings load.
package widget

// Session records which slugs this browsing session has voted on. One
// session is created per page view and handed to the widget; it is never
// persisted. Not safe for concurrent use.
type Session struct {
	voted map[string]bool
}

// NewSession returns a session with no votes.
func NewSession() *Session {
	return &Session{voted: make(map[string]bool)}
}

// HasVoted reports whether slug has been voted on, in either direction.
func (s *Session) HasVoted(slug string) bool {
	return s.voted[slug]
}

// markVoted records a vote and reports whether this is the first one.
func (s *Session) markVoted(slug string) bool {
	if s.voted[slug] {
		return false
	}
	s.voted[slug] = true
	return true
}
