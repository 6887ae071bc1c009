package client

import "sync"

// Session stores the caller's tokens between requests
type Session interface {
	AccessToken() string
	RefreshToken() string
	SetTokens(tokens *Tokens)
	Clear()
}

// MemorySession is a Session held in process memory. It is safe for
// concurrent use.
type MemorySession struct {
	mu           sync.RWMutex
	accessToken  string
	refreshToken string
}

// NewMemorySession returns a session seeded with tokens, which may be nil
func NewMemorySession(tokens *Tokens) *MemorySession {
	s := &MemorySession{}
	s.SetTokens(tokens)
	return s
}

func (s *MemorySession) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *MemorySession) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

func (s *MemorySession) SetTokens(tokens *Tokens) {
	if tokens == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = tokens.AccessToken
	s.refreshToken = tokens.RefreshToken
}

func (s *MemorySession) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
	s.refreshToken = ""
}
