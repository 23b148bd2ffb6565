package model

import "time"

// Session is the login-scoped conversation identity. It lives in the
// session registry for its lifetime, and at most one is active per
// username.
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewSession(username string) *Session {
	return &Session{
		ID:        GenerateUUID(),
		Username:  username,
		CreatedAt: time.Now(),
	}
}

// BufferKey is the composite ephemeral-store key holding the session's
// turn buffer. Same shape for every session of a user, disambiguated by
// session id so a superseded session's buffer stays addressable.
func (s *Session) BufferKey() string {
	return BufferKey(s.Username, s.ID)
}

func BufferKey(username, sessionID string) string {
	return "chat:buffer:" + username + ":" + sessionID
}
