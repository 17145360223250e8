package domain

// SessionCreated is returned by the DPS when a session is opened.
type SessionCreated struct {
	SessionID string `json:"sessionId"`
}
