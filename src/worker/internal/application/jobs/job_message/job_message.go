package job_message

// SessionIdentifier locates the separation session a job acts on. Every
// job message embeds it so failures can be reported back to the session.
type SessionIdentifier struct {
	SessionID string `json:"session_id"`
}
