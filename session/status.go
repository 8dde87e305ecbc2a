package session

// Status is the server-reported lifecycle state of a session.
type Status string

const (
	StatusAbandoned Status = "abandoned"
	StatusActive    Status = "active"
	StatusEnded     Status = "ended"
	StatusExpired   Status = "expired"
	StatusRemoved   Status = "removed"
	StatusReplaced  Status = "replaced"
	StatusRevoked   Status = "revoked"
	StatusPending   Status = "pending"
	StatusUnknown   Status = "unknown"
)

// UnmarshalText decodes unrecognized values as StatusUnknown.
func (s *Status) UnmarshalText(text []byte) error {
	switch v := Status(text); v {
	case StatusAbandoned, StatusActive, StatusEnded, StatusExpired, StatusRemoved,
		StatusReplaced, StatusRevoked, StatusPending:
		*s = v
	default:
		*s = StatusUnknown
	}
	return nil
}

// Terminal reports whether the session can never become active again.
func (s Status) Terminal() bool {
	switch s {
	case StatusAbandoned, StatusEnded, StatusExpired, StatusRemoved, StatusReplaced, StatusRevoked:
		return true
	default:
		return false
	}
}

// TaskSetupMFA is the pending-session task that blocks token issuance until the
// user enrolls a second factor.
const TaskSetupMFA = "setup-mfa"

// Task is an action the user must finish before a pending session becomes active.
type Task struct {
	Key string `json:"key"`
}
