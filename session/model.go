package session

import (
	"encoding/json"
	"time"

	"github.com/MrEthical07/goAuthClient/authflow"
)

// Session is one authenticated session of the client. Timestamps are unix
// milliseconds as sent by the server.
type Session struct {
	ID                    string  `json:"id"`
	Status                Status  `json:"status"`
	ExpireAt              int64   `json:"expire_at"`
	LastActiveAt          int64   `json:"last_active_at"`
	UserID                string  `json:"user_id,omitempty"`
	FactorVerificationAge []int   `json:"factor_verification_age,omitempty"`
	Tasks                 []Task  `json:"tasks,omitempty"`
	User                  *User   `json:"user,omitempty"`
	LastActiveToken       *JWTRef `json:"last_active_token,omitempty"`
}

// JWTRef carries a token embedded by the server in a session payload.
type JWTRef struct {
	JWT string `json:"jwt"`
}

// UnmarshalJSON fills UserID from the embedded user when the server omits it.
func (s *Session) UnmarshalJSON(data []byte) error {
	type plain Session
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.UserID == "" && p.User != nil {
		p.UserID = p.User.ID
	}
	*s = Session(p)
	return nil
}

// ExpireTime returns ExpireAt as a time.Time.
func (s *Session) ExpireTime() time.Time {
	return time.UnixMilli(s.ExpireAt)
}

// HasTask reports whether the session carries a pending task with key.
func (s *Session) HasTask(key string) bool {
	for _, t := range s.Tasks {
		if t.Key == key {
			return true
		}
	}
	return false
}

// Usable reports whether tokens may be requested for the session. A pending
// session that still requires MFA setup is not usable.
func (s *Session) Usable() bool {
	if s == nil || s.ID == "" {
		return false
	}
	return !(s.Status == StatusPending && s.HasTask(TaskSetupMFA))
}

// User is the signed-in user attached to a session.
type User struct {
	ID                    string         `json:"id"`
	FirstName             string         `json:"first_name,omitempty"`
	LastName              string         `json:"last_name,omitempty"`
	Username              string         `json:"username,omitempty"`
	PrimaryEmailAddressID string         `json:"primary_email_address_id,omitempty"`
	PrimaryPhoneNumberID  string         `json:"primary_phone_number_id,omitempty"`
	EmailAddresses        []EmailAddress `json:"email_addresses,omitempty"`
	PhoneNumbers          []PhoneNumber  `json:"phone_numbers,omitempty"`
	PasswordEnabled       bool           `json:"password_enabled"`
	TwoFactorEnabled      bool           `json:"two_factor_enabled"`
	TOTPEnabled           bool           `json:"totp_enabled"`
	BackupCodeEnabled     bool           `json:"backup_code_enabled"`
}

// PrimaryEmail returns the primary email address, if any.
func (u *User) PrimaryEmail() (string, bool) {
	if u == nil {
		return "", false
	}
	for _, e := range u.EmailAddresses {
		if e.ID == u.PrimaryEmailAddressID {
			return e.EmailAddress, true
		}
	}
	return "", false
}

type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

type PhoneNumber struct {
	ID          string `json:"id"`
	PhoneNumber string `json:"phone_number"`
}

// Client is the device's full authentication state as last reported by the
// server.
type Client struct {
	ID                  string           `json:"id"`
	Sessions            []Session        `json:"sessions"`
	LastActiveSessionID string           `json:"last_active_session_id,omitempty"`
	SignIn              *authflow.SignIn `json:"sign_in,omitempty"`
	SignUp              *authflow.SignUp `json:"sign_up,omitempty"`
	UpdatedAt           int64            `json:"updated_at,omitempty"`
}

// ActiveSession returns the session matched by LastActiveSessionID.
func (c *Client) ActiveSession() (*Session, bool) {
	if c == nil || c.LastActiveSessionID == "" {
		return nil, false
	}
	return c.SessionByID(c.LastActiveSessionID)
}

// SessionByID returns the session with id.
func (c *Client) SessionByID(id string) (*Session, bool) {
	if c == nil || id == "" {
		return nil, false
	}
	for i := range c.Sessions {
		if c.Sessions[i].ID == id {
			return &c.Sessions[i], true
		}
	}
	return nil, false
}

// SessionIDs lists the ids of all sessions on the client.
func (c *Client) SessionIDs() []string {
	if c == nil {
		return nil
	}
	ids := make([]string, 0, len(c.Sessions))
	for _, s := range c.Sessions {
		ids = append(ids, s.ID)
	}
	return ids
}

// RemovedSessionIDs returns ids present in prev but missing from next.
func RemovedSessionIDs(prev, next *Client) []string {
	if prev == nil {
		return nil
	}
	var removed []string
	for _, id := range prev.SessionIDs() {
		if _, ok := next.SessionByID(id); !ok {
			removed = append(removed, id)
		}
	}
	return removed
}
