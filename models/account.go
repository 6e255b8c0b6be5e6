package models

import "strings"

// AccountStatus is the connectivity state of one account.
type AccountStatus int

const (
	StatusConnecting AccountStatus = iota
	StatusSynced
	StatusDegraded
	StatusLoggedOut
)

func (s AccountStatus) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusSynced:
		return "synced"
	case StatusDegraded:
		return "degraded"
	case StatusLoggedOut:
		return "logged out"
	default:
		return "unknown"
	}
}

// AccessToken is an opaque bearer token. Formatting it with %s or %v never
// prints the value; use Reveal at the single place that needs it.
type AccessToken string

func (t AccessToken) String() string {
	if t == "" {
		return ""
	}
	return "[REDACTED]"
}

// Reveal returns the raw token.
func (t AccessToken) Reveal() string {
	return string(t)
}

// Account is one authenticated identity on one homeserver.
type Account struct {
	// UserID is the fully qualified Matrix id, e.g. "@alice:example.org".
	// It doubles as the account id across the application.
	UserID     string
	Homeserver string
	DeviceID   string
	// Label is what the UI shows next to rooms of this account.
	Label  string
	Status AccountStatus
}

// SavedAccount is the persisted credential handle of an account.
type SavedAccount struct {
	Homeserver  string
	UserID      string
	DeviceID    string
	AccessToken AccessToken
}

// Account builds the in-memory account for a saved one.
func (s SavedAccount) Account() Account {
	return Account{
		UserID:     s.UserID,
		Homeserver: s.Homeserver,
		DeviceID:   s.DeviceID,
		Label:      AccountLabel(s.UserID),
		Status:     StatusConnecting,
	}
}

// Credentials are entered by the user on login. Password is consumed (and
// zeroed) by the adapter.
type Credentials struct {
	Homeserver string
	Username   string
	Password   []byte
}

// SessionHandle is returned by a successful login.
type SessionHandle struct {
	UserID      string
	DeviceID    string
	AccessToken AccessToken
}

// AccountLabel derives a short label from a user id: "@alice:example.org"
// becomes "alice@example.org".
func AccountLabel(userID string) string {
	local, server, ok := strings.Cut(strings.TrimPrefix(userID, "@"), ":")
	if !ok {
		return userID
	}
	return local + "@" + server
}
