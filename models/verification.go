package models

import "time"

// VerificationKind selects the verification flow.
type VerificationKind int

const (
	VerificationRecoveryKey VerificationKind = iota
	VerificationSAS
)

func (k VerificationKind) String() string {
	if k == VerificationSAS {
		return "sas"
	}
	return "recovery-key"
}

// VerificationState is a state of the verification state machine.
type VerificationState int

const (
	VerificationIdle VerificationState = iota
	VerificationAwaitingSecret
	VerificationAwaitingConfirmation
	VerificationVerifying
	VerificationVerified
	VerificationFailed
	VerificationAbandoned
)

func (s VerificationState) String() string {
	switch s {
	case VerificationIdle:
		return "idle"
	case VerificationAwaitingSecret:
		return "awaiting secret"
	case VerificationAwaitingConfirmation:
		return "awaiting confirmation"
	case VerificationVerifying:
		return "verifying"
	case VerificationVerified:
		return "verified"
	case VerificationFailed:
		return "failed"
	case VerificationAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s VerificationState) Terminal() bool {
	return s == VerificationVerified || s == VerificationFailed || s == VerificationAbandoned
}

// SASEmoji is one of the seven emoji shown during interactive verification.
type SASEmoji struct {
	Symbol      string
	Description string
}

// VerificationInfo is a snapshot of one verification for the UI.
type VerificationInfo struct {
	ID         string
	AccountID  string
	DeviceID   string
	Kind       VerificationKind
	State      VerificationState
	Emojis     []SASEmoji
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}
