package tui

import (
	"time"

	"github.com/MKhiriev/go-multimatrix/models"
)

// NavigateTo switches the active page of [RootModel].
type NavigateTo struct {
	Page string
}

type tickMsg time.Time

type loginResultMsg struct {
	account models.Account
	err     error
}

// actionDoneMsg reports the outcome of a background engine call.
type actionDoneMsg struct {
	status string
	err    error
}

type recoveryStartedMsg struct {
	id  string
	err error
}

// sasReadyMsg carries the emojis of a verification awaiting confirmation.
type sasReadyMsg struct {
	info models.VerificationInfo
	err  error
}

type clearStatusMsg struct{}

type quitMsg struct{}
