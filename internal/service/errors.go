package service

import "errors"

var (
	ErrInvalidSession    = errors.New("session token rejected, log in again")
	ErrUnknownAccount    = errors.New("unknown account")
	ErrUnknownRoom       = errors.New("unknown room")
	ErrAccountExists     = errors.New("account is already signed in")
	ErrResourceExhausted = errors.New("cannot allocate a new session")
	ErrSessionNotRunning = errors.New("session is not running")
	ErrNothingToLoad     = errors.New("no older history")
	ErrEngineClosed      = errors.New("engine closed")
	ErrFileTooLarge      = errors.New("file exceeds the media size limit")

	ErrVersionIsNotSpecified = errors.New("app version is not specified")
)
