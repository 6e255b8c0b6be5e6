package adapter

import (
	"errors"
	"fmt"
	"net/http"
)

// Error taxonomy shared by every component that talks to the server.
var (
	ErrAuth         = errors.New("authentication rejected")
	ErrNetwork      = errors.New("network failure")
	ErrDecryption   = errors.New("decryption unavailable")
	ErrMedia        = errors.New("media unavailable")
	ErrVerification = errors.New("verification failed")
	ErrSend         = errors.New("send failed")
	ErrUnsupported  = errors.New("operation not supported by this client")
)

// Standard Matrix error codes.
const (
	ErrCodeForbidden     = "M_FORBIDDEN"
	ErrCodeUnknownToken  = "M_UNKNOWN_TOKEN"
	ErrCodeMissingToken  = "M_MISSING_TOKEN"
	ErrCodeNotFound      = "M_NOT_FOUND"
	ErrCodeLimitExceeded = "M_LIMIT_EXCEEDED"
	ErrCodeTooLarge      = "M_TOO_LARGE"
	ErrCodeUnknown       = "M_UNKNOWN"
)

// MatrixError is a structured error response from the homeserver.
// Use errors.As to reach the code; errors.Is matches the taxonomy sentinel
// the code maps to.
type MatrixError struct {
	Code       string `json:"errcode"`
	Message    string `json:"error"`
	StatusCode int    `json:"-"`
}

func (e *MatrixError) Error() string {
	return fmt.Sprintf("matrix: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// Unwrap returns the taxonomy sentinel for the error, nil when the error is
// specific to the request.
func (e *MatrixError) Unwrap() error {
	switch {
	case e.Code == ErrCodeUnknownToken, e.Code == ErrCodeMissingToken, e.Code == ErrCodeForbidden,
		e.StatusCode == http.StatusUnauthorized:
		return ErrAuth
	case e.Code == ErrCodeLimitExceeded, e.StatusCode == http.StatusTooManyRequests,
		e.StatusCode >= http.StatusInternalServerError:
		return ErrNetwork
	default:
		return nil
	}
}

// IsMatrixError checks whether err is a *MatrixError with the given code.
func IsMatrixError(err error, code string) bool {
	var matrixErr *MatrixError
	if errors.As(err, &matrixErr) {
		return matrixErr.Code == code
	}
	return false
}
