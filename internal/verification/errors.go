package verification

import (
	"errors"
	"fmt"

	"github.com/MKhiriev/go-multimatrix/internal/adapter"
)

var (
	ErrInvalidTransition   = errors.New("verification: invalid transition")
	ErrUnknownVerification = errors.New("verification: unknown id")
	ErrWrongKind           = errors.New("verification: operation does not match the verification kind")
	ErrEmojiMismatch       = fmt.Errorf("%w: emojis did not match", adapter.ErrVerification)
	ErrExpired             = fmt.Errorf("%w: timed out", adapter.ErrVerification)
)
