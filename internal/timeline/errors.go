package timeline

import (
	"errors"
	"fmt"
)

// ErrStateInvariant marks mutations that reference state the store does not
// have. Callers log and swallow it.
var ErrStateInvariant = errors.New("state invariant violation")

var (
	ErrUnknownEvent       = fmt.Errorf("%w: unknown event", ErrStateInvariant)
	ErrReadMarkerBackward = fmt.Errorf("%w: read marker cannot move backward", ErrStateInvariant)
	ErrNotPending         = fmt.Errorf("%w: event is not awaiting decryption", ErrStateInvariant)
)
