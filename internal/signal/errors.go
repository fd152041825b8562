package signal

import "errors"

// ErrNotFound is returned when a series is addressed by a name that
// was never registered. This is a registry/store coordination bug in
// the caller, not an environmental condition.
var ErrNotFound = errors.New("signal: not registered")
