package models

import "errors"

// ErrInvalidWindowSize is returned when a render or query window is
// not strictly positive. The caller skips the tick and keeps the
// previous frame; nothing in the store is touched.
var ErrInvalidWindowSize = errors.New("window size must be > 0")
