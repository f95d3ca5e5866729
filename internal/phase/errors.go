package phase

import "errors"

// ErrInvalidConfig reports a construction parameter outside its domain,
// such as a non-positive clock frequency.
var ErrInvalidConfig = errors.New("invalid configuration")
