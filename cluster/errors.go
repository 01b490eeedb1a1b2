package cluster

import "errors"

// ErrAlreadyStarted is returned when Run is invoked on a driver that has
// already left the seeded state.
var ErrAlreadyStarted = errors.New("driver has already been started")
