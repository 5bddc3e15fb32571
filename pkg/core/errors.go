package core

import "errors"

// ErrSessionNotStarted is returned when data is recorded outside a session.
var ErrSessionNotStarted = errors.New("no session started")
