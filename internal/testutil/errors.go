package testutil

import "errors"

// ErrSimulated is injected by fakes to exercise error paths.
var ErrSimulated = errors.New("simulated server failure")
