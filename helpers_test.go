package subsystem

import "errors"

var errTestSentinel = errors.New("sentinel test error")
