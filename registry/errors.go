package registry

import "errors"

// ErrProbeFailed wraps a zero-argument probe that failed for a reason other
// than incompleteness.
var ErrProbeFailed = errors.New("plugin probe failed")
