package runtime

import "errors"

var (
	ErrDaemon      = errors.New("sandbox daemon failure")
	ErrTimeout     = errors.New("execution timed out")
	ErrNotAttached = errors.New("execution not attached")
)
