package manifest

import "errors"

var (
	ErrNotFound          = errors.New("manifest not found")
	ErrInvalidPath       = errors.New("invalid path")
	ErrInvalidDependency = errors.New("invalid dependency path")
)
