package data

import "errors"

// Shared sentinel errors for data-layer stores.
var (
	ErrJobIDRequired = errors.New("job id is required")
	ErrNilJob        = errors.New("job is nil")
)
