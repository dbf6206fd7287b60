package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrJobTerminal     = errors.New("job already finished")
	ErrInvalidConfig   = errors.New("invalid batch config")
	ErrInvalidSelector = errors.New("unknown selector")
	ErrNoAsset         = errors.New("generation produced no asset")
	ErrProviderFailure = errors.New("provider failure")
)
