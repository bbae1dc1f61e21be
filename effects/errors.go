package effects

import "errors"

var (
	ErrUnknownSPPMode = errors.New("effects: unknown antialiasing mode")
)
