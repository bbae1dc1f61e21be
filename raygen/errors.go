package raygen

import "errors"

var (
	ErrUnknownCameraModel = errors.New("raygen: unknown camera model")
	ErrInvalidResolution  = errors.New("raygen: camera resolution must be positive")
	ErrJitterSize         = errors.New("raygen: jitter does not match the pixel grid")
	ErrSplitNonFlat       = errors.New("raygen: only flat ray packs can be split")
	ErrShapeMismatch      = errors.New("raygen: ray origin and direction shapes differ")
)
