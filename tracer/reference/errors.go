package reference

import "errors"

var (
	ErrNoModel     = errors.New("reference: hybrid request without a volumetric model")
	ErrNoGeometry  = errors.New("reference: hybrid request without merged geometry")
	ErrInvalidFace = errors.New("reference: face references a vertex out of range")
	ErrBufferSize  = errors.New("reference: buffer size does not match the frame dimensions")
)
