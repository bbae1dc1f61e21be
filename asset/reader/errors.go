package reader

import "errors"

var (
	ErrUnsupportedFormat = errors.New("reader: unsupported mesh file format")
	ErrNoFaces           = errors.New("reader: mesh file does not define any faces")
)
