package scene

import "errors"

var (
	ErrUnknownGeometry      = errors.New("scene: unknown geometry type")
	ErrUnknownPrimitive     = errors.New("scene: unknown primitive")
	ErrUnknownPrimitiveType = errors.New("scene: unknown primitive type")
	ErrNoMeshLoader         = errors.New("scene: no mesh loader configured for asset-backed geometry")
	ErrEmptyMesh            = errors.New("scene: mesh contains no faces")
)
