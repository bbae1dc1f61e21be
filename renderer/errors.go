package renderer

import "errors"

var (
	ErrNoAccumulationBase = errors.New("renderer: accumulating pass requested without a previous pass")
	ErrCanvasSizeChanged  = errors.New("renderer: canvas size changed since the previous pass")
	ErrNoModel            = errors.New("renderer: no volumetric model defined")
	ErrNoTracer           = errors.New("renderer: no tracer attached")
	ErrCameraNotDefined   = errors.New("renderer: no camera defined")
)
