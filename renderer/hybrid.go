package renderer

import (
	"math"

	"github.com/achilleasa/playground/raygen"
	"github.com/achilleasa/playground/tracer"
	"github.com/achilleasa/playground/types"
)

// Trace rays through the volumetric model alone when no enabled surface
// primitive is visible, or through the hybrid tracer otherwise.
func (e *Engine) trace(rays *raygen.RayPack) (*tracer.Result, bool, error) {
	if !e.registry.Enabled || !e.registry.HasVisibleObjects() {
		res, err := e.model.Trace(rays)
		return res, false, err
	}
	res, err := e.renderHybrid(rays)
	return res, true, err
}

func (e *Engine) renderOptions() tracer.RenderOptions {
	opts := tracer.NoOptions
	if e.registry.UseSmoothNormals {
		opts |= tracer.SmoothNormals
	}
	if e.registry.DisableVolumetricTracing {
		opts |= tracer.DisableVolumetricTracing
	}
	if e.registry.DisablePBRTextures {
		opts |= tracer.DisablePBRTextures
	}
	return opts
}

func (e *Engine) renderHybrid(rays *raygen.RayPack) (*tracer.Result, error) {
	if _, err := e.registry.RebuildIfNeeded(e.tracer, false, true); err != nil {
		return nil, err
	}

	envmap := e.Envmap
	var bgColor types.Vec3
	if e.registry.ForceWhiteBackground {
		bgColor = types.Splat3(1)
		envmap = nil
	} else if color, ok := e.model.BackgroundColor(); ok {
		bgColor = color
	}

	res, err := e.tracer.RenderHybrid(&tracer.HybridRequest{
		Model:                 e.model,
		Rays:                  rays,
		Options:               e.renderOptions(),
		Geometry:              e.registry.Geometry(),
		FrameID:               e.frameID,
		Materials:             e.registry.SortedMaterials(),
		SyncMaterials:         e.materialsDirty,
		BackgroundColor:       bgColor,
		Envmap:                envmap,
		EnableEnvmap:          e.registry.EnableEnvmap,
		UseEnvmapAsBackground: e.registry.UseEnvmapAsBackground,
		MaxPBRBounces:         e.MaxPBRBounces,
	})
	if err != nil {
		return nil, err
	}

	if envmap == nil || !e.registry.UseEnvmapAsBackground {
		if e.registry.ForceWhiteBackground {
			for i := range res.RGB {
				res.RGB[i] = res.RGB[i].Add(types.Splat3(1 - res.Opacity[i]))
			}
		} else {
			res.RGB, res.Opacity, err = e.model.Background(res.LastRayDir, res.RGB, res.Opacity)
			if err != nil {
				return nil, err
			}
		}
	}

	e.materialsDirty = false
	e.frameID = nextFrameID(e.frameID, e.Antialiasing.BatchSize())

	for i := range res.RGB {
		res.RGB[i] = res.RGB[i].Clamp(0, 1)
	}
	return res, nil
}

// Advance the tracer frame counter, wrapping to zero instead of
// overflowing an int32.
func nextFrameID(frameID int32, batch int) int32 {
	next := int64(frameID) + int64(batch)
	if next > math.MaxInt32 {
		return 0
	}
	return int32(next)
}
