package renderer

import (
	"fmt"
	"time"

	"github.com/achilleasa/playground/effects"
	"github.com/achilleasa/playground/log"
	"github.com/achilleasa/playground/raygen"
	"github.com/achilleasa/playground/scene"
	"github.com/achilleasa/playground/tracer"
	"github.com/achilleasa/playground/types"
)

// Engine drives progressive rendering of a volumetric model combined with
// the surface primitives of a scene registry. A render consists of a first
// pass followed by accumulating passes while a progressive effect has
// samples left. Engines are not safe for concurrent use.
type Engine struct {
	logger log.Logger

	tracer    tracer.Tracer
	model     tracer.VolumetricModel
	registry  *scene.Registry
	generator *raygen.Generator

	// Settings that may be changed between passes.
	CameraModel     raygen.CameraModel
	Gamma           float32
	UseAntialiasing bool
	UseDepthOfField bool
	UseDenoiser     bool
	MaxPBRBounces   int

	// Progressive effect controllers.
	Antialiasing Antialiasing
	DepthOfField DepthOfField

	// Optional environment map passed to the hybrid tracer.
	Envmap *scene.Texture

	frameID        int32
	materialsDirty bool

	state *lastState
	stats FrameStats
}

// Create a new engine. The registry is created with a scene scale matching
// the volumetric model extent and both acceleration structures are built.
func NewEngine(model tracer.VolumetricModel, tr tracer.Tracer, catalog *scene.Catalog, opts Options) (*Engine, error) {
	if model == nil {
		return nil, ErrNoModel
	}
	if tr == nil {
		return nil, ErrNoTracer
	}

	min, max := model.Extent()
	e := &Engine{
		logger:          log.New("engine"),
		tracer:          tr,
		model:           model,
		registry:        scene.NewRegistry(catalog, max.Sub(min)),
		generator:       raygen.NewGenerator(),
		CameraModel:     opts.CameraModel,
		Gamma:           opts.Gamma,
		UseAntialiasing: opts.UseAntialiasing,
		UseDepthOfField: opts.UseDepthOfField,
		UseDenoiser:     opts.UseDenoiser,
		MaxPBRBounces:   opts.MaxPBRBounces,
		Antialiasing:    effects.NewSPP(opts.AntialiasingMode, opts.AntialiasingBatchSize),
		DepthOfField:    effects.NewDepthOfField(opts.DOFAperture, opts.DOFFocusZ, opts.DOFSamples),
	}
	if e.Gamma <= 0 {
		e.Gamma = 1
	}

	if err := e.RebuildAccelerations(); err != nil {
		return nil, err
	}
	return e, nil
}

// Get the scene registry.
func (e *Engine) Registry() *scene.Registry {
	return e.registry
}

// Get the volumetric model.
func (e *Engine) Model() tracer.VolumetricModel {
	return e.model
}

// Rebuild the volumetric acceleration structure and the mesh acceleration
// structure if the registry is dirty.
func (e *Engine) RebuildAccelerations() error {
	if err := e.tracer.BuildVolumetricAcc(e.model, true); err != nil {
		return err
	}
	_, err := e.registry.RebuildIfNeeded(e.tracer, false, true)
	return err
}

// Select the antialiasing mode by name. Accumulation restarts with the next
// first pass.
func (e *Engine) SetAntialiasingMode(name string) error {
	mode, err := effects.ParseSPPMode(name)
	if err != nil {
		return err
	}
	batch := 1
	if e.Antialiasing != nil {
		batch = e.Antialiasing.BatchSize()
	}
	e.Antialiasing = effects.NewSPP(mode, batch)
	return nil
}

// Flag materials as modified so they are uploaded by the next hybrid trace.
func (e *Engine) InvalidateMaterials() {
	e.materialsDirty = true
}

// Returns true if another accumulating pass would add samples. Only the
// depth of field controller is consulted while depth of field is enabled.
func (e *Engine) HasProgressiveEffectsToRender() bool {
	if e.UseDepthOfField {
		return e.DepthOfField.Accumulated() <= e.DepthOfField.TargetSamples()
	}
	return e.UseAntialiasing && e.Antialiasing.Accumulated() <= e.Antialiasing.TargetSamples()
}

// Returns true if the scene must be rendered again from a first pass.
func (e *Engine) IsDirty(cam raygen.Camera) bool {
	if e.materialsDirty {
		return true
	}
	if e.state == nil {
		return true
	}
	return e.state.viewMatrix != cam.ViewMatrix()
}

// Get the stats for the passes issued since the last first pass.
func (e *Engine) Stats() FrameStats {
	return e.stats
}

// Render a frame with all enabled progressive effects.
func (e *Engine) Render(cam raygen.Camera) (*Frame, error) {
	frame, err := e.RenderPass(cam, true)
	if err != nil {
		return nil, err
	}

	for e.HasProgressiveEffectsToRender() {
		before := e.progress()
		if frame, err = e.RenderPass(cam, false); err != nil {
			return nil, err
		}
		if e.progress() == before {
			e.logger.Warning("accumulating pass did not advance any effect; stopping")
			break
		}
	}
	return frame, nil
}

func (e *Engine) progress() int {
	return e.Antialiasing.Accumulated() + e.DepthOfField.Accumulated()
}

// Render a single pass. A first pass traces non-jittered rays and restarts
// accumulation. Subsequent passes accumulate one progressive effect onto
// the previous pass; once no effect has samples left the previous frame is
// returned unchanged.
func (e *Engine) RenderPass(cam raygen.Camera, isFirstPass bool) (*Frame, error) {
	if cam == nil {
		return nil, ErrCameraNotDefined
	}

	start := time.Now()
	in := cam.Intrinsics()
	pixels := in.Width * in.Height

	var (
		stat    PassStat
		rgb     []types.Vec3
		opacity []float32
		mask    []bool
	)

	if isFirstPass {
		rays, err := e.generator.Generate(cam, e.CameraModel, nil)
		if err != nil {
			return nil, err
		}
		res, hybrid, err := e.trace(rays)
		if err != nil {
			return nil, err
		}
		rgb, opacity = meanBatch(res, pixels)
		for i := range rgb {
			rgb[i] = powVec3(rgb[i], 1/e.Gamma)
		}
		e.Antialiasing.Reset()
		e.DepthOfField.Reset()

		mask = rays.Mask
		stat = PassStat{Kind: FirstPass, Hybrid: hybrid, Rays: rays.Len(), Samples: 1}
		e.stats = FrameStats{}
	} else {
		if e.state == nil {
			return nil, ErrNoAccumulationBase
		}
		if !e.state.sameCanvas(in.Width, in.Height) {
			return nil, fmt.Errorf("%w: %dx%d -> %dx%d", ErrCanvasSizeChanged,
				e.state.frame.Width, e.state.frame.Height, in.Width, in.Height)
		}

		var (
			rays *raygen.RayPack
			err  error
		)
		switch {
		case e.UseDepthOfField && e.DepthOfField.HasMoreToAccumulate():
			stat.Kind = DepthOfFieldPass
			rays, rgb, opacity, stat.Hybrid, err = e.renderDepthOfField(cam)
			stat.Samples = e.DepthOfField.Accumulated()
		case !e.UseDepthOfField && e.UseAntialiasing && e.Antialiasing.HasMoreToAccumulate():
			stat.Kind = AntialiasingPass
			rays, rgb, opacity, stat.Hybrid, err = e.renderAntialiasing(cam)
			stat.Samples = e.Antialiasing.Accumulated()
		default:
			e.recordPass(PassStat{Kind: ConvergedPass}, start)
			return e.state.frame, nil
		}
		if err != nil {
			return nil, err
		}
		mask = rays.Mask
		stat.Rays = rays.Len()
	}

	frame := &Frame{
		Width:   in.Width,
		Height:  in.Height,
		RGB:     rgb,
		Noisy:   rgb,
		Opacity: opacity,
	}
	if e.UseDenoiser {
		denoised, err := e.tracer.Denoise(frame.Noisy, in.Width, in.Height)
		if err != nil {
			return nil, err
		}
		frame.RGB = denoised
	}

	buffers := [][]types.Vec3{frame.Noisy}
	if e.UseDenoiser {
		buffers = append(buffers, frame.RGB)
	}
	applyMask(mask, buffers, frame.Opacity)

	e.state = &lastState{viewMatrix: cam.ViewMatrix(), frame: frame}
	e.recordPass(stat, start)
	return frame, nil
}

func (e *Engine) recordPass(stat PassStat, start time.Time) {
	stat.RenderTime = time.Since(start)
	e.stats.Passes = append(e.stats.Passes, stat)
	e.stats.RenderTime += stat.RenderTime
	e.logger.Debugf("%s pass: %d rays, %d samples, %d ms", stat.Kind, stat.Rays, stat.Samples, stat.RenderTime.Nanoseconds()/1e6)
}

// Trace one lens sample and accumulate it onto the noisy buffer.
func (e *Engine) renderDepthOfField(cam raygen.Camera) (*raygen.RayPack, []types.Vec3, []float32, bool, error) {
	n := e.DepthOfField.Accumulated()
	rays, err := e.generator.Generate(cam, e.CameraModel, nil)
	if err != nil {
		return nil, nil, nil, false, err
	}
	camToWorld := cam.ViewMatrix().Inv().Mat3()
	rays = e.DepthOfField.Offset(camToWorld, rays)

	res, hybrid, err := e.trace(rays)
	if err != nil {
		return nil, nil, nil, false, err
	}
	pixels := len(e.state.frame.Noisy)
	sampleRGB, sampleOpacity := sumBatch(res, pixels)
	rgb := accumulate(e.state.frame.Noisy, sampleRGB, n, 1, e.Gamma)
	opacity := accumulateOpacity(e.state.frame.Opacity, sampleOpacity, n, 1)
	return rays, rgb, opacity, hybrid, nil
}

// Trace a batch of jittered samples and accumulate their sum onto the noisy
// buffer.
func (e *Engine) renderAntialiasing(cam raygen.Camera) (*raygen.RayPack, []types.Vec3, []float32, bool, error) {
	n := e.Antialiasing.Accumulated()
	batch := e.Antialiasing.BatchSize()
	rays, err := e.generator.GenerateBatch(cam, e.CameraModel, batch, e.Antialiasing)
	if err != nil {
		return nil, nil, nil, false, err
	}

	res, hybrid, err := e.trace(rays)
	if err != nil {
		return nil, nil, nil, false, err
	}
	pixels := len(e.state.frame.Noisy)
	sampleRGB, sampleOpacity := sumBatch(res, pixels)
	rgb := accumulate(e.state.frame.Noisy, sampleRGB, n, rays.Batch(), e.Gamma)
	opacity := accumulateOpacity(e.state.frame.Opacity, sampleOpacity, n, rays.Batch())
	return rays, rgb, opacity, hybrid, nil
}
