package cmd

import (
	"fmt"
	"strings"

	"github.com/achilleasa/playground/asset/reader"
	"github.com/achilleasa/playground/effects"
	"github.com/achilleasa/playground/raygen"
	"github.com/achilleasa/playground/renderer"
	"github.com/achilleasa/playground/scene"
	"github.com/achilleasa/playground/tracer/reference"
	"github.com/achilleasa/playground/types"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/urfave/cli"
)

// Flags shared by the render and scene commands.
var SceneFlags = []cli.Flag{
	cli.IntFlag{
		Name:  "particles",
		Value: 20000,
		Usage: "number of particles in the generated point cloud",
	},
	cli.Int64Flag{
		Name:  "seed",
		Value: 1,
		Usage: "random seed for the generated point cloud",
	},
	cli.StringSliceFlag{
		Name:  "primitive, p",
		Value: &cli.StringSlice{},
		Usage: "add a surface primitive to the scene using the kind:type format (e.g. Quad:Mirror)",
	},
	cli.IntFlag{
		Name:  "workers",
		Value: 0,
		Usage: "number of tracer workers; 0 uses all available cpus",
	},
}

// Flags shared by the frame and interactive render commands.
var RenderFlags = append([]cli.Flag{
	cli.IntFlag{
		Name:  "width",
		Value: 512,
		Usage: "frame width",
	},
	cli.IntFlag{
		Name:  "height",
		Value: 512,
		Usage: "frame height",
	},
	cli.Float64Flag{
		Name:  "fov",
		Value: 45,
		Usage: "vertical field of view in degrees",
	},
	cli.StringFlag{
		Name:  "camera-model",
		Value: raygen.Pinhole.String(),
		Usage: "camera projection (Pinhole or Fisheye)",
	},
	cli.Float64Flag{
		Name:  "gamma",
		Value: 1.0,
		Usage: "gamma used when accumulating samples",
	},
	cli.BoolFlag{
		Name:  "no-aa",
		Usage: "disable progressive antialiasing",
	},
	cli.StringFlag{
		Name:  "aa-mode",
		Value: effects.MSAA4.String(),
		Usage: fmt.Sprintf("antialiasing mode; one of %q", effects.SPPModeNames()),
	},
	cli.IntFlag{
		Name:  "aa-batch",
		Value: 1,
		Usage: "number of jittered samples traced per antialiasing pass",
	},
	cli.BoolFlag{
		Name:  "dof",
		Usage: "enable depth of field",
	},
	cli.Float64Flag{
		Name:  "dof-aperture",
		Value: 0.01,
		Usage: "depth of field lens aperture",
	},
	cli.Float64Flag{
		Name:  "dof-focus",
		Value: 1,
		Usage: "depth of field focus distance",
	},
	cli.IntFlag{
		Name:  "dof-samples",
		Value: effects.DefaultDOFSamples,
		Usage: "number of depth of field samples to accumulate",
	},
	cli.IntFlag{
		Name:  "bounces",
		Value: 15,
		Usage: "max number of surface interactions per ray",
	},
	cli.BoolFlag{
		Name:  "no-denoise",
		Usage: "disable the denoiser",
	},
	cli.StringFlag{
		Name:  "eye",
		Value: "0,0,0",
		Usage: "camera position",
	},
	cli.StringFlag{
		Name:  "look",
		Value: "0,0,-1",
		Usage: "camera look-at point",
	},
}, SceneFlags...)

// Populate render options from the command line flags.
func renderOptions(ctx *cli.Context) (renderer.Options, error) {
	var err error
	opts := renderer.DefaultOptions()
	opts.FrameW = ctx.Int("width")
	opts.FrameH = ctx.Int("height")
	opts.FOV = float32(ctx.Float64("fov"))
	opts.Gamma = float32(ctx.Float64("gamma"))
	opts.UseAntialiasing = !ctx.Bool("no-aa")
	opts.AntialiasingBatchSize = ctx.Int("aa-batch")
	opts.UseDepthOfField = ctx.Bool("dof")
	opts.DOFAperture = float32(ctx.Float64("dof-aperture"))
	opts.DOFFocusZ = float32(ctx.Float64("dof-focus"))
	opts.DOFSamples = ctx.Int("dof-samples")
	opts.MaxPBRBounces = ctx.Int("bounces")
	opts.UseDenoiser = !ctx.Bool("no-denoise")

	if opts.FrameW <= 0 || opts.FrameH <= 0 {
		return opts, fmt.Errorf("invalid frame dimensions %dx%d", opts.FrameW, opts.FrameH)
	}
	if opts.CameraModel, err = raygen.ParseCameraModel(ctx.String("camera-model")); err != nil {
		return opts, fmt.Errorf("%w: %q", err, ctx.String("camera-model"))
	}
	if opts.AntialiasingMode, err = effects.ParseSPPMode(ctx.String("aa-mode")); err != nil {
		return opts, fmt.Errorf("%w: %q", err, ctx.String("aa-mode"))
	}
	return opts, nil
}

// Create the geometry catalog. Mesh assets are picked up from the folder
// specified by the global assets flag.
func setupCatalog(ctx *cli.Context) (*scene.Catalog, error) {
	return scene.NewCatalog(ctx.GlobalString("assets"), reader.NewMeshLoader())
}

// Build the volumetric model, the reference tracer and the engine and
// populate the registry with the primitives requested via flags.
func setupEngine(ctx *cli.Context, opts renderer.Options) (*renderer.Engine, error) {
	catalog, err := setupCatalog(ctx)
	if err != nil {
		return nil, err
	}

	model := reference.NewRandomPointCloud(ctx.Int("particles"), types.XYZ(0, 0, -3), 1, ctx.Int64("seed"))
	tr := reference.New(ctx.Int("workers"))

	engine, err := renderer.NewEngine(model, tr, catalog, opts)
	if err != nil {
		return nil, err
	}

	for _, def := range ctx.StringSlice("primitive") {
		kind, primType, err := parsePrimitiveDef(def)
		if err != nil {
			return nil, err
		}
		name, err := engine.Registry().AddPrimitive(kind, primType)
		if err != nil {
			return nil, err
		}
		logger.Infof("added primitive %q (%s)", name, primType)
	}
	return engine, nil
}

// Create the scene camera from the command line flags.
func setupCamera(ctx *cli.Context, opts renderer.Options) (*scene.Camera, error) {
	camera := scene.NewCamera(opts.FrameW, opts.FrameH, opts.FOV)

	eye, err := parseVec3Flag(ctx.String("eye"))
	if err != nil {
		return nil, fmt.Errorf("invalid eye position: %w", err)
	}
	look, err := parseVec3Flag(ctx.String("look"))
	if err != nil {
		return nil, fmt.Errorf("invalid look-at point: %w", err)
	}
	camera.Position = eye
	camera.LookAt = look
	camera.Update()
	return camera, nil
}

// Parse a primitive definition in kind[:type] format. The type defaults to
// a diffuse mesh.
func parsePrimitiveDef(def string) (string, scene.PrimitiveType, error) {
	kind, typeName, hasType := strings.Cut(def, ":")
	if kind == "" {
		return "", scene.NonePrimitive, fmt.Errorf("invalid primitive definition %q; expected kind:type", def)
	}
	if !hasType {
		return kind, scene.DiffuseMeshPrimitive, nil
	}

	primType, err := scene.ParsePrimitiveType(typeName)
	if err != nil {
		return "", scene.NonePrimitive, fmt.Errorf("%w: %q", err, typeName)
	}
	return kind, primType, nil
}

// Parse a comma separated 3 component vector.
func parseVec3Flag(val string) (mgl32.Vec3, error) {
	var v mgl32.Vec3
	tokens := strings.Split(val, ",")
	if len(tokens) != 3 {
		return v, fmt.Errorf("expected 3 comma separated values; got %q", val)
	}
	for i, token := range tokens {
		if _, err := fmt.Sscanf(strings.TrimSpace(token), "%g", &v[i]); err != nil {
			return v, fmt.Errorf("could not parse component %d of %q: %w", i, val, err)
		}
	}
	return v, nil
}
