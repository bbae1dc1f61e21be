package tracer

import (
	"github.com/achilleasa/playground/raygen"
	"github.com/achilleasa/playground/scene"
	"github.com/achilleasa/playground/types"
)

// Bit flags passed to the hybrid tracer.
type RenderOptions uint32

const (
	NoOptions     RenderOptions = 0
	SmoothNormals RenderOptions = 1 << (iota - 1)
	DisableVolumetricTracing
	DisablePBRTextures
)

// The output of a trace call. Slices are laid out like the traced ray pack.
type Result struct {
	RGB     []types.Vec3
	Opacity []float32

	// Direction of each ray after its last surface interaction. Only
	// populated by hybrid traces.
	LastRayDir []types.Vec3
}

// A request for a combined volumetric and surface trace.
type HybridRequest struct {
	Model   VolumetricModel
	Rays    *raygen.RayPack
	Options RenderOptions

	// Merged surface geometry.
	Geometry *scene.Geometry

	// Seed for the tracer's stochastic sampling.
	FrameID int32

	// Materials ordered by id and whether they must be re-uploaded.
	Materials     []*scene.Material
	SyncMaterials bool

	BackgroundColor       types.Vec3
	Envmap                *scene.Texture
	EnableEnvmap          bool
	UseEnvmapAsBackground bool

	MaxPBRBounces int
}

// The VolumetricModel interface is implemented by radiance field models
// that can be traced directly.
type VolumetricModel interface {
	// Trace rays through the model.
	Trace(rays *raygen.RayPack) (*Result, error)

	// Composite the model background onto the supplied color and opacity
	// buffers given the final direction of each ray.
	Background(dirs []types.Vec3, rgb []types.Vec3, opacity []float32) ([]types.Vec3, []float32, error)

	// Get the bounding box of the model's particles.
	Extent() (min, max types.Vec3)

	// Get the flat background color if the model uses one.
	BackgroundColor() (types.Vec3, bool)
}

// The Tracer interface is implemented by accelerator backends.
type Tracer interface {
	// Build the mesh acceleration structure.
	BuildMeshAcc(vertices []types.Vec3, faces [][3]int32, rebuild, allowUpdate bool) error

	// Build the acceleration structure for a volumetric model.
	BuildVolumetricAcc(model VolumetricModel, rebuild bool) error

	// Trace a hybrid scene.
	RenderHybrid(req *HybridRequest) (*Result, error)

	// Denoise a width x height color buffer.
	Denoise(rgb []types.Vec3, width, height int) ([]types.Vec3, error)
}
