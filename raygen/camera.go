package raygen

import (
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

type CameraModel uint8

const (
	Pinhole CameraModel = iota
	Fisheye
)

var cameraModelNames = map[CameraModel]string{
	Pinhole: "Pinhole",
	Fisheye: "Fisheye",
}

func (m CameraModel) String() string {
	if name, ok := cameraModelNames[m]; ok {
		return name
	}
	return "Unknown"
}

// Resolve a camera model by its display name. Matching is case-insensitive.
func ParseCameraModel(name string) (CameraModel, error) {
	for model, modelName := range cameraModelNames {
		if strings.EqualFold(modelName, name) {
			return model, nil
		}
	}
	return Pinhole, ErrUnknownCameraModel
}

// Camera intrinsics. FOV is expressed in degrees.
type Intrinsics struct {
	Width  int
	Height int
	FOV    float32
}

// The camera contract used for ray generation. ViewMatrix returns the
// world-to-camera transform.
type Camera interface {
	Intrinsics() Intrinsics
	ViewMatrix() mgl32.Mat4
}

// Sources of per-pixel sub-pixel offsets (antialiasing controllers).
type JitterSource interface {
	Jitter(height, width int) []mgl32.Vec2
}
