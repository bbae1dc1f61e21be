package scene

import (
	"fmt"

	"github.com/achilleasa/playground/raygen"
	"github.com/go-gl/mathgl/mgl32"
)

// The camera type controls the scene camera.
type Camera struct {
	Position mgl32.Vec3
	LookAt   mgl32.Vec3
	Up       mgl32.Vec3
	Pitch    float32
	Yaw      float32

	ViewMat mgl32.Mat4

	// Vertical field of view in degrees.
	FOV float32

	// Frame dimensions.
	Width  int
	Height int
}

// Create a camera at the origin looking down the -Z axis.
func NewCamera(width, height int, fov float32) *Camera {
	c := &Camera{
		Position: mgl32.Vec3{0, 0, 0},
		LookAt:   mgl32.Vec3{0, 0, -1},
		Up:       mgl32.Vec3{0, 1, 0},
		FOV:      fov,
		Width:    width,
		Height:   height,
	}
	c.Update()
	return c
}

// Get the camera intrinsics.
func (c *Camera) Intrinsics() raygen.Intrinsics {
	return raygen.Intrinsics{Width: c.Width, Height: c.Height, FOV: c.FOV}
}

// Get the world-to-camera matrix.
func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return c.ViewMat
}

// Resize the camera frame.
func (c *Camera) SetSize(width, height int) {
	c.Width = width
	c.Height = height
}

// Move the camera (and its look-at point) by the given offset expressed in
// camera space (x: right, y: up, z: backward).
func (c *Camera) Move(offset mgl32.Vec3) {
	dir := c.LookAt.Sub(c.Position).Normalize()
	right := dir.Cross(c.Up).Normalize()
	worldOffset := right.Mul(offset[0]).Add(c.Up.Mul(offset[1])).Add(dir.Mul(-offset[2]))
	c.Position = c.Position.Add(worldOffset)
	c.LookAt = c.LookAt.Add(worldOffset)
	c.Update()
}

// Apply pending pitch/yaw (radians) and refresh the view matrix.
func (c *Camera) Update() {
	dir := c.LookAt.Sub(c.Position).Normalize()
	pitchAxis := dir.Cross(c.Up)
	if pitchAxis.Len() > 1e-6 {
		pitchQuat := mgl32.QuatRotate(c.Pitch, pitchAxis.Normalize())
		yawQuat := mgl32.QuatRotate(c.Yaw, c.Up)
		orientQuat := pitchQuat.Mul(yawQuat).Normalize()
		dir = orientQuat.Rotate(dir)
	}
	c.Pitch, c.Yaw = 0, 0

	c.LookAt = c.Position.Add(dir)
	c.ViewMat = mgl32.LookAtV(c.Position, c.LookAt, c.Up)
}

func (c *Camera) String() string {
	return fmt.Sprintf(
		"Camera: eye (%3.3f, %3.3f, %3.3f), look (%3.3f, %3.3f, %3.3f), fov %3.1f, %dx%d",
		c.Position[0], c.Position[1], c.Position[2],
		c.LookAt[0], c.LookAt[1], c.LookAt[2],
		c.FOV, c.Width, c.Height,
	)
}
