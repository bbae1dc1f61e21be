package scene

import "github.com/go-gl/mathgl/mgl32"

// An affine object transform composed as M = T * R * S.
type Transform struct {
	Translation  mgl32.Vec3
	Rotation     mgl32.Quat
	ScaleFactors mgl32.Vec3
}

// Create an identity transform.
func NewTransform() *Transform {
	return &Transform{
		Rotation:     mgl32.QuatIdent(),
		ScaleFactors: mgl32.Vec3{1, 1, 1},
	}
}

// Offset the translation component.
func (t *Transform) Translate(v mgl32.Vec3) {
	t.Translation = t.Translation.Add(v)
}

// Apply a rotation on top of the current one.
func (t *Transform) Rotate(q mgl32.Quat) {
	t.Rotation = q.Mul(t.Rotation).Normalize()
}

// Multiply the current scale uniformly.
func (t *Transform) Scale(s float32) {
	t.ScaleFactors = t.ScaleFactors.Mul(s)
}

// Multiply the current scale per axis.
func (t *Transform) ScaleBy(s mgl32.Vec3) {
	t.ScaleFactors = mgl32.Vec3{t.ScaleFactors[0] * s[0], t.ScaleFactors[1] * s[1], t.ScaleFactors[2] * s[2]}
}

// Get the model matrix.
func (t *Transform) ModelMatrix() mgl32.Mat4 {
	translate := mgl32.Translate3D(t.Translation[0], t.Translation[1], t.Translation[2])
	scale := mgl32.Scale3D(t.ScaleFactors[0], t.ScaleFactors[1], t.ScaleFactors[2])
	return translate.Mul4(t.Rotation.Mat4()).Mul4(scale)
}

// Get the rotation component as a 3x3 matrix. It is used for transforming
// normals and tangents.
func (t *Transform) RotationMatrix() mgl32.Mat3 {
	return t.Rotation.Mat4().Mat3()
}

// Clone the transform.
func (t *Transform) Clone() *Transform {
	clone := *t
	return &clone
}
