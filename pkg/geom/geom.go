// Package geom holds the small geometry vocabulary shared by the headset
// and compositor clients: vectors, quaternions, poses, rays, and the
// per-eye projection types.
package geom

import "math"

// Eye selects one of the user's eyes.
type Eye uint8

const (
	// EyeLeft is the left eye.
	EyeLeft Eye = 0
	// EyeRight is the right eye.
	EyeRight Eye = 1
)

// String returns the eye name.
func (e Eye) String() string {
	switch e {
	case EyeLeft:
		return "Left"
	case EyeRight:
		return "Right"
	default:
		return "Unknown"
	}
}

// Valid reports whether e names an actual eye.
func (e Eye) Valid() bool {
	return e == EyeLeft || e == EyeRight
}

// Vec2 is a 2D vector.
type Vec2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Vec3 is a 3D vector.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Norm returns the Euclidean length of v.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalized returns v scaled to unit length. The zero vector is returned
// unchanged.
func (v Vec3) Normalized() Vec3 {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return v.Scale(1 / n)
}

// Quat is a rotation quaternion.
type Quat struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
	W float64 `json:"w" yaml:"w"`
}

// IdentityQuat returns the identity rotation.
func IdentityQuat() Quat {
	return Quat{W: 1}
}

// Ray is a half-line from an origin along a direction.
type Ray struct {
	Origin    Vec3 `json:"origin" yaml:"origin"`
	Direction Vec3 `json:"direction" yaml:"direction"`
}

// Pose is the tracked state of the headset: rotation, translation, and
// their derivatives. Positions are in meters, relative to the tracking
// origin; StandingPosition uses the user-configured floor level instead.
type Pose struct {
	Orientation      Quat
	AngularVelocity  Vec3
	Position         Vec3
	StandingPosition Vec3
	Velocity         Vec3
	Acceleration     Vec3
}

// Matrix44 is a 4x4 matrix, row major.
type Matrix44 [4][4]float64

// IdentityMatrix44 returns the identity matrix.
func IdentityMatrix44() Matrix44 {
	var m Matrix44
	for i := 0; i < 4; i++ {
		m[i][i] = 1
	}
	return m
}

// ProjectionParams describes the view frustum of one eye at unit distance.
// Multiply by the near plane distance to obtain the near-plane frustum.
type ProjectionParams struct {
	Left   float64
	Right  float64
	Top    float64
	Bottom float64
}

// StereoMatrices carries one matrix per eye.
type StereoMatrices struct {
	Left  Matrix44
	Right Matrix44
}

// StereoProjectionParams carries one set of frustum parameters per eye.
type StereoProjectionParams struct {
	Left  ProjectionParams
	Right ProjectionParams
}
