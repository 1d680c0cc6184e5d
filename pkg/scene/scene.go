// Package scene holds the client side registry of gazable objects and
// scene cameras used for gazed object detection. Registrations are
// accepted independently of the service connection; the full registry is
// replayed to the service once a connection exists.
package scene

import "github.com/gazelink-protocol/gazelink-go/pkg/geom"

// ObjectIDInvalid marks the absence of a gazed object.
const ObjectIDInvalid int64 = 0

// ObjectPose is the pose of a scene object or camera.
type ObjectPose struct {
	Scale    geom.Vec3
	Rotation geom.Quat
	// Position is the position relative to the parent camera, or the
	// world origin if the object has no camera group.
	Position geom.Vec3
	Velocity geom.Vec3
}

// DefaultObjectPose returns a unit scale, identity rotation pose at the
// origin.
func DefaultObjectPose() ObjectPose {
	return ObjectPose{
		Scale:    geom.Vec3{X: 1, Y: 1, Z: 1},
		Rotation: geom.IdentityQuat(),
	}
}

// ColliderShape discriminates the collider variants.
type ColliderShape uint8

const (
	ShapeSphere ColliderShape = iota
	ShapeCube
	ShapeMesh
)

// Collider is the shape used for gaze ray intersection. Exactly one of
// the shape fields is meaningful, selected by Shape.
type Collider struct {
	Shape ColliderShape
	// Center offsets the collider from the object pose.
	Center geom.Vec3
	// Radius is the sphere radius, for ShapeSphere.
	Radius float64
	// Size is the cube edge lengths, for ShapeCube.
	Size geom.Vec3
	// Vertices and Triangles describe the mesh, for ShapeMesh. Triangles
	// indexes into Vertices, three indices per face.
	Vertices  []geom.Vec3
	Triangles []uint32
}

// SphereCollider returns a sphere collider centered on the object pose.
func SphereCollider(radius float64) Collider {
	return Collider{Shape: ShapeSphere, Radius: radius}
}

// CubeCollider returns an axis aligned cube collider centered on the
// object pose.
func CubeCollider(size geom.Vec3) Collider {
	return Collider{Shape: ShapeCube, Size: size}
}

// Group identifies one of the 32 object groups. Cameras select the
// groups they can see with a GroupMask.
type Group uint8

// GroupMask is a bitset of object groups.
type GroupMask uint32

// Mask returns the single-group mask for g.
func (g Group) Mask() GroupMask {
	return 1 << uint32(g)
}

// Contains reports whether the mask includes group g.
func (m GroupMask) Contains(g Group) bool {
	return m&g.Mask() != 0
}

// AllGroups matches every object group.
const AllGroups GroupMask = 0xffffffff

// GazableObject is a scene object that can be reported as gazed at.
type GazableObject struct {
	// ID identifies the object. It must be positive and unique within
	// the registry. ObjectIDInvalid is reserved.
	ID       int64
	Group    Group
	Pose     ObjectPose
	Collider Collider
}

// CameraObject places a view into the scene. Objects whose group is in
// GroupMask are positioned relative to this camera.
type CameraObject struct {
	// ID must be positive and unique among cameras.
	ID        int64
	GroupMask GroupMask
	Pose      ObjectPose
}
