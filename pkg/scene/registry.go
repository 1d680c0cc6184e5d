package scene

import (
	"sync"

	"github.com/gazelink-protocol/gazelink-go/pkg/status"
)

// Registry tracks registered gazable objects and cameras. It is safe for
// concurrent use. All mutations succeed or fail locally; the registry
// never talks to the service itself.
type Registry struct {
	mu      sync.RWMutex
	objects map[int64]GazableObject
	cameras map[int64]CameraObject
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		objects: make(map[int64]GazableObject),
		cameras: make(map[int64]CameraObject),
	}
}

// RegisterObject adds a gazable object. It returns
// status.ErrAlreadyRegistered if the id is taken and
// status.ErrInvalidArgument if the id is not positive.
func (r *Registry) RegisterObject(obj GazableObject) error {
	if obj.ID <= ObjectIDInvalid {
		return status.Newf(status.CodeInvalidArgument, "object id %d is not positive", obj.ID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.objects[obj.ID]; ok {
		return status.Newf(status.CodeAlreadyRegistered, "object %d already registered", obj.ID)
	}
	r.objects[obj.ID] = obj
	return nil
}

// UpdateObjectPose replaces the pose of a registered object. It returns
// status.ErrInvalidArgument if the object is unknown.
func (r *Registry) UpdateObjectPose(id int64, pose ObjectPose) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	obj, ok := r.objects[id]
	if !ok {
		return status.Newf(status.CodeInvalidArgument, "object %d not registered", id)
	}
	obj.Pose = pose
	r.objects[id] = obj
	return nil
}

// RemoveObject removes a registered object. It returns
// status.ErrInvalidArgument if the object is unknown.
func (r *Registry) RemoveObject(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.objects[id]; !ok {
		return status.Newf(status.CodeInvalidArgument, "object %d not registered", id)
	}
	delete(r.objects, id)
	return nil
}

// RegisterCamera adds a camera object, with the same id rules as
// RegisterObject.
func (r *Registry) RegisterCamera(cam CameraObject) error {
	if cam.ID <= ObjectIDInvalid {
		return status.Newf(status.CodeInvalidArgument, "camera id %d is not positive", cam.ID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cameras[cam.ID]; ok {
		return status.Newf(status.CodeAlreadyRegistered, "camera %d already registered", cam.ID)
	}
	r.cameras[cam.ID] = cam
	return nil
}

// UpdateCameraPose replaces the pose of a registered camera.
func (r *Registry) UpdateCameraPose(id int64, pose ObjectPose) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cam, ok := r.cameras[id]
	if !ok {
		return status.Newf(status.CodeInvalidArgument, "camera %d not registered", id)
	}
	cam.Pose = pose
	r.cameras[id] = cam
	return nil
}

// RemoveCamera removes a registered camera.
func (r *Registry) RemoveCamera(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cameras[id]; !ok {
		return status.Newf(status.CodeInvalidArgument, "camera %d not registered", id)
	}
	delete(r.cameras, id)
	return nil
}

// Objects returns a snapshot of all registered objects, used to replay
// the registry on connect.
func (r *Registry) Objects() []GazableObject {
	r.mu.RLock()
	defer r.mu.RUnlock()
	objs := make([]GazableObject, 0, len(r.objects))
	for _, obj := range r.objects {
		objs = append(objs, obj)
	}
	return objs
}

// Cameras returns a snapshot of all registered cameras.
func (r *Registry) Cameras() []CameraObject {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cams := make([]CameraObject, 0, len(r.cameras))
	for _, cam := range r.cameras {
		cams = append(cams, cam)
	}
	return cams
}
