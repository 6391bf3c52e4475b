// Package scene instantiates generated capsules as named scene objects with
// a renderer material and a physics collider.
package scene

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/capsulemaker/internal/logger"
	"github.com/Faultbox/capsulemaker/pkg/capsule"
	"github.com/Faultbox/capsulemaker/pkg/math"
	"github.com/Faultbox/capsulemaker/pkg/mesh"
)

// DefaultMaterial is assigned to every instantiated capsule.
const DefaultMaterial = "Default-Diffuse"

// hullEpsilon welds seam and pole duplicates when collecting hull points.
const hullEpsilon = 1e-5

// ColliderKind selects the collision shape of an object.
type ColliderKind int

// Collider kinds.
const (
	ColliderConvexMesh ColliderKind = iota
	ColliderCapsule
)

// String returns the collider kind name.
func (k ColliderKind) String() string {
	switch k {
	case ColliderConvexMesh:
		return "convex-mesh"
	case ColliderCapsule:
		return "capsule"
	default:
		return fmt.Sprintf("ColliderKind(%d)", int(k))
	}
}

// Collider is the collision shape attached to an object.
//
// A convex mesh collider carries the welded hull points of the render mesh.
// A capsule collider is analytic: Radius plus a total Height that includes
// both caps, along the Y axis through Center.
type Collider struct {
	Kind   ColliderKind
	Points []math.Vec3

	Center math.Vec3
	Radius float32
	Height float32
}

// Policy decides the collider for a mesh.
type Policy struct {
	// Meshes with fewer indices than this get a convex mesh collider,
	// larger ones an analytic capsule. Zero always selects the capsule.
	IndexThreshold int
}

// DefaultPolicy returns the 768 index threshold.
func DefaultPolicy() Policy {
	return Policy{IndexThreshold: 768}
}

// Object is an instantiated capsule.
type Object struct {
	Name     string
	Mesh     *mesh.Buffers
	Material string
	Bounds   mesh.Bounds
	Collider Collider
}

// Instantiate creates an object named name for buf, which was generated
// from p. The object shares buf; it does not copy it.
func Instantiate(name string, buf *mesh.Buffers, p capsule.Params, policy Policy) (*Object, error) {
	if name == "" {
		return nil, fmt.Errorf("instantiate: empty object name")
	}
	if err := buf.Validate(); err != nil {
		return nil, fmt.Errorf("instantiate %s: %w", name, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("instantiate %s: %w", name, err)
	}

	obj := &Object{
		Name:     name,
		Mesh:     buf,
		Material: DefaultMaterial,
		Bounds:   mesh.ComputeBounds(buf),
	}

	if len(buf.Indices) < policy.IndexThreshold {
		obj.Collider = Collider{
			Kind:   ColliderConvexMesh,
			Points: mesh.UniquePositions(buf, hullEpsilon),
		}
	} else {
		obj.Collider = Collider{
			Kind:   ColliderCapsule,
			Center: obj.Bounds.Center(),
			Radius: p.Radius,
			Height: p.Depth + 2*p.Radius,
		}
	}

	logger.Named("scene").Debug("capsule instantiated",
		zap.String("name", name),
		zap.Int("indices", len(buf.Indices)),
		zap.Stringer("collider", obj.Collider.Kind))
	return obj, nil
}

// Scene holds instantiated objects by unique name. It is safe for
// concurrent use.
type Scene struct {
	mu      sync.RWMutex
	objects map[string]*Object
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{objects: make(map[string]*Object)}
}

// Add inserts obj. A name already in use gets a " (n)" suffix, and the
// final name is stored on obj and returned.
func (s *Scene) Add(obj *Object) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := obj.Name
	for n := 1; ; n++ {
		if _, taken := s.objects[name]; !taken {
			break
		}
		name = fmt.Sprintf("%s (%d)", obj.Name, n)
	}
	obj.Name = name
	s.objects[name] = obj
	return name
}

// Get returns the object called name.
func (s *Scene) Get(name string) (*Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[name]
	return obj, ok
}

// Remove deletes the object called name and reports whether it existed.
func (s *Scene) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[name]
	delete(s.objects, name)
	return ok
}

// Objects returns all objects sorted by name.
func (s *Scene) Objects() []*Object {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Object, 0, len(s.objects))
	for _, obj := range s.objects {
		out = append(out, obj)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of objects.
func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
