package scene

import (
	"ssao-pipeline/core"
	"ssao-pipeline/math"
)

// Scene manages a scene graph, the active camera, and the light.
type Scene struct {
	Root     *Node
	Camera   *Camera
	Light    *DirectionalLight
	Ambient  core.Color
	SkyColor core.Color
}

func NewScene() *Scene {
	return &Scene{
		Root:     NewNode("Root"),
		Light:    NewDirectionalLight(math.Vec3{X: 0.5, Y: -1, Z: -0.5}),
		Ambient:  core.Color{R: 0.2, G: 0.2, B: 0.2, A: 1.0},
		SkyColor: core.Color{R: 0.5, G: 0.7, B: 1.0, A: 1.0},
	}
}

func (s *Scene) SetCamera(camera *Camera) {
	s.Camera = camera
}

func (s *Scene) AddNode(node *Node) {
	s.Root.AddChild(node)
}

func (s *Scene) RemoveNode(node *Node) {
	s.Root.RemoveChild(node)
}

// Instance is one drawable flattened out of the scene graph: a mesh
// with its resolved world matrix.
type Instance struct {
	Mesh  *Mesh
	World math.Mat4
}

// Instances flattens the graph into the list of visible drawables.
// Invisible nodes hide their whole subtree.
func (s *Scene) Instances() []Instance {
	var out []Instance
	var walk func(n *Node)
	walk = func(n *Node) {
		if !n.Visible {
			return
		}
		if n.Mesh != nil {
			out = append(out, Instance{Mesh: n.Mesh, World: n.GetWorldMatrix()})
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(s.Root)
	return out
}

// Bounds returns the world-space AABB of all visible geometry. The
// second return is false when the scene has no meshes with bounds, in
// which case a unit box around the origin is returned.
func (s *Scene) Bounds() (AABB, bool) {
	var box AABB
	found := false
	for _, inst := range s.Instances() {
		if !inst.Mesh.HasLocalAABB {
			continue
		}
		world := inst.Mesh.LocalAABB.Transformed(inst.World)
		if !found {
			box = world
			found = true
		} else {
			box = box.Union(world)
		}
	}
	if !found {
		return AABB{Min: math.Vec3{X: -1, Y: -1, Z: -1}, Max: math.Vec3One}, false
	}
	return box, true
}
