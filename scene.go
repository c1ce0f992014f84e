package roomle

import (
	"math"

	"github.com/flywave/go3d/float64/quaternion"
	dvec3 "github.com/flywave/go3d/float64/vec3"
)

// SceneNode 场景树节点, 每个子节点只有一个父节点
type SceneNode struct {
	Name        string
	Mesh        *Mesh
	Material    string
	Translation dvec3.T
	Rotation    quaternion.T
	Scale       dvec3.T
	Selected    bool
	Visible     bool
	Children    []*SceneNode
	parent      *SceneNode
}

func NewSceneNode(name string) *SceneNode {
	return &SceneNode{
		Name:     name,
		Rotation: quaternion.Ident,
		Scale:    dvec3.T{1, 1, 1},
		Visible:  true,
	}
}

func (n *SceneNode) Parent() *SceneNode {
	return n.parent
}

// AddChild moves c under n.
func (n *SceneNode) AddChild(c *SceneNode) *SceneNode {
	if c.parent != nil {
		p := c.parent
		for i, o := range p.Children {
			if o == c {
				p.Children = append(p.Children[:i], p.Children[i+1:]...)
				break
			}
		}
	}
	c.parent = n
	n.Children = append(n.Children, c)
	return c
}

func (n *SceneNode) MeshName() string {
	if n.Mesh == nil {
		return ""
	}
	return n.Mesh.Name
}

// WorldScale multiplies the per axis scales from the root down. Shear from
// rotated non uniform parents is ignored.
func (n *SceneNode) WorldScale() dvec3.T {
	s := n.Scale
	for p := n.parent; p != nil; p = p.parent {
		s = dvec3.T{s[0] * p.Scale[0], s[1] * p.Scale[1], s[2] * p.Scale[2]}
	}
	return s
}

func (n *SceneNode) WorldRotation() quaternion.T {
	q := n.Rotation
	for p := n.parent; p != nil; p = p.parent {
		q = quaternion.Mul(&p.Rotation, &q)
	}
	return q
}

// Scene 待导出的场景
type Scene struct {
	Roots     []*SceneNode
	materials map[string]*ShaderGraph
	order     []string
}

func NewScene() *Scene {
	return &Scene{materials: make(map[string]*ShaderGraph)}
}

func (s *Scene) AddRoot(n *SceneNode) *SceneNode {
	s.Roots = append(s.Roots, n)
	return n
}

func (s *Scene) AddMaterial(g *ShaderGraph) {
	if _, ok := s.materials[g.Name]; !ok {
		s.order = append(s.order, g.Name)
	}
	s.materials[g.Name] = g
}

func (s *Scene) Material(name string) *ShaderGraph {
	return s.materials[name]
}

func (s *Scene) MaterialNames() []string {
	return s.order
}

// Walk visits every node depth first; returning false skips the children.
func (s *Scene) Walk(fn func(n *SceneNode) bool) {
	var visit func(n *SceneNode)
	visit = func(n *SceneNode) {
		if !fn(n) {
			return
		}
		for _, c := range n.Children {
			visit(c)
		}
	}
	for _, r := range s.Roots {
		visit(r)
	}
}

// Find returns the first node called name.
func (s *Scene) Find(name string) *SceneNode {
	var found *SceneNode
	s.Walk(func(n *SceneNode) bool {
		if found == nil && n.Name == name {
			found = n
		}
		return found == nil
	})
	return found
}

// Select marks every node whose name is in names and returns the count.
func (s *Scene) Select(names ...string) int {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	count := 0
	s.Walk(func(n *SceneNode) bool {
		if want[n.Name] {
			n.Selected = true
			count++
		}
		return true
	})
	return count
}

func isIdentityRotation(q quaternion.T) bool {
	return q[0] == 0 && q[1] == 0 && q[2] == 0 && q[3] == 1
}

func isUnitScale(s dvec3.T) bool {
	return s[0] == 1 && s[1] == 1 && s[2] == 1
}

// eulerXYZ returns the XYZ euler angles in radians of a unit quaternion.
func eulerXYZ(q quaternion.T) (x, y, z float64) {
	qx, qy, qz, qw := q[0], q[1], q[2], q[3]
	m00 := 1 - 2*(qy*qy+qz*qz)
	m10 := 2 * (qx*qy + qw*qz)
	m20 := 2 * (qx*qz - qw*qy)
	m21 := 2 * (qy*qz + qw*qx)
	m22 := 1 - 2*(qx*qx+qy*qy)
	m11 := 1 - 2*(qx*qx+qz*qz)
	m12 := 2 * (qy*qz - qw*qx)

	cy := math.Hypot(m00, m10)
	if cy > 1e-6 {
		return math.Atan2(m21, m22), math.Atan2(-m20, cy), math.Atan2(m10, m00)
	}
	return math.Atan2(-m12, m11), math.Atan2(-m20, cy), 0
}
