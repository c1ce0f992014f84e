package roomle

import (
	"github.com/pkg/errors"
)

// Value 插槽默认值, 标量或向量
type Value []float64

func (v Value) At(i int) float64 {
	if i < len(v) {
		return v[i]
	}
	return 0
}

func (v Value) Scalar() float64 {
	return v.At(0)
}

func (v Value) RGB() [3]float64 {
	return [3]float64{v.At(0), v.At(1), v.At(2)}
}

type NodeID int

// Link 连接上游节点的某个输出插槽
type Link struct {
	From       *ShaderNode
	FromSocket string
}

// Socket 节点输入插槽
type Socket struct {
	Identifier string
	Default    Value
	MultiInput bool
	Links      []*Link
	node       *ShaderNode
}

func (s *Socket) Node() *ShaderNode {
	return s.node
}

func (s *Socket) Linked() bool {
	return len(s.Links) > 0
}

// Link returns the first incoming link or nil.
func (s *Socket) Link() *Link {
	if len(s.Links) == 0 {
		return nil
	}
	return s.Links[0]
}

// Origin returns the node driving s, or nil when s is unconnected.
// Multi input sockets fail with ErrUnsupportedMultiInput.
func (s *Socket) Origin() (*ShaderNode, error) {
	if s.MultiInput {
		return nil, errors.Wrapf(ErrUnsupportedMultiInput, "socket %q", s.Identifier)
	}
	if len(s.Links) == 0 {
		return nil, nil
	}
	return s.Links[0].From, nil
}

// ShaderNode 着色节点
type ShaderNode struct {
	ID        NodeID
	Kind      NodeKind
	Name      string
	Inputs    []*Socket
	Outputs   []string
	Image     *Image
	BlendType string
}

func (n *ShaderNode) Input(identifier string) *Socket {
	for _, s := range n.Inputs {
		if s.Identifier == identifier {
			return s
		}
	}
	return nil
}

func (n *ShaderNode) AddInput(identifier string, def ...float64) *Socket {
	s := &Socket{Identifier: identifier, Default: Value(def), node: n}
	n.Inputs = append(n.Inputs, s)
	return s
}

func (n *ShaderNode) hasOutput(identifier string) bool {
	for _, o := range n.Outputs {
		if o == identifier {
			return true
		}
	}
	return false
}

func (n *ShaderNode) upstream() []*ShaderNode {
	var ups []*ShaderNode
	for _, s := range n.Inputs {
		for _, l := range s.Links {
			if l.From != nil {
				ups = append(ups, l.From)
			}
		}
	}
	return ups
}

// ShaderGraph 材质节点图
type ShaderGraph struct {
	Name               string
	UseBackfaceCulling bool
	BlendMethod        string
	nodes              []*ShaderNode
}

func NewShaderGraph(name string) *ShaderGraph {
	return &ShaderGraph{Name: name, BlendMethod: BLEND_METHOD_OPAQUE}
}

func (g *ShaderGraph) Nodes() []*ShaderNode {
	return g.nodes
}

func (g *ShaderGraph) Node(id NodeID) *ShaderNode {
	if int(id) < 0 || int(id) >= len(g.nodes) {
		return nil
	}
	return g.nodes[id]
}

// AddNode appends a node of the given kind with the host's standard sockets.
func (g *ShaderGraph) AddNode(kind NodeKind, name string) *ShaderNode {
	n := &ShaderNode{ID: NodeID(len(g.nodes)), Kind: kind, Name: name}
	switch kind {
	case NODE_OUTPUT_SURFACE:
		n.AddInput(SOCKET_SURFACE)
		n.AddInput("Volume")
		n.AddInput("Displacement", 0, 0, 0)
	case NODE_PRINCIPLED_SHADER:
		n.AddInput(SOCKET_BASE_COLOR, 0.8, 0.8, 0.8, 1)
		n.AddInput(SOCKET_METALLIC, 0)
		n.AddInput(SOCKET_ROUGHNESS, 0.5)
		n.AddInput(SOCKET_IOR, 1.45)
		n.AddInput(SOCKET_TRANSMISSION, 0)
		n.AddInput(SOCKET_EMISSION, 0, 0, 0, 1)
		n.AddInput(SOCKET_EMISSION_STRENGTH, 1)
		n.AddInput(SOCKET_ALPHA, 1)
		n.AddInput(SOCKET_NORMAL, 0, 0, 0)
		n.Outputs = []string{SOCKET_BSDF}
	case NODE_TEXTURE_IMAGE:
		n.AddInput(SOCKET_VECTOR, 0, 0, 0)
		n.Outputs = []string{SOCKET_COLOR, SOCKET_ALPHA}
	case NODE_MIX:
		n.BlendType = "MIX"
		n.AddInput(SOCKET_FACTOR, 0.5)
		n.AddInput(SOCKET_A, 0.5, 0.5, 0.5, 1)
		n.AddInput(SOCKET_B, 0.5, 0.5, 0.5, 1)
		n.Outputs = []string{SOCKET_RESULT}
	case NODE_MIX_RGB:
		n.BlendType = "MIX"
		n.AddInput(SOCKET_FAC, 0.5)
		n.AddInput(SOCKET_COLOR1, 0.5, 0.5, 0.5, 1)
		n.AddInput(SOCKET_COLOR2, 0.5, 0.5, 0.5, 1)
		n.Outputs = []string{SOCKET_COLOR}
	case NODE_NORMAL_MAP:
		n.AddInput(SOCKET_STRENGTH, 1)
		n.AddInput(SOCKET_COLOR, 0.5, 0.5, 1, 1)
		n.Outputs = []string{SOCKET_NORMAL}
	case NODE_SEPARATE_COLOR:
		n.AddInput(SOCKET_COLOR, 0.8, 0.8, 0.8, 1)
		n.Outputs = []string{SOCKET_RED, SOCKET_GREEN, SOCKET_BLUE}
	case NODE_VELVET_SHADER:
		n.AddInput(SOCKET_COLOR, 0.8, 0.8, 0.8, 1)
		n.AddInput(SOCKET_SIGMA, 1)
		n.AddInput(SOCKET_NORMAL, 0, 0, 0)
		n.Outputs = []string{SOCKET_BSDF}
	case NODE_MATH:
		n.AddInput(SOCKET_VALUE, 0.5)
		n.AddInput(SOCKET_VALUE+"_001", 0.5)
		n.Outputs = []string{SOCKET_VALUE}
	case NODE_VERTEX_COLOR:
		n.Outputs = []string{SOCKET_COLOR, SOCKET_ALPHA}
	}
	g.nodes = append(g.nodes, n)
	return n
}

// Connect links an output of from to an input of to. A single input socket
// keeps only the newest link.
func (g *ShaderGraph) Connect(from *ShaderNode, fromSocket string, to *ShaderNode, toSocket string) error {
	if from == nil || to == nil {
		return errors.New("connect: nil node")
	}
	if len(from.Outputs) > 0 && !from.hasOutput(fromSocket) {
		return errors.Errorf("node %q has no output %q", from.Name, fromSocket)
	}
	in := to.Input(toSocket)
	if in == nil {
		return errors.Errorf("node %q has no input %q", to.Name, toSocket)
	}
	l := &Link{From: from, FromSocket: fromSocket}
	if in.MultiInput {
		in.Links = append(in.Links, l)
	} else {
		in.Links = []*Link{l}
	}
	return nil
}

// OutputNode returns the single surface output of g.
func (g *ShaderGraph) OutputNode() (*ShaderNode, error) {
	var out *ShaderNode
	count := 0
	for _, n := range g.nodes {
		if n.Kind == NODE_OUTPUT_SURFACE {
			out = n
			count++
		}
	}
	if count != 1 {
		return nil, errors.Wrapf(ErrMultipleOrMissingOutput, "material %q has %d output nodes", g.Name, count)
	}
	return out, nil
}

// UsedNodes walks backward from the output node of g.
func (g *ShaderGraph) UsedNodes() (*NodeSet, error) {
	out, err := g.OutputNode()
	if err != nil {
		return nil, err
	}
	return UsedNodes(out)
}

// NodeSet 按发现顺序去重的节点集合
type NodeSet struct {
	order []*ShaderNode
	seen  map[NodeID]bool
}

func newNodeSet() *NodeSet {
	return &NodeSet{seen: make(map[NodeID]bool)}
}

func (s *NodeSet) add(n *ShaderNode) {
	if s.seen[n.ID] {
		return
	}
	s.seen[n.ID] = true
	s.order = append(s.order, n)
}

func (s *NodeSet) Has(n *ShaderNode) bool {
	return n != nil && s.seen[n.ID]
}

func (s *NodeSet) Len() int {
	return len(s.order)
}

func (s *NodeSet) Nodes() []*ShaderNode {
	return s.order
}

func (s *NodeSet) OfKind(kind NodeKind) []*ShaderNode {
	var ret []*ShaderNode
	for _, n := range s.order {
		if n.Kind == kind {
			ret = append(ret, n)
		}
	}
	return ret
}

const (
	visitNew uint8 = iota
	visitOpen
	visitDone
)

type walkFrame struct {
	node *ShaderNode
	ups  []*ShaderNode
	next int
}

// UsedNodes returns every node that contributes to output, output included.
// Shared sub-graphs are visited once; a cycle fails with ErrGraphCycle.
func UsedNodes(output *ShaderNode) (*NodeSet, error) {
	if output == nil {
		return nil, errors.Wrap(ErrMultipleOrMissingOutput, "nil output node")
	}
	set := newNodeSet()
	state := map[NodeID]uint8{output.ID: visitOpen}
	set.add(output)
	stack := []walkFrame{{node: output, ups: output.upstream()}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next >= len(top.ups) {
			state[top.node.ID] = visitDone
			stack = stack[:len(stack)-1]
			continue
		}
		up := top.ups[top.next]
		top.next++
		switch state[up.ID] {
		case visitOpen:
			return nil, errors.Wrapf(ErrGraphCycle, "node %q", up.Name)
		case visitDone:
			continue
		}
		state[up.ID] = visitOpen
		set.add(up)
		stack = append(stack, walkFrame{node: up, ups: up.upstream()})
	}
	return set, nil
}
