package roomle

import (
	"sort"

	dvec2 "github.com/flywave/go3d/float64/vec2"
	dvec3 "github.com/flywave/go3d/float64/vec3"
)

// Polygon 多边形, 引用 Mesh.Loops 中连续的一段
type Polygon struct {
	LoopStart int
	LoopTotal int
}

// Mesh 源网格, 每个 loop 是多边形的一个角
type Mesh struct {
	Name     string
	Vertices []dvec3.T
	Normals  []dvec3.T
	Loops    []int
	Polygons []Polygon
	UVs      []dvec2.T
}

func NewMesh(name string) *Mesh {
	return &Mesh{Name: name}
}

// AddPolygon appends a polygon over the given vertex indices. Once the mesh
// carries a UV layer the new corners get zero UVs.
func (m *Mesh) AddPolygon(vertices ...int) {
	m.addLoops(vertices)
	if m.UVs != nil {
		m.UVs = append(m.UVs, make([]dvec2.T, len(vertices))...)
	}
}

// AddPolygonUV appends a polygon with one UV per corner. Missing corner UVs
// are zero, extra ones are ignored.
func (m *Mesh) AddPolygonUV(vertices []int, uvs []dvec2.T) {
	if m.UVs == nil {
		m.UVs = make([]dvec2.T, len(m.Loops), len(m.Loops)+len(vertices))
	}
	m.addLoops(vertices)
	corner := make([]dvec2.T, len(vertices))
	copy(corner, uvs)
	m.UVs = append(m.UVs, corner...)
}

func (m *Mesh) addLoops(vertices []int) {
	m.Polygons = append(m.Polygons, Polygon{LoopStart: len(m.Loops), LoopTotal: len(vertices)})
	m.Loops = append(m.Loops, vertices...)
}

func (m *Mesh) HasUVs() bool {
	return len(m.UVs) > 0 && len(m.UVs) == len(m.Loops)
}

func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

func (m *Mesh) polygonLoops(p Polygon) []int {
	ret := make([]int, p.LoopTotal)
	for i := range ret {
		ret[i] = p.LoopStart + i
	}
	return ret
}

// triangulateLoops splits a polygon into loop triples in output winding.
func triangulateLoops(l []int) [][3]int {
	switch {
	case len(l) < 3:
		return nil
	case len(l) == 3:
		return [][3]int{{l[0], l[2], l[1]}}
	case len(l) == 4:
		return [][3]int{{l[0], l[2], l[1]}, {l[2], l[0], l[3]}}
	}
	tris := make([][3]int, 0, len(l)-2)
	for i := 1; i < len(l)-1; i++ {
		tris = append(tris, [3]int{l[0], l[i+1], l[i]})
	}
	return tris
}

// RecomputeNormals averages the unit face normals around each vertex.
func (m *Mesh) RecomputeNormals() {
	m.Normals = m.vertexNormals()
}

func (m *Mesh) vertexNormals() []dvec3.T {
	normals := make([]dvec3.T, len(m.Vertices))
	for _, p := range m.Polygons {
		loops := m.polygonLoops(p)
		for i := 1; i+1 < len(loops); i++ {
			f := [3]int{m.Loops[loops[0]], m.Loops[loops[i]], m.Loops[loops[i+1]]}
			pt1 := m.Vertices[f[0]]
			pt2 := m.Vertices[f[1]]
			pt3 := m.Vertices[f[2]]

			sub1 := dvec3.Sub(&pt3, &pt2)
			sub2 := dvec3.Sub(&pt1, &pt2)

			cro := dvec3.Cross(&sub1, &sub2)
			l := cro.Length()
			if l == 0 {
				continue
			}
			weightedNormal := cro.Scaled(1 / l)

			normals[f[0]].Add(&weightedNormal)
			normals[f[1]].Add(&weightedNormal)
			normals[f[2]].Add(&weightedNormal)
		}
	}

	for i := range normals {
		normals[i].Normalize()
	}
	return normals
}

// MeshBuildResult 三角化并拆分UV后的网格
type MeshBuildResult struct {
	Vertices []dvec3.T
	Normals  []dvec3.T
	UVs      []dvec2.T
	Indices  []int
	SplitUVs bool
}

func (r *MeshBuildResult) TriangleCount() int {
	return len(r.Indices) / 3
}

type vertexVariant struct {
	index int
	loop  int
	uv    dvec2.T
}

// BuildMeshIndices triangulates m, drops loose vertices, inverts the normals
// and splits every vertex whose corners carry different UVs.
func BuildMeshIndices(m *Mesh) *MeshBuildResult {
	normals := m.Normals
	if len(normals) != len(m.Vertices) {
		normals = m.vertexNormals()
	}

	remap := make([]int, len(m.Vertices))
	for i := range remap {
		remap[i] = -1
	}
	var tris [][3]int
	for _, p := range m.Polygons {
		t := triangulateLoops(m.polygonLoops(p))
		if t == nil {
			continue
		}
		tris = append(tris, t...)
		for _, l := range m.polygonLoops(p) {
			remap[m.Loops[l]] = 0
		}
	}

	res := &MeshBuildResult{}
	for i, v := range m.Vertices {
		if remap[i] < 0 {
			continue
		}
		remap[i] = len(res.Vertices)
		res.Vertices = append(res.Vertices, v)
		res.Normals = append(res.Normals, normals[i].Scaled(-1))
	}

	hasUVs := m.HasUVs()
	var variants [][]vertexVariant
	if hasUVs {
		res.UVs = make([]dvec2.T, len(res.Vertices))
		variants = make([][]vertexVariant, len(res.Vertices))
	}

	res.Indices = make([]int, 0, len(tris)*3)
	for _, t := range tris {
		for _, loop := range t {
			orig := remap[m.Loops[loop]]
			if !hasUVs {
				res.Indices = append(res.Indices, orig)
				continue
			}
			uv := m.UVs[loop]
			index := -1
			for _, vv := range variants[orig] {
				if vv.loop == loop || vv.uv == uv {
					index = vv.index
					break
				}
			}
			switch {
			case index >= 0:
			case len(variants[orig]) == 0:
				index = orig
				res.UVs[orig] = uv
				variants[orig] = append(variants[orig], vertexVariant{index: orig, loop: loop, uv: uv})
			default:
				index = len(res.Vertices)
				res.Vertices = append(res.Vertices, res.Vertices[orig])
				res.Normals = append(res.Normals, res.Normals[orig])
				res.UVs = append(res.UVs, uv)
				res.SplitUVs = true
				variants[orig] = append(variants[orig], vertexVariant{index: index, loop: loop, uv: uv})
			}
			res.Indices = append(res.Indices, index)
		}
	}

	for i := 0; i+2 < len(res.Indices); i += 3 {
		res.Indices[i+1], res.Indices[i+2] = res.Indices[i+2], res.Indices[i+1]
	}
	return res
}

// SortedTriangles rotates every triangle to start at its smallest index and
// sorts the triangles, keeping each winding.
func SortedTriangles(indices []int) []int {
	tris := make([][3]int, 0, len(indices)/3)
	for i := 0; i+2 < len(indices); i += 3 {
		t := [3]int{indices[i], indices[i+1], indices[i+2]}
		for t[0] > t[1] || t[0] > t[2] {
			t = [3]int{t[1], t[2], t[0]}
		}
		tris = append(tris, t)
	}
	sort.SliceStable(tris, func(a, b int) bool {
		for k := 0; k < 3; k++ {
			if tris[a][k] != tris[b][k] {
				return tris[a][k] < tris[b][k]
			}
		}
		return false
	})
	ret := make([]int, 0, len(tris)*3)
	for _, t := range tris {
		ret = append(ret, t[0], t[1], t[2])
	}
	return ret
}

// BoundingBox returns the axis aligned box around points.
func BoundingBox(points []dvec3.T) dvec3.Box {
	if len(points) == 0 {
		return dvec3.Box{}
	}
	bbox := dvec3.MinBox
	for _, p := range points {
		bbx := dvec3.Box{Min: p, Max: p}
		bbox.Join(&bbx)
	}
	return bbox
}
