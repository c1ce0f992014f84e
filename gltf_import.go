package roomle

import (
	"math"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"github.com/flywave/go3d/float64/quaternion"
	dvec2 "github.com/flywave/go3d/float64/vec2"
	dvec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"
)

// GltfImporter 将 glTF 文档转换为场景
type GltfImporter struct {
	doc       *gltf.Document
	dir       string
	log       *zap.Logger
	images    map[uint32]*Image
	materials map[uint32]*ShaderGraph
	scene     *Scene
}

// ImportGLTF opens a .gltf or .glb file and converts it into a Z-up scene.
func ImportGLTF(path string, log *zap.Logger) (*Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	return NewGltfImporter(doc, filepath.Dir(path), log).Import()
}

// NewGltfImporter resolves relative image URIs against dir.
func NewGltfImporter(doc *gltf.Document, dir string, log *zap.Logger) *GltfImporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &GltfImporter{
		doc:       doc,
		dir:       dir,
		log:       log,
		images:    make(map[uint32]*Image),
		materials: make(map[uint32]*ShaderGraph),
		scene:     NewScene(),
	}
}

func (g *GltfImporter) Import() (*Scene, error) {
	var roots []uint32
	switch {
	case g.doc.Scene != nil && int(*g.doc.Scene) < len(g.doc.Scenes):
		roots = g.doc.Scenes[*g.doc.Scene].Nodes
	case len(g.doc.Scenes) > 0:
		roots = g.doc.Scenes[0].Nodes
	default:
		for i := range g.doc.Nodes {
			roots = append(roots, uint32(i))
		}
	}
	for _, idx := range roots {
		n, err := g.node(idx, 0)
		if err != nil {
			return nil, err
		}
		g.scene.AddRoot(n)
	}
	return g.scene, nil
}

func (g *GltfImporter) node(idx uint32, depth int) (*SceneNode, error) {
	if int(idx) >= len(g.doc.Nodes) {
		return nil, errors.Errorf("node %d out of range", idx)
	}
	if depth > len(g.doc.Nodes) {
		return nil, errors.Errorf("node %d: cyclic hierarchy", idx)
	}
	nd := g.doc.Nodes[idx]
	name := nd.Name
	if name == "" {
		name = "node_" + strconv.Itoa(int(idx))
	}
	sn := NewSceneNode(name)
	g.transform(nd, sn)

	if nd.Mesh != nil {
		if err := g.mesh(*nd.Mesh, sn); err != nil {
			return nil, err
		}
	}
	for _, c := range nd.Children {
		child, err := g.node(c, depth+1)
		if err != nil {
			return nil, err
		}
		sn.AddChild(child)
	}
	return sn, nil
}

func yUpToZUp(x, y, z float64) dvec3.T {
	return dvec3.T{x, -z, y}
}

func (g *GltfImporter) transform(nd *gltf.Node, sn *SceneNode) {
	t := nd.TranslationOrDefault()
	r := nd.RotationOrDefault()
	s := nd.ScaleOrDefault()
	tr := dvec3.T{float64(t[0]), float64(t[1]), float64(t[2])}
	rot := quaternion.T{float64(r[0]), float64(r[1]), float64(r[2]), float64(r[3])}
	sc := dvec3.T{float64(s[0]), float64(s[1]), float64(s[2])}

	if rot == (quaternion.T{}) {
		rot = quaternion.Ident
	}

	m := nd.MatrixOrDefault()
	var mat [16]float64
	identity, zero := true, true
	for i := range m {
		mat[i] = float64(m[i])
		want := 0.0
		if i%5 == 0 {
			want = 1
		}
		if mat[i] != want {
			identity = false
		}
		if mat[i] != 0 {
			zero = false
		}
	}
	if !identity && !zero {
		tr, rot, sc = decomposeMatrix(mat)
	}

	sn.Translation = yUpToZUp(tr[0], tr[1], tr[2])
	sn.Rotation = quaternion.T{rot[0], -rot[2], rot[1], rot[3]}
	sn.Scale = dvec3.T{sc[0], sc[2], sc[1]}
}

// decomposeMatrix splits a column major TRS matrix.
func decomposeMatrix(m [16]float64) (dvec3.T, quaternion.T, dvec3.T) {
	tr := dvec3.T{m[12], m[13], m[14]}
	cols := [3]dvec3.T{{m[0], m[1], m[2]}, {m[4], m[5], m[6]}, {m[8], m[9], m[10]}}
	sc := dvec3.T{cols[0].Length(), cols[1].Length(), cols[2].Length()}
	for i := range cols {
		if sc[i] != 0 {
			cols[i] = cols[i].Scaled(1 / sc[i])
		}
	}
	c := dvec3.Cross(&cols[1], &cols[2])
	if dvec3.Dot(&cols[0], &c) < 0 {
		sc[0] = -sc[0]
		cols[0] = cols[0].Scaled(-1)
	}

	r00, r01, r02 := cols[0][0], cols[1][0], cols[2][0]
	r10, r11, r12 := cols[0][1], cols[1][1], cols[2][1]
	r20, r21, r22 := cols[0][2], cols[1][2], cols[2][2]
	var q quaternion.T
	trace := r00 + r11 + r22
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		q = quaternion.T{(r21 - r12) * s, (r02 - r20) * s, (r10 - r01) * s, 0.25 / s}
	case r00 > r11 && r00 > r22:
		s := 2 * math.Sqrt(1+r00-r11-r22)
		q = quaternion.T{0.25 * s, (r01 + r10) / s, (r02 + r20) / s, (r21 - r12) / s}
	case r11 > r22:
		s := 2 * math.Sqrt(1+r11-r00-r22)
		q = quaternion.T{(r01 + r10) / s, 0.25 * s, (r12 + r21) / s, (r02 - r20) / s}
	default:
		s := 2 * math.Sqrt(1+r22-r00-r11)
		q = quaternion.T{(r02 + r20) / s, (r12 + r21) / s, 0.25 * s, (r10 - r01) / s}
	}
	q.Normalize()
	return tr, q, sc
}

func (g *GltfImporter) mesh(idx uint32, sn *SceneNode) error {
	if int(idx) >= len(g.doc.Meshes) {
		return errors.Errorf("mesh %d out of range", idx)
	}
	gm := g.doc.Meshes[idx]
	name := gm.Name
	if name == "" {
		name = "mesh_" + strconv.Itoa(int(idx))
	}

	var prims []*gltf.Primitive
	for _, p := range gm.Primitives {
		if p.Mode != gltf.PrimitiveTriangles {
			g.log.Warn("primitive skipped", zap.String("object", sn.Name), zap.String("reason", "not triangles"))
			continue
		}
		prims = append(prims, p)
	}

	if len(prims) == 1 {
		m, mat, err := g.primitive(name, prims[0])
		if err != nil {
			return errors.Wrapf(err, "mesh %q", name)
		}
		sn.Mesh, sn.Material = m, mat
		return nil
	}
	for i, p := range prims {
		suffix := "_" + strconv.Itoa(i)
		m, mat, err := g.primitive(name+suffix, p)
		if err != nil {
			return errors.Wrapf(err, "mesh %q primitive %d", name, i)
		}
		child := NewSceneNode(sn.Name + suffix)
		child.Mesh, child.Material = m, mat
		sn.AddChild(child)
	}
	return nil
}

func (g *GltfImporter) primitive(name string, p *gltf.Primitive) (*Mesh, string, error) {
	posIdx, ok := p.Attributes[gltf.POSITION]
	if !ok {
		return nil, "", errors.New("primitive without POSITION")
	}
	pos, err := modeler.ReadPosition(g.doc, g.doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, "", err
	}

	m := NewMesh(name)
	for _, v := range pos {
		m.Vertices = append(m.Vertices, yUpToZUp(float64(v[0]), float64(v[1]), float64(v[2])))
	}

	if idx, ok := p.Attributes[gltf.NORMAL]; ok {
		ns, err := modeler.ReadNormal(g.doc, g.doc.Accessors[idx], nil)
		if err != nil {
			return nil, "", err
		}
		if len(ns) == len(m.Vertices) {
			for _, n := range ns {
				m.Normals = append(m.Normals, yUpToZUp(float64(n[0]), float64(n[1]), float64(n[2])))
			}
		}
	}

	var uvs [][2]float32
	if idx, ok := p.Attributes[gltf.TEXCOORD_0]; ok {
		uvs, err = modeler.ReadTextureCoord(g.doc, g.doc.Accessors[idx], nil)
		if err != nil {
			return nil, "", err
		}
		if len(uvs) != len(pos) {
			uvs = nil
		}
	}

	var indices []uint32
	if p.Indices != nil {
		indices, err = modeler.ReadIndices(g.doc, g.doc.Accessors[*p.Indices], nil)
		if err != nil {
			return nil, "", err
		}
	} else {
		indices = make([]uint32, len(pos))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	for i := 0; i+2 < len(indices); i += 3 {
		tri := []int{int(indices[i]), int(indices[i+1]), int(indices[i+2])}
		if tri[0] >= len(pos) || tri[1] >= len(pos) || tri[2] >= len(pos) {
			return nil, "", errors.Errorf("index out of range in %q", name)
		}
		if uvs == nil {
			m.AddPolygon(tri...)
			continue
		}
		corner := make([]dvec2.T, 3)
		for k, v := range tri {
			corner[k] = dvec2.T{float64(uvs[v][0]), 1 - float64(uvs[v][1])}
		}
		m.AddPolygonUV(tri, corner)
	}

	material := ""
	if p.Material != nil {
		sg, err := g.material(*p.Material)
		if err != nil {
			return nil, "", err
		}
		material = sg.Name
	}
	return m, material, nil
}

func (g *GltfImporter) material(idx uint32) (*ShaderGraph, error) {
	if sg, ok := g.materials[idx]; ok {
		return sg, nil
	}
	if int(idx) >= len(g.doc.Materials) {
		return nil, errors.Errorf("material %d out of range", idx)
	}
	mt := g.doc.Materials[idx]
	name := mt.Name
	if name == "" {
		name = "material_" + strconv.Itoa(int(idx))
	}
	if g.scene.Material(name) != nil {
		name += "_" + strconv.Itoa(int(idx))
	}

	sg := NewShaderGraph(name)
	sg.UseBackfaceCulling = !mt.DoubleSided
	switch mt.AlphaMode {
	case gltf.AlphaBlend:
		sg.BlendMethod = BLEND_METHOD_BLEND
	case gltf.AlphaMask:
		sg.BlendMethod = BLEND_METHOD_CLIP
	default:
		sg.BlendMethod = BLEND_METHOD_OPAQUE
	}

	out := sg.AddNode(NODE_OUTPUT_SURFACE, "Material Output")
	bsdf := sg.AddNode(NODE_PRINCIPLED_SHADER, "Principled BSDF")
	if err := sg.Connect(bsdf, SOCKET_BSDF, out, SOCKET_SURFACE); err != nil {
		return nil, err
	}

	if pbr := mt.PBRMetallicRoughness; pbr != nil {
		bc := pbr.BaseColorFactorOrDefault()
		bsdf.Input(SOCKET_BASE_COLOR).Default = Value{float64(bc[0]), float64(bc[1]), float64(bc[2]), float64(bc[3])}
		bsdf.Input(SOCKET_ALPHA).Default = Value{float64(bc[3])}
		bsdf.Input(SOCKET_METALLIC).Default = Value{float64(pbr.MetallicFactorOrDefault())}
		bsdf.Input(SOCKET_ROUGHNESS).Default = Value{float64(pbr.RoughnessFactorOrDefault())}

		if pbr.BaseColorTexture != nil {
			tex, err := g.textureNode(sg, pbr.BaseColorTexture.Index, "Base Color Texture")
			if err != nil {
				return nil, err
			}
			if tex != nil {
				if err := sg.Connect(tex, SOCKET_COLOR, bsdf, SOCKET_BASE_COLOR); err != nil {
					return nil, err
				}
				if mt.AlphaMode == gltf.AlphaBlend || mt.AlphaMode == gltf.AlphaMask {
					if err := sg.Connect(tex, SOCKET_ALPHA, bsdf, SOCKET_ALPHA); err != nil {
						return nil, err
					}
				}
			}
		}
		if pbr.MetallicRoughnessTexture != nil {
			tex, err := g.textureNode(sg, pbr.MetallicRoughnessTexture.Index, "Metallic Roughness Texture")
			if err != nil {
				return nil, err
			}
			if tex != nil {
				sep := sg.AddNode(NODE_SEPARATE_COLOR, "Separate Color")
				if err := sg.Connect(tex, SOCKET_COLOR, sep, SOCKET_COLOR); err != nil {
					return nil, err
				}
				if err := sg.Connect(sep, SOCKET_GREEN, bsdf, SOCKET_ROUGHNESS); err != nil {
					return nil, err
				}
				if err := sg.Connect(sep, SOCKET_BLUE, bsdf, SOCKET_METALLIC); err != nil {
					return nil, err
				}
			}
		}
	}

	if mt.NormalTexture != nil && mt.NormalTexture.Index != nil {
		tex, err := g.textureNode(sg, *mt.NormalTexture.Index, "Normal Texture")
		if err != nil {
			return nil, err
		}
		if tex != nil {
			nm := sg.AddNode(NODE_NORMAL_MAP, "Normal Map")
			if err := sg.Connect(tex, SOCKET_COLOR, nm, SOCKET_COLOR); err != nil {
				return nil, err
			}
			if err := sg.Connect(nm, SOCKET_NORMAL, bsdf, SOCKET_NORMAL); err != nil {
				return nil, err
			}
		}
	}
	if mt.OcclusionTexture != nil {
		g.log.Debug("occlusion texture ignored", zap.String("material", name))
	}

	ef := mt.EmissiveFactor
	emissive := ef[0] != 0 || ef[1] != 0 || ef[2] != 0
	bsdf.Input(SOCKET_EMISSION).Default = Value{float64(ef[0]), float64(ef[1]), float64(ef[2]), 1}
	if mt.EmissiveTexture != nil {
		tex, err := g.textureNode(sg, mt.EmissiveTexture.Index, "Emissive Texture")
		if err != nil {
			return nil, err
		}
		if tex != nil {
			if err := sg.Connect(tex, SOCKET_COLOR, bsdf, SOCKET_EMISSION); err != nil {
				return nil, err
			}
			emissive = true
		}
	}
	if emissive {
		bsdf.Input(SOCKET_EMISSION_STRENGTH).Default = Value{1}
	} else {
		bsdf.Input(SOCKET_EMISSION_STRENGTH).Default = Value{0}
	}

	g.materials[idx] = sg
	g.scene.AddMaterial(sg)
	return sg, nil
}

// textureNode adds an image texture node; a texture without a source image
// yields nil.
func (g *GltfImporter) textureNode(sg *ShaderGraph, texIdx uint32, label string) (*ShaderNode, error) {
	if int(texIdx) >= len(g.doc.Textures) {
		return nil, errors.Errorf("texture %d out of range", texIdx)
	}
	tx := g.doc.Textures[texIdx]
	if tx.Source == nil {
		g.log.Warn("texture without source", zap.String("material", sg.Name), zap.String("node", label))
		return nil, nil
	}
	img, err := g.image(*tx.Source)
	if err != nil {
		return nil, err
	}
	n := sg.AddNode(NODE_TEXTURE_IMAGE, label)
	n.Image = img
	return n, nil
}

func (g *GltfImporter) image(idx uint32) (*Image, error) {
	if img, ok := g.images[idx]; ok {
		return img, nil
	}
	if int(idx) >= len(g.doc.Images) {
		return nil, errors.Errorf("image %d out of range", idx)
	}
	gi := g.doc.Images[idx]

	var data []byte
	var err error
	switch {
	case gi.BufferView != nil:
		data, err = modeler.ReadBufferView(g.doc, g.doc.BufferViews[*gi.BufferView])
	case gi.IsEmbeddedResource():
		data, err = gi.MarshalData()
	case gi.URI != "":
		var p string
		p, err = url.PathUnescape(gi.URI)
		if err == nil {
			data, err = os.ReadFile(filepath.Join(g.dir, filepath.FromSlash(p)))
		}
	default:
		err = errors.New("image without data")
	}
	if err != nil {
		return nil, errors.Wrapf(err, "image %d", idx)
	}

	name := gi.Name
	if name == "" && gi.URI != "" && !gi.IsEmbeddedResource() {
		if p, err := url.PathUnescape(gi.URI); err == nil {
			name = path.Base(p)
		}
	}
	if name == "" {
		name = "image_" + strconv.Itoa(int(idx))
	}

	format := FormatFromMime(gi.MimeType)
	if format == "" {
		if format, err = SniffImageFormat(data); err != nil {
			g.log.Warn("image format unknown", zap.String("file", name), zap.Error(err))
			format = "UNKNOWN"
		}
	}

	img := &Image{Name: name, FileFormat: format, Data: data}
	g.images[idx] = img
	return img, nil
}
