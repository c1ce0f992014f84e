package roomle

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/flywave/go3d/float64/quaternion"
	dvec2 "github.com/flywave/go3d/float64/vec2"
	dvec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const ROTATION_PRECISION = 2

// GeometryEmitter 将场景树转换为 Roomle 脚本命令
type GeometryEmitter struct {
	s       *ExportSession
	meshDir string

	External  []*ExternalMesh
	Materials []string
	Skipped   []SkippedItem

	seenMaterials map[string]bool
}

// NewGeometryEmitter writes external meshes into meshDir.
func NewGeometryEmitter(s *ExportSession, meshDir string) *GeometryEmitter {
	return &GeometryEmitter{s: s, meshDir: meshDir, seenMaterials: make(map[string]bool)}
}

// Emit returns the script for every root of sc, right trimmed.
func (e *GeometryEmitter) Emit(sc *Scene) (string, error) {
	var sb strings.Builder
	if e.s.opts.Debug {
		sb.WriteString(SCRIPT_HEADER_DEBUG)
	} else {
		sb.WriteString(SCRIPT_HEADER)
	}
	body := ""
	for _, r := range sc.Roots {
		if r != nil {
			body += e.visit(r, nil, nil)
		}
	}
	if body == "" {
		return "", ErrEmptyExport
	}
	sb.WriteString(body)
	return strings.TrimRight(sb.String(), " \t\r\n"), nil
}

func (e *GeometryEmitter) included(n *SceneNode) bool {
	if e.s.opts.UseSelection {
		return n.Selected
	}
	return n.Visible
}

func (e *GeometryEmitter) visit(n *SceneNode, parentScale *dvec3.T, parentRot *quaternion.T) string {
	opts := e.s.opts

	var scale *dvec3.T
	if ws := n.WorldScale(); !isUnitScale(ws) {
		scale = &ws
	}
	var rot *quaternion.T
	if opts.ApplyRotations {
		if wr := n.WorldRotation(); !isIdentityRotation(wr) {
			rot = &wr
		}
	}

	empty := true
	mesh, material := "", ""
	if n.Mesh != nil && e.included(n) {
		extern := opts.MeshExport == MESH_EXPORT_EXTERNAL ||
			(opts.MeshExport == MESH_EXPORT_AUTO && n.Mesh.VertexCount() > opts.ExternalThreshold)
		var err error
		if extern {
			mesh, err = e.externalMeshCommand(n, scale, rot)
		} else {
			mesh = e.meshCommand(n, scale, rot)
		}
		if err != nil {
			e.s.log.Warn("mesh skipped", zap.String("object", n.Name), zap.Error(err))
			e.Skipped = append(e.Skipped, SkippedItem{Name: n.Name, Err: err})
		} else {
			empty = false
			if n.Material != "" {
				material = "SetObjSurface('" + SanitizeName(n.Material) + "');\n"
				if !e.seenMaterials[n.Material] {
					e.seenMaterials[n.Material] = true
					e.Materials = append(e.Materials, n.Material)
				}
			}
		}
	}

	children := ""
	for _, c := range n.Children {
		if c != nil {
			children += e.visit(c, scale, rot)
		}
	}
	hasChildren := children != ""
	empty = empty && !hasChildren

	var sb strings.Builder
	if hasChildren {
		sb.WriteString("BeginObjGroup('" + SanitizeName(n.Name) + "');\n")
	}
	sb.WriteString(mesh)
	sb.WriteString(material)
	if hasChildren {
		sb.WriteString(children)
		sb.WriteString("EndObjGroup();\n")
	}
	if !empty {
		sb.WriteString(e.transformCommands(n, parentScale, parentRot))
	}
	return sb.String()
}

// transformVertex applies scale, then rotation, then the global matrix.
func (e *GeometryEmitter) transformVertex(v dvec3.T, scale *dvec3.T, rot *quaternion.T) dvec3.T {
	v = localTransform(v, scale, rot)
	return e.s.global.MulVec3(&v)
}

func localTransform(v dvec3.T, scale *dvec3.T, rot *quaternion.T) dvec3.T {
	if scale != nil {
		v = dvec3.T{v[0] * scale[0], v[1] * scale[1], v[2] * scale[2]}
	}
	if rot != nil {
		v = rot.RotatedVec3(&v)
	}
	return v
}

func (e *GeometryEmitter) meshCommand(n *SceneNode, scale *dvec3.T, rot *quaternion.T) string {
	opts := e.s.opts
	debug := opts.Debug
	prec := opts.PositionFloatPrecision

	res := BuildMeshIndices(n.Mesh)
	exportNormals := opts.ExportNormals || res.SplitUVs

	var sb strings.Builder
	sb.WriteString("/* Object:" + n.Name + " Mesh:" + n.MeshName() + " */\n")
	sb.WriteString("AddMesh(")

	if debug {
		sb.WriteString("\n// Vertex positions:\n")
	}
	sb.WriteString("Vector3f[")
	for i, v := range res.Vertices {
		if i > 0 {
			sb.WriteString(",")
		}
		if debug {
			sb.WriteString("\n")
		}
		p := e.transformVertex(v, scale, rot)
		sb.WriteString(formatVec3(p[0], p[1], p[2], prec))
	}
	if debug {
		sb.WriteString("\n")
	}
	sb.WriteString("],")

	if debug {
		sb.WriteString("\n// Indices:\n[")
		for i, idx := range SortedTriangles(res.Indices) {
			if i%3 == 0 {
				sb.WriteString("\n")
			}
			if i != 0 {
				sb.WriteString(",")
			}
			sb.WriteString(strconv.Itoa(idx))
		}
		sb.WriteString("\n]")
	} else {
		sb.WriteString("[")
		for i, idx := range res.Indices {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(strconv.Itoa(idx))
		}
		sb.WriteString("]")
	}

	if len(res.UVs) > 0 {
		uvPrec := uvPrecision(res.UVs, opts.UVFloatPrecision)
		if debug {
			sb.WriteString("\n// UVs:\n")
		}
		sb.WriteString(",Vector2f[")
		for i, uv := range res.UVs {
			if i != 0 {
				sb.WriteString(",")
			}
			if debug {
				sb.WriteString("\n")
			}
			sb.WriteString(formatVec2(uv[0], uv[1], uvPrec))
		}
		if debug {
			sb.WriteString("\n]")
		} else {
			sb.WriteString("]")
		}
	}

	if exportNormals {
		if debug {
			sb.WriteString("\n// Normals:\n")
		}
		sb.WriteString(",Vector3f[")
		for i, nv := range res.Normals {
			if i != 0 {
				sb.WriteString(",")
			}
			if debug {
				sb.WriteString("\n")
			}
			sb.WriteString(formatVec3(nv[0], nv[1], nv[2], opts.NormalFloatPrecision))
		}
		if debug {
			sb.WriteString("\n]")
		} else {
			sb.WriteString("]")
		}
	}

	sb.WriteString(");\n")
	return sb.String()
}

// uvPrecision drops one decimal per order of magnitude above 1.
func uvPrecision(uvs []dvec2.T, precision int) int {
	maxValue := 1.0
	for _, uv := range uvs {
		maxValue = math.Max(maxValue, math.Max(math.Abs(uv[0]), math.Abs(uv[1])))
	}
	p := precision - int(math.Floor(math.Log10(maxValue)))
	if p < 0 {
		return 0
	}
	return p
}

func (e *GeometryEmitter) externalMeshCommand(n *SceneNode, scale *dvec3.T, rot *quaternion.T) (string, error) {
	opts := e.s.opts
	name := n.MeshName()
	if scale != nil || rot != nil {
		name = n.Name
	}
	name = SanitizeName(name)

	res := BuildMeshIndices(n.Mesh)
	exportNormals := opts.ExportNormals || res.SplitUVs

	g := &externalGeometry{UVs: res.UVs, Indices: res.Indices}
	local := make([]dvec3.T, len(res.Vertices))
	for i, v := range res.Vertices {
		local[i] = localTransform(v, scale, rot)
		g.Vertices = append(g.Vertices, local[i].Scaled(1000))
	}
	for _, nv := range res.Normals {
		// OBJ and glTF normals follow the source orientation
		src := nv.Scaled(-1)
		if rot != nil {
			src = rot.RotatedVec3(&src)
		}
		g.Normals = append(g.Normals, src)
	}

	if err := os.MkdirAll(e.meshDir, 0o755); err != nil {
		return "", errors.Wrapf(err, "creating %s", e.meshDir)
	}
	ext := "." + opts.ExternalFormat
	path := filepath.Join(e.meshDir, opts.ComponentID+"_"+name+ext)
	if err := writeExternalMesh(path, opts.ExternalFormat, g, exportNormals); err != nil {
		return "", errors.Wrapf(err, "writing external mesh %s", path)
	}

	bbox := BoundingBox(local)
	size := dvec3.Sub(&bbox.Max, &bbox.Min)
	size = size.Scaled(1000)
	center := dvec3.Add(&bbox.Max, &bbox.Min)
	center = center.Scaled(500)
	center[1] = -center[1]
	half := size.Scaled(0.5)
	origin := dvec3.Sub(&center, &half)

	em := &ExternalMesh{
		ID:     opts.CatalogID + ":" + opts.ComponentID + "_" + name,
		File:   filepath.Base(path),
		Size:   size,
		Origin: origin,
	}
	if e.s.compressor != nil {
		out, err := e.s.compressor.Compress(path)
		if err != nil {
			e.s.log.Warn("mesh compression failed, keeping uncompressed file", zap.String("file", path), zap.Error(err))
		} else {
			em.File = filepath.Base(out)
			em.Compressed = true
		}
	}
	e.External = append(e.External, em)

	prec := opts.PositionFloatPrecision
	return "AddExternalMesh('" + em.ID + "',Vector3f" + formatVec3(size[0], size[1], size[2], prec) +
		",Vector3f" + formatVec3(origin[0], origin[1], origin[2], prec) + ");\n", nil
}

func (e *GeometryEmitter) transformCommands(n *SceneNode, parentScale *dvec3.T, parentRot *quaternion.T) string {
	opts := e.s.opts
	var sb strings.Builder

	if !opts.ApplyRotations {
		rx, ry, rz := eulerXYZ(n.Rotation)
		angles := [3]float64{-degrees(rx), degrees(ry), -degrees(rz)}
		axes := [3]string{"1,0,0", "0,1,0", "0,0,1"}
		for i, a := range angles {
			if !IsZero(a, ROTATION_PRECISION) {
				sb.WriteString("RotateMatrixBy(Vector3f{" + axes[i] + "},Vector3f{0,0,0}," + FloatFormat(a, ROTATION_PRECISION) + ");\n")
			}
		}
	}

	pos := n.Translation
	if parentScale != nil {
		pos = dvec3.T{pos[0] * parentScale[0], pos[1] * parentScale[1], pos[2] * parentScale[2]}
	}
	if opts.ApplyRotations && parentRot != nil {
		pos = parentRot.RotatedVec3(&pos)
	}
	rowGlobal := e.s.global
	rowGlobal.Transpose()
	pos = rowGlobal.MulVec3(&pos)

	prec := opts.PositionFloatPrecision
	if !IsZero(pos[0], prec) || !IsZero(pos[1], prec) || !IsZero(pos[2], prec) {
		sb.WriteString("MoveMatrixBy(Vector3f" + formatVec3(pos[0], pos[1], pos[2], prec) + ");\n")
	}
	return sb.String()
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
