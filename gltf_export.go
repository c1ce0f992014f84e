package roomle

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

const GLTF_VERSION = "2.0"
const GLTF_GENERATOR = "go-roomle " + VERSION
const GLB_PADDING_UNIT = 4

func newGltfDocument() *gltf.Document {
	doc := &gltf.Document{}
	doc.Asset.Version = GLTF_VERSION
	doc.Asset.Generator = GLTF_GENERATOR
	doc.Scene = gltf.Index(0)
	doc.Scenes = append(doc.Scenes, &gltf.Scene{})
	doc.Buffers = append(doc.Buffers, &gltf.Buffer{})
	return doc
}

func calcPadding(offset, paddingUnit int) int {
	padding := offset % paddingUnit
	if padding != 0 {
		padding = paddingUnit - padding
	}
	return padding
}

// encodeGLB encodes doc as binary glTF padded with spaces to paddingUnit.
func encodeGLB(doc *gltf.Document, paddingUnit int) ([]byte, error) {
	var buf bytes.Buffer
	enc := gltf.NewEncoder(&buf)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if padding := calcPadding(buf.Len(), paddingUnit); padding > 0 {
		buf.Write(bytes.Repeat([]byte{0x20}, padding))
	}
	return buf.Bytes(), nil
}

// meshDocument builds a single node document around g.
func meshDocument(name string, g *externalGeometry, normals bool) *gltf.Document {
	doc := newGltfDocument()

	positions := make([][3]float32, len(g.Vertices))
	for i, v := range g.Vertices {
		positions[i] = [3]float32{float32(v[0]), float32(v[1]), float32(v[2])}
	}
	indices := make([]uint32, len(g.Indices))
	for i, idx := range g.Indices {
		indices[i] = uint32(idx)
	}

	prim := &gltf.Primitive{
		Attributes: map[string]uint32{
			gltf.POSITION: modeler.WritePosition(doc, positions),
		},
		Indices: gltf.Index(modeler.WriteIndices(doc, indices)),
	}
	if normals && len(g.Normals) == len(g.Vertices) {
		ns := make([][3]float32, len(g.Normals))
		for i, n := range g.Normals {
			ns[i] = [3]float32{float32(n[0]), float32(n[1]), float32(n[2])}
		}
		prim.Attributes[gltf.NORMAL] = modeler.WriteNormal(doc, ns)
	}
	if len(g.UVs) > 0 && len(g.UVs) == len(g.Vertices) {
		uvs := make([][2]float32, len(g.UVs))
		for i, uv := range g.UVs {
			uvs[i] = [2]float32{float32(uv[0]), float32(1 - uv[1])}
		}
		prim.Attributes[gltf.TEXCOORD_0] = modeler.WriteTextureCoord(doc, uvs)
	}

	doc.Meshes = []*gltf.Mesh{{Name: name, Primitives: []*gltf.Primitive{prim}}}
	doc.Nodes = []*gltf.Node{{Name: name, Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)
	return doc
}

func writeGLB(path string, g *externalGeometry, normals bool) error {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	data, err := encodeGLB(meshDocument(name, g, normals), GLB_PADDING_UNIT)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
