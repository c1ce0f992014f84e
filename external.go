package roomle

import (
	"bufio"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	dvec2 "github.com/flywave/go3d/float64/vec2"
	dvec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/mattn/go-shellwords"
	"github.com/pkg/errors"
)

// ExternalMesh 外部网格文件及其包围盒
type ExternalMesh struct {
	ID         string
	File       string
	Compressed bool
	Size       dvec3.T
	Origin     dvec3.T
}

// externalGeometry holds the triangulated mesh in millimeters, Blender axes.
type externalGeometry struct {
	Vertices []dvec3.T
	Normals  []dvec3.T
	UVs      []dvec2.T
	Indices  []int
}

// MeshCompressor turns an intermediate mesh file into its compressed form
// and returns the new path.
type MeshCompressor interface {
	Compress(path string) (string, error)
}

// CortoCompressor runs the corto command line tool.
type CortoCompressor struct {
	Exe  string
	Args []string
}

func NewCortoCompressor(exe string, args string) (*CortoCompressor, error) {
	argv, err := shellwords.Parse(args)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing corto args %q", args)
	}
	return &CortoCompressor{Exe: exe, Args: argv}, nil
}

func (c *CortoCompressor) Compress(path string) (string, error) {
	argv := append(append([]string{}, c.Args...), path)
	cmd := exec.Command(c.Exe, argv...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", errors.Wrapf(ErrExternalTool, "%s %s: %v: %s", c.Exe, path, err, strings.TrimSpace(string(out)))
	}
	crt := strings.TrimSuffix(path, filepath.Ext(path)) + ".crt"
	if err := os.Remove(path); err != nil {
		return "", errors.Wrapf(err, "removing %s", path)
	}
	return crt, nil
}

func writeExternalMesh(path string, format string, g *externalGeometry, normals bool) error {
	switch format {
	case EXTERNAL_FORMAT_GLB:
		return writeGLB(path, g, normals)
	default:
		return writeOBJ(path, g, normals)
	}
}

func writeOBJ(path string, g *externalGeometry, normals bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	w.WriteString("# " + GLTF_GENERATOR + "\n")
	for _, v := range g.Vertices {
		w.WriteString("v " + FloatFormat(v[0], 4) + " " + FloatFormat(v[1], 4) + " " + FloatFormat(v[2], 4) + "\n")
	}
	hasUV := len(g.UVs) == len(g.Vertices) && len(g.UVs) > 0
	if hasUV {
		for _, uv := range g.UVs {
			w.WriteString("vt " + FloatFormat(uv[0], 6) + " " + FloatFormat(uv[1], 6) + "\n")
		}
	}
	if normals {
		for _, n := range g.Normals {
			w.WriteString("vn " + FloatFormat(n[0], 6) + " " + FloatFormat(n[1], 6) + " " + FloatFormat(n[2], 6) + "\n")
		}
	}
	for i := 0; i+2 < len(g.Indices); i += 3 {
		w.WriteString("f")
		for _, idx := range g.Indices[i : i+3] {
			w.WriteString(" " + objCorner(idx+1, hasUV, normals))
		}
		w.WriteString("\n")
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}

func objCorner(i int, uv, normal bool) string {
	s := strconv.Itoa(i)
	switch {
	case uv && normal:
		return s + "/" + s + "/" + s
	case uv:
		return s + "/" + s
	case normal:
		return s + "//" + s
	}
	return s
}
