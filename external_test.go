package roomle

import (
	"os"
	"path/filepath"
	"testing"

	dvec2 "github.com/flywave/go3d/float64/vec2"
	dvec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triangleGeometry() *externalGeometry {
	return &externalGeometry{
		Vertices: []dvec3.T{{0, 0, 0}, {1000, 0, 0}, {0, 1000.25, 0}},
		Normals:  []dvec3.T{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		Indices:  []int{0, 1, 2},
	}
}

// TestWriteOBJ 测试OBJ输出
func TestWriteOBJ(t *testing.T) {
	tests := []struct {
		name    string
		uvs     []dvec2.T
		normals bool
		want    string
	}{
		{
			name: "positions",
			want: "# " + GLTF_GENERATOR + "\n" +
				"v 0 0 0\nv 1000 0 0\nv 0 1000.25 0\n" +
				"f 1 2 3\n",
		},
		{
			name:    "normals",
			normals: true,
			want: "# " + GLTF_GENERATOR + "\n" +
				"v 0 0 0\nv 1000 0 0\nv 0 1000.25 0\n" +
				"vn 0 0 1\nvn 0 0 1\nvn 0 0 1\n" +
				"f 1//1 2//2 3//3\n",
		},
		{
			name:    "uvs and normals",
			uvs:     []dvec2.T{{0, 0}, {1, 0}, {0, 0.5}},
			normals: true,
			want: "# " + GLTF_GENERATOR + "\n" +
				"v 0 0 0\nv 1000 0 0\nv 0 1000.25 0\n" +
				"vt 0 0\nvt 1 0\nvt 0 0.5\n" +
				"vn 0 0 1\nvn 0 0 1\nvn 0 0 1\n" +
				"f 1/1/1 2/2/2 3/3/3\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := triangleGeometry()
			g.UVs = tt.uvs
			path := filepath.Join(t.TempDir(), "mesh.obj")
			require.NoError(t, writeExternalMesh(path, EXTERNAL_FORMAT_OBJ, g, tt.normals))
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}

// TestNewCortoCompressor 测试压缩参数解析
func TestNewCortoCompressor(t *testing.T) {
	c, err := NewCortoCompressor("corto", DEFAULT_CORTO_ARGS)
	require.NoError(t, err)
	assert.Equal(t, []string{"-v", "12", "-n", "9", "-u", "10", "-N", "delta"}, c.Args)

	c, err = NewCortoCompressor("corto", `-o "out dir/x.crt"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"-o", "out dir/x.crt"}, c.Args)

	_, err = NewCortoCompressor("corto", `-o "unterminated`)
	assert.Error(t, err)
}

// TestCortoCompressorFailure 测试外部工具失败
func TestCortoCompressorFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mesh.obj")
	require.NoError(t, os.WriteFile(path, []byte("v 0 0 0\n"), 0o644))

	c := &CortoCompressor{Exe: filepath.Join(t.TempDir(), "no-such-corto")}
	_, err := c.Compress(path)
	assert.ErrorIs(t, err, ErrExternalTool)
	assert.FileExists(t, path)
}

// TestSessionCompressor 测试会话按配置创建压缩器
func TestSessionCompressor(t *testing.T) {
	opts := DefaultOptions()
	assert.Nil(t, NewExportSession(opts).compressor)

	opts.CortoExe = "/usr/local/bin/corto"
	s := NewExportSession(opts)
	c, ok := s.compressor.(*CortoCompressor)
	require.True(t, ok)
	assert.Equal(t, "/usr/local/bin/corto", c.Exe)

	opts.UseCorto = false
	assert.Nil(t, NewExportSession(opts).compressor)

	fake := &fakeCompressor{}
	opts.UseCorto = true
	assert.Same(t, fake, NewExportSession(opts, WithCompressor(fake)).compressor)
}
