package roomle

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func principledGraph(name string) (*ShaderGraph, *ShaderNode, *ShaderNode) {
	g := NewShaderGraph(name)
	out := g.AddNode(NODE_OUTPUT_SURFACE, "Material Output")
	bsdf := g.AddNode(NODE_PRINCIPLED_SHADER, "Principled BSDF")
	g.Connect(bsdf, SOCKET_BSDF, out, SOCKET_SURFACE)
	return g, out, bsdf
}

// TestUsedNodesDiamond 测试共享子图只访问一次
func TestUsedNodesDiamond(t *testing.T) {
	g, out, bsdf := principledGraph("diamond")
	tex := g.AddNode(NODE_TEXTURE_IMAGE, "tex")
	tex.Image = &Image{Name: "a", FileFormat: IMAGE_FORMAT_PNG}
	sep := g.AddNode(NODE_SEPARATE_COLOR, "sep")
	require.NoError(t, g.Connect(tex, SOCKET_COLOR, sep, SOCKET_COLOR))
	require.NoError(t, g.Connect(sep, SOCKET_GREEN, bsdf, SOCKET_ROUGHNESS))
	require.NoError(t, g.Connect(sep, SOCKET_BLUE, bsdf, SOCKET_METALLIC))
	require.NoError(t, g.Connect(tex, SOCKET_COLOR, bsdf, SOCKET_BASE_COLOR))
	g.AddNode(NODE_MATH, "unused")

	used, err := UsedNodes(out)
	require.NoError(t, err)
	assert.Equal(t, 4, used.Len())
	assert.True(t, used.Has(tex))
	assert.True(t, used.Has(sep))
	assert.Len(t, used.OfKind(NODE_TEXTURE_IMAGE), 1)
	assert.Equal(t, out, used.Nodes()[0])
}

// TestUsedNodesCycle 测试环检测
func TestUsedNodesCycle(t *testing.T) {
	g, out, bsdf := principledGraph("cycle")
	a := g.AddNode(NODE_MATH, "a")
	b := g.AddNode(NODE_MATH, "b")
	require.NoError(t, g.Connect(a, SOCKET_VALUE, bsdf, SOCKET_ROUGHNESS))
	require.NoError(t, g.Connect(b, SOCKET_VALUE, a, SOCKET_VALUE))
	require.NoError(t, g.Connect(a, SOCKET_VALUE, b, SOCKET_VALUE))

	_, err := UsedNodes(out)
	assert.True(t, errors.Is(err, ErrGraphCycle))
	assert.True(t, IsStructural(err))
}

// TestOutputNode 测试输出节点数量检查
func TestOutputNode(t *testing.T) {
	tests := []struct {
		name    string
		outputs int
		wantErr bool
	}{
		{"none", 0, true},
		{"one", 1, false},
		{"two", 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewShaderGraph(tt.name)
			for i := 0; i < tt.outputs; i++ {
				g.AddNode(NODE_OUTPUT_SURFACE, "out")
			}
			_, err := g.UsedNodes()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrMultipleOrMissingOutput))
				return
			}
			assert.NoError(t, err)
		})
	}
}

// TestSocketOrigin 测试插槽来源解析
func TestSocketOrigin(t *testing.T) {
	g, _, bsdf := principledGraph("origin")
	n, err := bsdf.Input(SOCKET_BASE_COLOR).Origin()
	assert.NoError(t, err)
	assert.Nil(t, n)

	tex := g.AddNode(NODE_TEXTURE_IMAGE, "tex")
	require.NoError(t, g.Connect(tex, SOCKET_COLOR, bsdf, SOCKET_BASE_COLOR))
	n, err = bsdf.Input(SOCKET_BASE_COLOR).Origin()
	assert.NoError(t, err)
	assert.Equal(t, tex, n)

	multi := bsdf.AddInput("Shader")
	multi.MultiInput = true
	require.NoError(t, g.Connect(tex, SOCKET_COLOR, bsdf, "Shader"))
	require.NoError(t, g.Connect(tex, SOCKET_ALPHA, bsdf, "Shader"))
	assert.Len(t, multi.Links, 2)
	_, err = multi.Origin()
	assert.True(t, errors.Is(err, ErrUnsupportedMultiInput))
}

// TestConnectErrors 测试非法连接
func TestConnectErrors(t *testing.T) {
	g, out, bsdf := principledGraph("connect")
	assert.Error(t, g.Connect(bsdf, "Nope", out, SOCKET_SURFACE))
	assert.Error(t, g.Connect(bsdf, SOCKET_BSDF, out, "Nope"))
	assert.Error(t, g.Connect(nil, SOCKET_BSDF, out, SOCKET_SURFACE))
	assert.Equal(t, "PrincipledShader", bsdf.Kind.String())
}
