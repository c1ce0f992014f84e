package roomle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func resolveGraph(t *testing.T, g *ShaderGraph) *resolvedChannels {
	t.Helper()
	used, err := g.UsedNodes()
	require.NoError(t, err)
	ch, err := resolveChannels(g, used, zap.NewNop())
	require.NoError(t, err)
	return ch
}

func textureNode(g *ShaderGraph, name string) *ShaderNode {
	n := g.AddNode(NODE_TEXTURE_IMAGE, name)
	n.Image = &Image{Name: name, FileFormat: IMAGE_FORMAT_PNG}
	return n
}

// TestDiffuseUnconnected 测试未连接的漫反射
func TestDiffuseUnconnected(t *testing.T) {
	g, _, _ := principledGraph("plain")
	ch := resolveGraph(t, g)

	assert.Equal(t, CHANNEL_CONSTANT, ch.Diffuse.Kind)
	assert.Nil(t, ch.Diffuse.Image)
	assert.Equal(t, Value{231.0 / 255, 231.0 / 255, 231.0 / 255}, ch.Diffuse.Value)
	assert.Equal(t, 0.5, ch.Roughness.Value.Scalar())
	assert.Equal(t, 0.0, ch.Metallic.Value.Scalar())
	assert.Equal(t, 1.45, ch.IOR.Value.Scalar())
	assert.Equal(t, 1.0, ch.Alpha.Value.Scalar())
	assert.Equal(t, CHANNEL_UNRESOLVED, ch.Normal.Kind)
	assert.Nil(t, ch.Sheen)
	assert.Empty(t, ch.Warnings)
}

// TestDiffuseRules 测试漫反射规则
func TestDiffuseRules(t *testing.T) {
	tests := []struct {
		name  string
		build func(g *ShaderGraph, bsdf *ShaderNode) *ShaderNode
		kind  ChannelKind
		rule  string
		value Value
	}{
		{
			name: "direct texture",
			build: func(g *ShaderGraph, bsdf *ShaderNode) *ShaderNode {
				tex := textureNode(g, "wood")
				g.Connect(tex, SOCKET_COLOR, bsdf, SOCKET_BASE_COLOR)
				return tex
			},
			kind: CHANNEL_TEXTURED, rule: "directly_attached_image", value: Value{1, 1, 1},
		},
		{
			name: "mix selects texture",
			build: func(g *ShaderGraph, bsdf *ShaderNode) *ShaderNode {
				tex := textureNode(g, "wood")
				mix := g.AddNode(NODE_MIX, "mix")
				mix.Input(SOCKET_FACTOR).Default = Value{1}
				mix.Input(SOCKET_A).Default = Value{0, 0, 0, 1}
				g.Connect(tex, SOCKET_COLOR, mix, SOCKET_B)
				g.Connect(mix, SOCKET_RESULT, bsdf, SOCKET_BASE_COLOR)
				return tex
			},
			kind: CHANNEL_TEXTURED, rule: "mix_selected_texture", value: Value{0, 0, 0},
		},
		{
			name: "legacy mix constant",
			build: func(g *ShaderGraph, bsdf *ShaderNode) *ShaderNode {
				mix := g.AddNode(NODE_MIX_RGB, "mix")
				mix.Input(SOCKET_FAC).Default = Value{0}
				mix.Input(SOCKET_COLOR1).Default = Value{1, 1, 1, 1}
				g.Connect(mix, SOCKET_COLOR, bsdf, SOCKET_BASE_COLOR)
				return nil
			},
			kind: CHANNEL_CONSTANT, rule: "mix_constant", value: Value{1, 1, 1},
		},
		{
			name: "mix with vertex color",
			build: func(g *ShaderGraph, bsdf *ShaderNode) *ShaderNode {
				tex := textureNode(g, "wood")
				vc := g.AddNode(NODE_VERTEX_COLOR, "vc")
				mix := g.AddNode(NODE_MIX, "mix")
				g.Connect(vc, SOCKET_COLOR, mix, SOCKET_A)
				g.Connect(tex, SOCKET_COLOR, mix, SOCKET_B)
				g.Connect(mix, SOCKET_RESULT, bsdf, SOCKET_BASE_COLOR)
				return tex
			},
			kind: CHANNEL_TEXTURED, rule: "mix_vertex_color", value: Value{1, 1, 1},
		},
		{
			name: "linked factor disqualifies",
			build: func(g *ShaderGraph, bsdf *ShaderNode) *ShaderNode {
				tex := textureNode(g, "wood")
				mask := textureNode(g, "mask")
				mix := g.AddNode(NODE_MIX, "mix")
				g.Connect(mask, SOCKET_COLOR, mix, SOCKET_FACTOR)
				g.Connect(tex, SOCKET_COLOR, mix, SOCKET_B)
				g.Connect(mix, SOCKET_RESULT, bsdf, SOCKET_BASE_COLOR)
				return nil
			},
			kind: CHANNEL_UNRESOLVED, rule: "", value: Value{1, 1, 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _, bsdf := principledGraph(tt.name)
			tex := tt.build(g, bsdf)
			ch := resolveGraph(t, g)
			assert.Equal(t, tt.kind, ch.Diffuse.Kind)
			assert.Equal(t, tt.rule, ch.Diffuse.Rule)
			assert.Equal(t, tt.value, ch.Diffuse.Value)
			if tex != nil {
				assert.Same(t, tex.Image, ch.Diffuse.Image)
				assert.Equal(t, MAPPING_RGBA, ch.Diffuse.Mapping)
			}
		})
	}
}

// TestPackedRoughnessMetallic 测试ORM打包纹理
func TestPackedRoughnessMetallic(t *testing.T) {
	g, _, bsdf := principledGraph("orm")
	tex := textureNode(g, "orm")
	sep := g.AddNode(NODE_SEPARATE_COLOR, "sep")
	g.Connect(tex, SOCKET_COLOR, sep, SOCKET_COLOR)
	g.Connect(sep, SOCKET_GREEN, bsdf, SOCKET_ROUGHNESS)
	g.Connect(sep, SOCKET_BLUE, bsdf, SOCKET_METALLIC)

	ch := resolveGraph(t, g)
	assert.Equal(t, CHANNEL_TEXTURED, ch.Roughness.Kind)
	assert.Equal(t, MAPPING_ORM, ch.Roughness.Mapping)
	assert.Equal(t, SOCKET_GREEN, ch.Roughness.Component)
	assert.Equal(t, 0.5, ch.Roughness.Value.Scalar())
	assert.Equal(t, SOCKET_BLUE, ch.Metallic.Component)
	assert.Same(t, tex.Image, ch.Metallic.Image)
}

// TestNormalAlphaEmission 测试法线透明与自发光通道
func TestNormalAlphaEmission(t *testing.T) {
	g, _, bsdf := principledGraph("misc")
	base := textureNode(g, "base")
	nrm := textureNode(g, "normal")
	emi := textureNode(g, "emit")
	nm := g.AddNode(NODE_NORMAL_MAP, "nm")
	g.Connect(base, SOCKET_COLOR, bsdf, SOCKET_BASE_COLOR)
	g.Connect(base, SOCKET_ALPHA, bsdf, SOCKET_ALPHA)
	g.Connect(nrm, SOCKET_COLOR, nm, SOCKET_COLOR)
	g.Connect(nm, SOCKET_NORMAL, bsdf, SOCKET_NORMAL)
	g.Connect(emi, SOCKET_COLOR, bsdf, SOCKET_EMISSION)

	ch := resolveGraph(t, g)
	assert.Equal(t, "texture_alpha", ch.Alpha.Rule)
	assert.Same(t, base.Image, ch.Alpha.Image)
	assert.Equal(t, "normal_map", ch.Normal.Rule)
	assert.Equal(t, MAPPING_XYZ, ch.Normal.Mapping)
	assert.Equal(t, MAPPING_EMRGB, ch.Emission.Mapping)
	assert.Equal(t, 1.0, ch.EmissionIntensity.Value.Scalar())
}

// TestMultiInputRuleInapplicable 测试多输入插槽视为不匹配
func TestMultiInputRuleInapplicable(t *testing.T) {
	g, _, bsdf := principledGraph("multi")
	tex := textureNode(g, "wood")
	s := bsdf.Input(SOCKET_BASE_COLOR)
	s.MultiInput = true
	g.Connect(tex, SOCKET_COLOR, bsdf, SOCKET_BASE_COLOR)

	ch := resolveGraph(t, g)
	assert.Equal(t, CHANNEL_UNRESOLVED, ch.Diffuse.Kind)
	assert.Equal(t, Value{1, 1, 1}, ch.Diffuse.Value)
}

// TestResolveFirstUniqueAmbiguous 测试多规则匹配取第一个
func TestResolveFirstUniqueAmbiguous(t *testing.T) {
	always := func(name string, v float64) channelRule {
		return channelRule{name: name, match: func(*channelContext) (PBRChannel, bool) {
			return Constant(v), true
		}}
	}
	never := channelRule{name: "never", match: func(*channelContext) (PBRChannel, bool) {
		return PBRChannel{}, false
	}}
	c := &channelContext{material: "m", channel: "roughness", log: zap.NewNop()}

	ch, warning := resolveFirstUnique(c, []channelRule{never, always("first", 0.1), always("second", 0.9)}, Unresolved(0.5))
	assert.Equal(t, 0.1, ch.Value.Scalar())
	assert.Equal(t, "first", ch.Rule)
	assert.Contains(t, warning, "ambiguous")
	assert.Contains(t, warning, "second")

	ch, warning = resolveFirstUnique(c, []channelRule{never}, Unresolved(0.5))
	assert.Equal(t, CHANNEL_UNRESOLVED, ch.Kind)
	assert.Equal(t, 0.5, ch.Value.Scalar())
	assert.Empty(t, warning)
}

// TestSheen 测试绒面着色器
func TestSheen(t *testing.T) {
	g, out, _ := principledGraph("sheen")
	velvet := g.AddNode(NODE_VELVET_SHADER, "velvet")
	velvet.Input(SOCKET_COLOR).Default = Value{0.2, 0.3, 0.4, 1}
	velvet.Input(SOCKET_SIGMA).Default = Value{0.7}
	g.Connect(velvet, SOCKET_BSDF, out, "Volume")

	ch := resolveGraph(t, g)
	require.NotNil(t, ch.Sheen)
	assert.Equal(t, [3]float64{0.2, 0.3, 0.4}, ch.Sheen.Color)
	assert.Equal(t, 0.7, ch.Sheen.Sigma)
}

// TestMissingPrincipled 测试缺少主着色器
func TestMissingPrincipled(t *testing.T) {
	g := NewShaderGraph("empty")
	g.AddNode(NODE_OUTPUT_SURFACE, "out")
	used, err := g.UsedNodes()
	require.NoError(t, err)
	_, err = resolveChannels(g, used, zap.NewNop())
	assert.ErrorIs(t, err, ErrMissingPrincipled)
}
