package roomle

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func isTexture(n *ShaderNode) bool {
	return n != nil && n.Kind == NODE_TEXTURE_IMAGE && n.Image != nil
}

func unlinked(s *Socket) bool {
	return s != nil && !s.Linked() && !s.MultiInput
}

func srgb(v Value) Value {
	c := LinearToSRGBColor(v)
	return Value{c[0], c[1], c[2]}
}

func scalar(v Value) Value {
	return Value{v.Scalar()}
}

var plainWhite = Value{1, 1, 1}

func unlinkedRule(convert func(Value) Value) channelRule {
	return channelRule{name: "no_texture", match: func(c *channelContext) (PBRChannel, bool) {
		if !unlinked(c.socket) {
			return PBRChannel{}, false
		}
		return Constant(convert(c.socket.Default)...), true
	}}
}

func directTextureRule(mapping TextureMapping, def Value) channelRule {
	return channelRule{name: "directly_attached_image", match: func(c *channelContext) (PBRChannel, bool) {
		n := c.origin(c.socket)
		if !isTexture(n) || c.socket.Link().FromSocket == SOCKET_ALPHA {
			return PBRChannel{}, false
		}
		return Textured(n.Image, mapping, def...), true
	}}
}

var textureAlphaRule = channelRule{name: "texture_alpha", match: func(c *channelContext) (PBRChannel, bool) {
	n := c.origin(c.socket)
	if !isTexture(n) || c.socket.Link().FromSocket != SOCKET_ALPHA {
		return PBRChannel{}, false
	}
	return Textured(n.Image, MAPPING_RGBA, 1), true
}}

// blendSockets returns factor and both branches of a two input blend node.
func blendSockets(n *ShaderNode) (fac, a, b *Socket, ok bool) {
	if n == nil {
		return nil, nil, nil, false
	}
	switch n.Kind {
	case NODE_MIX:
		fac, a, b = n.Input(SOCKET_FACTOR), n.Input(SOCKET_A), n.Input(SOCKET_B)
	case NODE_MIX_RGB:
		fac, a, b = n.Input(SOCKET_FAC), n.Input(SOCKET_COLOR1), n.Input(SOCKET_COLOR2)
	default:
		return nil, nil, nil, false
	}
	return fac, a, b, fac != nil && a != nil && b != nil
}

// selectingFactor reports a factor that is unconnected and exactly 0 or 1.
func selectingFactor(fac *Socket) (float64, bool) {
	if !unlinked(fac) {
		return 0, false
	}
	f := fac.Default.Scalar()
	return f, f == 0 || f == 1
}

var mixSelectedTextureRule = channelRule{name: "mix_selected_texture", match: func(c *channelContext) (PBRChannel, bool) {
	fac, a, b, ok := blendSockets(c.origin(c.socket))
	if !ok {
		return PBRChannel{}, false
	}
	f, ok := selectingFactor(fac)
	if !ok {
		return PBRChannel{}, false
	}
	sel, other := a, b
	if f == 1 {
		sel, other = b, a
	}
	tex := c.origin(sel)
	if !isTexture(tex) || isTexture(c.origin(other)) {
		return PBRChannel{}, false
	}
	def := plainWhite
	if unlinked(other) {
		def = srgb(other.Default)
	}
	return Textured(tex.Image, MAPPING_RGBA, def...), true
}}

var mixConstantRule = channelRule{name: "mix_constant", match: func(c *channelContext) (PBRChannel, bool) {
	fac, a, b, ok := blendSockets(c.origin(c.socket))
	if !ok {
		return PBRChannel{}, false
	}
	if isTexture(c.origin(a)) || isTexture(c.origin(b)) {
		return PBRChannel{}, false
	}
	src := b
	if f, ok := selectingFactor(fac); ok && f == 0 {
		src = a
	}
	return Constant(srgb(src.Default)...), true
}}

var mixVertexColorRule = channelRule{name: "mix_vertex_color", match: func(c *channelContext) (PBRChannel, bool) {
	fac, a, b, ok := blendSockets(c.origin(c.socket))
	if !ok || !unlinked(fac) {
		return PBRChannel{}, false
	}
	if _, selecting := selectingFactor(fac); selecting {
		return PBRChannel{}, false
	}
	oa, ob := c.origin(a), c.origin(b)
	tex := oa
	vc := ob
	if !isTexture(tex) {
		tex, vc = ob, oa
	}
	if !isTexture(tex) || vc == nil || vc.Kind != NODE_VERTEX_COLOR {
		return PBRChannel{}, false
	}
	return Textured(tex.Image, MAPPING_RGBA, plainWhite...), true
}}

var normalMapRule = channelRule{name: "normal_map", match: func(c *channelContext) (PBRChannel, bool) {
	n := c.origin(c.socket)
	if n == nil || n.Kind != NODE_NORMAL_MAP {
		return PBRChannel{}, false
	}
	tex := c.origin(n.Input(SOCKET_COLOR))
	if !isTexture(tex) {
		return PBRChannel{}, false
	}
	return Textured(tex.Image, MAPPING_XYZ), true
}}

func packedTextureRule(def func(c *channelContext) Value) channelRule {
	return channelRule{name: "orm", match: func(c *channelContext) (PBRChannel, bool) {
		n := c.origin(c.socket)
		if n == nil || n.Kind != NODE_SEPARATE_COLOR {
			return PBRChannel{}, false
		}
		tex := c.origin(n.Input(SOCKET_COLOR))
		if !isTexture(tex) {
			return PBRChannel{}, false
		}
		ch := Textured(tex.Image, MAPPING_ORM, def(c)...)
		ch.Component = c.socket.Link().FromSocket
		return ch, true
	}}
}

func socketDefault(c *channelContext) Value {
	return scalar(c.socket.Default)
}

func fixedDefault(v ...float64) func(*channelContext) Value {
	return func(*channelContext) Value { return Value(v) }
}

var (
	diffuseRules = []channelRule{
		unlinkedRule(srgb),
		directTextureRule(MAPPING_RGBA, plainWhite),
		mixSelectedTextureRule,
		mixConstantRule,
		mixVertexColorRule,
	}
	alphaRules = []channelRule{
		unlinkedRule(scalar),
		textureAlphaRule,
	}
	normalRules = []channelRule{
		normalMapRule,
		directTextureRule(MAPPING_XYZ, nil),
	}
	roughnessRules = []channelRule{
		unlinkedRule(scalar),
		packedTextureRule(socketDefault),
		directTextureRule(MAPPING_ORM, nil),
	}
	metallicRules = []channelRule{
		unlinkedRule(scalar),
		packedTextureRule(fixedDefault(0)),
		directTextureRule(MAPPING_ORM, Value{0}),
	}
	scalarRules = []channelRule{
		unlinkedRule(scalar),
	}
	emissionRules = []channelRule{
		unlinkedRule(srgb),
		directTextureRule(MAPPING_EMRGB, plainWhite),
	}
)

// resolvedChannels 材质各通道的解析结果
type resolvedChannels struct {
	Diffuse           PBRChannel
	Alpha             PBRChannel
	Normal            PBRChannel
	Roughness         PBRChannel
	Metallic          PBRChannel
	Transmission      PBRChannel
	IOR               PBRChannel
	AO                PBRChannel
	Emission          PBRChannel
	EmissionIntensity PBRChannel
	Sheen             *SheenChannel
	Warnings          []string
}

func principledShader(g *ShaderGraph, used *NodeSet) (*ShaderNode, error) {
	ps := used.OfKind(NODE_PRINCIPLED_SHADER)
	if len(ps) != 1 {
		return nil, errors.Wrapf(ErrMissingPrincipled, "material %q has %d principled shaders", g.Name, len(ps))
	}
	return ps[0], nil
}

func resolveChannels(g *ShaderGraph, used *NodeSet, log *zap.Logger) (*resolvedChannels, error) {
	p, err := principledShader(g, used)
	if err != nil {
		return nil, err
	}
	out := &resolvedChannels{}
	resolve := func(channel, socket string, rules []channelRule, fallback PBRChannel) PBRChannel {
		s := p.Input(socket)
		if s == nil {
			return fallback
		}
		c := &channelContext{material: g.Name, channel: channel, socket: s, used: used, log: log}
		ch, warning := resolveFirstUnique(c, rules, fallback)
		if warning != "" {
			out.Warnings = append(out.Warnings, warning)
		}
		return ch
	}
	out.Diffuse = resolve("diffuse", SOCKET_BASE_COLOR, diffuseRules, Unresolved(1, 1, 1))
	out.Alpha = resolve("alpha", SOCKET_ALPHA, alphaRules, Unresolved(1))
	out.Normal = resolve("normal", SOCKET_NORMAL, normalRules, Unresolved())
	out.Roughness = resolve("roughness", SOCKET_ROUGHNESS, roughnessRules, Unresolved(0.5))
	out.Metallic = resolve("metallic", SOCKET_METALLIC, metallicRules, Unresolved(0))
	out.Transmission = resolve("transmission", SOCKET_TRANSMISSION, scalarRules, Unresolved(0))
	out.IOR = resolve("ior", SOCKET_IOR, scalarRules, Unresolved(1.45))
	out.Emission = resolve("emission", SOCKET_EMISSION, emissionRules, Unresolved(0, 0, 0))
	out.EmissionIntensity = resolve("emission_intensity", SOCKET_EMISSION_STRENGTH, scalarRules, Unresolved(0))
	out.AO = Constant(0)
	out.Sheen = resolveSheen(g, used, log)
	return out, nil
}

func resolveSheen(g *ShaderGraph, used *NodeSet, log *zap.Logger) *SheenChannel {
	velvets := used.OfKind(NODE_VELVET_SHADER)
	if len(velvets) != 1 {
		if len(velvets) > 1 {
			log.Warn("several velvet shaders, sheen ignored",
				zap.String("material", g.Name),
				zap.Int("count", len(velvets)))
		}
		return nil
	}
	v := velvets[0]
	sheen := &SheenChannel{Sigma: 1}
	if s := v.Input(SOCKET_COLOR); s != nil {
		sheen.Color = s.Default.RGB()
	}
	if s := v.Input(SOCKET_SIGMA); s != nil {
		sheen.Sigma = s.Default.Scalar()
	}
	return sheen
}
