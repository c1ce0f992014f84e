package roomle

import (
	"encoding/json"
	"regexp"

	"go.uber.org/zap"
)

var (
	invalidScriptChars = regexp.MustCompile(`[^0-9a-zA-Z_]+`)
)

// SanitizeName collapses every run of characters outside [0-9a-zA-Z_] to "_".
func SanitizeName(name string) string {
	return invalidScriptChars.ReplaceAllString(name, "_")
}

// ColorRGB 颜色
type ColorRGB struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

func colorOf(v Value, def ColorRGB) ColorRGB {
	if len(v) < 3 {
		return def
	}
	return ColorRGB{R: round2(v[0]), G: round2(v[1]), B: round2(v[2])}
}

// Shading 材质着色参数, 按字段顺序序列化
type Shading struct {
	Version              string    `json:"version"`
	Alpha                float64   `json:"alpha"`
	AlphaCutoff          float64   `json:"alphaCutoff"`
	BaseColor            ColorRGB  `json:"basecolor"`
	Transmission         float64   `json:"transmission"`
	TransmissionIOR      float64   `json:"transmissionIOR"`
	Metallic             float64   `json:"metallic"`
	Roughness            float64   `json:"roughness"`
	DoubleSided          bool      `json:"doubleSided"`
	Occlusion            float64   `json:"occlusion"`
	EmissiveColor        ColorRGB  `json:"emissiveColor"`
	EmissiveIntensity    float64   `json:"emissiveIntensity"`
	ClearcoatIntensity   float64   `json:"clearcoatIntensity"`
	ClearcoatRoughness   float64   `json:"clearcoatRoughness"`
	ClearcoatNormalScale float64   `json:"clearcoatNormalScale"`
	SheenColor           ColorRGB  `json:"sheenColor"`
	SheenIntensity       float64   `json:"sheenIntensity"`
	SheenRoughness       float64   `json:"sheenRoughness"`
	NormalScale          float64   `json:"normalScale"`
	SpecularIntensity    float64   `json:"specularIntensity"`
	ThicknessFactor      float64   `json:"thicknessFactor"`
	AttenuationColor     ColorRGB  `json:"attenuationColor"`
	AttenuationDistance  float64   `json:"attenuationDistance"`
	AlphaMode            BlendMode `json:"alphaMode"`
}

func DefaultShading() Shading {
	return Shading{
		Version:         SHADING_VERSION,
		Alpha:           1,
		BaseColor:       ColorRGB{1, 1, 1},
		TransmissionIOR: 1.45,
		Roughness:       .85,
		Occlusion:       1,
		SheenRoughness:  .65,
		NormalScale:     1,
		AlphaMode:       BLEND_OPAQUE,
	}
}

func (s Shading) JSON() (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

const (
	SLOT_DIFFUSE = iota
	SLOT_NORMAL
	SLOT_ORM
	SLOT_EMISSION
	TEXTURE_SLOT_COUNT
)

// TextureSlot 材质行中的一组纹理列
type TextureSlot struct {
	Image    *Image
	Name     string
	Mapping  TextureMapping
	WidthMM  int
	HeightMM int
	Tileable bool
}

func (t *TextureSlot) ZipPath() string {
	return "zip://" + t.Name
}

// MaterialRecord 导出的材质记录, 构建后不再修改
type MaterialRecord struct {
	ID                string
	LabelEN           string
	LabelDE           string
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
	DoubleSided       bool
	BlendMode         BlendMode
	TagIDsToAdd       []string
	TagIDsToRemove    []string
	Textures          []*TextureSlot
	Warnings          []string
}

func blendModeOf(method string) BlendMode {
	switch method {
	case BLEND_METHOD_CLIP, BLEND_METHOD_HASHED, BLEND_METHOD_BLEND:
		return BLEND_BLEND
	}
	return BLEND_OPAQUE
}

func (m *MaterialRecord) channels() []PBRChannel {
	return []PBRChannel{m.Diffuse, m.Alpha, m.Normal, m.Roughness, m.Metallic,
		m.Transmission, m.IOR, m.AO, m.Emission, m.EmissionIntensity}
}

// Shading fills the shading struct from the resolved channels.
func (m *MaterialRecord) Shading() Shading {
	sh := DefaultShading()
	sh.Alpha = round2(m.Alpha.ScalarOr(1))
	sh.AlphaMode = m.BlendMode
	sh.DoubleSided = m.DoubleSided
	sh.Roughness = round2(m.Roughness.ScalarOr(0.5))
	sh.Metallic = round2(m.Metallic.ScalarOr(0))
	sh.BaseColor = colorOf(m.Diffuse.Value, sh.BaseColor)
	if m.Sheen != nil {
		sh.SheenColor = colorOf(Value(m.Sheen.Color[:]), sh.SheenColor)
		sh.SheenIntensity = m.Sheen.Sigma
	}
	sh.Transmission = round2(m.Transmission.ScalarOr(0))
	sh.TransmissionIOR = round2(m.IOR.ScalarOr(1.5))
	sh.Occlusion = round2(m.AO.ScalarOr(0))
	sh.EmissiveColor = colorOf(m.Emission.Value, sh.EmissiveColor)
	sh.EmissiveIntensity = round2(m.EmissionIntensity.ScalarOr(0))
	return sh
}

// BuildMaterial resolves every channel of g and names its textures.
// Structural and format errors abort only this material.
func (s *ExportSession) BuildMaterial(g *ShaderGraph) (*MaterialRecord, error) {
	used, err := g.UsedNodes()
	if err != nil {
		return nil, err
	}
	ch, err := resolveChannels(g, used, s.log)
	if err != nil {
		return nil, err
	}
	name := SanitizeName(g.Name)
	id := name
	if s.opts.ComponentID != "" {
		id = s.opts.ComponentID + "_" + name
	}
	rec := &MaterialRecord{
		ID:                id,
		LabelEN:           name,
		LabelDE:           name,
		Diffuse:           ch.Diffuse,
		Alpha:             ch.Alpha,
		Normal:            ch.Normal,
		Roughness:         ch.Roughness,
		Metallic:          ch.Metallic,
		Transmission:      ch.Transmission,
		IOR:               ch.IOR,
		AO:                ch.AO,
		Emission:          ch.Emission,
		EmissionIntensity: ch.EmissionIntensity,
		Sheen:             ch.Sheen,
		DoubleSided:       !g.UseBackfaceCulling,
		BlendMode:         blendModeOf(g.BlendMethod),
		TagIDsToAdd:       append([]string(nil), s.opts.MaterialTags...),
		Warnings:          ch.Warnings,
	}

	for _, c := range rec.channels() {
		if !c.IsTextured() {
			continue
		}
		if _, err := TextureSuffix(c.Image.FileFormat); err != nil {
			return nil, err
		}
	}
	for _, c := range rec.channels() {
		if c.IsTextured() {
			if _, err := s.textures.Name(c.Image); err != nil {
				return nil, err
			}
		}
	}
	for _, c := range []PBRChannel{rec.Diffuse, rec.Normal, rec.Roughness, rec.Emission} {
		if c.IsTextured() {
			rec.Textures = append(rec.Textures, s.textureSlot(c))
		}
	}
	return rec, nil
}

func (s *ExportSession) textureSlot(c PBRChannel) *TextureSlot {
	name, _ := s.textures.Lookup(c.Image)
	slot := &TextureSlot{Image: c.Image, Name: name, Mapping: c.Mapping, WidthMM: 1, HeightMM: 1, Tileable: true}
	if w, h, err := ImageSize(c.Image); err == nil {
		slot.WidthMM, slot.HeightMM = w, h
	} else {
		s.log.Debug("texture size unknown", zap.String("file", name), zap.Error(err))
	}
	return slot
}
