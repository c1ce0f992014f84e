package roomle

const VERSION string = "3.0.0"
const SHADING_VERSION string = "2.0.0"

const SCRIPT_HEADER = "/* Roomle script (Roomle Blender addon version " + VERSION + ") */\n"
const SCRIPT_HEADER_DEBUG = "/* Roomle script DEBUG */\n"

const EXTERNAL_MESH_THRESHOLD = 100
const DEFAULT_CORTO_ARGS = "-v 12 -n 9 -u 10 -N delta"

const (
	META_JSON_NAME      = "meta.json"
	TAGS_CSV_NAME       = "tags.csv"
	MATERIALS_CSV_NAME  = "materials.csv"
	MATERIALS_DIR_NAME  = "materials"
	MESHES_DIR_NAME     = "meshes"
	COMPONENTS_DIR_NAME = "components"
)

// NodeKind 着色节点类型
type NodeKind uint8

const (
	NODE_OTHER NodeKind = iota
	NODE_OUTPUT_SURFACE
	NODE_PRINCIPLED_SHADER
	NODE_TEXTURE_IMAGE
	NODE_MIX_RGB
	NODE_MIX
	NODE_NORMAL_MAP
	NODE_SEPARATE_COLOR
	NODE_VELVET_SHADER
	NODE_MATH
	NODE_VERTEX_COLOR
)

var nodeKindNames = [...]string{
	NODE_OTHER:             "Other",
	NODE_OUTPUT_SURFACE:    "OutputSurface",
	NODE_PRINCIPLED_SHADER: "PrincipledShader",
	NODE_TEXTURE_IMAGE:     "TextureImage",
	NODE_MIX_RGB:           "MixRGB",
	NODE_MIX:               "Mix",
	NODE_NORMAL_MAP:        "NormalMap",
	NODE_SEPARATE_COLOR:    "SeparateColor",
	NODE_VELVET_SHADER:     "VelvetShader",
	NODE_MATH:              "Math",
	NODE_VERTEX_COLOR:      "VertexColor",
}

func (k NodeKind) String() string {
	if int(k) < len(nodeKindNames) {
		return nodeKindNames[k]
	}
	return "Unknown"
}

// principled shader sockets
const (
	SOCKET_BASE_COLOR        = "Base Color"
	SOCKET_METALLIC          = "Metallic"
	SOCKET_ROUGHNESS         = "Roughness"
	SOCKET_IOR               = "IOR"
	SOCKET_TRANSMISSION      = "Transmission"
	SOCKET_EMISSION          = "Emission"
	SOCKET_EMISSION_STRENGTH = "Emission Strength"
	SOCKET_ALPHA             = "Alpha"
	SOCKET_NORMAL            = "Normal"
)

// other node sockets
const (
	SOCKET_SURFACE  = "Surface"
	SOCKET_BSDF     = "BSDF"
	SOCKET_COLOR    = "Color"
	SOCKET_VECTOR   = "Vector"
	SOCKET_STRENGTH = "Strength"
	SOCKET_SIGMA    = "Sigma"
	SOCKET_FACTOR   = "Factor"
	SOCKET_A        = "A"
	SOCKET_B        = "B"
	SOCKET_RESULT   = "Result"
	SOCKET_FAC      = "Fac"
	SOCKET_COLOR1   = "Color1"
	SOCKET_COLOR2   = "Color2"
	SOCKET_RED      = "Red"
	SOCKET_GREEN    = "Green"
	SOCKET_BLUE     = "Blue"
	SOCKET_VALUE    = "Value"
)

// TextureMapping 纹理通道映射
type TextureMapping string

const (
	MAPPING_RGB    TextureMapping = "RGB"
	MAPPING_RGBA   TextureMapping = "RGBA"
	MAPPING_XYZ    TextureMapping = "XYZ"
	MAPPING_ORM    TextureMapping = "ORM"
	MAPPING_EMRGB  TextureMapping = "EMRGB"
	MAPPING_CCRG   TextureMapping = "CCRG"
	MAPPING_CCXYZ  TextureMapping = "CCXYZ"
	MAPPING_SHRGBA TextureMapping = "SHRGBA"
	MAPPING_SPRGBA TextureMapping = "SPRGBA"
	MAPPING_TTRG   TextureMapping = "TTRG"
)

type BlendMode string

const (
	BLEND_OPAQUE BlendMode = "OPAQUE"
	BLEND_BLEND  BlendMode = "BLEND"
)

// blend methods of the host material
const (
	BLEND_METHOD_OPAQUE = "OPAQUE"
	BLEND_METHOD_CLIP   = "CLIP"
	BLEND_METHOD_HASHED = "HASHED"
	BLEND_METHOD_BLEND  = "BLEND"
)

type MeshExportMode string

const (
	MESH_EXPORT_AUTO     MeshExportMode = "AUTO"
	MESH_EXPORT_EXTERNAL MeshExportMode = "EXTERNAL"
	MESH_EXPORT_INTERNAL MeshExportMode = "INTERNAL"
)

const (
	EXTERNAL_FORMAT_OBJ = "obj"
	EXTERNAL_FORMAT_GLB = "glb"
)
