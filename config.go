package roomle

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LogOptions 日志配置
type LogOptions struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// Options 导出参数
type Options struct {
	CatalogID              string         `yaml:"catalog_id"`
	ComponentID            string         `yaml:"component_id"`
	UseSelection           bool           `yaml:"use_selection"`
	ExportNormals          bool           `yaml:"export_normals"`
	ExportMaterials        bool           `yaml:"export_materials"`
	ApplyRotations         bool           `yaml:"apply_rotations"`
	MeshExport             MeshExportMode `yaml:"mesh_export"`
	ExternalThreshold      int            `yaml:"external_threshold"`
	ExternalFormat         string         `yaml:"external_format"`
	PositionFloatPrecision int            `yaml:"position_float_precision"`
	UVFloatPrecision       int            `yaml:"uv_float_precision"`
	NormalFloatPrecision   int            `yaml:"normal_float_precision"`
	UseCorto               bool           `yaml:"use_corto"`
	CortoExe               string         `yaml:"corto_exe"`
	CortoArgs              string         `yaml:"corto_args"`
	Debug                  bool           `yaml:"debug"`
	MaterialTags           []string       `yaml:"material_tags"`
	Log                    LogOptions     `yaml:"log"`
}

func DefaultOptions() *Options {
	return &Options{
		ExportNormals:          true,
		ExportMaterials:        true,
		ApplyRotations:         true,
		MeshExport:             MESH_EXPORT_AUTO,
		ExternalThreshold:      EXTERNAL_MESH_THRESHOLD,
		ExternalFormat:         EXTERNAL_FORMAT_OBJ,
		PositionFloatPrecision: 1,
		UVFloatPrecision:       4,
		NormalFloatPrecision:   5,
		UseCorto:               true,
		CortoArgs:              DEFAULT_CORTO_ARGS,
		Log: LogOptions{
			Level:      "info",
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		},
	}
}

// LoadOptions reads path over the defaults. An empty path yields the defaults.
func LoadOptions(path string) (*Options, error) {
	opts := DefaultOptions()
	if path == "" {
		return opts, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "loading options from %s", path)
	}
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, errors.Wrapf(err, "parsing options %s", path)
	}
	return opts, nil
}

// Save writes the options back as YAML.
func (o *Options) Save(path string) error {
	data, err := yaml.Marshal(o)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (o *Options) Validate() error {
	switch o.MeshExport {
	case MESH_EXPORT_AUTO, MESH_EXPORT_EXTERNAL, MESH_EXPORT_INTERNAL:
	default:
		return errors.Wrapf(ErrInvalidOption, "mesh_export %q", o.MeshExport)
	}
	switch o.ExternalFormat {
	case EXTERNAL_FORMAT_OBJ, EXTERNAL_FORMAT_GLB:
	default:
		return errors.Wrapf(ErrInvalidOption, "external_format %q", o.ExternalFormat)
	}
	if o.UVFloatPrecision < 0 || o.UVFloatPrecision > 8 {
		return errors.Wrapf(ErrInvalidOption, "uv_float_precision %d not in 0..8", o.UVFloatPrecision)
	}
	if o.NormalFloatPrecision < 2 || o.NormalFloatPrecision > 8 {
		return errors.Wrapf(ErrInvalidOption, "normal_float_precision %d not in 2..8", o.NormalFloatPrecision)
	}
	if o.PositionFloatPrecision < 0 {
		return errors.Wrapf(ErrInvalidOption, "position_float_precision %d", o.PositionFloatPrecision)
	}
	if o.CatalogID == "" {
		return errors.Wrap(ErrInvalidOption, "catalog_id is empty")
	}
	if o.ComponentID == "" {
		return errors.Wrap(ErrInvalidOption, "component_id is empty")
	}
	return nil
}

// ComponentIDFromPath derives a component id from a file name stem.
func ComponentIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
