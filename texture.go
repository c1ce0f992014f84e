package roomle

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/h2non/filetype"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// Image 纹理图片, 以引用区分身份
type Image struct {
	Name       string
	FileFormat string
	Data       []byte
}

const (
	IMAGE_FORMAT_BMP      = "BMP"
	IMAGE_FORMAT_PNG      = "PNG"
	IMAGE_FORMAT_JPEG     = "JPEG"
	IMAGE_FORMAT_JPEG2000 = "JPEG2000"
	IMAGE_FORMAT_WEBP     = "WEBP"
	IMAGE_FORMAT_TIFF     = "TIFF"
)

var textureSuffixes = map[string]string{
	IMAGE_FORMAT_BMP:      ".bmp",
	IMAGE_FORMAT_PNG:      ".png",
	IMAGE_FORMAT_JPEG:     ".jpg",
	IMAGE_FORMAT_JPEG2000: ".jpg2",
	IMAGE_FORMAT_WEBP:     ".webp",
	IMAGE_FORMAT_TIFF:     ".tif",
}

// TextureSuffix returns the file extension for an allowed image format.
func TextureSuffix(format string) (string, error) {
	suffix, ok := textureSuffixes[format]
	if !ok {
		return "", errors.Wrapf(ErrUnsupportedFormat, "%q", format)
	}
	return suffix, nil
}

var invalidFileChars = regexp.MustCompile(`[^0-9a-zA-Z_.\-]+`)

func sanitizeFileStem(name string) string {
	s := invalidFileChars.ReplaceAllString(name, "_")
	if s == "" {
		return "texture"
	}
	return s
}

// TextureNameManager 为每个图片分配唯一文件名, 单次导出内有效
type TextureNameManager struct {
	byImage map[*Image]string
	byName  map[string]*Image
	order   []*Image
}

func NewTextureNameManager() *TextureNameManager {
	return &TextureNameManager{
		byImage: make(map[*Image]string),
		byName:  make(map[string]*Image),
	}
}

// Name returns the file name assigned to img, assigning one on first use.
// A name already owned by another image becomes "(stem)-name".
func (m *TextureNameManager) Name(img *Image) (string, error) {
	if img == nil {
		return "", errors.New("nil image")
	}
	if name, ok := m.byImage[img]; ok {
		return name, nil
	}
	suffix, err := TextureSuffix(img.FileFormat)
	if err != nil {
		return "", errors.Wrapf(err, "image %q", img.Name)
	}
	stem := sanitizeFileStem(img.Name)
	if strings.HasSuffix(strings.ToLower(stem), suffix) {
		stem = stem[:len(stem)-len(suffix)]
	}
	name := stem + suffix
	if _, taken := m.byName[strings.ToLower(name)]; taken {
		name = "(" + stem + ")-" + stem + suffix
		for i := 2; ; i++ {
			if _, taken := m.byName[strings.ToLower(name)]; !taken {
				break
			}
			name = "(" + stem + ")-" + stem + "-" + strconv.Itoa(i) + suffix
		}
	}
	m.byName[strings.ToLower(name)] = img
	m.byImage[img] = name
	m.order = append(m.order, img)
	return name, nil
}

// Images lists the named images in assignment order.
func (m *TextureNameManager) Images() []*Image {
	return m.order
}

func (m *TextureNameManager) Lookup(img *Image) (string, bool) {
	name, ok := m.byImage[img]
	return name, ok
}

var mimeFormats = map[string]string{
	"image/bmp":  IMAGE_FORMAT_BMP,
	"image/png":  IMAGE_FORMAT_PNG,
	"image/jpeg": IMAGE_FORMAT_JPEG,
	"image/jpg":  IMAGE_FORMAT_JPEG,
	"image/jp2":  IMAGE_FORMAT_JPEG2000,
	"image/webp": IMAGE_FORMAT_WEBP,
	"image/tiff": IMAGE_FORMAT_TIFF,
}

var extensionFormats = map[string]string{
	"bmp":  IMAGE_FORMAT_BMP,
	"png":  IMAGE_FORMAT_PNG,
	"jpg":  IMAGE_FORMAT_JPEG,
	"jpeg": IMAGE_FORMAT_JPEG,
	"jp2":  IMAGE_FORMAT_JPEG2000,
	"jpx":  IMAGE_FORMAT_JPEG2000,
	"webp": IMAGE_FORMAT_WEBP,
	"tif":  IMAGE_FORMAT_TIFF,
	"tiff": IMAGE_FORMAT_TIFF,
}

// FormatFromMime maps an image MIME type to a file format, "" when unknown.
func FormatFromMime(mime string) string {
	return mimeFormats[strings.ToLower(mime)]
}

// SniffImageFormat detects the file format from the magic bytes. Formats
// outside the allowed list come back upper-cased so the namer can reject
// them by name.
func SniffImageFormat(data []byte) (string, error) {
	kind, err := filetype.Match(data)
	if err != nil {
		return "", err
	}
	if kind == filetype.Unknown {
		return "", errors.Wrap(ErrUnsupportedFormat, "unknown image data")
	}
	if f, ok := extensionFormats[kind.Extension]; ok {
		return f, nil
	}
	return strings.ToUpper(kind.Extension), nil
}

// ImageSize decodes the pixel size of img.
func ImageSize(img *Image) (int, int, error) {
	rd := bytes.NewReader(img.Data)
	var cfg image.Config
	var err error
	switch img.FileFormat {
	case IMAGE_FORMAT_PNG:
		cfg, err = png.DecodeConfig(rd)
	case IMAGE_FORMAT_JPEG:
		cfg, err = jpeg.DecodeConfig(rd)
	case IMAGE_FORMAT_BMP:
		cfg, err = bmp.DecodeConfig(rd)
	case IMAGE_FORMAT_TIFF:
		cfg, err = tiff.DecodeConfig(rd)
	case IMAGE_FORMAT_WEBP:
		cfg, err = webp.DecodeConfig(rd)
	default:
		return 0, 0, errors.Errorf("unknow format %q", img.FileFormat)
	}
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// SaveTexture writes the original image bytes to dir/name.
func SaveTexture(dir, name string, img *Image) error {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name), img.Data, 0o644)
}
