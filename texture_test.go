package roomle

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// TestTextureNameCollision 测试同名图片消歧
func TestTextureNameCollision(t *testing.T) {
	m := NewTextureNameManager()
	first := &Image{Name: "wood.png", FileFormat: IMAGE_FORMAT_PNG}
	second := &Image{Name: "wood.png", FileFormat: IMAGE_FORMAT_PNG}
	third := &Image{Name: "WOOD", FileFormat: IMAGE_FORMAT_PNG}

	name, err := m.Name(first)
	require.NoError(t, err)
	assert.Equal(t, "wood.png", name)

	name, err = m.Name(second)
	require.NoError(t, err)
	assert.Equal(t, "(wood)-wood.png", name)

	name, err = m.Name(third)
	require.NoError(t, err)
	assert.Equal(t, "(WOOD)-WOOD-2.png", name)

	name, err = m.Name(first)
	require.NoError(t, err)
	assert.Equal(t, "wood.png", name)
	assert.Equal(t, []*Image{first, second, third}, m.Images())
}

// TestTextureNameOrderIndependent 测试命名与访问顺序无关
func TestTextureNameOrderIndependent(t *testing.T) {
	a := &Image{Name: "a b", FileFormat: IMAGE_FORMAT_JPEG}
	b := &Image{Name: "b", FileFormat: IMAGE_FORMAT_TIFF}
	m1, m2 := NewTextureNameManager(), NewTextureNameManager()
	m1.Name(a)
	m1.Name(b)
	m2.Name(b)
	m2.Name(a)
	for _, img := range []*Image{a, b} {
		n1, _ := m1.Lookup(img)
		n2, _ := m2.Lookup(img)
		assert.Equal(t, n1, n2)
	}
	n, _ := m1.Lookup(a)
	assert.Equal(t, "a_b.jpg", n)
}

// TestTextureSuffix 测试格式扩展名表
func TestTextureSuffix(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{IMAGE_FORMAT_BMP, ".bmp"},
		{IMAGE_FORMAT_PNG, ".png"},
		{IMAGE_FORMAT_JPEG, ".jpg"},
		{IMAGE_FORMAT_JPEG2000, ".jpg2"},
		{IMAGE_FORMAT_WEBP, ".webp"},
		{IMAGE_FORMAT_TIFF, ".tif"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			got, err := TextureSuffix(tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := TextureSuffix("TARGA")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	assert.Contains(t, err.Error(), "TARGA")

	_, err = NewTextureNameManager().Name(&Image{Name: "x", FileFormat: "OPEN_EXR"})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

// TestSniffImageFormat 测试图片格式识别
func TestSniffImageFormat(t *testing.T) {
	f, err := SniffImageFormat(pngBytes(t, 2, 2))
	require.NoError(t, err)
	assert.Equal(t, IMAGE_FORMAT_PNG, f)

	_, err = SniffImageFormat([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	assert.Equal(t, IMAGE_FORMAT_JPEG, FormatFromMime("image/jpeg"))
	assert.Equal(t, "", FormatFromMime("image/ktx2"))
}

// TestImageSizeAndSave 测试尺寸读取与保存
func TestImageSizeAndSave(t *testing.T) {
	img := &Image{Name: "p", FileFormat: IMAGE_FORMAT_PNG, Data: pngBytes(t, 4, 3)}
	w, h, err := ImageSize(img)
	require.NoError(t, err)
	assert.Equal(t, 4, w)
	assert.Equal(t, 3, h)

	_, _, err = ImageSize(&Image{FileFormat: IMAGE_FORMAT_JPEG2000})
	assert.Error(t, err)

	dir := filepath.Join(t.TempDir(), "materials")
	require.NoError(t, SaveTexture(dir, "p.png", img))
	data, err := os.ReadFile(filepath.Join(dir, "p.png"))
	require.NoError(t, err)
	assert.Equal(t, img.Data, data)
}
