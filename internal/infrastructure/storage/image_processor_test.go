package storage

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func TestImageProcessor_KeepsSmallImage(t *testing.T) {
	p := NewImageProcessor(1024*1024, 100)
	data := pngBytes(t, 40, 20)

	out, contentType, err := p.Process(data)
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, data, out)
}

func TestImageProcessor_DownscalesLargeImage(t *testing.T) {
	p := NewImageProcessor(10*1024*1024, 50)

	out, contentType, err := p.Process(pngBytes(t, 200, 100))
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 50, cfg.Width)
	assert.Equal(t, 25, cfg.Height)
}

func TestImageProcessor_RejectsNonImage(t *testing.T) {
	p := NewImageProcessor(1024, 100)

	_, _, err := p.Process([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestImageProcessor_RejectsOversized(t *testing.T) {
	p := NewImageProcessor(10, 100)

	_, _, err := p.Process(pngBytes(t, 10, 10))
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

// hugeDeclaredPNG sửa IHDR của một PNG nhỏ để khai báo w x h (CRC tính lại).
func hugeDeclaredPNG(t *testing.T, w, h uint32) []byte {
	t.Helper()
	data := pngBytes(t, 2, 2)
	// 8 signature | 4 length | "IHDR" | 13 data | 4 crc
	binary.BigEndian.PutUint32(data[16:20], w)
	binary.BigEndian.PutUint32(data[20:24], h)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestImageProcessor_RejectsHugeDeclaredDimensions(t *testing.T) {
	p := NewImageProcessor(1024*1024, 1600)
	data := hugeDeclaredPNG(t, 60000, 60000)
	require.Less(t, len(data), 1024)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 60000, cfg.Width)

	_, _, err = p.Process(data)
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestImageProcessor_PixelLimitIsConfigurable(t *testing.T) {
	p := NewImageProcessor(1024*1024, 1600)
	p.MaxPixels = 100

	_, _, err := p.Process(pngBytes(t, 20, 20))
	assert.ErrorIs(t, err, ErrPayloadTooLarge)

	_, _, err = p.Process(pngBytes(t, 10, 10))
	assert.NoError(t, err)
}
