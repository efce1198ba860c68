package storage

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
)

// DefaultMaxImagePixels chặn ảnh nhỏ về bytes nhưng khai báo kích thước cực lớn
// (decode sẽ cấp phát 4*W*H bytes).
const DefaultMaxImagePixels = 40_000_000

type ImageProcessor struct {
	MaxSize      int64 // bytes (default: 5MB)
	MaxDimension int   // px, cạnh dài nhất sau khi xử lý
	MaxPixels    int64 // width*height tối đa trước khi decode
}

func NewImageProcessor(maxSize int64, maxDimension int) *ImageProcessor {
	if maxSize <= 0 {
		maxSize = 5 * 1024 * 1024
	}
	if maxDimension <= 0 {
		maxDimension = 1600
	}
	return &ImageProcessor{MaxSize: maxSize, MaxDimension: maxDimension, MaxPixels: DefaultMaxImagePixels}
}

var imageFormats = map[string]imaging.Format{
	"jpeg": imaging.JPEG,
	"png":  imaging.PNG,
	"gif":  imaging.GIF,
}

var contentTypes = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
}

// ValidateImage check size + JPEG/PNG/GIF, trả về format đã detect
func (p *ImageProcessor) ValidateImage(data []byte) (string, image.Config, error) {
	if int64(len(data)) > p.MaxSize {
		return "", image.Config{}, fmt.Errorf("%w: image exceeds %dMB", ErrPayloadTooLarge, p.MaxSize/(1024*1024))
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", image.Config{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if _, ok := imageFormats[format]; !ok {
		return "", image.Config{}, fmt.Errorf("%w: format %s not allowed (only jpeg/png/gif)", ErrInvalidImage, format)
	}
	if p.MaxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > p.MaxPixels {
		return "", image.Config{}, fmt.Errorf("%w: image is %dx%d, max %d pixels", ErrPayloadTooLarge, cfg.Width, cfg.Height, p.MaxPixels)
	}
	return format, cfg, nil
}

// Process validate rồi downscale nếu ảnh lớn hơn MaxDimension.
// Ảnh nhỏ hơn được giữ nguyên bytes gốc.
func (p *ImageProcessor) Process(data []byte) ([]byte, string, error) {
	format, cfg, err := p.ValidateImage(data)
	if err != nil {
		return nil, "", err
	}
	contentType := contentTypes[format]

	if cfg.Width <= p.MaxDimension && cfg.Height <= p.MaxDimension {
		return data, contentType, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: cannot decode: %v", ErrInvalidImage, err)
	}

	resized := imaging.Fit(img, p.MaxDimension, p.MaxDimension, imaging.Lanczos)

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, resized, imageFormats[format], imaging.JPEGQuality(90)); err != nil {
		return nil, "", fmt.Errorf("cannot encode %s: %w", format, err)
	}
	return buf.Bytes(), contentType, nil
}
