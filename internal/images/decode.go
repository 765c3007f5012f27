package images

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/webp"
)

var (
	// ErrEmptyImage is returned for assets that decode to zero width or height.
	ErrEmptyImage = errors.New("image has zero dimensions")

	// ErrNoReference is returned when an item carries no image reference.
	ErrNoReference = errors.New("no image reference")
)

// Decode decodes PNG, JPEG, GIF or WebP bytes, rejecting zero-sized images.
func Decode(data []byte) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, ErrEmptyImage
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, ErrEmptyImage
	}
	return img, nil
}

// decodeDataURL extracts the payload of a base64 data URL.
func decodeDataURL(u string) ([]byte, error) {
	comma := strings.IndexByte(u, ',')
	if comma < 0 {
		return nil, errors.New("malformed data url")
	}
	meta, payload := u[len("data:"):comma], u[comma+1:]
	if !strings.HasSuffix(meta, ";base64") {
		return nil, errors.New("data url is not base64")
	}
	return base64.StdEncoding.DecodeString(payload)
}
