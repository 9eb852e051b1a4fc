package qrcode

import (
	"encoding/base64"
	"errors"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the image width and height in pixels used when none is configured.
const DefaultSize = 256

var (
	// ErrRender is returned when a QR code cannot be produced.
	ErrRender = errors.New("qrcode: failed to render")

	// ErrEmptyContent is returned when the payload is empty or whitespace.
	ErrEmptyContent = errors.New("qrcode: content cannot be empty")
)

const dataURIPrefix = "data:image/png;base64,"

// Renderer produces PNG QR codes of a fixed size.
type Renderer struct {
	size  int
	level skipqrcode.RecoveryLevel
}

// New returns a Renderer. A non-positive size falls back to DefaultSize.
func New(size int) *Renderer {
	if size <= 0 {
		size = DefaultSize
	}

	return &Renderer{size: size, level: skipqrcode.High}
}

// Render returns the PNG encoding of content.
func (r *Renderer) Render(content string) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errors.Join(ErrRender, ErrEmptyContent)
	}

	png, err := skipqrcode.Encode(content, r.level, r.size)
	if err != nil {
		return nil, errors.Join(ErrRender, err)
	}

	return png, nil
}

// RenderDataURI returns content as a "data:image/png;base64,..." URI.
func (r *Renderer) RenderDataURI(content string) (string, error) {
	png, err := r.Render(content)
	if err != nil {
		return "", err
	}

	return dataURIPrefix + base64.StdEncoding.EncodeToString(png), nil
}
