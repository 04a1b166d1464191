// Package avatars validates, normalises and stores profile pictures. Every
// stored avatar is a 250x250 PNG, one per user.
package avatars

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"net/http"

	"golang.org/x/image/draw"
)

const (
	Size            = 250
	DefaultMaxBytes = 1 << 20
	ContentType     = "image/png"
	// MaxDimension bounds the width and height of an upload; decoding
	// allocates from the header before any pixel is read
	MaxDimension = 4096
)

var acceptedTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
}

// Problem describes why an upload was refused; the message is client facing
type Problem struct {
	Message string
}

func (p *Problem) Error() string {
	return p.Message
}

// Process checks an upload and returns it as a Size x Size PNG. Images that
// are not square are centre-cropped before scaling.
func Process(data []byte, maxBytes int64) ([]byte, error) {
	if len(data) == 0 {
		return nil, &Problem{Message: "please upload an image"}
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, &Problem{Message: fmt.Sprintf("file too large, the limit is %d bytes", maxBytes)}
	}
	if !acceptedTypes[http.DetectContentType(data)] {
		return nil, &Problem{Message: "please upload a jpg, jpeg or png image"}
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, &Problem{Message: "please upload a valid image"}
	}
	if cfg.Width > MaxDimension || cfg.Height > MaxDimension {
		return nil, &Problem{Message: fmt.Sprintf("image too large, the limit is %dx%d pixels", MaxDimension, MaxDimension)}
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &Problem{Message: "please upload a valid image"}
	}

	dst := image.NewRGBA(image.Rect(0, 0, Size, Size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, squareCrop(src.Bounds()), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode avatar: %w", err)
	}
	return buf.Bytes(), nil
}

func squareCrop(b image.Rectangle) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	if w == h {
		return b
	}
	if w > h {
		off := (w - h) / 2
		return image.Rect(b.Min.X+off, b.Min.Y, b.Min.X+off+h, b.Max.Y)
	}
	off := (h - w) / 2
	return image.Rect(b.Min.X, b.Min.Y+off, b.Max.X, b.Min.Y+off+w)
}
