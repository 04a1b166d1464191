package avatars_test

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/jrsteele09/go-account-service/avatars"
	"github.com/stretchr/testify/require"
)

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(w, h)))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(w, h), nil))
	return buf.Bytes()
}

func requireAvatarPNG(t *testing.T, data []byte) {
	t.Helper()
	img, format, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, "png", format)
	require.Equal(t, avatars.Size, img.Bounds().Dx())
	require.Equal(t, avatars.Size, img.Bounds().Dy())
}

func TestProcess_Accepts(t *testing.T) {
	t.Run("png", func(t *testing.T) {
		out, err := avatars.Process(encodePNG(t, 64, 64), avatars.DefaultMaxBytes)
		require.NoError(t, err)
		requireAvatarPNG(t, out)
	})

	t.Run("jpeg becomes png", func(t *testing.T) {
		out, err := avatars.Process(encodeJPEG(t, 300, 120), avatars.DefaultMaxBytes)
		require.NoError(t, err)
		requireAvatarPNG(t, out)
	})

	t.Run("tall image", func(t *testing.T) {
		out, err := avatars.Process(encodePNG(t, 40, 500), avatars.DefaultMaxBytes)
		require.NoError(t, err)
		requireAvatarPNG(t, out)
	})
}

func TestProcess_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		max     int64
		wantMsg string
	}{
		{name: "empty", data: nil, max: avatars.DefaultMaxBytes, wantMsg: "please upload an image"},
		{name: "text", data: []byte("just some text, not a picture"), max: avatars.DefaultMaxBytes, wantMsg: "jpg, jpeg or png"},
		{name: "gif", data: []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;"), max: avatars.DefaultMaxBytes, wantMsg: "jpg, jpeg or png"},
		{name: "truncated png", data: []byte("\x89PNG\r\n\x1a\n\x00\x00"), max: avatars.DefaultMaxBytes, wantMsg: "valid image"},
		{name: "too large", data: bytes.Repeat([]byte{0xff}, 2048), max: 1024, wantMsg: "too large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := avatars.Process(tt.data, tt.max)
			require.Error(t, err)
			var problem *avatars.Problem
			require.ErrorAs(t, err, &problem)
			require.Contains(t, problem.Message, tt.wantMsg)
		})
	}
}

// withPNGSize rewrites the IHDR dimensions of a PNG and fixes up its checksum
func withPNGSize(t *testing.T, data []byte, w, h uint32) []byte {
	t.Helper()
	out := append([]byte(nil), data...)
	// signature(8) length(4) then "IHDR" and 13 bytes of header data
	require.Equal(t, "IHDR", string(out[12:16]))
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestProcess_RejectsOversizedDimensions(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "forged 12000x12000 header", data: withPNGSize(t, encodePNG(t, 8, 8), 12000, 12000)},
		{name: "too wide", data: encodePNG(t, avatars.MaxDimension+1, 1)},
		{name: "too tall", data: encodePNG(t, 1, avatars.MaxDimension+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Less(t, int64(len(tt.data)), int64(avatars.DefaultMaxBytes))

			_, err := avatars.Process(tt.data, avatars.DefaultMaxBytes)
			var problem *avatars.Problem
			require.ErrorAs(t, err, &problem)
			require.Contains(t, problem.Message, "image too large")
		})
	}

	t.Run("at the limit", func(t *testing.T) {
		out, err := avatars.Process(encodePNG(t, avatars.MaxDimension, 2), avatars.DefaultMaxBytes)
		require.NoError(t, err)
		requireAvatarPNG(t, out)
	})
}
