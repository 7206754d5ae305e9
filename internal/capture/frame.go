package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"  // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
)

// Frame is a rectangular RGBA pixel buffer produced by a camera or decoded
// from an uploaded image. Pix holds 4 bytes per pixel in row-major order.
type Frame struct {
	Width  int
	Height int
	Pix    []byte
}

// FrameFromImage converts any decoded image into a Frame.
func FrameFromImage(img image.Image) Frame {
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return Frame{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Pix:    rgba.Pix,
	}
}

// DecodeFrame decodes raw image bytes (PNG, JPEG or GIF) into a Frame.
func DecodeFrame(data []byte) (Frame, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Frame{}, fmt.Errorf("decoding image: %w", err)
	}
	return FrameFromImage(img), nil
}

// Image converts the frame back into an image for encoding.
func (f Frame) Image() *image.RGBA {
	rgba := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	copy(rgba.Pix, f.Pix)
	return rgba
}

// EncodeJPEG encodes the frame as a JPEG suitable for submission to the
// analysis service.
func (f Frame) EncodeJPEG() ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, f.Image(), &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

const jpegQuality = 80
