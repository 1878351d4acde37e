// Package tspl turns a raster image and a device profile into the raw
// TSPL2 command bytes a TiMini-family printer consumes. Everything
// outside this package treats the result as an opaque byte stream.
package tspl

import (
	"fmt"
	"image"
	"strings"

	"timini-print/internal/device"
)

const (
	// 203 dpi heads place 8 dots per millimetre.
	dotsPerMM = 8

	// Luminance below this prints black.
	defaultThreshold = 128
)

// Command builds TSPL2 commands
type Command struct {
	buf strings.Builder
}

func New() *Command {
	return &Command{}
}

// Size sets label dimensions
func (c *Command) Size(width, height float64) *Command {
	fmt.Fprintf(&c.buf, "SIZE %.1f mm,%.1f mm\r\n", width, height)
	return c
}

// Gap sets gap between labels
func (c *Command) Gap(gap, offset float64) *Command {
	fmt.Fprintf(&c.buf, "GAP %.1f mm,%.1f mm\r\n", gap, offset)
	return c
}

// Direction sets print direction (0 or 1)
func (c *Command) Direction(dir, mirror int) *Command {
	fmt.Fprintf(&c.buf, "DIRECTION %d,%d\r\n", dir, mirror)
	return c
}

// Density sets print darkness (0-15)
func (c *Command) Density(level int) *Command {
	if level < 0 {
		level = 0
	}
	if level > 15 {
		level = 15
	}
	fmt.Fprintf(&c.buf, "DENSITY %d\r\n", level)
	return c
}

// CLS clears the image buffer
func (c *Command) CLS() *Command {
	c.buf.WriteString("CLS\r\n")
	return c
}

// Bitmap adds a bitmap image
// x, y: position in dots
// widthBytes: width in bytes (pixels / 8)
// height: height in dots
// data: raw 1-bit bitmap data
func (c *Command) Bitmap(x, y, widthBytes, height int, data []byte) *Command {
	fmt.Fprintf(&c.buf, "BITMAP %d,%d,%d,%d,1,", x, y, widthBytes, height)
	c.buf.Write(data)
	c.buf.WriteString("\r\n")
	return c
}

// Print prints n copies
func (c *Command) Print(copies int) *Command {
	fmt.Fprintf(&c.buf, "PRINT %d\r\n", copies)
	return c
}

// Bytes returns the raw command bytes to send to printer
func (c *Command) Bytes() []byte {
	return []byte(c.buf.String())
}

// String returns the command as a string (for debugging)
func (c *Command) String() string {
	return c.buf.String()
}

// Encode builds the complete command stream for one print job. The
// image must already be composed at the profile's normalized width.
func Encode(img *image.Gray, profile device.Profile, density int) ([]byte, error) {
	width := profile.NormalizedWidth()
	if img.Bounds().Dx() != width {
		return nil, fmt.Errorf("raster is %d dots wide, profile wants %d", img.Bounds().Dx(), width)
	}
	height := img.Bounds().Dy()
	bitmap := packRaster(img, width, height, defaultThreshold)

	cmd := New()
	cmd.Size(float64(width)/dotsPerMM, float64(height)/dotsPerMM).
		Gap(0, 0).
		Direction(0, 0).
		Density(density).
		CLS().
		Bitmap(0, 0, width/8, height, bitmap).
		Print(1)
	return cmd.Bytes(), nil
}

// packRaster thresholds grayscale into 1-bit rows, MSB first, one bit
// set per dark dot. Width must be divisible by 8.
func packRaster(img *image.Gray, width, height int, threshold uint8) []byte {
	widthBytes := width / 8
	data := make([]byte, widthBytes*height)

	min := img.Bounds().Min
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gray := img.GrayAt(min.X+x, min.Y+y).Y

			var bit uint8
			if gray < threshold {
				bit = 1 // dark pixel
			}

			byteIdx := y*widthBytes + x/8
			bitIdx := 7 - (x % 8)
			data[byteIdx] |= bit << bitIdx
		}
	}

	return data
}
