// Package layout composes print requests into monochrome raster images.
// It is pure: no I/O and no device knowledge beyond the paper width.
package layout

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"strings"
	"sync"

	"github.com/boombuler/barcode/qr"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/math/fixed"
)

var (
	ErrFontUnusable = errors.New("no usable monospace font")
	ErrQREncode     = errors.New("QR payload cannot be encoded")
)

const (
	fontDPI = 203 // match printer DPI

	// A text column is a fixed cell of dots; the font is then sized to
	// fill however many whole cells the text area holds.
	charCellDots = 12

	maxFontPt = 72.0
	minFontPt = 4.0
)

var (
	fontOnce sync.Once
	monoFont *truetype.Font
	fontErr  error
)

func loadFont() (*truetype.Font, error) {
	fontOnce.Do(func() {
		monoFont, fontErr = truetype.Parse(gomonobold.TTF)
	})
	if fontErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrFontUnusable, fontErr)
	}
	return monoFont, nil
}

// Columns returns the column budget for a text area width in dots.
func Columns(textAreaDots int) int {
	c := textAreaDots / charCellDots
	if c < 1 {
		c = 1
	}
	return c
}

// Compose renders display text, and optionally a QR code, into a
// grayscale image exactly printerWidthDots wide. An empty qrData means
// text-only: the text spans the full width. With a QR present, the
// left half of the width is the QR (vertically centered) and the right
// half is the text block (vertically centered independently).
func Compose(displayText, qrData string, printerWidthDots int) (*image.Gray, error) {
	if printerWidthDots < 8 {
		return nil, fmt.Errorf("printer width %d dots is too narrow", printerWidthDots)
	}

	f, err := loadFont()
	if err != nil {
		return nil, err
	}

	qrSize := 0
	var qrImg *image.Gray
	if qrData != "" {
		qrSize = printerWidthDots / 2
		qrImg, err = renderQR(qrData, qrSize)
		if err != nil {
			return nil, err
		}
	}

	textArea := printerWidthDots - qrSize
	columns := Columns(textArea)
	face, size := fitFace(f, textArea, columns)
	defer face.Close()

	lines := SplitLines(displayText, columns)
	lineHeight := face.Metrics().Height.Ceil()
	ascent := face.Metrics().Ascent.Ceil()
	textHeight := lineHeight * len(lines)
	if textHeight < lineHeight {
		textHeight = lineHeight
	}

	totalHeight := textHeight
	if qrSize > totalHeight {
		totalHeight = qrSize
	}

	out := image.NewGray(image.Rect(0, 0, printerWidthDots, totalHeight))
	draw.Draw(out, out.Bounds(), image.White, image.Point{}, draw.Src)

	if qrImg != nil {
		top := (totalHeight - qrSize) / 2
		draw.Draw(out, image.Rect(0, top, qrSize, top+qrSize), qrImg, image.Point{}, draw.Src)
	}

	c := freetype.NewContext()
	c.SetDPI(fontDPI)
	c.SetFont(f)
	c.SetFontSize(size)
	c.SetClip(out.Bounds())
	c.SetDst(out)
	c.SetSrc(image.Black)
	c.SetHinting(font.HintingFull)

	y := (totalHeight-textHeight)/2 + ascent
	for _, line := range lines {
		if line != "" {
			if _, err := c.DrawString(line, freetype.Pt(qrSize, y)); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrFontUnusable, err)
			}
		}
		y += lineHeight
	}

	return out, nil
}

// renderQR encodes data at medium error correction, adds a one-module
// quiet zone, and resamples to exactly size x size dots.
func renderQR(data string, size int) (*image.Gray, error) {
	code, err := qr.Encode(data, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQREncode, err)
	}

	modules := code.Bounds().Dx()
	padded := image.NewGray(image.Rect(0, 0, modules+2, modules+2))
	draw.Draw(padded, padded.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(padded, image.Rect(1, 1, 1+modules, 1+modules), code, code.Bounds().Min, draw.Src)

	dst := image.NewGray(image.Rect(0, 0, size, size))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), padded, padded.Bounds(), xdraw.Src, nil)
	return dst, nil
}

// fitFace picks the largest point size whose rendered width at the
// column count still fits the text area.
func fitFace(f *truetype.Font, areaWidth, columns int) (font.Face, float64) {
	sample := strings.Repeat("M", columns)
	for size := maxFontPt; size > minFontPt; size -= 0.5 {
		face := truetype.NewFace(f, &truetype.Options{Size: size, DPI: fontDPI, Hinting: font.HintingFull})
		if measureString(face, sample) <= areaWidth {
			return face, size
		}
		face.Close()
	}
	return truetype.NewFace(f, &truetype.Options{Size: minFontPt, DPI: fontDPI, Hinting: font.HintingFull}), minFontPt
}

// measureString returns the advance width of a string in pixels.
func measureString(face font.Face, s string) int {
	var width fixed.Int26_6
	for _, r := range s {
		adv, ok := face.GlyphAdvance(r)
		if ok {
			width += adv
		}
	}
	return width.Ceil()
}
