// Package buffer provides float RGBA pixel storage for render targets and
// tiles, with tile merging, progressive accumulation and 8-bit export.
package buffer

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/chazu/lumen/pkg/vec"
)

// Gamma is the exponent applied by gamma-corrected export.
const Gamma = 0.4545

// Buffer holds Width*Height RGBA pixels as float32, row-major from the top
// left. Path, when set, is where Save writes by default.
type Buffer struct {
	Width  int
	Height int
	Pix    []float32
	Path   string
}

// New allocates a zeroed buffer.
func New(w, h int) *Buffer {
	return &Buffer{Width: w, Height: h, Pix: make([]float32, 4*w*h)}
}

func (b *Buffer) offset(x, y int) int {
	return 4 * (y*b.Width + x)
}

// In reports whether (x, y) lies inside the buffer.
func (b *Buffer) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.Width && y < b.Height
}

// At returns pixel (x, y).
func (b *Buffer) At(x, y int) vec.Vec4 {
	o := b.offset(x, y)
	p := b.Pix[o : o+4 : o+4]
	return vec.XYZW(float64(p[0]), float64(p[1]), float64(p[2]), float64(p[3]))
}

// Set stores c at pixel (x, y).
func (b *Buffer) Set(x, y int, c vec.Vec4) {
	o := b.offset(x, y)
	p := b.Pix[o : o+4 : o+4]
	p[0], p[1], p[2], p[3] = float32(c[0]), float32(c[1]), float32(c[2]), float32(c[3])
}

// Fill sets every pixel to c.
func (b *Buffer) Fill(c vec.Vec4) {
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			b.Set(x, y, c)
		}
	}
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	c := &Buffer{Width: b.Width, Height: b.Height, Path: b.Path, Pix: make([]float32, len(b.Pix))}
	copy(c.Pix, b.Pix)
	return c
}

// CopyFrom writes src into b with its top-left corner at (x, y). Pixels
// falling outside b are dropped.
func (b *Buffer) CopyFrom(src *Buffer, x, y int) {
	b.blend(src, x, y, func(dst, s []float32) {
		copy(dst, s)
	})
}

// AccumFrom folds src into b as the n-th sample of a running average:
// new = old*(1-1/n) + sample/n. n below 1 is treated as 1.
func (b *Buffer) AccumFrom(src *Buffer, x, y, n int) {
	if n < 1 {
		n = 1
	}
	w := 1 / float32(n)
	b.blend(src, x, y, func(dst, s []float32) {
		for i := range dst {
			dst[i] = dst[i]*(1-w) + s[i]*w
		}
	})
}

func (b *Buffer) blend(src *Buffer, x, y int, op func(dst, src []float32)) {
	for sy := 0; sy < src.Height; sy++ {
		dy := y + sy
		if dy < 0 || dy >= b.Height {
			continue
		}
		x0, x1 := 0, src.Width
		if x < 0 {
			x0 = -x
		}
		if x+x1 > b.Width {
			x1 = b.Width - x
		}
		if x0 >= x1 {
			continue
		}
		so := src.offset(x0, sy)
		do := b.offset(x+x0, dy)
		n := 4 * (x1 - x0)
		op(b.Pix[do:do+n], src.Pix[so:so+n])
	}
}

// ToU8 converts the buffer to 8-bit RGBA. With gamma set, color channels are
// raised to Gamma first; alpha is always linear.
func (b *Buffer) ToU8(gamma bool) []uint8 {
	out := make([]uint8, len(b.Pix))
	for i, f := range b.Pix {
		v := float64(f)
		if gamma && i%4 != 3 {
			v = math.Pow(math.Max(v, 0), Gamma)
		}
		out[i] = toByte(v)
	}
	return out
}

func toByte(v float64) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(v * 255))
}

// ToImage converts the buffer to a non-premultiplied 8-bit image.
func (b *Buffer) ToImage(gamma bool) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	copy(img.Pix, b.ToU8(gamma))
	return img
}

// WritePNG encodes the buffer as PNG to w.
func (b *Buffer) WritePNG(w io.Writer, gamma bool) error {
	return png.Encode(w, b.ToImage(gamma))
}

// SavePNG writes the buffer to path. The file is written next to its
// destination and renamed into place, so readers never see a partial image.
func (b *Buffer) SavePNG(path string, gamma bool) error {
	if path == "" {
		path = b.Path
	}
	if path == "" {
		return fmt.Errorf("buffer: no output path")
	}
	return writeAtomic(path, func(w io.Writer) error {
		return b.WritePNG(w, gamma)
	})
}

func writeAtomic(path string, write func(io.Writer) error) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("buffer: %w", err)
	}
	tmp := f.Name()
	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("buffer: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("buffer: write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("buffer: %w", err)
	}
	return nil
}

// FromImage loads an image into a new buffer without gamma decoding.
func FromImage(img image.Image) *Buffer {
	r := img.Bounds()
	b := New(r.Dx(), r.Dy())
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			c := color.NRGBAModel.Convert(img.At(r.Min.X+x, r.Min.Y+y)).(color.NRGBA)
			b.Set(x, y, vec.XYZW(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255, float64(c.A)/255))
		}
	}
	return b
}
