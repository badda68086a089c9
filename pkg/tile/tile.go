// Package tile splits an image into rectangular tiles and renders them on a
// pool of workers that merge finished tiles into a shared destination.
package tile

import "fmt"

// Tile is a rectangular region of the output image.
type Tile struct {
	X, Y int
	W, H int
}

func (t Tile) String() string {
	return fmt.Sprintf("tile(%d,%d %dx%d)", t.X, t.Y, t.W, t.H)
}

// Clip returns the part of t that lies inside a w*h image.
func (t Tile) Clip(w, h int) Tile {
	if t.X+t.W > w {
		t.W = w - t.X
	}
	if t.Y+t.H > h {
		t.H = h - t.Y
	}
	if t.W < 0 {
		t.W = 0
	}
	if t.H < 0 {
		t.H = 0
	}
	return t
}

// Area returns the number of pixels covered.
func (t Tile) Area() int {
	return t.W * t.H
}

// Generate covers a w*h image with tw*th tiles, row by row from the top
// left. Tiles on the right and bottom edges may extend past the image.
func Generate(w, h, tw, th int) []Tile {
	if w <= 0 || h <= 0 || tw <= 0 || th <= 0 {
		return nil
	}
	tiles := make([]Tile, 0, ((w+tw-1)/tw)*((h+th-1)/th))
	for y := 0; y < h; y += th {
		for x := 0; x < w; x += tw {
			tiles = append(tiles, Tile{X: x, Y: y, W: tw, H: th})
		}
	}
	return tiles
}
