package voxel

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/klauspost/compress/zstd"

	"github.com/chazu/lumen/pkg/vec"
)

const (
	cacheMagic   = "LVOX"
	cacheVersion = 1

	// maxCacheVoxels guards Load against absurd headers.
	maxCacheVoxels = 1 << 28
)

type cacheHeader struct {
	Magic   [4]byte
	Version uint32
	Size    [3]uint32
	Density float64
	Bounds  [3]float64
}

type cacheVoxel struct {
	Distance float64
	Density  float32
	Material int32
}

// Save writes the buffer to w as a zstd-compressed little-endian stream.
func (b *Buffer) Save(w io.Writer) error {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("voxel: save: %w", err)
	}
	bw := bufio.NewWriter(enc)

	hdr := cacheHeader{
		Version: cacheVersion,
		Size:    [3]uint32{uint32(b.Size[0]), uint32(b.Size[1]), uint32(b.Size[2])},
		Density: b.Density,
		Bounds:  [3]float64{b.Bounds[0], b.Bounds[1], b.Bounds[2]},
	}
	copy(hdr.Magic[:], cacheMagic)
	if err := binary.Write(bw, binary.LittleEndian, &hdr); err != nil {
		enc.Close()
		return fmt.Errorf("voxel: save header: %w", err)
	}
	for i := range b.Data {
		v := cacheVoxel{
			Distance: b.Data[i].Distance,
			Density:  float32(b.Data[i].Density),
			Material: int32(b.Data[i].Material),
		}
		if err := binary.Write(bw, binary.LittleEndian, &v); err != nil {
			enc.Close()
			return fmt.Errorf("voxel: save voxel %d: %w", i, err)
		}
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return fmt.Errorf("voxel: save: %w", err)
	}
	return enc.Close()
}

// Load reads a buffer written by Save. The result is frozen.
func Load(r io.Reader) (*Buffer, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("voxel: load: %w", err)
	}
	defer dec.Close()
	br := bufio.NewReader(dec)

	var hdr cacheHeader
	if err := binary.Read(br, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrBadCache, err)
	}
	if string(hdr.Magic[:]) != cacheMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrBadCache, hdr.Magic[:])
	}
	if hdr.Version != cacheVersion {
		return nil, fmt.Errorf("%w: %d", ErrCacheVersion, hdr.Version)
	}
	total := uint64(hdr.Size[0]) * uint64(hdr.Size[1]) * uint64(hdr.Size[2])
	if total == 0 || total > maxCacheVoxels {
		return nil, fmt.Errorf("%w: %d voxels", ErrBadCache, total)
	}
	if !(hdr.Density > 0) || math.IsInf(hdr.Density, 0) {
		return nil, fmt.Errorf("%w: density %g", ErrBadCache, hdr.Density)
	}
	for _, e := range hdr.Bounds {
		if !(e > 0) {
			return nil, fmt.Errorf("%w: bounds %v", ErrBadCache, hdr.Bounds)
		}
	}

	b := &Buffer{
		Size:    [3]int{int(hdr.Size[0]), int(hdr.Size[1]), int(hdr.Size[2])},
		Density: hdr.Density,
		Bounds:  vec.XYZ(hdr.Bounds[0], hdr.Bounds[1], hdr.Bounds[2]),
		Data:    make([]Voxel, total),
	}
	b.init()
	for i := range b.Data {
		var v cacheVoxel
		if err := binary.Read(br, binary.LittleEndian, &v); err != nil {
			return nil, fmt.Errorf("%w: voxel %d: %v", ErrBadCache, i, err)
		}
		b.Data[i] = Voxel{Distance: v.Distance, Density: float64(v.Density), Material: int(v.Material)}
	}
	b.Freeze()
	logger.Debugf("loaded %dx%dx%d voxel cache", b.Size[0], b.Size[1], b.Size[2])
	return b, nil
}
