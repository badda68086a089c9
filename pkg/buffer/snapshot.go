package buffer

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/golang/snappy"
)

const (
	snapshotMagic = "LFRM"

	// maxSnapshotPixels guards ReadSnapshot against absurd headers.
	maxSnapshotPixels = 1 << 26
)

type snapshotHeader struct {
	Magic   [4]byte
	Width   uint32
	Height  uint32
	Samples uint32
}

// WriteSnapshot stores the float pixels and the number of samples already
// accumulated as a snappy-framed stream, so a progressive render can resume.
func (b *Buffer) WriteSnapshot(w io.Writer, samples int) error {
	sw := snappy.NewBufferedWriter(w)
	hdr := snapshotHeader{Width: uint32(b.Width), Height: uint32(b.Height), Samples: uint32(samples)}
	copy(hdr.Magic[:], snapshotMagic)
	if err := binary.Write(sw, binary.LittleEndian, &hdr); err != nil {
		sw.Close()
		return fmt.Errorf("buffer: snapshot header: %w", err)
	}
	if err := binary.Write(sw, binary.LittleEndian, b.Pix); err != nil {
		sw.Close()
		return fmt.Errorf("buffer: snapshot pixels: %w", err)
	}
	return sw.Close()
}

// ReadSnapshot reads a snapshot written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*Buffer, int, error) {
	br := bufio.NewReader(snappy.NewReader(r))
	var hdr snapshotHeader
	if err := binary.Read(br, binary.LittleEndian, &hdr); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}
	if string(hdr.Magic[:]) != snapshotMagic {
		return nil, 0, fmt.Errorf("%w: bad magic", ErrBadSnapshot)
	}
	if n := uint64(hdr.Width) * uint64(hdr.Height); n == 0 || n > maxSnapshotPixels {
		return nil, 0, fmt.Errorf("%w: %dx%d", ErrBadSnapshot, hdr.Width, hdr.Height)
	}
	b := New(int(hdr.Width), int(hdr.Height))
	if err := binary.Read(br, binary.LittleEndian, b.Pix); err != nil {
		return nil, 0, fmt.Errorf("%w: pixels: %v", ErrBadSnapshot, err)
	}
	return b, int(hdr.Samples), nil
}

// SaveSnapshot writes a snapshot file atomically.
func (b *Buffer) SaveSnapshot(path string, samples int) error {
	return writeAtomic(path, func(w io.Writer) error {
		return b.WriteSnapshot(w, samples)
	})
}

// LoadSnapshot reads a snapshot file.
func LoadSnapshot(path string) (*Buffer, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("could not read file %q: %w", path, err)
	}
	defer f.Close()
	return ReadSnapshot(f)
}
