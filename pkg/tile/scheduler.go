package tile

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chazu/lumen/pkg/buffer"
)

// Func renders tile t into dst, a private buffer of t's size whose (0, 0)
// is the tile's top-left pixel. t is already clipped to the image.
type Func func(ctx context.Context, t Tile, dst *buffer.Buffer) error

// CheckpointFunc persists a snapshot of the destination buffer.
type CheckpointFunc func(snapshot *buffer.Buffer) error

// Scheduler renders tiles in parallel into a destination buffer.
type Scheduler struct {
	TileW, TileH int

	// Workers is the pool size. Zero means runtime.NumCPU().
	Workers int

	// Sample, when positive, merges tiles as the Sample-th accumulated
	// sample instead of overwriting.
	Sample int

	// Checkpoint, when set, is called with a copy of the destination after
	// every CheckpointEvery merged tiles. Failures are logged, not returned.
	Checkpoint      CheckpointFunc
	CheckpointEvery int
}

// WorkerStats records what one worker did.
type WorkerStats struct {
	ID     int
	Tiles  int
	Pixels int
	Busy   time.Duration
}

// Stats summarizes a Run.
type Stats struct {
	Workers     []WorkerStats
	Tiles       int
	Checkpoints int
	Wall        time.Duration
}

// Pixels returns the number of pixels rendered by all workers.
func (s Stats) Pixels() int {
	n := 0
	for _, w := range s.Workers {
		n += w.Pixels
	}
	return n
}

type stack struct {
	mu    sync.Mutex
	tiles []Tile
}

func (s *stack) pop() (Tile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tiles) == 0 {
		return Tile{}, false
	}
	t := s.tiles[len(s.tiles)-1]
	s.tiles = s.tiles[:len(s.tiles)-1]
	return t, true
}

type run struct {
	s   *Scheduler
	dst *buffer.Buffer
	fn  Func

	queue stack

	dstMu  sync.Mutex
	merged int

	checkpointMu sync.Mutex
	checkpoints  int
}

// Run renders every tile of dst with fn and returns once all workers have
// finished. The first tile error, worker panic or context cancellation stops
// the remaining work and is returned.
func (s *Scheduler) Run(ctx context.Context, dst *buffer.Buffer, fn Func) (Stats, error) {
	start := time.Now()
	tiles := Generate(dst.Width, dst.Height, s.TileW, s.TileH)
	if len(tiles) == 0 {
		return Stats{}, fmt.Errorf("tile: nothing to render for %dx%d image with %dx%d tiles",
			dst.Width, dst.Height, s.TileW, s.TileH)
	}

	workers := s.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(tiles) {
		workers = len(tiles)
	}

	// Pop order is LIFO, so push in reverse to start at the top left.
	r := &run{s: s, dst: dst, fn: fn}
	r.queue.tiles = make([]Tile, len(tiles))
	for i, t := range tiles {
		r.queue.tiles[len(tiles)-1-i] = t
	}

	stats := Stats{Workers: make([]WorkerStats, workers), Tiles: len(tiles)}
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		ws := &stats.Workers[i]
		ws.ID = i
		g.Go(func() error {
			return r.work(ctx, ws)
		})
	}
	err := g.Wait()
	stats.Wall = time.Since(start)
	stats.Checkpoints = r.checkpoints
	if err != nil {
		return stats, err
	}
	logger.Debugf("rendered %d tiles on %d workers in %v", len(tiles), workers, stats.Wall)
	return stats, nil
}

func (r *run) work(ctx context.Context, ws *WorkerStats) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		t, ok := r.queue.pop()
		if !ok {
			return nil
		}
		t = t.Clip(r.dst.Width, r.dst.Height)
		if t.Area() == 0 {
			continue
		}

		tb := buffer.New(t.W, t.H)
		began := time.Now()
		if err := r.render(ctx, t, tb); err != nil {
			return err
		}
		ws.Busy += time.Since(began)
		ws.Tiles++
		ws.Pixels += t.Area()

		r.merge(t, tb)
	}
}

func (r *run) render(ctx context.Context, t Tile, tb *buffer.Buffer) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("tile: panic rendering %v: %v", t, p)
		}
	}()
	if err := r.fn(ctx, t, tb); err != nil {
		return fmt.Errorf("tile: %v: %w", t, err)
	}
	return nil
}

// merge copies a finished tile into the destination. The checkpoint snapshot
// is taken under the lock but written after it is released.
func (r *run) merge(t Tile, tb *buffer.Buffer) {
	var snapshot *buffer.Buffer

	r.dstMu.Lock()
	if r.s.Sample > 0 {
		r.dst.AccumFrom(tb, t.X, t.Y, r.s.Sample)
	} else {
		r.dst.CopyFrom(tb, t.X, t.Y)
	}
	r.merged++
	every := r.s.CheckpointEvery
	if every <= 0 {
		every = 1
	}
	if r.s.Checkpoint != nil && r.merged%every == 0 {
		snapshot = r.dst.Clone()
	}
	r.dstMu.Unlock()

	if snapshot == nil {
		return
	}
	r.checkpointMu.Lock()
	defer r.checkpointMu.Unlock()
	if err := r.s.Checkpoint(snapshot); err != nil {
		logger.Warningf("checkpoint failed: %v", err)
		return
	}
	r.checkpoints++
}
