package hwvg

import "github.com/gogpu/hwvg/gpucore"

// batch is one pending draw call: geometry sharing a single GPU state.
type batch struct {
	state    gpucore.DrawState
	vertices []gpucore.Vertex
	indices  []uint32
}

// batcher accumulates shaded geometry into state-compatible batches and
// submits them in accumulation order. Order is load-bearing: source-over
// blending of overlapping shapes depends on it.
type batcher struct {
	ctx      gpucore.Context
	maxVerts int
	pending  []*batch
}

func newBatcher(ctx gpucore.Context, maxVerts int) *batcher {
	return &batcher{ctx: ctx, maxVerts: maxVerts}
}

// add appends geometry. It extends the current batch when the state
// matches and the vertex limit allows, otherwise it opens a new batch.
func (b *batcher) add(state gpucore.DrawState, vertices []gpucore.Vertex, indices []uint32) {
	if len(indices) == 0 {
		return
	}
	if n := len(b.pending); n > 0 {
		last := b.pending[n-1]
		if last.state == state && len(last.vertices)+len(vertices) <= b.maxVerts {
			base := uint32(len(last.vertices))
			last.vertices = append(last.vertices, vertices...)
			for _, idx := range indices {
				last.indices = append(last.indices, base+idx)
			}
			return
		}
	}
	nb := &batch{state: state}
	nb.vertices = append(nb.vertices, vertices...)
	nb.indices = append(nb.indices, indices...)
	b.pending = append(b.pending, nb)
}

// flush submits every pending batch in order and clears the queue.
// On error the remaining batches are dropped: a failed submission
// leaves the frame unrecoverable anyway.
func (b *batcher) flush() error {
	pending := b.pending
	b.pending = nil
	for _, batch := range pending {
		if err := b.ctx.Draw(batch.state, batch.vertices, batch.indices); err != nil {
			return backendErr("Draw", err)
		}
	}
	return nil
}

// drop discards all pending batches without submitting.
func (b *batcher) drop() {
	b.pending = nil
}

// batchCount returns the number of pending batches.
func (b *batcher) batchCount() int {
	return len(b.pending)
}
