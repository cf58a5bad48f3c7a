package store

import (
	"context"
	"time"

	"mediascan/internal/types"
)

const (
	// flushRetries bounds how often a failed batch is retried before it is
	// recorded as a persistence error and dropped from the durable path.
	flushRetries = 3
	retryBackoff = 100 * time.Millisecond
)

// Batcher accumulates classified records and flushes them to the store in
// FIFO transactional batches. Its intake queue is bounded: when it fills,
// producers block, which is the backpressure that keeps memory bounded.
//
// The batcher is designed for single-use: create with NewBatcher, feed it
// from one goroutine, then Close to flush the remainder.
type Batcher struct {
	store     *Store
	batchSize int
	ops       chan batchOp
	done      chan struct{}
	errs      chan<- *types.ScanError
}

// batchOp is either an upsert (file set) or a delete (path set).
type batchOp struct {
	file   *types.ScannedFile
	delete string
}

// NewBatcher starts the single writer goroutine. Flush failures are retried
// a bounded number of times, then reported on errs; they never stop intake.
func NewBatcher(s *Store, batchSize int, errs chan<- *types.ScanError) *Batcher {
	b := &Batcher{
		store:     s,
		batchSize: batchSize,
		ops:       make(chan batchOp, batchSize*2),
		done:      make(chan struct{}),
		errs:      errs,
	}
	go b.loop()
	return b
}

// Put queues one upsert. Blocks when the intake queue is full.
func (b *Batcher) Put(f types.ScannedFile) {
	b.ops <- batchOp{file: &f}
}

// Delete queues one row deletion. Blocks when the intake queue is full.
func (b *Batcher) Delete(path string) {
	b.ops <- batchOp{delete: path}
}

// Close flushes the final partial batch and waits for the writer to finish.
func (b *Batcher) Close() {
	close(b.ops)
	<-b.done
}

// loop is the only goroutine touching the store's write handle.
func (b *Batcher) loop() {
	defer close(b.done)

	upserts := make([]types.ScannedFile, 0, b.batchSize)
	deletes := make([]string, 0, b.batchSize)

	for op := range b.ops {
		if op.file != nil {
			upserts = append(upserts, *op.file)
		} else {
			deletes = append(deletes, op.delete)
		}
		if len(upserts)+len(deletes) >= b.batchSize {
			b.flush(upserts, deletes)
			upserts = upserts[:0]
			deletes = deletes[:0]
		}
	}
	b.flush(upserts, deletes)
}

// flush commits one batch, retrying on failure. After the final retry the
// failure is reported and the batch is abandoned; the in-memory results
// still reflect these records.
func (b *Batcher) flush(upserts []types.ScannedFile, deletes []string) {
	if len(upserts) == 0 && len(deletes) == 0 {
		return
	}

	var err error
	for attempt := 0; attempt < flushRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(retryBackoff * time.Duration(attempt))
		}
		if err = b.store.Apply(context.Background(), upserts, deletes); err == nil {
			return
		}
	}
	b.errs <- types.DatabaseError(err)
}
