package evaluation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ProgressFunc is called after each chunk completes with the number of
// items finished so far and the batch total.
type ProgressFunc func(completed, total int)

// Scheduler drives a batch: inputs are partitioned into fixed-size chunks,
// items within a chunk run concurrently, chunks run strictly sequentially
// with a delay in between (never after the last one). Every input yields
// exactly one result in its original slot; a failed item becomes a fallback
// result and the batch continues.
type Scheduler struct {
	ChunkSize  int
	ChunkDelay time.Duration
	Evaluate   func(ctx context.Context, in EvaluationInput) (EvaluationResult, error)
	OnProgress ProgressFunc
	Logger     *zap.Logger
}

// Run processes inputs and returns one result per input, index-stable, plus
// the per-item failure reasons that were converted into fallbacks.
func (s *Scheduler) Run(ctx context.Context, inputs []EvaluationInput) ([]EvaluationResult, []ItemError) {
	total := len(inputs)
	results := make([]EvaluationResult, total)
	var itemErrs []ItemError
	var errMu sync.Mutex

	chunkSize := s.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 3
	}
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	completed := 0
	for start := 0; start < total; start += chunkSize {
		end := start + chunkSize
		if end > total {
			end = total
		}
		chunk := inputs[start:end]

		s.runChunk(ctx, chunk, results, func(index int, reason string) {
			errMu.Lock()
			itemErrs = append(itemErrs, ItemError{Index: index, Reason: reason})
			errMu.Unlock()
		}, logger)

		completed += len(chunk)
		if s.OnProgress != nil {
			s.OnProgress(completed, total)
		}

		if end < total && s.ChunkDelay > 0 {
			select {
			case <-time.After(s.ChunkDelay):
			case <-ctx.Done():
			}
		}
	}

	return results, itemErrs
}

// runChunk fans out one chunk and joins on all of it. Each slot is written
// by original index, so completion order never reorders the output. A panic
// anywhere in the chunk converts the whole chunk to fallbacks instead of
// taking down the batch.
func (s *Scheduler) runChunk(ctx context.Context, chunk []EvaluationInput, results []EvaluationResult, recordErr func(int, string), logger *zap.Logger) {
	defer func() {
		if r := recover(); r != nil {
			reason := fmt.Sprintf("chunk processing panicked: %v", r)
			logger.Error("evaluation chunk failed", zap.Any("panic", r))
			for _, in := range chunk {
				if results[in.Index].UIType == "" {
					results[in.Index] = Fallback(in, reason)
					recordErr(in.Index, reason)
				}
			}
		}
	}()

	var wg sync.WaitGroup
	for _, in := range chunk {
		wg.Add(1)
		go func(in EvaluationInput) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					reason := fmt.Sprintf("evaluation panicked: %v", r)
					logger.Error("evaluation item panicked",
						zap.Int("index", in.Index), zap.Any("panic", r))
					results[in.Index] = Fallback(in, reason)
					recordErr(in.Index, reason)
				}
			}()

			result, err := s.Evaluate(ctx, in)
			if err != nil {
				logger.Warn("evaluation item failed",
					zap.Int("index", in.Index),
					zap.String("image_ref", in.ImageRef),
					zap.Error(err))
				results[in.Index] = Fallback(in, err.Error())
				recordErr(in.Index, err.Error())
				return
			}
			results[in.Index] = result
		}(in)
	}
	wg.Wait()
}
