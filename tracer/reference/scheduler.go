package reference

import (
	"math"
	"time"
)

// Per-worker feedback from the previous trace call.
type workerStats struct {
	// The number of rays assigned to the worker.
	BlockSize int

	// Time spent tracing the assigned block.
	BlockTime time.Duration
}

// The blockScheduler interface is implemented by algorithms that split a
// ray pack into per-worker blocks.
type blockScheduler interface {
	// Split total rays into blocks using feedback collected from previous
	// calls. Returns the block size for each worker; sizes add up to total.
	Schedule(stats []workerStats, total int) []int
}

// The perfect scheduler assumes that the volume of tracing work between two
// subsequent calls is approximately the same.
type perfectScheduler struct {
	blockAssignment []int
}

func newPerfectScheduler() blockScheduler {
	return &perfectScheduler{}
}

// When previous call information is available the scheduler uses the
// following formula for estimating the workload for worker w and call i+1:
// w_i, f_i+1 = (blockSize,w_i / time,w_i) / Σ(blockSize_i / time_i)
func (sch *perfectScheduler) Schedule(stats []workerStats, total int) []int {
	// The first call or a change in the worker pool resets the assignments
	if len(sch.blockAssignment) != len(stats) || !hasFeedback(stats) {
		sch.blockAssignment = make([]int, len(stats))
		share := total / len(stats)
		for idx := range sch.blockAssignment {
			sch.blockAssignment[idx] = share
		}
		sch.blockAssignment[0] += total - share*len(stats)
		return sch.blockAssignment
	}

	var throughput float64
	for _, st := range stats {
		throughput += float64(st.BlockSize) / float64(st.BlockTime)
	}

	scaler := float64(total) / throughput
	scheduled := 0
	for idx, st := range stats {
		sch.blockAssignment[idx] = int(math.Floor(float64(st.BlockSize) / float64(st.BlockTime) * scaler))
		scheduled += sch.blockAssignment[idx]
	}

	// In case blocks don't add up to the total append the missing ones to the first worker
	sch.blockAssignment[0] += total - scheduled

	return sch.blockAssignment
}

func hasFeedback(stats []workerStats) bool {
	for _, st := range stats {
		if st.BlockSize <= 0 || st.BlockTime <= 0 {
			return false
		}
	}
	return true
}
