package reference

import (
	"testing"
	"time"
)

func TestPerfectScheduler(t *testing.T) {
	type spec struct {
		total    int
		rTime1   time.Duration
		rTime2   time.Duration
		expRays1 int
		expRays2 int
	}
	specs := []spec{
		// First call splits evenly
		{10, time.Duration(1), time.Duration(5), 5, 5},
		// Second call uses the trace times to assign rays
		{10, time.Duration(1), time.Duration(5), 9, 1},
		// This time worker 2 performed much better
		{10, time.Duration(5), time.Duration(1), 7, 3},
		// Totals may change between calls
		{11, time.Duration(1), time.Duration(1), 8, 3},
	}

	sch := newPerfectScheduler()
	stats := make([]workerStats, 2)
	for index, s := range specs {
		stats[0].BlockTime = s.rTime1
		stats[1].BlockTime = s.rTime2

		blockAssignment := sch.Schedule(stats, s.total)

		if blockAssignment[0] != s.expRays1 {
			t.Fatalf("[spec %d] expected worker 0 to be assigned %d rays; got %d", index, s.expRays1, blockAssignment[0])
		}
		if blockAssignment[1] != s.expRays2 {
			t.Fatalf("[spec %d] expected worker 1 to be assigned %d rays; got %d", index, s.expRays2, blockAssignment[1])
		}

		stats[0].BlockSize = blockAssignment[0]
		stats[1].BlockSize = blockAssignment[1]
	}
}

func TestSchedulerWithoutFeedback(t *testing.T) {
	sch := newPerfectScheduler()
	stats := make([]workerStats, 4)

	blockAssignment := sch.Schedule(stats, 2)
	sum := 0
	for _, n := range blockAssignment {
		if n < 0 {
			t.Fatalf("unexpected negative assignment %v", blockAssignment)
		}
		sum += n
	}
	if sum != 2 {
		t.Fatalf("expected assignments to add up to 2; got %v", blockAssignment)
	}
}
