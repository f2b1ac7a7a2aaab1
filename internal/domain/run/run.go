package run

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// runSeqCounter is an atomic counter giving every batch a process-wide sequence number
var runSeqCounter uint64

// Run identifies one batch execution of pipeline steps.
// It carries no rollback state: the table store is mutated in place.
type Run struct {
	ID        string    // Unique run identifier (UUID)
	Seq       uint64    // Monotonic sequence number within the process
	Pipeline  string    // Pipeline the run belongs to
	Steps     []int     // Step indices requested for the run
	Active    bool      // Whether the run is still executing
	StartTime time.Time // When the run began
	EndTime   time.Time // When the run was closed
}

// NewRun creates a new run with a unique ID
func NewRun(pipeline string, steps []int) *Run {
	requested := make([]int, len(steps))
	copy(requested, steps)
	return &Run{
		ID:        uuid.New().String(),
		Seq:       atomic.AddUint64(&runSeqCounter, 1),
		Pipeline:  pipeline,
		Steps:     requested,
		Active:    true,
		StartTime: time.Now(),
	}
}

// Close marks the run as finished
func (r *Run) Close() {
	r.Active = false
	r.EndTime = time.Now()
}

// Duration reports how long the run took (or has taken so far)
func (r *Run) Duration() time.Duration {
	if r.Active {
		return time.Since(r.StartTime)
	}
	return r.EndTime.Sub(r.StartTime)
}
