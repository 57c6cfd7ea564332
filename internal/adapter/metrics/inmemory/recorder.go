package inmemory

import (
	"sync"
)

type Snapshot struct {
	ActionTotal         uint64            `json:"action_total"`
	ActionSuccess       uint64            `json:"action_success"`
	ActionRejected      uint64            `json:"action_rejected"`
	ActionConflict      uint64            `json:"action_conflict"`
	ActionFailure       uint64            `json:"action_failure"`
	RepetitionsResolved uint64            `json:"repetitions_resolved"`
	ByOperation         map[string]uint64 `json:"by_operation"`
	ByRejectionCode     map[string]uint64 `json:"by_rejection_code"`
}

// Recorder counts action outcomes for the /ops/kpi endpoint. It is safe for concurrent use.
type Recorder struct {
	mu          sync.Mutex
	success     uint64
	rejected    uint64
	conflict    uint64
	failure     uint64
	repetitions uint64
	byOperation map[string]uint64
	byRejection map[string]uint64
}

func NewRecorder() *Recorder {
	return &Recorder{
		byOperation: map[string]uint64{},
		byRejection: map[string]uint64{},
	}
}

func (r *Recorder) RecordSuccess(operation string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.success++
	r.byOperation[operation]++
}

func (r *Recorder) RecordRejected(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected++
	r.byRejection[code]++
}

func (r *Recorder) RecordConflict() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conflict++
}

func (r *Recorder) RecordFailure() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failure++
}

func (r *Recorder) RecordRepetitions(n int) {
	if n <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.repetitions += uint64(n)
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := Snapshot{
		ActionSuccess:       r.success,
		ActionRejected:      r.rejected,
		ActionConflict:      r.conflict,
		ActionFailure:       r.failure,
		ActionTotal:         r.success + r.rejected + r.conflict + r.failure,
		RepetitionsResolved: r.repetitions,
		ByOperation:         make(map[string]uint64, len(r.byOperation)),
		ByRejectionCode:     make(map[string]uint64, len(r.byRejection)),
	}
	for k, v := range r.byOperation {
		out.ByOperation[k] = v
	}
	for k, v := range r.byRejection {
		out.ByRejectionCode[k] = v
	}
	return out
}

func (r *Recorder) SnapshotAny() any {
	return r.Snapshot()
}
