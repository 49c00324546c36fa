package server

import (
	"context"
	"sync"
	"time"

	"hybridroot/internal/solver"
)

// RunParams — inputs of one root-finding run.
type RunParams struct {
	Func    string  `json:"func"`
	A       float64 `json:"a"`
	B       float64 `json:"b"`
	Tol     float64 `json:"tol"`
	MaxIter int     `json:"maxIter"`
}

// RunState — state of a single run. The iteration history belongs to
// exactly one run; a new run gets a fresh state under a fresh id.
// The solver goroutine writes the mutable fields while exports and
// status reads run concurrently, so they are guarded by mu.
type RunState struct {
	ID        string
	Params    RunParams
	CreatedAt time.Time
	Cancel    context.CancelFunc

	mu       sync.Mutex
	LastIter solver.Iter
	Iters    []solver.Iter
	Result   *solver.Result
	Err      string
	Done     bool
}

func (rs *RunState) appendIter(it solver.Iter) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.LastIter = it
	rs.Iters = append(rs.Iters, it)
}

func (rs *RunState) finish(res solver.Result) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.Result = &res
	rs.Done = true
}

func (rs *RunState) fail(msg string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.Err = msg
}

// snapshot returns a consistent copy of the mutable run state.
func (rs *RunState) snapshot() (iters []solver.Iter, result *solver.Result, errMsg string, done bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	iters = append([]solver.Iter(nil), rs.Iters...)
	if rs.Result != nil {
		r := *rs.Result
		result = &r
	}
	return iters, result, rs.Err, rs.Done
}

var (
	runsMu sync.Mutex
	runs   = map[string]*RunState{}
)

func saveRun(rs *RunState) {
	runsMu.Lock()
	defer runsMu.Unlock()
	runs[rs.ID] = rs
}

func getRun(id string) *RunState {
	runsMu.Lock()
	defer runsMu.Unlock()
	return runs[id]
}
