package server

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"hybridroot/internal/expr"
	"hybridroot/internal/solver"
	"hybridroot/internal/sse"

	"github.com/google/uuid"
)

// plotSamples is the number of points sampled for the curve plot.
const plotSamples = 400

// StartRun launches a new root-finding run.
func StartRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}

	var p RunParams
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "bad JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if p.MaxIter <= 0 {
		p.MaxIter = solver.DefaultConfig().MaxIter
	}
	if p.Tol <= 0 {
		p.Tol = solver.DefaultConfig().Tol
	}
	if !(p.A < p.B) {
		http.Error(w, "a < b is required", http.StatusBadRequest)
		return
	}

	f, err := expr.Parse(p.Func)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	df := f.Derivative()

	// Sample the curve over a slightly extended domain for the plot.
	// Per-sample evaluation failures become null gaps (JSON cannot carry NaN).
	xs := make([]float64, plotSamples)
	ys := make([]*float64, plotSamples)
	lo, hi := p.A-1, p.B+1
	h := (hi - lo) / float64(plotSamples-1)
	for i := 0; i < plotSamples; i++ {
		x := lo + float64(i)*h
		xs[i] = x
		y, err := f.Eval(x)
		if err != nil || math.IsNaN(y) || math.IsInf(y, 0) {
			continue
		}
		ys[i] = &y
	}

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	rs := &RunState{
		ID:        id,
		Params:    p,
		CreatedAt: time.Now(),
		Cancel:    cancel,
	}
	saveRun(rs)

	// run the solver asynchronously, streaming iterations over SSE
	go func() {
		startMsg, _ := json.Marshal(map[string]any{
			"type": "start",
			"id":   id,
		})
		sse.Publish(id, string(startMsg))

		onIter := func(it solver.Iter) error {
			select {
			case <-ctx.Done():
				return solver.ErrStopped
			default:
			}

			rs.appendIter(it)

			payload := map[string]any{
				"type": "iter",
				"iter": it,
			}
			msg, _ := json.Marshal(payload)
			sse.Publish(id, string(msg))
			return nil
		}

		cfg := solver.DefaultConfig()
		cfg.Tol = p.Tol
		cfg.MaxIter = p.MaxIter

		res, err := solver.Hybrid(f, df, p.A, p.B, cfg, onIter)

		if err != nil {
			if errors.Is(err, solver.ErrStopped) || errors.Is(err, context.Canceled) {
				stopMsg, _ := json.Marshal(map[string]any{
					"type": "stopped",
				})
				sse.Publish(id, string(stopMsg))
				return
			}

			rs.fail(err.Error())
			errMsg, _ := json.Marshal(map[string]any{
				"type": "error",
				"err":  err.Error(),
			})
			sse.Publish(id, string(errMsg))
			return
		}

		rs.finish(res)

		doneMsg, _ := json.Marshal(map[string]any{
			"type":      "done",
			"root":      res.Root,
			"froot":     res.FRoot,
			"iters":     len(res.Iters),
			"converged": res.Converged,
		})
		sse.Publish(id, string(doneMsg))
	}()

	resp := map[string]any{
		"id":    id,
		"xs":    xs,
		"ys":    ys,
		"deriv": df.String(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// StopRun cancels a running solve.
func StopRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	rs := getRun(id)
	if rs == nil {
		http.Error(w, "unknown id", http.StatusNotFound)
		return
	}

	if rs.Cancel != nil {
		rs.Cancel()
	}

	w.WriteHeader(http.StatusNoContent)
}

// ExportCSV writes the iteration audit trail as CSV.
func ExportCSV(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	rs := getRun(id)
	if rs == nil {
		http.Error(w, "unknown id", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=iterations_"+id+".csv")

	cw := csv.NewWriter(w)
	defer cw.Flush()

	_ = cw.Write([]string{"k", "method", "x", "f(x)", "a", "b", "b-a", "decision"})

	iters, _, _, _ := rs.snapshot()
	for _, it := range iters {
		_ = cw.Write([]string{
			strconv.Itoa(it.K),
			string(it.Method),
			fmtFloat(it.X),
			fmtFloat(it.FX),
			fmtFloat(it.A),
			fmtFloat(it.B),
			fmtFloat(it.Width),
			string(it.Decision),
		})
	}
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 16, 64)
}

// Stream — SSE stream of iteration events.
func Stream(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch, cancel := sse.Subscribe(id)
	defer cancel()

	ctx := r.Context()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-ch:
			fmt.Fprintf(w, "event: msg\n")
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
