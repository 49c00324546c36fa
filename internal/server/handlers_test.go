package server

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func postStart(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/start", strings.NewReader(body))
	w := httptest.NewRecorder()
	StartRun(w, req)
	return w
}

func TestStartRunRejectsGet(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/start", nil)
	w := httptest.NewRecorder()
	StartRun(w, req)
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestStartRunBadJSON(t *testing.T) {
	w := postStart(t, "{not json")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStartRunBadInterval(t *testing.T) {
	w := postStart(t, `{"func":"x**2 - 2","a":2,"b":0}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "a < b")
}

func TestStartRunParseError(t *testing.T) {
	w := postStart(t, `{"func":"x +","a":0,"b":2}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "invalid function syntax")
}

func TestStartRunAndExport(t *testing.T) {
	w := postStart(t, `{"func":"x**2 - 2","a":0,"b":2}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		ID    string     `json:"id"`
		Xs    []float64  `json:"xs"`
		Ys    []*float64 `json:"ys"`
		Deriv string     `json:"deriv"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.NotEmpty(t, resp.ID)
	require.Len(t, resp.Xs, plotSamples)
	require.Len(t, resp.Ys, plotSamples)
	require.Equal(t, "2*x", resp.Deriv)

	require.Eventually(t, func() bool {
		rs := getRun(resp.ID)
		if rs == nil {
			return false
		}
		_, _, _, done := rs.snapshot()
		return done
	}, 2*time.Second, 10*time.Millisecond, "run should finish")

	iters, result, _, _ := getRun(resp.ID).snapshot()
	require.NotNil(t, result)
	require.True(t, result.Converged)
	require.InDelta(t, 1.41421356, result.Root, 1e-6)
	require.Equal(t, result.Iters, iters)

	// export the audit trail
	req := httptest.NewRequest(http.MethodGet, "/export?id="+resp.ID, nil)
	ew := httptest.NewRecorder()
	ExportCSV(ew, req)
	require.Equal(t, http.StatusOK, ew.Code)

	records, err := csv.NewReader(ew.Body).ReadAll()
	require.NoError(t, err)
	require.Equal(t,
		[]string{"k", "method", "x", "f(x)", "a", "b", "b-a", "decision"},
		records[0])
	require.Len(t, records, len(iters)+1)
}

// TestExportWhileRunning: the CSV export and status reads must be safe
// against the solver goroutine still appending iterations.
func TestExportWhileRunning(t *testing.T) {
	w := postStart(t, `{"func":"x**3 - 2*x + 2","a":-2,"b":1,"tol":1e-12,"maxIter":100}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	// hammer the export while the run is (potentially) in flight
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodGet, "/export?id="+resp.ID, nil)
		ew := httptest.NewRecorder()
		ExportCSV(ew, req)
		require.Equal(t, http.StatusOK, ew.Code)
	}

	require.Eventually(t, func() bool {
		_, _, _, done := getRun(resp.ID).snapshot()
		return done
	}, 2*time.Second, 10*time.Millisecond)

	iters, result, _, _ := getRun(resp.ID).snapshot()
	require.NotNil(t, result)
	require.InDelta(t, -1.7692923542, result.Root, 1e-6)
	require.NotEmpty(t, iters)
}

func TestStartRunNoBracket(t *testing.T) {
	w := postStart(t, `{"func":"x**2 + 1","a":-1,"b":1}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	require.Eventually(t, func() bool {
		rs := getRun(resp.ID)
		if rs == nil {
			return false
		}
		_, _, errMsg, _ := rs.snapshot()
		return errMsg != ""
	}, 2*time.Second, 10*time.Millisecond, "bracket failure should surface")

	iters, _, errMsg, _ := getRun(resp.ID).snapshot()
	require.Contains(t, errMsg, "does not bracket a root")
	require.Empty(t, iters)
}

func TestExportUnknownID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/export?id=nope", nil)
	w := httptest.NewRecorder()
	ExportCSV(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestStopUnknownID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/stop?id=nope", nil)
	w := httptest.NewRecorder()
	StopRun(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}
