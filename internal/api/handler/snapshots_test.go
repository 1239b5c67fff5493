// internal/api/handler/snapshots_test.go
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/newthinker/straddle/internal/api/response"
	"github.com/newthinker/straddle/internal/core"
	"github.com/newthinker/straddle/internal/storage/archive"
)

func snapshotMux(h *SnapshotHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/snapshots/{ticker}", h.List)
	mux.HandleFunc("GET /api/v1/snapshots/{ticker}/{date}", h.Get)
	return mux
}

func testArchive(t *testing.T) *archive.Archive {
	t.Helper()
	backend, err := archive.NewLocalFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return archive.New(backend)
}

func TestSnapshotHandler_Get(t *testing.T) {
	snapshots := testArchive(t)
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	saved := core.EventResult{
		Event: core.EarningsEvent{Ticker: "NVDA", Date: date, Timing: core.TimingBeforeMarket},
		Rows: []core.SeriesRow{
			{Index: 0, Label: "03/14 09:30", Straddle: 10},
			{Index: 1, Label: "03/15 09:30", Straddle: 15},
		},
		AnchorIndex: 1,
		PostChange:  50,
	}
	if err := snapshots.SaveResult(context.Background(), saved); err != nil {
		t.Fatal(err)
	}

	mux := snapshotMux(NewSnapshotHandler(snapshots))

	req := httptest.NewRequest("GET", "/api/v1/snapshots/NVDA/2024-03-15", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp response.SuccessResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	data := resp.Data.(map[string]any)
	if data["anchor_index"].(float64) != 1 {
		t.Errorf("expected anchor index 1, got %v", data["anchor_index"])
	}
	if len(data["rows"].([]any)) != 2 {
		t.Errorf("expected 2 rows, got %v", data["rows"])
	}
}

func TestSnapshotHandler_Get_BadDate(t *testing.T) {
	mux := snapshotMux(NewSnapshotHandler(testArchive(t)))

	req := httptest.NewRequest("GET", "/api/v1/snapshots/NVDA/yesterday", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestSnapshotHandler_Get_NotFound(t *testing.T) {
	mux := snapshotMux(NewSnapshotHandler(testArchive(t)))

	req := httptest.NewRequest("GET", "/api/v1/snapshots/NVDA/2024-03-15", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestSnapshotHandler_List(t *testing.T) {
	snapshots := testArchive(t)
	for _, day := range []int{14, 15} {
		result := core.EventResult{
			Event: core.EarningsEvent{
				Ticker: "NVDA",
				Date:   time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC),
				Timing: core.TimingAfterMarket,
			},
		}
		if err := snapshots.SaveResult(context.Background(), result); err != nil {
			t.Fatal(err)
		}
	}

	mux := snapshotMux(NewSnapshotHandler(snapshots))

	req := httptest.NewRequest("GET", "/api/v1/snapshots/NVDA", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp response.SuccessResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	data := resp.Data.(map[string]any)
	if len(data["snapshots"].([]any)) != 2 {
		t.Errorf("expected 2 snapshots, got %v", data["snapshots"])
	}
}
