package reportdb

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecopia-map/dense_labeler/internal/timing"
)

func TestReportDBRoundTrip(t *testing.T) {
	db, err := NewReportDB(filepath.Join(t.TempDir(), "report.db"))
	require.NoError(t, err)
	defer db.Close()

	runID, err := db.StartRun(RunInfo{Command: "predict", Input: "/data", K: 20, IndexAlgorithm: "KDTREE"})
	require.NoError(t, err)
	assert.Len(t, runID, 36)
	assert.Equal(t, runID, db.RunID())

	records := []FileRecord{
		{
			Path: "/data/0000000001.bin", Name: "0000000001", SparsePoints: 65536, DensePoints: 120000,
			Timing: timing.Timing{LoadData: 120 * time.Millisecond, Predict: 2 * time.Second, Interpolate: 900 * time.Millisecond, WriteData: 40 * time.Millisecond},
		},
		{Path: "/data/0000000002.bin", Name: "0000000002", Error: "reading: io error"},
	}
	for _, rec := range records {
		require.NoError(t, db.RecordFile(rec))
	}
	require.NoError(t, db.FinishRun(StatusFailed))

	got, err := db.Files(runID)
	require.NoError(t, err)
	if diff := cmp.Diff(records, got); diff != "" {
		t.Fatalf("records differ (-want +got):\n%s", diff)
	}

	status, err := db.RunStatus(runID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, status)

	var total float64
	require.NoError(t, db.QueryRow(`SELECT total_s FROM run_files WHERE name = ?`, "0000000001").Scan(&total))
	assert.InDelta(t, 3.06, total, 1e-9)
}

func TestRecordWithoutRun(t *testing.T) {
	db, err := NewReportDB(filepath.Join(t.TempDir(), "report.db"))
	require.NoError(t, err)
	defer db.Close()

	assert.Error(t, db.RecordFile(FileRecord{Name: "x"}))
	assert.Error(t, db.FinishRun(StatusCompleted))
}

func TestRunsAreSeparate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.db")
	db, err := NewReportDB(path)
	require.NoError(t, err)
	first, err := db.StartRun(RunInfo{Command: "predict"})
	require.NoError(t, err)
	require.NoError(t, db.RecordFile(FileRecord{Name: "a"}))
	require.NoError(t, db.Close())

	// reopening keeps the schema and the previous rows
	db, err = NewReportDB(path)
	require.NoError(t, err)
	defer db.Close()
	second, err := db.StartRun(RunInfo{Command: "interpolate"})
	require.NoError(t, err)
	require.NoError(t, db.RecordFile(FileRecord{Name: "b"}))

	assert.NotEqual(t, first, second)
	a, err := db.Files(first)
	require.NoError(t, err)
	b, err := db.Files(second)
	require.NoError(t, err)
	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, "a", a[0].Name)
	assert.Equal(t, "b", b[0].Name)
}
