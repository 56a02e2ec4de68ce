// Package reportdb records labeler runs and per file timings in a SQLite database.
package reportdb

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/ecopia-map/dense_labeler/internal/timing"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// schema.sql defines the runs table and the per file records of each run.
//
//go:embed schema.sql
var schemaSQL string

type ReportDB struct {
	*sql.DB
	runID string
}

type RunInfo struct {
	Command        string
	Input          string
	Checkpoint     string
	K              int
	IndexAlgorithm string
}

// FileRecord is the outcome of processing one input file
type FileRecord struct {
	Path         string
	Name         string
	SparsePoints int
	DensePoints  int
	Timing       timing.Timing
	Error        string
}

func NewReportDB(path string) (*ReportDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize report schema: %w", err)
	}

	glog.V(1).Infoln("initialized report database schema", path)

	return &ReportDB{DB: db}, nil
}

// StartRun creates a new run record and returns its identifier. Later records belong to it.
func (r *ReportDB) StartRun(info RunInfo) (string, error) {
	runID := uuid.NewString()
	query := `
		INSERT INTO runs (run_id, command, input, checkpoint, k, index_algorithm, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := r.Exec(query, runID, info.Command, info.Input, info.Checkpoint, info.K, info.IndexAlgorithm, StatusRunning); err != nil {
		return "", fmt.Errorf("failed to insert run: %v", err)
	}
	r.runID = runID
	return runID, nil
}

func (r *ReportDB) RunID() string {
	return r.runID
}

// RecordFile stores the outcome of one file in the current run
func (r *ReportDB) RecordFile(rec FileRecord) error {
	if r.runID == "" {
		return fmt.Errorf("no run started")
	}
	total := decimal.NewFromInt(rec.Timing.Total().Microseconds()).Shift(-6).Round(3)
	query := `
		INSERT INTO run_files (run_id, file_path, name, sparse_points, dense_points,
			load_data_ns, predict_ns, interpolate_ns, write_data_ns, total_s, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	var errText sql.NullString
	if rec.Error != "" {
		errText = sql.NullString{String: rec.Error, Valid: true}
	}
	_, err := r.Exec(query, r.runID, rec.Path, rec.Name, rec.SparsePoints, rec.DensePoints,
		int64(rec.Timing.LoadData), int64(rec.Timing.Predict), int64(rec.Timing.Interpolate), int64(rec.Timing.WriteData),
		total.InexactFloat64(), errText)
	if err != nil {
		return fmt.Errorf("failed to insert file record: %v", err)
	}
	return nil
}

// FinishRun stamps the current run with its final status
func (r *ReportDB) FinishRun(status string) error {
	if r.runID == "" {
		return fmt.Errorf("no run started")
	}
	query := `UPDATE runs SET status = ?, finished_at = ? WHERE run_id = ?`
	if _, err := r.Exec(query, status, time.Now().UTC(), r.runID); err != nil {
		return fmt.Errorf("failed to finish run: %v", err)
	}
	return nil
}

// RunStatus returns the status of the given run
func (r *ReportDB) RunStatus(runID string) (string, error) {
	var status string
	if err := r.QueryRow(`SELECT status FROM runs WHERE run_id = ?`, runID).Scan(&status); err != nil {
		return "", err
	}
	return status, nil
}

// Files returns the records of the given run in insertion order
func (r *ReportDB) Files(runID string) ([]FileRecord, error) {
	rows, err := r.Query(`
		SELECT file_path, name, sparse_points, dense_points,
			load_data_ns, predict_ns, interpolate_ns, write_data_ns, error
		FROM run_files WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]FileRecord, 0)
	for rows.Next() {
		var rec FileRecord
		var load, predict, interpolate, write int64
		var errText sql.NullString
		if err := rows.Scan(&rec.Path, &rec.Name, &rec.SparsePoints, &rec.DensePoints,
			&load, &predict, &interpolate, &write, &errText); err != nil {
			return nil, err
		}
		rec.Timing = timing.Timing{
			LoadData:    time.Duration(load),
			Predict:     time.Duration(predict),
			Interpolate: time.Duration(interpolate),
			WriteData:   time.Duration(write),
		}
		rec.Error = errText.String
		records = append(records, rec)
	}
	return records, rows.Err()
}
