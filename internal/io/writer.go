package io

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ecopia-map/dense_labeler/internal/data"
)

// PointCloudWriter persists labeled point clouds
type PointCloudWriter interface {
	WritePointCloud(path string, points data.PointSet) error
	WriteLabels(path string, labels data.LabelSet) error
}

// StandardWriter writes ASCII PCD point clouds and one-label-per-line label files,
// creating the parent folders when missing.
type StandardWriter struct{}

func NewStandardWriter() PointCloudWriter {
	return &StandardWriter{}
}

func (w *StandardWriter) WritePointCloud(path string, points data.PointSet) error {
	return writeFile(path, func(out *bufio.Writer) error {
		return EncodePCD(out, points)
	})
}

func (w *StandardWriter) WriteLabels(path string, labels data.LabelSet) error {
	return writeFile(path, func(out *bufio.Writer) error {
		return EncodeLabels(out, labels)
	})
}

func writeFile(path string, encode func(out *bufio.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0777); err != nil {
		return fmt.Errorf("creating folder for %s: %v: %w", path, err, data.ErrIO)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %v: %w", path, err, data.ErrIO)
	}

	out := bufio.NewWriter(file)
	if err := encode(out); err != nil {
		_ = file.Close()
		return fmt.Errorf("writing %s: %v: %w", path, err, data.ErrIO)
	}
	if err := out.Flush(); err != nil {
		_ = file.Close()
		return fmt.Errorf("writing %s: %v: %w", path, err, data.ErrIO)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing %s: %v: %w", path, err, data.ErrIO)
	}
	return nil
}
