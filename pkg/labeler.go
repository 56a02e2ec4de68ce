package pkg

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/golang/glog"

	"github.com/ecopia-map/dense_labeler/internal/data"
	"github.com/ecopia-map/dense_labeler/internal/io"
	"github.com/ecopia-map/dense_labeler/internal/labeler"
	"github.com/ecopia-map/dense_labeler/internal/reportdb"
	"github.com/ecopia-map/dense_labeler/tools"
)

// Ledger receives the outcome of every processed file, *reportdb.ReportDB satisfies it.
// A nil Ledger disables recording.
type Ledger interface {
	RecordFile(rec reportdb.FileRecord) error
}

type processFunc func(filePath string, opts *labeler.LabelerOptions) (reportdb.FileRecord, error)

// Runs process over every file returned by the finder, one file at a time.
// The first failure stops the run unless opts.ContinueOnError is set, in which case
// failures are logged and returned together once every file is processed.
func runFiles(fileFinder tools.FileFinder, ledger Ledger, opts *labeler.LabelerOptions, process processFunc) error {
	glog.Infoln("Preparing list of files to process...")

	files, err := fileFinder.GetPointCloudFilesToProcess(opts)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no point cloud file found in %s: %w", opts.Input, data.ErrEmptyInput)
	}
	glog.Infoln("point cloud file list", tools.FmtJSONString(files))

	var errs []error
	for i, filePath := range files {
		tools.LogOutput("Processing file " + strconv.Itoa(i+1) + "/" + strconv.Itoa(len(files)))

		rec, err := process(filePath, opts)
		rec.Path = filePath
		if rec.Name == "" {
			rec.Name = tools.GetFilenameWithoutExtension(filePath)
		}
		if err != nil {
			err = fmt.Errorf("processing %s: %w", filePath, err)
			rec.Error = err.Error()
		}
		recordFile(ledger, rec)

		if err != nil {
			if !opts.ContinueOnError {
				return err
			}
			glog.Errorln(err)
			errs = append(errs, err)
			continue
		}

		tools.LogOutput("> done processing", filepath.Base(filePath), rec.Timing.String())
	}

	return errors.Join(errs...)
}

func recordFile(ledger Ledger, rec reportdb.FileRecord) {
	if ledger == nil {
		return
	}
	if err := ledger.RecordFile(rec); err != nil {
		glog.Warningf("cannot record %s in the report database: %v", rec.Path, err)
	}
}

// Writes <output>/<folder>/<name>.pcd and <output>/<folder>/<name>.labels
func writeLabeledCloud(writer io.PointCloudWriter, output, folder, name string, points data.PointSet, labels data.LabelSet) error {
	if err := writer.WritePointCloud(outputPath(output, folder, name, tools.PointCloudExt), points); err != nil {
		return err
	}
	return writer.WriteLabels(outputPath(output, folder, name, tools.LabelsExt), labels)
}

func outputPath(output, folder, name, ext string) string {
	return filepath.Join(output, folder, name+ext)
}
