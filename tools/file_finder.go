package tools

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ecopia-map/dense_labeler/internal/data"
	"github.com/ecopia-map/dense_labeler/internal/dataset"
	"github.com/ecopia-map/dense_labeler/internal/labeler"
)

type FileFinder interface {
	GetPointCloudFilesToProcess(opts *labeler.LabelerOptions) ([]string, error)
}

type StandardFileFinder struct{}

func NewStandardFileFinder() FileFinder {
	return &StandardFileFinder{}
}

// Returns the files to process in lexical order, at most opts.MaxFiles when set
func (f *StandardFileFinder) GetPointCloudFilesToProcess(opts *labeler.LabelerOptions) ([]string, error) {
	// If folder processing is not enabled then the file is given by -input flag, otherwise look for point clouds
	// in -input folder eventually excluding nested folders if Recursive flag is disabled
	var files []string
	if !opts.FolderProcessing {
		files = []string{opts.Input}
	} else {
		found, err := f.getFilesFromInputFolder(opts)
		if err != nil {
			return nil, err
		}
		files = found
	}

	if opts.MaxFiles > 0 && len(files) > opts.MaxFiles {
		files = files[:opts.MaxFiles]
	}
	return files, nil
}

func (f *StandardFileFinder) getFilesFromInputFolder(opts *labeler.LabelerOptions) ([]string, error) {
	var files = make([]string, 0)

	baseInfo, err := os.Stat(opts.Input)
	if err != nil {
		return nil, fmt.Errorf("input folder: %v: %w", err, data.ErrIO)
	}
	err = filepath.Walk(
		opts.Input,
		func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() && !opts.Recursive && !os.SameFile(info, baseInfo) {
				return filepath.SkipDir
			} else if !info.IsDir() && dataset.IsSupported(info.Name()) {
				files = append(files, path)
			}
			return nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("walking %s: %v: %w", opts.Input, err, data.ErrIO)
	}

	return files, nil
}
