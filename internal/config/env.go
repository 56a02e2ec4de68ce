package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

const (
	OnnxRuntimeLibraryEnv = "ONNXRUNTIME_SHARED_LIBRARY_PATH"
	WorkdirEnv            = "DENSE_LABELER_WORKDIR"
)

// LoadEnv loads the given .env files into the process environment without overriding
// variables already set. Missing files are skipped; with no arguments ./.env is tried.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("loading %s: %w", file, err)
		}
	}
	return nil
}
