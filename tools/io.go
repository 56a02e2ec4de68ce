package tools

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
)

// WorkdirEnv overrides the folder relative paths are resolved against
const WorkdirEnv = "DENSE_LABELER_WORKDIR"

func GetRootFolder() string {
	assetsFromEnv := os.Getenv(WorkdirEnv)
	if assetsFromEnv != "" {
		return assetsFromEnv
	} else if strings.HasSuffix(os.Args[0], ".test") || strings.HasSuffix(os.Args[0], ".test.exe") {
		wd, err := os.Getwd()
		if err != nil {
			glog.Fatal("cannot retrieve working directory", err)
		}
		return wd
	} else {
		ex, err := os.Executable()
		if err != nil {
			glog.Fatal("cannot retrieve executable directory", err)
		}
		return filepath.Dir(ex)
	}
}

// ResolvePath joins relative paths to the root folder, absolute and empty paths are returned as is
func ResolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if os.Getenv(WorkdirEnv) == "" {
		return path
	}
	return filepath.Join(GetRootFolder(), path)
}

func CreateDirectoryIfDoesNotExist(directory string) error {
	if _, err := os.Stat(directory); os.IsNotExist(err) {
		err := os.MkdirAll(directory, 0777)
		if err != nil {
			return err
		}
	}
	return nil
}

func GetFilenameWithoutExtension(filePath string) string {
	nameWext := filepath.Base(filePath)
	extension := filepath.Ext(nameWext)
	return nameWext[0 : len(nameWext)-len(extension)]
}
