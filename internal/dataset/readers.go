package dataset

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ecopia-map/dense_labeler/internal/data"
	pcio "github.com/ecopia-map/dense_labeler/internal/io"
)

// SupportedExtensions lists the point cloud file extensions the loader can read
var SupportedExtensions = []string{".bin", ".pcd", ".txt", ".xyz", ".pts"}

// IsSupported reports whether the file extension is readable by the loader
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// rawCloud is a point cloud as read from disk, in the sensor frame
type rawCloud struct {
	points data.PointSet
	colors []data.Color
}

func readCloud(path string) (*rawCloud, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bin":
		return readVelodyneBin(path)
	case ".pcd":
		points, err := pcio.ReadPointCloud(path)
		if err != nil {
			return nil, err
		}
		return &rawCloud{points: points}, nil
	case ".txt", ".xyz", ".pts":
		return readText(path)
	}
	return nil, fmt.Errorf("unsupported point cloud format %s: %w", filepath.Ext(path), data.ErrIO)
}

// ReadPoints reads the points of a supported file in the sensor frame, without
// normalization and without colors
func ReadPoints(path string) (data.PointSet, error) {
	cloud, err := readCloud(path)
	if err != nil {
		return nil, err
	}
	return cloud.points, nil
}

// KITTI velodyne scans: little endian float32 records of x, y, z, reflectance.
// Reflectance is exposed as a gray color.
func readVelodyneBin(path string) (*rawCloud, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %v: %w", path, err, data.ErrIO)
	}
	defer file.Close()

	cloud := &rawCloud{points: make(data.PointSet, 0), colors: make([]data.Color, 0)}
	reader := bufio.NewReader(file)
	var record [4]float32
	for {
		err := binary.Read(reader, binary.LittleEndian, &record)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s record %d: %v: %w", path, len(cloud.points), err, data.ErrIO)
		}
		cloud.points = append(cloud.points, data.Point{float64(record[0]), float64(record[1]), float64(record[2])})
		gray := float32(math.Min(math.Max(float64(record[3]), 0), 1))
		cloud.colors = append(cloud.colors, data.Color{gray, gray, gray})
	}
	return cloud, nil
}

// Whitespace separated rows of x y z, optionally followed by r g b. Colors above 1 are
// taken as 8 bit channels.
func readText(path string) (*rawCloud, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %v: %w", path, err, data.ErrIO)
	}
	defer file.Close()

	cloud := &rawCloud{points: make(data.PointSet, 0)}
	withColors := true
	eightBit := false

	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") || strings.HasPrefix(text, "//") {
			continue
		}
		tokens := strings.FieldsFunc(text, func(r rune) bool { return r == ' ' || r == '\t' || r == ',' || r == ';' })
		if len(tokens) < 3 {
			return nil, fmt.Errorf("%s line %d: %d values: %w", path, line, len(tokens), data.ErrDimensionMismatch)
		}
		values := make([]float64, min(len(tokens), 6))
		for i := range values {
			v, err := strconv.ParseFloat(tokens[i], 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %v: %w", path, line, err, data.ErrIO)
			}
			values[i] = v
		}
		cloud.points = append(cloud.points, data.Point{values[0], values[1], values[2]})
		if len(values) < 6 {
			withColors = false
			continue
		}
		c := data.Color{float32(values[3]), float32(values[4]), float32(values[5])}
		if c[0] > 1 || c[1] > 1 || c[2] > 1 {
			eightBit = true
		}
		cloud.colors = append(cloud.colors, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %v: %w", path, err, data.ErrIO)
	}

	if !withColors {
		cloud.colors = nil
	} else if eightBit {
		for i := range cloud.colors {
			for ch := range cloud.colors[i] {
				cloud.colors[i][ch] /= 255
			}
		}
	}
	return cloud, nil
}

// labelsPath returns the sibling <name>.labels file of a point cloud
func labelsPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".labels"
}

func readGroundTruth(path string, numPoints int) (data.LabelSet, error) {
	lp := labelsPath(path)
	if _, err := os.Stat(lp); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	labels, err := pcio.ReadLabels(lp)
	if err != nil {
		return nil, err
	}
	if len(labels) != numPoints {
		return nil, fmt.Errorf("%s holds %d labels for %d points: %w", lp, len(labels), numPoints, data.ErrDimensionMismatch)
	}
	return labels, nil
}
