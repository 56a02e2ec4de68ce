package io

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/seqsense/pcgol/mat"
	"github.com/seqsense/pcgol/pc"

	"github.com/ecopia-map/dense_labeler/internal/data"
)

// EncodePCD writes the points as a binary PCD v0.7 cloud with float32 x y z fields
func EncodePCD(out io.Writer, points data.PointSet) error {
	pp := &pc.PointCloud{
		PointCloudHeader: pc.PointCloudHeader{
			Version: 0.7,
			Fields:  []string{"x", "y", "z"},
			Size:    []int{4, 4, 4},
			Type:    []string{"F", "F", "F"},
			Count:   []int{1, 1, 1},
			Width:   len(points),
			Height:  1,
		},
		Points: len(points),
		Data:   make([]byte, 3*4*len(points)),
	}
	pp.Viewpoint = append(pp.Viewpoint, 0, 0, 0, 1, 0, 0, 0)

	if len(points) > 0 {
		it, err := pp.Vec3Iterator()
		if err != nil {
			return err
		}
		for _, p := range points {
			it.SetVec3(mat.Vec3{float32(p[0]), float32(p[1]), float32(p[2])})
			it.Incr()
		}
	}
	return pc.Marshal(pp, out)
}

// ReadPointCloud reads the x y z fields of a PCD file
func ReadPointCloud(path string) (data.PointSet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %v: %w", path, err, data.ErrIO)
	}
	defer file.Close()

	points, err := DecodePCD(file)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return points, nil
}

// DecodePCD parses an ascii, binary or binary_compressed PCD stream. Only the x, y and z
// fields are kept.
func DecodePCD(in io.Reader) (data.PointSet, error) {
	pp, err := pc.Unmarshal(in)
	if err != nil {
		return nil, fmt.Errorf("decoding PCD: %v: %w", err, data.ErrIO)
	}
	for _, name := range []string{"x", "y", "z"} {
		if !slices.Contains(pp.Fields, name) {
			return nil, fmt.Errorf("PCD header lacks field %s: %w", name, data.ErrDimensionMismatch)
		}
	}
	if pp.Points == 0 {
		return data.PointSet{}, nil
	}

	it, err := pp.Vec3Iterator()
	if err != nil {
		return nil, fmt.Errorf("x y z fields are not consecutive float32: %v: %w", err, data.ErrIO)
	}
	points := make(data.PointSet, it.Len())
	for i := range points {
		v := it.Vec3At(i)
		points[i] = data.Point{float64(v[0]), float64(v[1]), float64(v[2])}
	}
	return points, nil
}
