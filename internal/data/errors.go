package data

import "errors"

var (
	// ErrEmptyInput is returned when a spatial index is built over zero points
	ErrEmptyInput = errors.New("empty input")

	// ErrDimensionMismatch is returned when a point is not 3 dimensional or when
	// paired sequences (points/labels, samples/predictions) differ in shape
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrCheckpointLoad is returned when the model collaborator cannot be constructed
	ErrCheckpointLoad = errors.New("checkpoint load failed")

	// ErrIO is returned on read/write failures of point clouds and label files
	ErrIO = errors.New("i/o error")

	// ErrConfiguration is returned on malformed or missing configuration values
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidLabel is returned when a label is negative
	ErrInvalidLabel = errors.New("invalid label")
)
