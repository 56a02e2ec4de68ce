// Package config loads the model hyper parameters and the process environment.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/ecopia-map/dense_labeler/internal/data"
)

const (
	DefaultNumClasses = 9
	DefaultBatchSize  = 128
	maxFileSize       = 1 * 1024 * 1024 // 1MB
)

// HyperParams holds the model parameters shared by training and inference. num_point,
// box_size and use_color are required; the Get* methods provide defaults for the rest.
type HyperParams struct {
	NumPoint   *int     `json:"num_point,omitempty" yaml:"num_point,omitempty" toml:"num_point,omitempty"`
	BoxSize    *float64 `json:"box_size,omitempty" yaml:"box_size,omitempty" toml:"box_size,omitempty"`
	UseColor   *bool    `json:"use_color,omitempty" yaml:"use_color,omitempty" toml:"use_color,omitempty"`
	NumClasses *int     `json:"num_classes,omitempty" yaml:"num_classes,omitempty" toml:"num_classes,omitempty"`
	BatchSize  *int     `json:"batch_size,omitempty" yaml:"batch_size,omitempty" toml:"batch_size,omitempty"`
}

// LoadHyperParams reads a .json, .yaml/.yml or .toml hyper parameter file. Malformed
// files and missing or invalid keys are reported as ErrConfiguration.
func LoadHyperParams(path string) (*HyperParams, error) {
	cleanPath := filepath.Clean(path)

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %v: %w", err, data.ErrConfiguration)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d): %w", fileInfo.Size(), maxFileSize, data.ErrConfiguration)
	}

	raw, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %v: %w", err, data.ErrConfiguration)
	}

	params, err := ParseHyperParams(raw, filepath.Ext(cleanPath))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cleanPath, err)
	}
	return params, nil
}

// ParseHyperParams decodes raw in the format given by the file extension ext
func ParseHyperParams(raw []byte, ext string) (*HyperParams, error) {
	params := &HyperParams{}

	var err error
	switch strings.ToLower(ext) {
	case ".json":
		decoder := json.NewDecoder(bytes.NewReader(raw))
		err = decoder.Decode(params)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, params)
	case ".toml":
		err = toml.Unmarshal(raw, params)
	default:
		return nil, fmt.Errorf("unsupported config format %q: %w", ext, data.ErrConfiguration)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %v: %w", err, data.ErrConfiguration)
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}
	return params, nil
}

// Validate checks that the required keys are present and every value is in range
func (p *HyperParams) Validate() error {
	var missing []string
	if p.NumPoint == nil {
		missing = append(missing, "num_point")
	}
	if p.BoxSize == nil {
		missing = append(missing, "box_size")
	}
	if p.UseColor == nil {
		missing = append(missing, "use_color")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required keys %s: %w", strings.Join(missing, ", "), data.ErrConfiguration)
	}

	if *p.NumPoint <= 0 {
		return fmt.Errorf("num_point must be positive, got %d: %w", *p.NumPoint, data.ErrConfiguration)
	}
	if *p.BoxSize <= 0 {
		return fmt.Errorf("box_size must be positive, got %f: %w", *p.BoxSize, data.ErrConfiguration)
	}
	if p.NumClasses != nil && *p.NumClasses <= 0 {
		return fmt.Errorf("num_classes must be positive, got %d: %w", *p.NumClasses, data.ErrConfiguration)
	}
	if p.BatchSize != nil && *p.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d: %w", *p.BatchSize, data.ErrConfiguration)
	}
	return nil
}

func (p *HyperParams) GetNumPoint() int {
	if p.NumPoint == nil {
		return 0
	}
	return *p.NumPoint
}

func (p *HyperParams) GetBoxSize() float64 {
	if p.BoxSize == nil {
		return 0
	}
	return *p.BoxSize
}

func (p *HyperParams) GetUseColor() bool {
	return p.UseColor != nil && *p.UseColor
}

func (p *HyperParams) GetNumClasses() int {
	if p.NumClasses == nil {
		return DefaultNumClasses
	}
	return *p.NumClasses
}

func (p *HyperParams) GetBatchSize() int {
	if p.BatchSize == nil {
		return DefaultBatchSize
	}
	return *p.BatchSize
}
