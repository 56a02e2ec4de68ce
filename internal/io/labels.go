package io

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ecopia-map/dense_labeler/internal/data"
)

// EncodeLabels writes one integer label per line
func EncodeLabels(out io.Writer, labels data.LabelSet) error {
	for _, label := range labels {
		if _, err := io.WriteString(out, strconv.Itoa(label)+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// ReadLabels reads a one-label-per-line file
func ReadLabels(path string) (data.LabelSet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %v: %w", path, err, data.ErrIO)
	}
	defer file.Close()

	labels, err := DecodeLabels(file)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return labels, nil
}

// DecodeLabels parses non-negative integer labels, one per line. Blank lines are skipped.
func DecodeLabels(in io.Reader) (data.LabelSet, error) {
	labels := make(data.LabelSet, 0)
	scanner := bufio.NewScanner(in)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		label, err := strconv.Atoi(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %v: %w", line, err, data.ErrIO)
		}
		if label < 0 {
			return nil, fmt.Errorf("line %d: label %d: %w", line, label, data.ErrInvalidLabel)
		}
		labels = append(labels, label)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, data.ErrIO)
	}
	return labels, nil
}
