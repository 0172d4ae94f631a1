package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/hmmgo/internal/config"
	"github.com/YuminosukeSato/hmmgo/pkg/errors"
	"github.com/YuminosukeSato/hmmgo/preprocessing"
)

// readColumn reads one numeric column from CSV. With a header the column is
// matched by name (case-insensitive), without one it must be a 0-based index.
func readColumn(r io.Reader, column string, hasHeader bool) ([]float64, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "read csv")
	}
	if len(records) == 0 {
		return nil, errors.NewEmptyDataError("readColumn")
	}

	idx := -1
	if hasHeader {
		for i, name := range records[0] {
			if strings.EqualFold(strings.TrimSpace(name), column) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, errors.NewValueError("readColumn", fmt.Sprintf("column %q not found in header %v", column, records[0]))
		}
		records = records[1:]
	} else {
		idx, err = strconv.Atoi(column)
		if err != nil || idx < 0 {
			return nil, errors.NewValidationError("column", "must be a non-negative index when the CSV has no header", column)
		}
	}

	// ファイル上の行番号（1始まり、ヘッダー行を含む）
	firstLine := 1
	if hasHeader {
		firstLine = 2
	}
	values := make([]float64, 0, len(records))
	for i, rec := range records {
		line := firstLine + i
		if idx >= len(rec) {
			return nil, errors.NewValueError("readColumn", fmt.Sprintf("line %d has no column %d", line, idx))
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[idx]), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		values = append(values, v)
	}
	return values, nil
}

// loadObservations reads closes from the configured CSV and converts them to
// returns.
func loadObservations(in config.InputConfig) ([]float64, error) {
	if in.Path == "" {
		return nil, errors.NewValidationError("input.path", "is required", in.Path)
	}
	f, err := os.Open(in.Path)
	if err != nil {
		return nil, errors.Wrap(err, "open input")
	}
	defer f.Close()

	closes, err := readColumn(f, in.Column, in.HasHeader)
	if err != nil {
		return nil, err
	}
	if in.Returns == "log" {
		return preprocessing.LogReturns(closes)
	}
	return preprocessing.PctChange(closes)
}
