// Package dataset reads historical response logs and shapes them into the
// dense grids used by calibration and evaluation.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Column names expected in the CSV header. Other columns are ignored.
const (
	ColumnStudent = "UserId"
	ColumnItem    = "QuestionId"
	ColumnOutcome = "IsCorrect"
)

// Response is one historical answer.
type Response struct {
	Student string
	Item    string
	Outcome int // 1 correct, 0 incorrect
}

// ReadFile reads responses from the CSV file at path.
func ReadFile(path string) ([]Response, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	responses, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return responses, nil
}

// ReadCSV parses a response log with a header row naming at least the
// UserId, QuestionId and IsCorrect columns.
func ReadCSV(r io.Reader) ([]Response, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty input: missing header row")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := locateColumns(header)
	if err != nil {
		return nil, err
	}

	var out []Response
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		student := strings.TrimSpace(rec[cols[0]])
		item := strings.TrimSpace(rec[cols[1]])
		if student == "" || item == "" {
			return nil, fmt.Errorf("line %d: empty %s or %s", line, ColumnStudent, ColumnItem)
		}
		outcome, err := parseOutcome(rec[cols[2]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, Response{Student: student, Item: item, Outcome: outcome})
	}
	return out, nil
}

func locateColumns(header []string) ([3]int, error) {
	want := [3]string{ColumnStudent, ColumnItem, ColumnOutcome}
	cols := [3]int{-1, -1, -1}
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		for j, w := range want {
			if strings.EqualFold(h, w) {
				cols[j] = i
			}
		}
	}
	for j, c := range cols {
		if c < 0 {
			return cols, fmt.Errorf("missing column %q in header", want[j])
		}
	}
	return cols, nil
}

func parseOutcome(s string) (int, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%s %q is not 0 or 1", ColumnOutcome, s)
	}
	if b {
		return 1, nil
	}
	return 0, nil
}
