package calibrate

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/abhisek/adaptiq/internal/irt"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// FileVersion is the current calibration file format version.
const FileVersion = 1

// File is the portable JSON form of a calibration.
type File struct {
	Version int        `json:"version"`
	Theta0  float64    `json:"theta0"`
	Items   []FileItem `json:"items"`
}

// FileItem is one calibrated item.
type FileItem struct {
	Key        string  `json:"key"`
	Difficulty float64 `json:"difficulty"`
}

const fileSchemaURL = "schema://calibration.json"

var fileSchema = map[string]any{
	"type":     "object",
	"required": []any{"version", "theta0", "items"},
	"properties": map[string]any{
		"version": map[string]any{"const": FileVersion},
		"theta0": map[string]any{
			"type":    "number",
			"minimum": irt.MinTheta,
			"maximum": irt.MaxTheta,
		},
		"items": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items": map[string]any{
				"type":                 "object",
				"required":             []any{"key", "difficulty"},
				"additionalProperties": false,
				"properties": map[string]any{
					"key":        map[string]any{"type": "string", "minLength": 1},
					"difficulty": map[string]any{"type": "number"},
				},
			},
		},
	},
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func fileValidator() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		// The compiler wants plain decoded JSON, not Go-typed maps.
		b, err := json.Marshal(fileSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		var doc any
		if err := json.Unmarshal(b, &doc); err != nil {
			compileErr = fmt.Errorf("parse schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(fileSchemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(fileSchemaURL)
	})
	return compiled, compileErr
}

// Encode writes cal as indented JSON.
func Encode(w io.Writer, cal *irt.Calibration) error {
	f := File{Version: FileVersion, Theta0: cal.Theta0, Items: make([]FileItem, cal.Items())}
	for i, d := range cal.Difficulty {
		f.Items[i] = FileItem{Key: cal.Key(i), Difficulty: d}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode calibration: %w", err)
	}
	return nil
}

// Decode reads a calibration file, checking it against the file schema
// before building the Calibration.
func Decode(r io.Reader) (*irt.Calibration, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read calibration: %w", err)
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	sch, err := fileValidator()
	if err != nil {
		return nil, fmt.Errorf("compile calibration schema: %w", err)
	}
	if err := sch.Validate(parsed); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	var f File
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode calibration: %w", err)
	}
	keys := make([]string, len(f.Items))
	diff := make([]float64, len(f.Items))
	for i, it := range f.Items {
		keys[i] = it.Key
		diff[i] = it.Difficulty
	}
	return irt.NewCalibration(keys, diff, f.Theta0)
}
