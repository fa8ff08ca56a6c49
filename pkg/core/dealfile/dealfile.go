// Package dealfile reads hand-written deal sheets: the deal terms plus the redemption rates or
// grid to evaluate. Sheets may be YAML, Hjson or JSON; JSON is parsed leniently because sheets
// are often pasted from spreadsheets and chat threads with trailing commas and comments.
package dealfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"

	"spac_dashboard/pkg/core/redemption"
)

// Sheet is one deal sheet.
type Sheet struct {
	Ticker string                         `json:"ticker" yaml:"ticker"`
	Name   string                         `json:"name" yaml:"name"`
	Inputs redemption.DealStructureInputs `json:"inputs" yaml:"inputs"`
	Rates  []decimal.Decimal              `json:"rates,omitempty" yaml:"rates"`
	Grid   *redemption.GridSpec           `json:"grid,omitempty" yaml:"grid"`
}

// Validate checks the deal terms and the requested rates or grid.
func (s *Sheet) Validate() error {
	if err := s.Inputs.Validate(); err != nil {
		return err
	}
	if len(s.Rates) > 0 && s.Grid != nil {
		return fmt.Errorf("deal sheet sets both rates and grid; choose one")
	}
	for _, r := range s.Rates {
		if err := redemption.ValidateRate(r); err != nil {
			return err
		}
	}
	if s.Grid != nil {
		if err := s.Grid.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Load reads a sheet from disk, choosing the parser from the file extension.
func Load(path string) (*Sheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read deal sheet: %w", err)
	}
	sheet, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sheet, nil
}

// Parse decodes and validates a sheet. ext is a file extension such as ".yaml"; anything that is
// not YAML or Hjson goes through the lenient JSON chain.
func Parse(data []byte, ext string) (*Sheet, error) {
	var sheet Sheet
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &sheet); err != nil {
			return nil, fmt.Errorf("YAML_PARSE_ERROR: %w", err)
		}
	case ".hjson":
		jsonData, err := hjsonToJSON(data)
		if err != nil {
			return nil, err
		}
		if err := decodeStrict(jsonData, &sheet); err != nil {
			return nil, err
		}
	default:
		if err := smartParse(data, &sheet); err != nil {
			return nil, err
		}
	}

	if err := sheet.Validate(); err != nil {
		return nil, err
	}
	return &sheet, nil
}

// smartParse tries, in order: standard JSON, JSON repair, Hjson.
func smartParse(data []byte, sheet *Sheet) error {
	// Try 1: Standard JSON
	firstErr := decodeStrict(data, sheet)
	if firstErr == nil {
		return nil
	}

	// Try 2: JSON repair
	if repaired, err := jsonrepair.RepairJSON(string(data)); err == nil {
		*sheet = Sheet{}
		if err := decodeStrict([]byte(repaired), sheet); err == nil {
			return nil
		}
	}

	// Try 3: Hjson (most lenient)
	if jsonData, err := hjsonToJSON(data); err == nil {
		*sheet = Sheet{}
		if err := decodeStrict(jsonData, sheet); err == nil {
			return nil
		}
	}

	return fmt.Errorf("SMART_PARSE_FAILED: all parsing strategies failed: %w", firstErr)
}

// hjsonToJSON converts Hjson to standard JSON, keeping numbers as written.
func hjsonToJSON(data []byte) ([]byte, error) {
	opts := hjson.DefaultDecoderOptions()
	opts.UseJSONNumber = true

	var result interface{}
	if err := hjson.UnmarshalWithOptions(data, &result, opts); err != nil {
		return nil, fmt.Errorf("HJSON_PARSE_ERROR: %w", err)
	}
	out, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("JSON_MARSHAL_ERROR: %w", err)
	}
	return out, nil
}

// decodeStrict rejects unknown keys so a misspelt field never silently becomes zero.
func decodeStrict(data []byte, sheet *Sheet) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(sheet); err != nil {
		return fmt.Errorf("JSON_STRUCTURAL_ERROR: %w", err)
	}
	return nil
}
