// Package export provides RecordEncoder adapters for the supported output formats.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/davecgh/go-spew/spew"
	"gopkg.in/yaml.v3"

	"github.com/jsamuelsen/certrecord/internal/domain"
	"github.com/jsamuelsen/certrecord/internal/ports"
)

// Format names accepted by New.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatDump = "dump"
)

const indent = 2

var encoders = map[string]ports.RecordEncoder{
	FormatJSON: JSONEncoder{},
	FormatYAML: YAMLEncoder{},
	FormatDump: DumpEncoder{},
}

// New returns the encoder registered for format.
// Returns a domain validation error for unknown formats.
func New(format string) (ports.RecordEncoder, error) {
	enc, ok := encoders[format]
	if !ok {
		return nil, domain.NewValidationErrorWithValue("format",
			fmt.Sprintf("unsupported export format, expected one of %v", Formats()), format)
	}
	return enc, nil
}

// Formats returns the supported format names in sorted order.
func Formats() []string {
	names := make([]string, 0, len(encoders))
	for name := range encoders {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// JSONEncoder writes the snapshot as indented JSON.
// Output is checked against Schema before anything is written.
type JSONEncoder struct{}

var _ ports.RecordEncoder = JSONEncoder{}

// Format implements ports.RecordEncoder.
func (JSONEncoder) Format() string { return FormatJSON }

// Encode implements ports.RecordEncoder.
func (JSONEncoder) Encode(w io.Writer, s domain.Snapshot) error {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(normalize(s)); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}

	if err := ValidateJSON(buf.Bytes()); err != nil {
		return err
	}

	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	return nil
}

// YAMLEncoder writes the snapshot as a YAML document.
type YAMLEncoder struct{}

var _ ports.RecordEncoder = YAMLEncoder{}

// Format implements ports.RecordEncoder.
func (YAMLEncoder) Format() string { return FormatYAML }

// Encode implements ports.RecordEncoder.
func (YAMLEncoder) Encode(w io.Writer, s domain.Snapshot) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(indent)
	if err := enc.Encode(normalize(s)); err != nil {
		return fmt.Errorf("encoding YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flushing YAML: %w", err)
	}
	return nil
}

// DumpEncoder writes a Go-syntax dump of the snapshot for debugging.
type DumpEncoder struct{}

var _ ports.RecordEncoder = DumpEncoder{}

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// Format implements ports.RecordEncoder.
func (DumpEncoder) Format() string { return FormatDump }

// Encode implements ports.RecordEncoder.
func (DumpEncoder) Encode(w io.Writer, s domain.Snapshot) error {
	dumpConfig.Fdump(w, s)
	return nil
}

// normalize makes an empty diploma list encode as [] rather than null.
func normalize(s domain.Snapshot) domain.Snapshot {
	if s.Diplomas == nil {
		s.Diplomas = []string{}
	}
	return s
}
