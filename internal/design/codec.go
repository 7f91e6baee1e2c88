package design

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Artifact schema versions. Bump when a payload layout changes so stale
// artifacts are rejected instead of misread.
const (
	documentSchemaVersion uint16 = 1
	summarySchemaVersion  uint16 = 1
)

type documentEnvelope struct {
	Schema uint16
	Doc    *Document
}

// EncodeDocument writes the msgpack form of a design document: the format
// front ends hand to this stage without going through YAML.
func EncodeDocument(w io.Writer, doc *Document) error {
	enc := msgpack.NewEncoder(w)
	if err := enc.Encode(&documentEnvelope{Schema: documentSchemaVersion, Doc: doc}); err != nil {
		return fmt.Errorf("design: encode document: %w", err)
	}
	return nil
}

// DecodeDocument reads a msgpack design document. Identifiers come out
// NFC-normalized exactly as Parse leaves them.
func DecodeDocument(r io.Reader) (*Document, error) {
	var env documentEnvelope
	dec := msgpack.NewDecoder(r)
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("design: decode document: %w", err)
	}
	if env.Schema != documentSchemaVersion {
		return nil, fmt.Errorf("design: document schema %d, want %d", env.Schema, documentSchemaVersion)
	}
	if env.Doc == nil {
		return nil, fmt.Errorf("design: document payload is empty")
	}
	env.Doc.normalize()
	return env.Doc, nil
}

// TriggerTable is one region's trigger layout: bit descriptions in index
// order.
type TriggerTable struct {
	Tag   string
	Descs []string
}

// Measure is one named measurement collected during scheduling.
type Measure struct {
	Name  string
	Value uint64
}

// Summary is the schedule artifact handed to later stages: entry points,
// generated procedures, trigger tables, and optional measurements.
type Summary struct {
	Design   string
	Key      Digest // digest of the design and configuration it was built from
	Eval     string
	EvalNBA  string
	Funcs    []string
	Triggers []TriggerTable
	Measures []Measure
}

type summaryEnvelope struct {
	Schema  uint16
	Summary *Summary
}

// EncodeSummary writes the msgpack form of a schedule summary.
func EncodeSummary(w io.Writer, s *Summary) error {
	enc := msgpack.NewEncoder(w)
	if err := enc.Encode(&summaryEnvelope{Schema: summarySchemaVersion, Summary: s}); err != nil {
		return fmt.Errorf("design: encode summary: %w", err)
	}
	return nil
}

// DecodeSummary reads a msgpack schedule summary.
func DecodeSummary(r io.Reader) (*Summary, error) {
	var env summaryEnvelope
	dec := msgpack.NewDecoder(r)
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("design: decode summary: %w", err)
	}
	if env.Schema != summarySchemaVersion {
		return nil, fmt.Errorf("design: summary schema %d, want %d", env.Schema, summarySchemaVersion)
	}
	if env.Summary == nil {
		return nil, fmt.Errorf("design: summary payload is empty")
	}
	return env.Summary, nil
}
