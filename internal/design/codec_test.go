package design

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func TestDocumentCodecRoundTrip(t *testing.T) {
	doc, err := Parse([]byte(pipelineYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	var buf bytes.Buffer
	if err := EncodeDocument(&buf, doc); err != nil {
		t.Fatalf("EncodeDocument: %v", err)
	}
	got, err := DecodeDocument(&buf)
	if err != nil {
		t.Fatalf("DecodeDocument: %v", err)
	}
	if !reflect.DeepEqual(doc, got) {
		t.Fatal("document changed across the codec")
	}
}

func TestDecodeDocumentNormalizes(t *testing.T) {
	doc := &Document{
		Name:    "t",
		Signals: []Signal{{Name: "éclair", Width: 1}},
	}
	var buf bytes.Buffer
	if err := EncodeDocument(&buf, doc); err != nil {
		t.Fatalf("EncodeDocument: %v", err)
	}
	got, err := DecodeDocument(&buf)
	if err != nil {
		t.Fatalf("DecodeDocument: %v", err)
	}
	if got.Signals[0].Name != "éclair" {
		t.Fatalf("signal name = %q, want composed form", got.Signals[0].Name)
	}
}

func TestDocumentCodecRejectsSchema(t *testing.T) {
	var buf bytes.Buffer
	env := documentEnvelope{Schema: 99, Doc: &Document{Name: "t"}}
	if err := msgpack.NewEncoder(&buf).Encode(&env); err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeDocument(&buf); err == nil {
		t.Fatal("stale schema must be rejected")
	}
	if _, err := DecodeDocument(bytes.NewReader([]byte{0xc1})); err == nil {
		t.Fatal("garbage must be rejected")
	}
}

func TestSummaryCodecRoundTrip(t *testing.T) {
	s := &Summary{
		Design:  "pipeline",
		Key:     HashBytes([]byte("pipeline")),
		Eval:    "_eval",
		EvalNBA: "_eval_nba",
		Funcs:   []string{"_eval", "_eval_nba", "_eval_act"},
		Triggers: []TriggerTable{
			{Tag: "act", Descs: []string{"(posedge clk)"}},
			{Tag: "nba", Descs: []string{"(posedge clk)"}},
		},
		Measures: []Measure{{Name: "size of region: Active", Value: 12}},
	}
	var buf bytes.Buffer
	if err := EncodeSummary(&buf, s); err != nil {
		t.Fatalf("EncodeSummary: %v", err)
	}
	got, err := DecodeSummary(&buf)
	if err != nil {
		t.Fatalf("DecodeSummary: %v", err)
	}
	if !reflect.DeepEqual(s, got) {
		t.Fatal("summary changed across the codec")
	}

	var stale bytes.Buffer
	env := summaryEnvelope{Schema: 99, Summary: s}
	if err := msgpack.NewEncoder(&stale).Encode(&env); err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeSummary(&stale); err == nil {
		t.Fatal("stale schema must be rejected")
	}
}

func TestDigest(t *testing.T) {
	a := HashBytes([]byte("design"))
	b := HashBytes([]byte("config"))
	if a.IsZero() || a == b {
		t.Fatal("digests must be distinct and non-zero")
	}
	if len(a.Hex()) != 64 {
		t.Fatalf("hex length = %d", len(a.Hex()))
	}
	if Combine(a, b) == Combine(b, a) {
		t.Fatal("combination must be order-sensitive")
	}
	if Combine(a, b) != Combine(a, b) {
		t.Fatal("combination must be deterministic")
	}
	var zero Digest
	if !zero.IsZero() {
		t.Fatal("zero digest must report zero")
	}
}
