package irjson

import (
	"bytes"
	"testing"

	"github.com/FocuswithJustin/Vellum/core/errors"
	"github.com/FocuswithJustin/Vellum/core/format"
	"github.com/FocuswithJustin/Vellum/core/ir"
)

func sampleDocument() *ir.Document {
	doc := ir.NewDocument()
	doc.Source = "markdown"
	doc.Meta.SetString(ir.MetaTitle, "Round Trip")
	doc.Meta.SetList("keywords", ir.StringValue("alpha"), ir.StringValue("beta"))

	heading := ir.NewNode(ir.KindHeading).WithPropInt(ir.PropLevel, 2)
	heading.AppendChild(ir.NewText("Sample"))

	para := ir.NewNode(ir.KindParagraph)
	para.AppendChild(ir.NewText("Body with "))
	em := ir.NewNode(ir.KindEmphasis)
	em.AppendChild(ir.NewText("style"))
	para.AppendChild(em)

	id := doc.Resources.Add(ir.Resource{MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}})
	img := ir.NewNode(ir.KindImage).WithPropString(ir.PropResourceID, string(id))

	doc.Content.AppendChildren(heading, para, img)
	return doc
}

func TestRoundTrip(t *testing.T) {
	f := New()
	doc := sampleDocument()

	first, err := f.Emit(doc, format.DefaultEmitOptions())
	if err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	if len(first.Warnings) != 0 {
		t.Errorf("Emit produced %d warnings, want 0", len(first.Warnings))
	}

	parsed, err := f.Parse(first.Value, format.DefaultParseOptions())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(parsed.Warnings) != 0 {
		t.Errorf("Parse produced %d warnings, want 0", len(parsed.Warnings))
	}

	second, err := f.Emit(parsed.Value, format.DefaultEmitOptions())
	if err != nil {
		t.Fatalf("second Emit failed: %v", err)
	}

	if !bytes.Equal(first.Value, second.Value) {
		t.Errorf("round trip not stable:\nfirst:\n%s\nsecond:\n%s", first.Value, second.Value)
	}
}

func TestRoundTripPreservesStructure(t *testing.T) {
	f := New()
	doc := sampleDocument()

	emitted, err := f.Emit(doc, format.DefaultEmitOptions())
	if err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	parsed, err := f.Parse(emitted.Value, format.DefaultParseOptions())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	got := parsed.Value
	if got.Source != "markdown" {
		t.Errorf("Source = %q, want markdown", got.Source)
	}
	if got.Title() != "Round Trip" {
		t.Errorf("Title = %q, want Round Trip", got.Title())
	}
	if len(got.Content.Children) != 3 {
		t.Fatalf("root has %d children, want 3", len(got.Content.Children))
	}
	if level, ok := got.Content.Children[0].Props.GetInt(ir.PropLevel); !ok || level != 2 {
		t.Errorf("heading level = %d (%v), want 2", level, ok)
	}
	if got.Resources.Len() != 1 {
		t.Errorf("resources = %d, want 1", got.Resources.Len())
	}
	keywords, ok := got.Meta.GetList("keywords")
	if !ok || len(keywords) != 2 {
		t.Fatalf("keywords = %v (%v), want 2 entries", keywords, ok)
	}
	if s, _ := keywords[1].Str(); s != "beta" {
		t.Errorf("keywords[1] = %q, want beta", s)
	}
}

func TestParseInvalid(t *testing.T) {
	f := New()

	tests := []struct {
		name  string
		input string
	}{
		{"not JSON", "this is not json"},
		{"truncated", `{"content": {"kind": "document"`},
		{"missing content", `{"meta": {}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Parse([]byte(tt.input), format.DefaultParseOptions())
			if err == nil {
				t.Fatal("Parse should fail")
			}
			var perr *errors.ParseError
			if !errors.As(err, &perr) {
				t.Errorf("error type = %T, want *ParseError", err)
			}
		})
	}
}

func TestEmitNilDocument(t *testing.T) {
	f := New()
	if _, err := f.Emit(nil, format.DefaultEmitOptions()); err == nil {
		t.Error("Emit(nil) should fail")
	}

	var eerr *errors.EmitError
	_, err := f.Emit(&ir.Document{}, format.DefaultEmitOptions())
	if !errors.As(err, &eerr) {
		t.Errorf("error type = %T, want *EmitError", err)
	}
}

func TestDetect(t *testing.T) {
	f := New()

	tests := []struct {
		name string
		data string
		want bool
	}{
		{"canonical document", `{"content": {"kind": "document"}}`, true},
		{"leading whitespace", "\n  {\"content\": {}}", true},
		{"other JSON", `{"name": "config"}`, false},
		{"markdown", "# Heading\n", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Detect([]byte(tt.data)); got != tt.want {
				t.Errorf("Detect = %v, want %v", got, tt.want)
			}
		})
	}
}
