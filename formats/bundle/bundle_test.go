package bundle

import (
	"bytes"
	"encoding/json"
	"testing"

	libErrors "github.com/FocuswithJustin/Vellum/core/errors"
	"github.com/FocuswithJustin/Vellum/core/format"
	"github.com/FocuswithJustin/Vellum/core/ir"
)

func buildDoc() (*ir.Document, ir.ResourceID) {
	doc := ir.NewDocument()
	doc.Meta.SetString(ir.MetaTitle, "Archive Me")
	id := doc.Resources.Add(ir.Resource{MIMEType: "image/png", Data: []byte{0x89, 0x50, 0x4e, 0x47}})
	doc.Content.AppendChildren(
		ir.NewNode(ir.KindHeading).WithPropInt(ir.PropLevel, 1).AppendChild(ir.NewText("Title")),
		ir.NewNode(ir.KindParagraph).AppendChildren(
			ir.NewText("Body with "),
			ir.NewNode(ir.KindEmphasis).AppendChild(ir.NewText("style")),
		),
		ir.NewNode(ir.KindImage).WithPropString(ir.PropResourceID, string(id)),
	)
	return doc, id
}

// sameTree compares two content trees through their JSON encoding.
func sameTree(t *testing.T, got, want *ir.Node) bool {
	t.Helper()
	gotJSON, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal got: %v", err)
	}
	wantJSON, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("marshal want: %v", err)
	}
	return bytes.Equal(gotJSON, wantJSON)
}

func TestRoundTripXZ(t *testing.T) {
	f := New()
	doc, id := buildDoc()

	emitted, err := f.Emit(doc, format.EmitOptions{})
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if !bytes.HasPrefix(emitted.Value, xzMagic) {
		t.Fatal("default compression should be xz")
	}
	if !f.Detect(emitted.Value) {
		t.Error("Detect should accept emitted bundle")
	}

	parsed, err := f.Parse(emitted.Value, format.ParseOptions{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := parsed.Value

	if got.Title() != "Archive Me" {
		t.Errorf("title = %q", got.Title())
	}
	if !sameTree(t, got.Content, doc.Content) {
		t.Error("content tree should survive a round trip")
	}
	res, ok := got.Resources.Get(id)
	if !ok {
		t.Fatal("resource missing after round trip")
	}
	if !bytes.Equal(res.Data, []byte{0x89, 0x50, 0x4e, 0x47}) {
		t.Errorf("resource payload = %v", res.Data)
	}
	if res.MIMEType != "image/png" {
		t.Errorf("resource mime = %q", res.MIMEType)
	}
}

func TestRoundTripGzip(t *testing.T) {
	f := New()
	doc, _ := buildDoc()

	emitted, err := f.Emit(doc, format.EmitOptions{Compression: CompressionGzip})
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if !bytes.HasPrefix(emitted.Value, gzipMagic) {
		t.Fatal("gzip compression requested but magic is wrong")
	}

	parsed, err := f.Parse(emitted.Value, format.ParseOptions{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !sameTree(t, parsed.Value.Content, doc.Content) {
		t.Error("content tree should survive a gzip round trip")
	}
}

func TestEmitUnsupportedCompression(t *testing.T) {
	f := New()
	doc, _ := buildDoc()
	_, err := f.Emit(doc, format.EmitOptions{Compression: "zstd"})
	var emitErr *libErrors.EmitError
	if !libErrors.As(err, &emitErr) {
		t.Fatalf("got %v, want EmitError", err)
	}
}

func TestParseErrors(t *testing.T) {
	f := New()
	tests := []struct {
		name  string
		input []byte
	}{
		{"uncompressed", []byte("plain text, not an archive")},
		{"truncated xz", xzMagic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Parse(tt.input, format.ParseOptions{})
			var parseErr *libErrors.ParseError
			if !libErrors.As(err, &parseErr) {
				t.Fatalf("got %v, want ParseError", err)
			}
		})
	}
}

func TestDetect(t *testing.T) {
	f := New()
	if f.Detect([]byte("# markdown")) {
		t.Error("Detect should reject plain text")
	}
	if !f.Detect(append(append([]byte{}, gzipMagic...), 0x00)) {
		t.Error("Detect should accept gzip magic")
	}
}
