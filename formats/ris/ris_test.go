package ris

import (
	"strings"
	"testing"

	libErrors "github.com/FocuswithJustin/Vellum/core/errors"
	"github.com/FocuswithJustin/Vellum/core/format"
	"github.com/FocuswithJustin/Vellum/core/ir"
	"github.com/FocuswithJustin/Vellum/formats/bibtex"
)

const sampleRIS = `TY  - JOUR
ID  - ritchie1978
AU  - Kernighan, Brian W.
AU  - Ritchie, Dennis M.
TI  - The C Programming Language
JO  - Bell System Technical Journal
PY  - 1978
VL  - 57
SP  - 97
EP  - 111
ER  -

TY  - BOOK
AU  - Knuth, Donald E.
TI  - The Art of Computer Programming
PB  - Addison-Wesley
PY  - 1968
ER  -
`

func TestDetect(t *testing.T) {
	f := New()
	if !f.Detect([]byte(sampleRIS)) {
		t.Error("Detect should accept RIS input")
	}
	if !f.Detect([]byte("\n\nTY  - JOUR\nER  - \n")) {
		t.Error("Detect should skip leading blank lines")
	}
	if f.Detect([]byte("@article{key,\n}")) {
		t.Error("Detect should reject BibTeX input")
	}
	if f.Detect([]byte("AU  - Someone\nTY  - JOUR\n")) {
		t.Error("Detect requires TY on the first non-blank line")
	}
}

func TestParseRecords(t *testing.T) {
	f := New()
	result, err := f.Parse([]byte(sampleRIS), format.ParseOptions{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	doc := result.Value
	if got := len(doc.Content.Children); got != 2 {
		t.Fatalf("entry count = %d, want 2", got)
	}

	article := doc.Content.Children[0]
	if article.Kind != bibtex.KindEntry {
		t.Fatalf("entry kind = %q, want %q", article.Kind, bibtex.KindEntry)
	}
	checks := map[string]string{
		bibtex.PropType:             "article",
		bibtex.PropKey:              "ritchie1978",
		bibtex.FieldProp("author"):  "Kernighan, Brian W. and Ritchie, Dennis M.",
		bibtex.FieldProp("title"):   "The C Programming Language",
		bibtex.FieldProp("journal"): "Bell System Technical Journal",
		bibtex.FieldProp("year"):    "1978",
		bibtex.FieldProp("volume"):  "57",
		bibtex.FieldProp("pages"):   "97--111",
	}
	for key, want := range checks {
		got, ok := article.Props.GetString(key)
		if !ok {
			t.Errorf("missing prop %s", key)
			continue
		}
		if got != want {
			t.Errorf("prop %s = %q, want %q", key, got, want)
		}
	}

	book := doc.Content.Children[1]
	if got, _ := book.Props.GetString(bibtex.PropType); got != "book" {
		t.Errorf("second entry type = %q, want book", got)
	}
	if got, _ := book.Props.GetString(bibtex.PropKey); got != "ris-2" {
		t.Errorf("generated key = %q, want ris-2", got)
	}
}

func TestParseUnknownType(t *testing.T) {
	f := New()
	input := "TY  - VIDEO\nTI  - Some Film\nER  - \n"
	result, err := f.Parse([]byte(input), format.ParseOptions{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	entry := result.Value.Content.Children[0]
	if got, _ := entry.Props.GetString(bibtex.PropType); got != "misc" {
		t.Errorf("unknown type mapped to %q, want misc", got)
	}
	if len(result.Warnings) == 0 {
		t.Error("unknown reference type should warn")
	}
}

func TestParseYearWithDate(t *testing.T) {
	f := New()
	input := "TY  - JOUR\nTI  - X\nPY  - 1994/07/01\nER  - \n"
	result, err := f.Parse([]byte(input), format.ParseOptions{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	entry := result.Value.Content.Children[0]
	if got, _ := entry.Props.GetString(bibtex.FieldProp("year")); got != "1994" {
		t.Errorf("year = %q, want 1994", got)
	}
}

func TestParseMissingTerminator(t *testing.T) {
	f := New()
	input := "TY  - JOUR\nTI  - First\nTY  - BOOK\nTI  - Second\n"
	result, err := f.Parse([]byte(input), format.ParseOptions{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := len(result.Value.Content.Children); got != 2 {
		t.Fatalf("entry count = %d, want 2", got)
	}
	major := 0
	for _, w := range result.Warnings {
		if w.Severity == ir.SeverityMajor {
			major++
		}
	}
	if major != 2 {
		t.Errorf("major warnings = %d, want 2 (one per unterminated record)", major)
	}
}

func TestParseErrors(t *testing.T) {
	f := New()
	tests := []struct {
		name  string
		input string
	}{
		{"no records", "just some prose\n"},
		{"author before TY", "AU  - Someone\nTY  - JOUR\nER  - \n"},
		{"id before TY", "ID  - stray\nTY  - JOUR\nER  - \n"},
		{"page before TY", "SP  - 12\nTY  - JOUR\nER  - \n"},
		{"ER without TY", "ER  - \n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Parse([]byte(tt.input), format.ParseOptions{})
			var parseErr *libErrors.ParseError
			if !libErrors.As(err, &parseErr) {
				t.Fatalf("got %v, want ParseError", err)
			}
		})
	}
}

func TestEmit(t *testing.T) {
	f := New()
	doc := ir.NewDocument()
	entry := ir.NewNode(bibtex.KindEntry).
		WithPropString(bibtex.PropType, "article").
		WithPropString(bibtex.PropKey, "ritchie1978").
		WithPropString(bibtex.FieldProp("author"), "Kernighan, Brian W. and Ritchie, Dennis M.").
		WithPropString(bibtex.FieldProp("title"), "The C Programming Language").
		WithPropString(bibtex.FieldProp("pages"), "97--111")
	doc.Content.AppendChild(entry)

	result, err := f.Emit(doc, format.EmitOptions{})
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	out := string(result.Value)

	for _, want := range []string{
		"TY  - JOUR\n",
		"ID  - ritchie1978\n",
		"AU  - Kernighan, Brian W.\n",
		"AU  - Ritchie, Dennis M.\n",
		"TI  - The C Programming Language\n",
		"SP  - 97\n",
		"EP  - 111\n",
		"ER  - \n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if !strings.HasPrefix(out, "TY  - JOUR\n") {
		t.Errorf("record should start with TY, got:\n%s", out)
	}
}

func TestEmitNoEntries(t *testing.T) {
	f := New()
	doc := ir.NewDocument()
	doc.Content.AppendChild(ir.NewNode(ir.KindParagraph).AppendChild(ir.NewText("prose")))
	_, err := f.Emit(doc, format.EmitOptions{})
	var emitErr *libErrors.EmitError
	if !libErrors.As(err, &emitErr) {
		t.Fatalf("got %v, want EmitError", err)
	}
}

func TestRoundTrip(t *testing.T) {
	f := New()
	parsed, err := f.Parse([]byte(sampleRIS), format.ParseOptions{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	emitted, err := f.Emit(parsed.Value, format.EmitOptions{})
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	reparsed, err := f.Parse(emitted.Value, format.ParseOptions{})
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if got, want := len(reparsed.Value.Content.Children), 2; got != want {
		t.Fatalf("round-trip entry count = %d, want %d", got, want)
	}
	orig := parsed.Value.Content.Children[0]
	back := reparsed.Value.Content.Children[0]
	for _, key := range []string{bibtex.PropKey, bibtex.FieldProp("author"), bibtex.FieldProp("pages")} {
		a, _ := orig.Props.GetString(key)
		b, _ := back.Props.GetString(key)
		if a != b {
			t.Errorf("round-trip %s = %q, want %q", key, b, a)
		}
	}
}
