package epub

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"

	libErrors "github.com/FocuswithJustin/Vellum/core/errors"
	"github.com/FocuswithJustin/Vellum/core/format"
	"github.com/FocuswithJustin/Vellum/core/ir"
)

func buildDoc() *ir.Document {
	doc := ir.NewDocument()
	doc.Meta.SetString(ir.MetaTitle, "Field Notes")
	doc.Meta.SetString(ir.MetaAuthor, "A. Naturalist")
	doc.Content.AppendChildren(
		ir.NewNode(ir.KindHeading).WithPropInt(ir.PropLevel, 1).AppendChild(ir.NewText("Spring")),
		ir.NewNode(ir.KindParagraph).AppendChild(ir.NewText("First blossoms.")),
		ir.NewNode(ir.KindHeading).WithPropInt(ir.PropLevel, 1).AppendChild(ir.NewText("Summer")),
		ir.NewNode(ir.KindParagraph).AppendChild(ir.NewText("Long days.")),
	)
	return doc
}

func readArchive(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("opening archive: %v", err)
	}
	files := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("opening %s: %v", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("reading %s: %v", f.Name, err)
		}
		files[f.Name] = string(content)
	}
	return files
}

func TestEmitArchiveLayout(t *testing.T) {
	w := NewWriter()
	result, err := w.Emit(buildDoc(), format.EmitOptions{})
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(result.Value), int64(len(result.Value)))
	if err != nil {
		t.Fatalf("opening archive: %v", err)
	}
	if len(zr.File) == 0 {
		t.Fatal("archive is empty")
	}
	first := zr.File[0]
	if first.Name != "mimetype" {
		t.Errorf("first entry = %q, want mimetype", first.Name)
	}
	if first.Method != zip.Store {
		t.Errorf("mimetype must be stored uncompressed, got method %d", first.Method)
	}

	files := readArchive(t, result.Value)
	if files["mimetype"] != "application/epub+zip" {
		t.Errorf("mimetype content = %q", files["mimetype"])
	}
	if !strings.Contains(files["META-INF/container.xml"], "OEBPS/content.opf") {
		t.Error("container.xml should point at content.opf")
	}

	opf := files["OEBPS/content.opf"]
	for _, want := range []string{
		"<dc:title>Field Notes</dc:title>",
		"<dc:creator>A. Naturalist</dc:creator>",
		`<item id="chapter1" href="text/chapter1.xhtml"`,
		`<item id="chapter2" href="text/chapter2.xhtml"`,
		`<itemref idref="chapter1"/>`,
		`properties="nav"`,
	} {
		if !strings.Contains(opf, want) {
			t.Errorf("content.opf missing %q:\n%s", want, opf)
		}
	}

	nav := files["OEBPS/nav.xhtml"]
	if !strings.Contains(nav, ">Spring</a>") || !strings.Contains(nav, ">Summer</a>") {
		t.Errorf("nav missing chapter links:\n%s", nav)
	}

	ch1 := files["OEBPS/text/chapter1.xhtml"]
	if !strings.Contains(ch1, "<h1>Spring</h1>") {
		t.Errorf("chapter 1 missing title heading:\n%s", ch1)
	}
	if !strings.Contains(ch1, "<p>First blossoms.</p>") {
		t.Errorf("chapter 1 missing body:\n%s", ch1)
	}
	if strings.Contains(ch1, "Long days.") {
		t.Error("chapter 2 content leaked into chapter 1")
	}
}

func TestEmitFrontMatter(t *testing.T) {
	w := NewWriter()
	doc := ir.NewDocument()
	doc.Meta.SetString(ir.MetaTitle, "Preface Only")
	doc.Content.AppendChildren(
		ir.NewNode(ir.KindParagraph).AppendChild(ir.NewText("Opening words.")),
		ir.NewNode(ir.KindHeading).WithPropInt(ir.PropLevel, 1).AppendChild(ir.NewText("One")),
	)
	result, err := w.Emit(doc, format.EmitOptions{})
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	files := readArchive(t, result.Value)
	if !strings.Contains(files["OEBPS/text/chapter1.xhtml"], "Opening words.") {
		t.Error("preamble should land in the first chapter")
	}
	if !strings.Contains(files["OEBPS/text/chapter1.xhtml"], "<h1>Preface Only</h1>") {
		t.Error("preamble chapter should take the document title")
	}
	if !strings.Contains(files["OEBPS/text/chapter2.xhtml"], "<h1>One</h1>") {
		t.Error("heading should open chapter 2")
	}
}

func TestEmitCover(t *testing.T) {
	w := NewWriter()
	doc := buildDoc()
	id := doc.Resources.Add(ir.Resource{MIMEType: "image/png", Data: []byte("fake-png")})
	doc.Meta.SetString(MetaCover, string(id))

	result, err := w.Emit(doc, format.EmitOptions{})
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	files := readArchive(t, result.Value)
	if files["OEBPS/images/cover.png"] != "fake-png" {
		t.Error("cover image missing from archive")
	}
	if !strings.Contains(files["OEBPS/content.opf"], `properties="cover-image"`) {
		t.Error("cover missing from manifest")
	}
}

func TestEmitDanglingCover(t *testing.T) {
	w := NewWriter()
	doc := buildDoc()
	doc.Meta.SetString(MetaCover, "res-nope")

	result, err := w.Emit(doc, format.EmitOptions{})
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	found := false
	for _, warning := range result.Warnings {
		if warning.Kind == ir.WarningResourceMissing {
			found = true
		}
	}
	if !found {
		t.Error("dangling cover id should produce a resource-missing warning")
	}
	files := readArchive(t, result.Value)
	if _, ok := files["OEBPS/images/cover.jpg"]; ok {
		t.Error("no cover file should be written for a dangling id")
	}
}

func TestEmitPropagatesChapterWarnings(t *testing.T) {
	w := NewWriter()
	doc := buildDoc()
	doc.Content.AppendChild(ir.NewNode("custom:widget"))

	result, err := w.Emit(doc, format.EmitOptions{})
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	found := false
	for _, warning := range result.Warnings {
		if warning.Kind == ir.WarningUnsupportedNode {
			found = true
		}
	}
	if !found {
		t.Error("html sub-writer warnings should propagate")
	}
}

func TestEmitXHTMLVoidElements(t *testing.T) {
	w := NewWriter()
	doc := ir.NewDocument()
	doc.Content.AppendChildren(
		ir.NewNode(ir.KindHeading).WithPropInt(ir.PropLevel, 1).AppendChild(ir.NewText("Break")),
		ir.NewNode(ir.KindThematicBreak),
	)
	result, err := w.Emit(doc, format.EmitOptions{})
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	files := readArchive(t, result.Value)
	ch := files["OEBPS/text/chapter1.xhtml"]
	if strings.Contains(ch, "<hr>") {
		t.Errorf("void elements must self-close in XHTML:\n%s", ch)
	}
	if !strings.Contains(ch, "<hr/>") {
		t.Errorf("expected self-closed hr:\n%s", ch)
	}
}

func TestEmitEmpty(t *testing.T) {
	w := NewWriter()
	_, err := w.Emit(ir.NewDocument(), format.EmitOptions{})
	var emitErr *libErrors.EmitError
	if !libErrors.As(err, &emitErr) {
		t.Fatalf("got %v, want EmitError", err)
	}
}
