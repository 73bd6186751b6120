// Package formats registers the built-in format modules. The
// registration order is the content-sniffing order: the most
// distinctive signatures go first so ambiguous inputs fall through to
// the forgiving text formats last.
package formats

import (
	"github.com/FocuswithJustin/Vellum/core/format"
	"github.com/FocuswithJustin/Vellum/formats/bbcode"
	"github.com/FocuswithJustin/Vellum/formats/bibtex"
	"github.com/FocuswithJustin/Vellum/formats/bundle"
	"github.com/FocuswithJustin/Vellum/formats/epub"
	"github.com/FocuswithJustin/Vellum/formats/html"
	"github.com/FocuswithJustin/Vellum/formats/irjson"
	"github.com/FocuswithJustin/Vellum/formats/latex"
	"github.com/FocuswithJustin/Vellum/formats/markdown"
	"github.com/FocuswithJustin/Vellum/formats/opml"
	"github.com/FocuswithJustin/Vellum/formats/plain"
	"github.com/FocuswithJustin/Vellum/formats/ris"
	"github.com/FocuswithJustin/Vellum/formats/rtf"
	"github.com/FocuswithJustin/Vellum/formats/sqlitedoc"
)

// Register adds every built-in reader and writer to the registry.
func Register(reg *format.Registry) {
	// Binary and signature-bearing formats sniff reliably; they come
	// first.
	sqliteDoc := sqlitedoc.New()
	reg.RegisterReader(sqliteDoc)
	reg.RegisterWriter(sqliteDoc)

	bundleFormat := bundle.New()
	reg.RegisterReader(bundleFormat)
	reg.RegisterWriter(bundleFormat)

	irJSON := irjson.New()
	reg.RegisterReader(irJSON)
	reg.RegisterWriter(irJSON)

	opmlFormat := opml.New()
	reg.RegisterReader(opmlFormat)
	reg.RegisterWriter(opmlFormat)

	bibtexFormat := bibtex.New()
	reg.RegisterReader(bibtexFormat)
	reg.RegisterWriter(bibtexFormat)

	risFormat := ris.New()
	reg.RegisterReader(risFormat)
	reg.RegisterWriter(risFormat)

	bbcodeFormat := bbcode.New()
	reg.RegisterReader(bbcodeFormat)
	reg.RegisterWriter(bbcodeFormat)

	// Markdown matches almost any text, so it sniffs last.
	markdownFormat := markdown.New()
	reg.RegisterReader(markdownFormat)
	reg.RegisterWriter(markdownFormat)

	// Write-only targets.
	reg.RegisterWriter(html.NewWriter())
	reg.RegisterWriter(latex.NewWriter())
	reg.RegisterWriter(rtf.NewWriter())
	reg.RegisterWriter(epub.NewWriter())
	reg.RegisterWriter(plain.NewWriter())
}
