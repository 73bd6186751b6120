// Package bibtex reads and writes BibTeX bibliography databases.
// Entries become format-namespaced "bibtex:entry" nodes so that
// bibliography data survives passage through modules that do not
// understand it; the RIS module maps onto the same vocabulary, making
// the two bibliography formats interconvertible.
package bibtex

import (
	"bytes"
	"regexp"
)

// Node kinds and property keys of the bibliography vocabulary.
const (
	// KindEntry is one bibliography entry.
	KindEntry = "bibtex:entry"

	// PropType is the entry type ("article", "book", ...).
	PropType = "bibtex:type"

	// PropKey is the citation key.
	PropKey = "bibtex:key"

	// fieldPrefix namespaces entry fields ("bibtex:author", ...).
	fieldPrefix = "bibtex:"
)

// FieldProp returns the property key for a BibTeX field name.
func FieldProp(field string) string {
	return fieldPrefix + field
}

// Format reads and writes BibTeX.
type Format struct{}

// New creates the bibtex format module.
func New() *Format {
	return &Format{}
}

// Name returns the registry name.
func (f *Format) Name() string {
	return "bibtex"
}

// Extensions returns the file extensions this format claims.
func (f *Format) Extensions() []string {
	return []string{".bib", ".bibtex"}
}

var detectPattern = regexp.MustCompile(`(?m)^\s*@[A-Za-z]+\s*\{`)

// Detect reports whether the input looks like BibTeX.
func (f *Format) Detect(data []byte) bool {
	return detectPattern.Match(bytes.TrimSpace(data))
}
