// Package irjson serializes documents to and from their canonical JSON
// form. It is the only format guaranteed to round-trip a document
// without fidelity loss, which makes it the interchange and debugging
// format for every other module.
package irjson

import (
	"bytes"
	"encoding/json"

	"github.com/FocuswithJustin/Vellum/core/errors"
	"github.com/FocuswithJustin/Vellum/core/format"
	"github.com/FocuswithJustin/Vellum/core/ir"
)

// Format reads and writes the canonical JSON document form.
type Format struct{}

// New creates the irjson format module.
func New() *Format {
	return &Format{}
}

// Name returns the registry name.
func (f *Format) Name() string {
	return "irjson"
}

// Extensions returns the file extensions this format claims.
func (f *Format) Extensions() []string {
	return []string{".irjson", ".json"}
}

// Detect reports whether the input looks like a canonical JSON document.
func (f *Format) Detect(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	return bytes.Contains(trimmed, []byte(`"content"`))
}

// Parse decodes a canonical JSON document.
func (f *Format) Parse(data []byte, opts format.ParseOptions) (ir.ConversionResult[*ir.Document], error) {
	var doc ir.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return ir.ConversionResult[*ir.Document]{}, &errors.ParseError{Format: "irjson", Message: "invalid JSON", Err: err}
	}
	if doc.Content == nil {
		return ir.ConversionResult[*ir.Document]{}, errors.NewParse("irjson", "missing content root")
	}
	if doc.Source == "" {
		doc.Source = "irjson"
	}
	return ir.OK(&doc), nil
}

// Emit encodes the document as indented canonical JSON.
func (f *Format) Emit(doc *ir.Document, opts format.EmitOptions) (ir.ConversionResult[[]byte], error) {
	if doc == nil || doc.Content == nil {
		return ir.ConversionResult[[]byte]{}, errors.NewEmit("irjson", "document has no content root")
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return ir.ConversionResult[[]byte]{}, &errors.EmitError{Format: "irjson", Message: "marshal failed", Err: err}
	}
	out = append(out, '\n')
	return ir.OK(out), nil
}
