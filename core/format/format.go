// Package format defines the boundary between the IR core and the
// format modules: the Reader and Writer contracts, the option carrier
// types, and the Registry that routes a conversion from one named
// format to another.
//
// Readers and writers never talk to each other; both talk only to the
// IR. The Registry is instance-scoped: there are no package-level
// registries or singletons, so every conversion pipeline is
// self-contained.
package format

import (
	"github.com/FocuswithJustin/Vellum/core/ir"
)

// Reader parses one external format into the IR.
type Reader interface {
	// Name is the format's registry name (e.g. "markdown").
	Name() string

	// Extensions lists the file extensions this format claims,
	// lower-case with leading dot (e.g. ".md").
	Extensions() []string

	// Detect reports whether the raw input looks like this format.
	// Used for content sniffing when no extension matches.
	Detect(data []byte) bool

	// Parse converts input bytes into a Document. Malformed input
	// fails with *errors.ParseError; lossy but parseable input
	// succeeds with warnings on the result.
	Parse(data []byte, opts ParseOptions) (ir.ConversionResult[*ir.Document], error)
}

// Writer serializes the IR into one external format.
type Writer interface {
	// Name is the format's registry name (e.g. "html").
	Name() string

	// Extensions lists the file extensions this format claims,
	// lower-case with leading dot. The first entry is the default
	// output extension.
	Extensions() []string

	// Emit serializes a Document. An unsupported node or property
	// degrades with a warning; only an encoding failure or broken
	// invariant fails with *errors.EmitError.
	Emit(doc *ir.Document, opts EmitOptions) (ir.ConversionResult[[]byte], error)
}

// ParseOptions configures readers. The core defines the carrier and
// defaults; each reader consumes what applies to it.
type ParseOptions struct {
	// PreserveSourceInfo populates node spans with byte offsets into
	// the original input.
	PreserveSourceInfo bool

	// EmbedResources inlines binary content (e.g. data-URI images)
	// into the document's ResourceMap instead of leaving external
	// references.
	EmbedResources bool

	// Charset names the input encoding ("utf-8", "utf-16", "latin-1",
	// "windows-1252"). Empty means detect, falling back to UTF-8.
	Charset string
}

// DefaultParseOptions returns the standard reader configuration.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{}
}

// EmitOptions configures writers.
type EmitOptions struct {
	// Standalone asks for a complete self-contained artifact (full
	// HTML page, LaTeX document with preamble) instead of a fragment.
	Standalone bool

	// Compression selects the container compression for formats that
	// have one ("xz", "gzip"). Empty means the format's default.
	Compression string

	// Charset names the output encoding for text formats that honor
	// it ("utf-8", "utf-16", "latin-1", "windows-1252"). Empty means
	// UTF-8.
	Charset string
}

// DefaultEmitOptions returns the standard writer configuration.
func DefaultEmitOptions() EmitOptions {
	return EmitOptions{}
}
