package format

import (
	"github.com/FocuswithJustin/Vellum/core/ir"
	"github.com/FocuswithJustin/Vellum/core/transform"
)

// ConvertOptions carries the per-conversion configuration.
type ConvertOptions struct {
	// Parse configures the reader.
	Parse ParseOptions

	// Emit configures the writer.
	Emit EmitOptions

	// Transform, when non-nil, runs between parse and emit. Use a
	// *transform.Pipeline to chain several.
	Transform transform.Transformer
}

// Convert routes one conversion end to end: parse with the named
// reader, optionally transform, emit with the named writer. Reader and
// writer warnings concatenate in order on the returned result, so the
// caller sees every fidelity compromise made along the way. Any fatal
// error aborts the conversion with no partial output.
func (r *Registry) Convert(from, to string, data []byte, opts ConvertOptions) (ir.ConversionResult[[]byte], error) {
	var zero ir.ConversionResult[[]byte]

	reader, err := r.Reader(from)
	if err != nil {
		return zero, err
	}
	writer, err := r.Writer(to)
	if err != nil {
		return zero, err
	}

	parsed, err := reader.Parse(data, opts.Parse)
	if err != nil {
		return zero, err
	}

	doc := parsed.Value
	if opts.Transform != nil {
		doc, err = opts.Transform.Transform(doc)
		if err != nil {
			return zero, err
		}
	}

	emitted, err := writer.Emit(doc, opts.Emit)
	if err != nil {
		return zero, err
	}

	out := ir.OK(emitted.Value)
	out.Warn(parsed.Warnings...)
	out.Warn(emitted.Warnings...)
	return out, nil
}
