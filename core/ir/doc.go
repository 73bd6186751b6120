// Package ir provides the Intermediate Representation (IR) that every
// format conversion routes through.
//
// Readers parse external syntax into the IR; writers serialize the IR
// back out. Because formats only ever talk to the IR, N formats need
// N+N integration points instead of N^2 direct mappings.
//
// # Core Types
//
// The IR is a tree of uniform nodes:
//
//   - Document: The unit of one conversion - root node, metadata,
//     resources, provenance
//   - Node: A kind tag, a typed property bag, ordered children, and an
//     optional source span
//   - Properties: An insertion-ordered, typed key/value bag
//   - Resource / ResourceMap: Binary assets referenced by id from node
//     properties, never embedded in the tree
//
// # Node Kinds
//
// Kinds are open strings, not a closed enum. The core vocabulary
// ("paragraph", "heading", "link", ...) is defined in kinds.go; format
// modules may introduce namespaced private kinds ("bibtex:entry") that
// everything else passes through unchanged. The vocabulary is additive:
// new kinds and keys may appear, existing ones never change meaning.
//
// # Fidelity
//
// Conversions virtually always succeed with caveats rather than abort.
// Anything representable in the source but not in the IR, or in the IR
// but not in the target format, becomes a FidelityWarning on the
// ConversionResult; only malformed input or a broken invariant is a
// hard error. Warnings concatenate through every composing call, so a
// caller converting A to B receives the complete ordered list of every
// compromise made along the way.
//
// # Example
//
//	doc := ir.NewDocument()
//	doc.Meta.SetString(ir.MetaTitle, "Notes")
//	doc.Content.AppendChildren(
//	    ir.NewNode(ir.KindHeading).
//	        WithPropInt(ir.PropLevel, 1).
//	        AppendChild(ir.NewText("Notes")),
//	    ir.NewNode(ir.KindParagraph).
//	        AppendChild(ir.NewText("First line.")),
//	)
package ir
