// writer.go - BibTeX emission

package bibtex

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/Vellum/core/errors"
	"github.com/FocuswithJustin/Vellum/core/format"
	"github.com/FocuswithJustin/Vellum/core/ir"
)

// Emit renders the document's bibliography entries as BibTeX. Nodes
// outside the bibliography vocabulary are skipped with a warning;
// a document with no entries at all is an EmitError since there is
// nothing BibTeX could say about it.
func (f *Format) Emit(doc *ir.Document, opts format.EmitOptions) (ir.ConversionResult[[]byte], error) {
	if doc == nil || doc.Content == nil {
		return ir.ConversionResult[[]byte]{}, errors.NewEmit("bibtex", "document has no content root")
	}

	var warnings []ir.FidelityWarning
	var entries []*ir.Node
	ir.Walk(doc.Content, func(n *ir.Node, path string) error {
		if n.Kind == KindEntry {
			entries = append(entries, n)
			return ir.SkipChildren
		}
		if n.Kind != ir.KindDocument && n.Kind != ir.KindSection && n.Kind != ir.KindDiv {
			warnings = append(warnings, ir.WarnDataDropped(path, n.Kind+" node",
				"BibTeX carries only bibliography entries"))
			return ir.SkipChildren
		}
		return nil
	})

	if len(entries) == 0 {
		return ir.ConversionResult[[]byte]{}, errors.NewEmit("bibtex", "document has no bibliography entries")
	}

	var sb strings.Builder
	for i, entry := range entries {
		if i > 0 {
			sb.WriteString("\n")
		}
		writeEntry(&sb, entry)
	}

	result := ir.OK([]byte(sb.String()))
	result.Warn(warnings...)
	return result, nil
}

func writeEntry(sb *strings.Builder, entry *ir.Node) {
	entryType, _ := entry.Props.GetString(PropType)
	if entryType == "" {
		entryType = "misc"
	}
	key, _ := entry.Props.GetString(PropKey)

	sb.WriteString("@" + entryType + "{" + key)
	entry.Props.Iterate(func(propKey string, v ir.Value) bool {
		if propKey == PropType || propKey == PropKey {
			return true
		}
		field, ok := strings.CutPrefix(propKey, fieldPrefix)
		if !ok {
			return true
		}
		sb.WriteString(",\n")
		fmt.Fprintf(sb, "  %s = {%s}", field, v.String())
		return true
	})
	sb.WriteString(",\n}\n")
}
