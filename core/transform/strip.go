package transform

import (
	"strings"

	"github.com/FocuswithJustin/Vellum/core/ir"
)

// StripEmpty removes text nodes whose trimmed content is empty, and
// paragraph/span/div nodes left with zero children. Removal is
// children-first, so a paragraph that becomes empty only once its own
// blank children are gone is itself removed in the same pass.
type StripEmpty struct{}

// Name implements Transformer.
func (StripEmpty) Name() string { return "strip-empty" }

// Transform implements Transformer.
func (s StripEmpty) Transform(doc *ir.Document) (*ir.Document, error) {
	if err := requireContent(s.Name(), doc); err != nil {
		return nil, err
	}
	out := doc.Clone()
	stripNode(out.Content)
	return out, nil
}

// stripNode filters the subtree in place and reports whether the node
// itself should be removed.
func stripNode(n *ir.Node) bool {
	kept := n.Children[:0]
	for _, c := range n.Children {
		if !stripNode(c) {
			kept = append(kept, c)
		}
	}
	n.Children = kept

	switch n.Kind {
	case ir.KindText:
		return strings.TrimSpace(n.Text()) == ""
	case ir.KindParagraph, ir.KindSpan, ir.KindDiv:
		return len(n.Children) == 0
	}
	return false
}
