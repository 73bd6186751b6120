package transform

import "github.com/FocuswithJustin/Vellum/core/ir"

// MergeText coalesces runs of adjacent sibling text nodes into one,
// concatenating their content in order. Children are merged first, and
// any non-text node breaks a run. The merged node keeps the first run
// member's properties; when first and last member both carry source
// spans, the merged span covers the whole run.
type MergeText struct{}

// Name implements Transformer.
func (MergeText) Name() string { return "merge-text" }

// Transform implements Transformer.
func (m MergeText) Transform(doc *ir.Document) (*ir.Document, error) {
	if err := requireContent(m.Name(), doc); err != nil {
		return nil, err
	}
	out := doc.Clone()
	mergeNode(out.Content)
	return out, nil
}

func mergeNode(n *ir.Node) {
	for _, c := range n.Children {
		mergeNode(c)
	}
	if len(n.Children) < 2 {
		return
	}
	merged := n.Children[:0]
	for _, c := range n.Children {
		if c.IsText() && len(merged) > 0 && merged[len(merged)-1].IsText() {
			head := merged[len(merged)-1]
			head.Props.SetString(ir.PropText, head.Text()+c.Text())
			if head.Span != nil && c.Span != nil {
				head.Span.End = c.Span.End
			}
			continue
		}
		merged = append(merged, c)
	}
	n.Children = merged
}
