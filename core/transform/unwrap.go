package transform

import "github.com/FocuswithJustin/Vellum/core/ir"

// UnwrapSingleChild replaces a div or span that has exactly one child,
// no properties, and no source span by that child. Processing is
// children-first, so nested wrappers collapse fully in one traversal.
type UnwrapSingleChild struct{}

// Name implements Transformer.
func (UnwrapSingleChild) Name() string { return "unwrap-single-child" }

// Transform implements Transformer.
func (u UnwrapSingleChild) Transform(doc *ir.Document) (*ir.Document, error) {
	if err := requireContent(u.Name(), doc); err != nil {
		return nil, err
	}
	out := doc.Clone()
	out.Content = unwrapNode(out.Content)
	return out, nil
}

func unwrapNode(n *ir.Node) *ir.Node {
	for i, c := range n.Children {
		n.Children[i] = unwrapNode(c)
	}
	if n.Kind != ir.KindDiv && n.Kind != ir.KindSpan {
		return n
	}
	if len(n.Children) == 1 && n.Props.Len() == 0 && n.Span == nil {
		return n.Children[0]
	}
	return n
}
