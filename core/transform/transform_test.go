package transform

import (
	"encoding/json"
	"testing"

	"github.com/FocuswithJustin/Vellum/core/errors"
	"github.com/FocuswithJustin/Vellum/core/ir"
)

func docWith(children ...*ir.Node) *ir.Document {
	d := ir.NewDocument()
	d.Content.AppendChildren(children...)
	return d
}

func heading(level int64, text string) *ir.Node {
	return ir.NewNode(ir.KindHeading).WithPropInt(ir.PropLevel, level).AppendChild(ir.NewText(text))
}

func paragraph(texts ...string) *ir.Node {
	p := ir.NewNode(ir.KindParagraph)
	for _, t := range texts {
		p.AppendChild(ir.NewText(t))
	}
	return p
}

// docJSON renders a document for structural comparison.
func docJSON(t *testing.T, d *ir.Document) string {
	t.Helper()
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("json.Marshal failed: %v", err)
	}
	return string(data)
}

func mustTransform(t *testing.T, tr Transformer, d *ir.Document) *ir.Document {
	t.Helper()
	out, err := tr.Transform(d)
	if err != nil {
		t.Fatalf("%s failed: %v", tr.Name(), err)
	}
	return out
}

func TestShiftHeadingsClamp(t *testing.T) {
	tests := []struct {
		name  string
		level int64
		delta int64
		want  int64
	}{
		{"shift down", 1, 1, 2},
		{"shift up", 3, -1, 2},
		{"clamp at max", 6, 2, 6},
		{"clamp at min", 1, -3, 1},
		{"no-op", 4, 0, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := mustTransform(t, NewShiftHeadings(tt.delta), docWith(heading(tt.level, "h")))
			got, ok := out.Content.Children[0].Props.GetInt(ir.PropLevel)
			if !ok || got != tt.want {
				t.Errorf("level = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestShiftHeadingsLeavesInputAlone(t *testing.T) {
	in := docWith(heading(1, "Title"))
	mustTransform(t, NewShiftHeadings(3), in)

	if lvl, _ := in.Content.Children[0].Props.GetInt(ir.PropLevel); lvl != 1 {
		t.Errorf("input level mutated to %d", lvl)
	}
}

func TestShiftHeadingsIgnoresOtherKinds(t *testing.T) {
	in := docWith(paragraph("body"), heading(2, "h"))
	out := mustTransform(t, NewShiftHeadings(1), in)

	if out.Content.Children[0].Kind != ir.KindParagraph {
		t.Error("paragraph was rewritten")
	}
	if lvl, _ := out.Content.Children[1].Props.GetInt(ir.PropLevel); lvl != 3 {
		t.Errorf("heading level = %d, want 3", lvl)
	}
}

func TestShiftHeadingsBadRange(t *testing.T) {
	s := &ShiftHeadings{Delta: 1, Min: 5, Max: 2}
	_, err := s.Transform(docWith(heading(1, "h")))
	var terr *errors.TransformError
	if !errors.As(err, &terr) {
		t.Fatalf("error = %v, want TransformError", err)
	}
	if terr.Transform != "shift-headings" {
		t.Errorf("Transform = %q, want shift-headings", terr.Transform)
	}
}

func TestStripEmptyRemovesBlankText(t *testing.T) {
	in := docWith(paragraph("keep", "   ", "\t\n", "also keep"))
	out := mustTransform(t, StripEmpty{}, in)

	para := out.Content.Children[0]
	if len(para.Children) != 2 {
		t.Fatalf("paragraph has %d children, want 2", len(para.Children))
	}
	if para.Children[0].Text() != "keep" || para.Children[1].Text() != "also keep" {
		t.Errorf("children = %q, %q", para.Children[0].Text(), para.Children[1].Text())
	}
}

func TestStripEmptyCascadesChildrenFirst(t *testing.T) {
	// A paragraph that becomes empty only after its blank children are
	// stripped disappears in the same pass, as does the div around it.
	in := docWith(
		ir.NewNode(ir.KindDiv).AppendChild(paragraph("  ", "")),
		paragraph("content"),
	)
	out := mustTransform(t, StripEmpty{}, in)

	if len(out.Content.Children) != 1 {
		t.Fatalf("root has %d children, want 1", len(out.Content.Children))
	}
	if out.Content.Children[0].Kind != ir.KindParagraph {
		t.Errorf("survivor kind = %q, want paragraph", out.Content.Children[0].Kind)
	}
}

func TestStripEmptyKeepsNonContainerKinds(t *testing.T) {
	// Childless nodes that are not text/paragraph/span/div survive.
	in := docWith(ir.NewNode(ir.KindThematicBreak), ir.NewNode(ir.KindLineBreak))
	out := mustTransform(t, StripEmpty{}, in)

	if len(out.Content.Children) != 2 {
		t.Errorf("root has %d children, want 2", len(out.Content.Children))
	}
}

func TestStripEmptyIdempotent(t *testing.T) {
	in := docWith(
		ir.NewNode(ir.KindDiv).AppendChildren(paragraph(" "), paragraph("x", " ")),
		paragraph(),
	)
	once := mustTransform(t, StripEmpty{}, in)
	twice := mustTransform(t, StripEmpty{}, once)

	if docJSON(t, once) != docJSON(t, twice) {
		t.Errorf("StripEmpty not idempotent:\nonce:  %s\ntwice: %s", docJSON(t, once), docJSON(t, twice))
	}
}

func TestMergeTextCoalescesRuns(t *testing.T) {
	in := docWith(paragraph("Hel", "lo ", "World"))
	out := mustTransform(t, MergeText{}, in)

	para := out.Content.Children[0]
	if len(para.Children) != 1 {
		t.Fatalf("paragraph has %d children, want 1", len(para.Children))
	}
	if got := para.Children[0].Text(); got != "Hello World" {
		t.Errorf("merged text = %q, want %q", got, "Hello World")
	}
}

func TestMergeTextNonTextBreaksRun(t *testing.T) {
	in := docWith(ir.NewNode(ir.KindParagraph).AppendChildren(
		ir.NewText("a"),
		ir.NewText("b"),
		ir.NewNode(ir.KindLineBreak),
		ir.NewText("c"),
		ir.NewText("d"),
	))
	out := mustTransform(t, MergeText{}, in)

	para := out.Content.Children[0]
	if len(para.Children) != 3 {
		t.Fatalf("paragraph has %d children, want 3", len(para.Children))
	}
	if para.Children[0].Text() != "ab" || para.Children[2].Text() != "cd" {
		t.Errorf("runs = %q, %q, want %q, %q",
			para.Children[0].Text(), para.Children[2].Text(), "ab", "cd")
	}
}

func TestMergeTextMergesSpans(t *testing.T) {
	first := ir.NewText("ab").WithSpan(0, 2)
	second := ir.NewText("cd").WithSpan(2, 4)
	in := docWith(ir.NewNode(ir.KindParagraph).AppendChildren(first, second))

	out := mustTransform(t, MergeText{}, in)
	merged := out.Content.Children[0].Children[0]
	if merged.Span == nil || merged.Span.Start != 0 || merged.Span.End != 4 {
		t.Errorf("merged span = %v, want {0 4}", merged.Span)
	}
}

func TestMergeTextIdempotentAndNoAdjacentText(t *testing.T) {
	in := docWith(
		paragraph("a", "b", "c"),
		ir.NewNode(ir.KindQuoteBlock).AppendChild(paragraph("d", "e")),
	)
	once := mustTransform(t, MergeText{}, in)
	twice := mustTransform(t, MergeText{}, once)

	if docJSON(t, once) != docJSON(t, twice) {
		t.Error("MergeText not idempotent")
	}

	err := ir.Walk(once.Content, func(n *ir.Node, path string) error {
		for i := 1; i < len(n.Children); i++ {
			if n.Children[i-1].IsText() && n.Children[i].IsText() {
				t.Errorf("adjacent text siblings at %s", path)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
}

func TestUnwrapSingleChild(t *testing.T) {
	inner := heading(2, "wrapped")
	in := docWith(ir.NewNode(ir.KindDiv).AppendChild(inner))

	out := mustTransform(t, UnwrapSingleChild{}, in)
	got := out.Content.Children[0]
	if got.Kind != ir.KindHeading {
		t.Errorf("unwrapped kind = %q, want heading", got.Kind)
	}
	if got.Children[0].Text() != "wrapped" {
		t.Errorf("unwrapped content = %q, want %q", got.Children[0].Text(), "wrapped")
	}
}

func TestUnwrapSingleChildNoOpCases(t *testing.T) {
	tests := []struct {
		name string
		node *ir.Node
	}{
		{"two children", ir.NewNode(ir.KindDiv).AppendChildren(ir.NewText("a"), ir.NewText("b"))},
		{"has props", ir.NewNode(ir.KindDiv).WithPropString(ir.PropID, "x").AppendChild(ir.NewText("a"))},
		{"has span", ir.NewNode(ir.KindDiv).WithSpan(0, 5).AppendChild(ir.NewText("a"))},
		{"not div or span", ir.NewNode(ir.KindQuoteBlock).AppendChild(ir.NewText("a"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := mustTransform(t, UnwrapSingleChild{}, docWith(tt.node))
			if got := out.Content.Children[0].Kind; got != tt.node.Kind {
				t.Errorf("kind after unwrap = %q, want %q", got, tt.node.Kind)
			}
		})
	}
}

func TestUnwrapSingleChildCollapsesNestedWrappers(t *testing.T) {
	in := docWith(
		ir.NewNode(ir.KindDiv).AppendChild(
			ir.NewNode(ir.KindSpan).AppendChild(
				ir.NewNode(ir.KindDiv).AppendChild(ir.NewText("core")),
			),
		),
	)
	out := mustTransform(t, UnwrapSingleChild{}, in)

	got := out.Content.Children[0]
	if !got.IsText() || got.Text() != "core" {
		t.Errorf("nested wrappers collapsed to %q node, want bare text", got.Kind)
	}
}

func TestPipelineAppliesInOrder(t *testing.T) {
	// Strip first, then shift: [Heading(1), Paragraph(empty), Paragraph("Content")]
	// becomes [Heading(2), Paragraph("Content")].
	in := docWith(heading(1, "Title"), paragraph(), paragraph("Content"))

	p := NewPipeline().Then(StripEmpty{}).Then(NewShiftHeadings(1))
	out := mustTransform(t, p, in)

	if len(out.Content.Children) != 2 {
		t.Fatalf("root has %d children, want 2", len(out.Content.Children))
	}
	if lvl, _ := out.Content.Children[0].Props.GetInt(ir.PropLevel); lvl != 2 {
		t.Errorf("heading level = %d, want 2", lvl)
	}
	if out.Content.Children[1].Kind != ir.KindParagraph {
		t.Errorf("second child = %q, want paragraph", out.Content.Children[1].Kind)
	}
	if len(in.Content.Children) != 3 {
		t.Error("pipeline mutated its input")
	}
}

// failingTransform always fails, for abort tests.
type failingTransform struct{}

func (failingTransform) Name() string { return "failing" }
func (failingTransform) Transform(doc *ir.Document) (*ir.Document, error) {
	return nil, errors.NewTransform("failing", "induced failure")
}

// countingTransform records whether it ran.
type countingTransform struct{ ran *bool }

func (countingTransform) Name() string { return "counting" }
func (c countingTransform) Transform(doc *ir.Document) (*ir.Document, error) {
	*c.ran = true
	return doc.Clone(), nil
}

func TestPipelineFirstFailureAborts(t *testing.T) {
	ran := false
	p := NewPipeline(failingTransform{}, countingTransform{ran: &ran})

	_, err := p.Transform(docWith(paragraph("x")))
	var terr *errors.TransformError
	if !errors.As(err, &terr) {
		t.Fatalf("error = %v, want TransformError", err)
	}
	if terr.Transform != "failing" {
		t.Errorf("Transform = %q, want failing", terr.Transform)
	}
	if ran {
		t.Error("step after the failure still ran")
	}
}

func TestPipelineEmptyClones(t *testing.T) {
	in := docWith(paragraph("x"))
	out := mustTransform(t, NewPipeline(), in)
	if out == in {
		t.Error("empty pipeline returned its input instead of a copy")
	}
	if docJSON(t, out) != docJSON(t, in) {
		t.Error("empty pipeline changed the document")
	}
}

func TestPipelineIsATransformer(t *testing.T) {
	inner := NewPipeline(StripEmpty{})
	outer := NewPipeline(inner, NewShiftHeadings(1))

	out := mustTransform(t, outer, docWith(heading(1, "t"), paragraph(" ")))
	if len(out.Content.Children) != 1 {
		t.Fatalf("root has %d children, want 1", len(out.Content.Children))
	}
	if lvl, _ := out.Content.Children[0].Props.GetInt(ir.PropLevel); lvl != 2 {
		t.Errorf("heading level = %d, want 2", lvl)
	}
}
