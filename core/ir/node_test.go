package ir

import (
	"encoding/json"
	"testing"
)

func TestNewNode(t *testing.T) {
	n := NewNode(KindParagraph)
	if n.Kind != KindParagraph {
		t.Errorf("Kind = %q, want %q", n.Kind, KindParagraph)
	}
	if n.Props.Len() != 0 {
		t.Errorf("new node has %d props, want 0", n.Props.Len())
	}
	if len(n.Children) != 0 {
		t.Errorf("new node has %d children, want 0", len(n.Children))
	}
	if n.Span != nil {
		t.Error("new node has a span, want nil")
	}
}

func TestNodeBuilderChaining(t *testing.T) {
	n := NewNode(KindHeading).
		WithPropInt(PropLevel, 2).
		WithPropString(PropID, "intro").
		AppendChild(NewText("Introduction"))

	if lvl, ok := n.Props.GetInt(PropLevel); !ok || lvl != 2 {
		t.Errorf("level = %d, %v, want 2, true", lvl, ok)
	}
	if id, ok := n.Props.GetString(PropID); !ok || id != "intro" {
		t.Errorf("id = %q, %v, want %q, true", id, ok, "intro")
	}
	if len(n.Children) != 1 || n.Children[0].Text() != "Introduction" {
		t.Errorf("children = %v, want one text child", n.Children)
	}
}

func TestNodeChildOrder(t *testing.T) {
	n := NewNode(KindParagraph).AppendChildren(
		NewText("a"),
		NewText("b"),
	).AppendChild(NewText("c"))

	want := []string{"a", "b", "c"}
	if len(n.Children) != len(want) {
		t.Fatalf("len(Children) = %d, want %d", len(n.Children), len(want))
	}
	for i, w := range want {
		if got := n.Children[i].Text(); got != w {
			t.Errorf("Children[%d].Text() = %q, want %q", i, got, w)
		}
	}
}

func TestNodeClone(t *testing.T) {
	orig := NewNode(KindParagraph).
		WithPropString(PropID, "p1").
		WithSpan(0, 10).
		AppendChild(NewText("hello"))

	c := orig.Clone()
	c.Props.SetString(PropID, "p2")
	c.Children[0].Props.SetString(PropText, "changed")
	c.Span.End = 99

	if id, _ := orig.Props.GetString(PropID); id != "p1" {
		t.Errorf("clone mutated original props: id = %q", id)
	}
	if txt := orig.Children[0].Text(); txt != "hello" {
		t.Errorf("clone mutated original child: text = %q", txt)
	}
	if orig.Span.End != 10 {
		t.Errorf("clone mutated original span: end = %d", orig.Span.End)
	}
}

func TestNodeCloneNil(t *testing.T) {
	var n *Node
	if c := n.Clone(); c != nil {
		t.Errorf("nil.Clone() = %v, want nil", c)
	}
}

func TestCustomKindPassThrough(t *testing.T) {
	n := NewNode("bibtex:entry").WithPropString("bibtex:entrytype", "article")
	if IsCoreKind(n.Kind) {
		t.Errorf("IsCoreKind(%q) = true, want false", n.Kind)
	}

	c := n.Clone()
	if c.Kind != "bibtex:entry" {
		t.Errorf("Clone changed custom kind to %q", c.Kind)
	}
	if v, ok := c.Props.GetString("bibtex:entrytype"); !ok || v != "article" {
		t.Errorf("custom prop = %q, %v, want %q, true", v, ok, "article")
	}
}

func TestIsCoreKind(t *testing.T) {
	tests := []struct {
		kind string
		want bool
	}{
		{KindParagraph, true},
		{KindHeading, true},
		{KindTable, true},
		{"bibtex:entry", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsCoreKind(tt.kind); got != tt.want {
			t.Errorf("IsCoreKind(%q) = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestNodePlainText(t *testing.T) {
	root := NewNode(KindDocument).AppendChildren(
		NewNode(KindHeading).WithPropInt(PropLevel, 1).AppendChild(NewText("Title")),
		NewNode(KindParagraph).AppendChildren(
			NewText("Hello "),
			NewNode(KindEmphasis).AppendChild(NewText("World")),
		),
	)

	want := "Title\nHello World"
	if got := root.PlainText(); got != want {
		t.Errorf("PlainText() = %q, want %q", got, want)
	}
}

func TestNodeJSONRoundTrip(t *testing.T) {
	orig := NewNode(KindHeading).
		WithPropInt(PropLevel, 2).
		WithSpan(4, 17).
		AppendChild(NewText("Title"))

	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("json.Marshal failed: %v", err)
	}

	var got Node
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("json.Unmarshal failed: %v", err)
	}
	if got.Kind != KindHeading {
		t.Errorf("Kind = %q, want %q", got.Kind, KindHeading)
	}
	if lvl, _ := got.Props.GetInt(PropLevel); lvl != 2 {
		t.Errorf("level = %d, want 2", lvl)
	}
	if got.Span == nil || got.Span.Start != 4 || got.Span.End != 17 {
		t.Errorf("Span = %v, want {4 17}", got.Span)
	}
	if len(got.Children) != 1 || got.Children[0].Text() != "Title" {
		t.Errorf("Children = %v, want one text child", got.Children)
	}
}

func TestNodeJSONOmitsEmpty(t *testing.T) {
	data, err := json.Marshal(NewNode(KindThematicBreak))
	if err != nil {
		t.Fatalf("json.Marshal failed: %v", err)
	}
	want := `{"kind":"thematic_break"}`
	if string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}
}
