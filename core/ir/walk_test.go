package ir

import (
	"errors"
	"testing"
)

// sampleTree builds Document(Paragraph(Text("Hello"), Emphasis(Text("World")))).
func sampleTree() *Node {
	return NewNode(KindDocument).AppendChild(
		NewNode(KindParagraph).AppendChildren(
			NewText("Hello"),
			NewNode(KindEmphasis).AppendChild(NewText("World")),
		),
	)
}

func TestWalkVisitsAllNodesPreOrder(t *testing.T) {
	var kinds []string
	err := Walk(sampleTree(), func(n *Node, path string) error {
		kinds = append(kinds, n.Kind)
		return nil
	})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	want := []string{KindDocument, KindParagraph, KindText, KindEmphasis, KindText}
	if len(kinds) != len(want) {
		t.Fatalf("visited %d nodes %v, want %d", len(kinds), kinds, len(want))
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("visit[%d] = %q, want %q", i, kinds[i], want[i])
		}
	}
}

func TestWalkPaths(t *testing.T) {
	paths := map[string]string{}
	err := Walk(sampleTree(), func(n *Node, path string) error {
		if n.IsText() {
			paths[n.Text()] = path
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	if paths["Hello"] != "/0/0" {
		t.Errorf(`path of "Hello" = %q, want "/0/0"`, paths["Hello"])
	}
	if paths["World"] != "/0/1/0" {
		t.Errorf(`path of "World" = %q, want "/0/1/0"`, paths["World"])
	}
}

func TestWalkSkipChildren(t *testing.T) {
	var visited []string
	err := Walk(sampleTree(), func(n *Node, path string) error {
		visited = append(visited, n.Kind)
		if n.Kind == KindParagraph {
			return SkipChildren
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if len(visited) != 2 {
		t.Errorf("visited %v, want document and paragraph only", visited)
	}
}

func TestWalkStopsOnError(t *testing.T) {
	sentinel := errors.New("stop here")
	count := 0
	err := Walk(sampleTree(), func(n *Node, path string) error {
		count++
		if n.IsText() {
			return sentinel
		}
		return nil
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("Walk error = %v, want sentinel", err)
	}
	if count != 3 {
		t.Errorf("visited %d nodes before stopping, want 3", count)
	}
}

func TestWalkNilRoot(t *testing.T) {
	if err := Walk(nil, func(n *Node, path string) error { return nil }); err != nil {
		t.Errorf("Walk(nil) = %v, want nil", err)
	}
}

func TestMapRewrites(t *testing.T) {
	orig := sampleTree()
	got := Map(orig, func(n *Node) *Node {
		if n.IsText() {
			n.Props.SetString(PropText, "X")
		}
		return n
	})

	// Original untouched.
	if orig.Children[0].Children[0].Text() != "Hello" {
		t.Error("Map mutated its input")
	}
	if got.Children[0].Children[0].Text() != "X" {
		t.Errorf("mapped text = %q, want %q", got.Children[0].Children[0].Text(), "X")
	}
}

func TestMapDropsNodes(t *testing.T) {
	got := Map(sampleTree(), func(n *Node) *Node {
		if n.Kind == KindEmphasis {
			return nil
		}
		return n
	})

	para := got.Children[0]
	if len(para.Children) != 1 {
		t.Fatalf("paragraph has %d children after drop, want 1", len(para.Children))
	}
	if para.Children[0].Text() != "Hello" {
		t.Errorf("surviving child = %q, want %q", para.Children[0].Text(), "Hello")
	}
}

func TestMapDropRoot(t *testing.T) {
	got := Map(sampleTree(), func(n *Node) *Node { return nil })
	if got != nil {
		t.Errorf("Map dropping the root = %v, want nil", got)
	}
}

func TestMapReplacementChildrenAreMapped(t *testing.T) {
	// A replacement node's children are themselves mapped.
	got := Map(NewNode(KindDocument), func(n *Node) *Node {
		if n.Kind == KindDocument {
			return NewNode(KindDocument).AppendChild(NewText("inserted"))
		}
		n.Props.SetString(PropText, "mapped")
		return n
	})

	if got.Children[0].Text() != "mapped" {
		t.Errorf("inserted child text = %q, want %q", got.Children[0].Text(), "mapped")
	}
}

func TestCount(t *testing.T) {
	tests := []struct {
		name string
		root *Node
		want int
	}{
		{"nil", nil, 0},
		{"single", NewNode(KindDocument), 1},
		{"sample", sampleTree(), 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Count(tt.root); got != tt.want {
				t.Errorf("Count() = %d, want %d", got, tt.want)
			}
		})
	}
}
