package ir

import "strings"

// Span records where a node came from in the original input, as byte
// offsets. It is populated only when the caller asked the reader to
// preserve source info.
type Span struct {
	// Start is the byte offset where the node's source begins.
	Start int `json:"start"`

	// End is the byte offset one past the node's source.
	End int `json:"end"`
}

// Node is the tree unit of the intermediate representation: a kind tag,
// a typed property bag, an ordered list of owned children, and an
// optional source span.
//
// A node exclusively owns its children; the tree has no cycles and no
// shared subtrees. Child order is document reading order and is
// preserved exactly by every operation in this package.
type Node struct {
	// Kind names the node's role ("paragraph", "heading", ...). The
	// namespace is open: format modules may introduce private kinds
	// that default handling passes through unchanged.
	Kind string `json:"kind"`

	// Props holds structural data for this kind (heading level, link
	// URL, code-block language, ...).
	Props Properties `json:"props,omitzero"`

	// Children are the node's ordered subtrees.
	Children []*Node `json:"children,omitempty"`

	// Span is the node's position in the original source, if tracked.
	Span *Span `json:"span,omitempty"`
}

// NewNode creates a childless, prop-less node of the given kind.
func NewNode(kind string) *Node {
	return &Node{Kind: kind}
}

// NewText creates a text node carrying the given content.
func NewText(text string) *Node {
	n := NewNode(KindText)
	n.Props.SetString(PropText, text)
	return n
}

// WithProp sets a property and returns the node for chaining.
func (n *Node) WithProp(key string, v Value) *Node {
	n.Props.Set(key, v)
	return n
}

// WithPropString sets a string property and returns the node.
func (n *Node) WithPropString(key, v string) *Node {
	n.Props.SetString(key, v)
	return n
}

// WithPropInt sets an integer property and returns the node.
func (n *Node) WithPropInt(key string, v int64) *Node {
	n.Props.SetInt(key, v)
	return n
}

// WithPropBool sets a boolean property and returns the node.
func (n *Node) WithPropBool(key string, v bool) *Node {
	n.Props.SetBool(key, v)
	return n
}

// WithSpan sets the source span and returns the node.
func (n *Node) WithSpan(start, end int) *Node {
	n.Span = &Span{Start: start, End: end}
	return n
}

// AppendChild appends one child and returns the node.
func (n *Node) AppendChild(child *Node) *Node {
	n.Children = append(n.Children, child)
	return n
}

// AppendChildren appends children in call order and returns the node.
func (n *Node) AppendChildren(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// Text returns the node's text property, or "" if absent.
func (n *Node) Text() string {
	s, _ := n.Props.GetString(PropText)
	return s
}

// IsText returns true for text nodes.
func (n *Node) IsText() bool { return n.Kind == KindText }

// Clone returns a deep copy of the node and its subtree.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{Kind: n.Kind, Props: n.Props.Clone()}
	if n.Span != nil {
		span := *n.Span
		c.Span = &span
	}
	if len(n.Children) > 0 {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	return c
}

// PlainText extracts the text content of the subtree in reading order.
// Text and code content is collected as-is; block-level boundaries
// contribute a newline and explicit line breaks one newline each.
func (n *Node) PlainText() string {
	var sb strings.Builder
	n.plainText(&sb)
	return strings.TrimRight(sb.String(), "\n")
}

func (n *Node) plainText(sb *strings.Builder) {
	switch n.Kind {
	case KindText, KindCode, KindCodeBlock:
		sb.WriteString(n.Text())
	case KindLineBreak:
		sb.WriteByte('\n')
	case KindImage:
		if alt, ok := n.Props.GetString(PropAlt); ok {
			sb.WriteString(alt)
		}
	}
	for _, c := range n.Children {
		c.plainText(sb)
	}
	if isBlockKind(n.Kind) && sb.Len() > 0 {
		sb.WriteByte('\n')
	}
}

// isBlockKind reports whether a kind renders as its own line in plain
// text.
func isBlockKind(kind string) bool {
	switch kind {
	case KindHeading, KindParagraph, KindCodeBlock, KindQuoteBlock,
		KindListItem, KindTableRow, KindThematicBreak, KindSection,
		KindDefinitionItem:
		return true
	}
	return false
}
