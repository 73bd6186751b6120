package opml

import (
	"strings"

	"github.com/FocuswithJustin/Vellum/core/encoding"
	"github.com/FocuswithJustin/Vellum/core/errors"
	"github.com/FocuswithJustin/Vellum/core/format"
	"github.com/FocuswithJustin/Vellum/core/ir"
)

// outline is the tree being assembled before rendering. Attribute
// order is kept stable so output is deterministic.
type outline struct {
	attrs    [][2]string
	children []*outline
}

func (o *outline) setAttr(name, value string) {
	o.attrs = append(o.attrs, [2]string{name, value})
}

// Emit renders the document as OPML 2.0. Headings open outlines at
// their level, paragraphs and list items become leaf outlines, and
// block kinds with no outline equivalent are dropped with a warning.
func (f *Format) Emit(doc *ir.Document, opts format.EmitOptions) (ir.ConversionResult[[]byte], error) {
	if doc == nil || doc.Content == nil {
		return ir.ConversionResult[[]byte]{}, errors.NewEmit("opml", "document has no content root")
	}

	root := &outline{}
	var warnings []ir.FidelityWarning
	// stack[i] is the open outline at heading level i+1.
	stack := []*outline{root}

	current := func() *outline { return stack[len(stack)-1] }

	var visit func(n *ir.Node, path string)
	visit = func(n *ir.Node, path string) {
		for i, child := range n.Children {
			childPath := ir.ChildPath(path, i)
			switch child.Kind {
			case ir.KindSection, ir.KindDiv:
				visit(child, childPath)

			case ir.KindHeading:
				level, _ := child.Props.GetInt(ir.PropLevel)
				if level < 1 {
					level = 1
				}
				for int64(len(stack)) > level {
					stack = stack[:len(stack)-1]
				}
				o := headingOutline(child)
				current().children = append(current().children, o)
				stack = append(stack, o)

			case ir.KindParagraph:
				o := &outline{}
				o.setAttr("text", child.PlainText())
				current().children = append(current().children, o)

			case ir.KindList:
				for _, item := range child.Children {
					if item.Kind != ir.KindListItem {
						continue
					}
					o := &outline{}
					o.setAttr("text", item.PlainText())
					current().children = append(current().children, o)
				}

			default:
				warnings = append(warnings, ir.WarnDataDropped(childPath,
					child.Kind+" node", "no OPML outline equivalent"))
			}
		}
	}
	visit(doc.Content, "")

	if len(root.children) == 0 {
		return ir.ConversionResult[[]byte]{}, errors.NewEmit("opml", "document has no outline content")
	}

	var sb strings.Builder
	sb.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	sb.WriteString("<opml version=\"2.0\">\n")
	sb.WriteString("  <head>\n")
	if title := doc.Title(); title != "" {
		sb.WriteString("    <title>" + encoding.EscapeXMLText(title) + "</title>\n")
	}
	if author, ok := doc.Meta.GetString(ir.MetaAuthor); ok && author != "" {
		sb.WriteString("    <ownerName>" + encoding.EscapeXMLText(author) + "</ownerName>\n")
	}
	if date, ok := doc.Meta.GetString(ir.MetaDate); ok && date != "" {
		sb.WriteString("    <dateCreated>" + encoding.EscapeXMLText(date) + "</dateCreated>\n")
	}
	sb.WriteString("  </head>\n")
	sb.WriteString("  <body>\n")
	for _, o := range root.children {
		renderOutline(&sb, o, 2)
	}
	sb.WriteString("  </body>\n")
	sb.WriteString("</opml>\n")

	result := ir.OK([]byte(sb.String()))
	result.Warn(warnings...)
	return result, nil
}

// headingOutline maps one heading node to an outline element,
// restoring the link and carry-over attributes the reader preserved.
func headingOutline(heading *ir.Node) *outline {
	o := &outline{}

	text := heading.PlainText()
	var url string
	if len(heading.Children) == 1 && heading.Children[0].Kind == ir.KindLink {
		url, _ = heading.Children[0].Props.GetString(ir.PropURL)
	}
	o.setAttr("text", text)
	if t, ok := heading.Props.GetString(PropOutlineType); ok {
		o.setAttr("type", t)
	}
	if url != "" {
		o.setAttr("url", url)
	}
	if u, ok := heading.Props.GetString(PropXMLURL); ok {
		o.setAttr("xmlUrl", u)
	}
	if u, ok := heading.Props.GetString(PropHTMLURL); ok {
		o.setAttr("htmlUrl", u)
	}
	return o
}

func renderOutline(sb *strings.Builder, o *outline, depth int) {
	indent := strings.Repeat("  ", depth)
	sb.WriteString(indent + "<outline")
	for _, attr := range o.attrs {
		sb.WriteString(" " + attr[0] + "=\"" + encoding.EscapeXMLAttr(attr[1]) + "\"")
	}
	if len(o.children) == 0 {
		sb.WriteString("/>\n")
		return
	}
	sb.WriteString(">\n")
	for _, child := range o.children {
		renderOutline(sb, child, depth+1)
	}
	sb.WriteString(indent + "</outline>\n")
}
