// Package plain renders documents as unstyled text. Inline styling is
// flattened to its text content; block structure survives as blank
// lines and simple list markers.
package plain

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/Vellum/core/encoding"
	"github.com/FocuswithJustin/Vellum/core/errors"
	"github.com/FocuswithJustin/Vellum/core/format"
	"github.com/FocuswithJustin/Vellum/core/ir"
)

// Writer emits plain text.
type Writer struct{}

// NewWriter creates the plain text writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Name returns the registry name.
func (w *Writer) Name() string {
	return "plain"
}

// Extensions returns the file extensions this format claims.
func (w *Writer) Extensions() []string {
	return []string{".txt"}
}

// Emit renders the document as plain text.
func (w *Writer) Emit(doc *ir.Document, opts format.EmitOptions) (ir.ConversionResult[[]byte], error) {
	if doc == nil || doc.Content == nil {
		return ir.ConversionResult[[]byte]{}, errors.NewEmit("plain", "document has no content root")
	}

	e := &emitter{}
	var blocks []string
	if title := doc.Title(); title != "" {
		blocks = append(blocks, title)
	}
	blocks = append(blocks, e.renderBlocks(doc.Content.Children, "")...)

	out := strings.Join(blocks, "\n\n")
	if out != "" {
		out += "\n"
	}

	raw, err := encoding.Encode(out, opts.Charset)
	if err != nil {
		return ir.ConversionResult[[]byte]{}, &errors.EmitError{Format: "plain", Message: "cannot encode output", Err: err}
	}

	result := ir.OK(raw)
	result.Warn(e.warnings...)
	return result, nil
}

type emitter struct {
	warnings []ir.FidelityWarning
}

func (e *emitter) warn(w ir.FidelityWarning) {
	e.warnings = append(e.warnings, w)
}

// renderBlocks renders a block sequence, one string per block.
func (e *emitter) renderBlocks(nodes []*ir.Node, indent string) []string {
	var blocks []string
	for _, n := range nodes {
		for _, b := range e.renderBlock(n, indent) {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

func (e *emitter) renderBlock(n *ir.Node, indent string) []string {
	switch n.Kind {
	case ir.KindHeading, ir.KindParagraph:
		text := e.renderInline(n.Children)
		if text == "" {
			return nil
		}
		return []string{prefixLines(text, indent)}

	case ir.KindSection, ir.KindDiv:
		return e.renderBlocks(n.Children, indent)

	case ir.KindCodeBlock:
		return []string{prefixLines(strings.TrimRight(n.Text(), "\n"), indent)}

	case ir.KindQuoteBlock:
		inner := strings.Join(e.renderBlocks(n.Children, ""), "\n\n")
		return []string{prefixLines(inner, indent+"  ")}

	case ir.KindThematicBreak:
		return []string{indent + "* * *"}

	case ir.KindList:
		return []string{e.renderList(n, indent)}

	case ir.KindDefinitionList:
		var items []string
		for _, item := range n.Children {
			term, _ := item.Props.GetString(ir.PropTerm)
			body := strings.Join(e.renderBlocks(item.Children, indent+"  "), "\n")
			items = append(items, indent+term+"\n"+body)
		}
		return []string{strings.Join(items, "\n")}

	case ir.KindTable:
		return []string{e.renderTable(n, indent)}

	case ir.KindRaw:
		rawFormat, _ := n.Props.GetString(ir.PropFormat)
		e.warn(ir.WarnDataDropped("", "raw block", fmt.Sprintf("raw %s content has no plain text form", rawFormat)))
		return nil

	default:
		// Unknown blocks degrade to their text content.
		if text := n.PlainText(); text != "" {
			return []string{prefixLines(text, indent)}
		}
		return nil
	}
}

func (e *emitter) renderList(n *ir.Node, indent string) string {
	ordered, _ := n.Props.GetBool(ir.PropOrdered)
	start := int64(1)
	if s, ok := n.Props.GetInt(ir.PropStart); ok {
		start = s
	}

	var lines []string
	for i, item := range n.Children {
		marker := "- "
		if ordered {
			marker = fmt.Sprintf("%d. ", start+int64(i))
		}
		if checked, ok := item.Props.GetBool(ir.PropChecked); ok {
			if checked {
				marker += "[x] "
			} else {
				marker += "[ ] "
			}
		}
		body := strings.Join(e.renderBlocks(item.Children, ""), "\n")
		body = indent + marker + strings.ReplaceAll(body, "\n", "\n"+indent+strings.Repeat(" ", len(marker)))
		lines = append(lines, body)
	}
	return strings.Join(lines, "\n")
}

func (e *emitter) renderTable(n *ir.Node, indent string) string {
	var lines []string
	for _, row := range n.Children {
		if row.Kind != ir.KindTableRow {
			continue
		}
		var cells []string
		for _, cell := range row.Children {
			cells = append(cells, e.renderInline(cell.Children))
		}
		lines = append(lines, indent+strings.Join(cells, "  "))
	}
	return strings.Join(lines, "\n")
}

// renderInline flattens inline content to text.
func (e *emitter) renderInline(nodes []*ir.Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		e.renderInlineNode(n, &sb)
	}
	return sb.String()
}

func (e *emitter) renderInlineNode(n *ir.Node, sb *strings.Builder) {
	switch n.Kind {
	case ir.KindText, ir.KindCode:
		sb.WriteString(n.Text())

	case ir.KindLineBreak:
		sb.WriteByte('\n')

	case ir.KindLink:
		text := e.renderInline(n.Children)
		url, _ := n.Props.GetString(ir.PropURL)
		if text == "" {
			text = url
		}
		sb.WriteString(text)
		if url != "" && url != text {
			sb.WriteString(" (")
			sb.WriteString(url)
			sb.WriteString(")")
		}

	case ir.KindImage:
		alt, ok := n.Props.GetString(ir.PropAlt)
		if !ok || alt == "" {
			e.warn(ir.WarnDataDropped("", "image", "image without alt text has no plain text form"))
			return
		}
		sb.WriteString(alt)

	case ir.KindFootnote:
		sb.WriteString(" [")
		sb.WriteString(e.renderInline(n.Children))
		sb.WriteString("]")

	case ir.KindRaw:
		rawFormat, _ := n.Props.GetString(ir.PropFormat)
		e.warn(ir.WarnDataDropped("", "raw inline", fmt.Sprintf("raw %s content has no plain text form", rawFormat)))

	default:
		// Styled inlines keep their text, losing only the styling.
		for _, c := range n.Children {
			e.renderInlineNode(c, sb)
		}
	}
}

// prefixLines prepends indent to every line of text.
func prefixLines(text, indent string) string {
	if indent == "" {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n")
}
