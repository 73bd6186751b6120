// Package rtf emits a minimal RTF 1.5 document: one font table, bold
// and italic character styling, headings as sized bold paragraphs, and
// plain paragraph flow. Anything richer degrades with a warning.
package rtf

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/Vellum/core/encoding"
	"github.com/FocuswithJustin/Vellum/core/errors"
	"github.com/FocuswithJustin/Vellum/core/format"
	"github.com/FocuswithJustin/Vellum/core/ir"
)

// Writer emits RTF.
type Writer struct{}

// NewWriter creates the RTF writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Name returns the registry name.
func (w *Writer) Name() string {
	return "rtf"
}

// Extensions returns the file extensions this format claims.
func (w *Writer) Extensions() []string {
	return []string{".rtf"}
}

// headingSizes holds half-point font sizes for heading levels 1-6.
var headingSizes = []int{48, 40, 34, 30, 26, 24}

// Emit renders the document as RTF.
func (w *Writer) Emit(doc *ir.Document, opts format.EmitOptions) (ir.ConversionResult[[]byte], error) {
	if doc == nil || doc.Content == nil {
		return ir.ConversionResult[[]byte]{}, errors.NewEmit("rtf", "document has no content root")
	}

	e := &emitter{}
	var sb strings.Builder

	sb.WriteString(`{\rtf1\ansi\deff0`)
	sb.WriteString(`{\fonttbl{\f0 Times New Roman;}{\f1 Courier New;}}`)
	sb.WriteString("\n")

	if title := doc.Title(); title != "" {
		sb.WriteString(`{\info{\title ` + encoding.EscapeRTF(title) + `}`)
		if author, ok := doc.Meta.GetString(ir.MetaAuthor); ok && author != "" {
			sb.WriteString(`{\author ` + encoding.EscapeRTF(author) + `}`)
		}
		sb.WriteString("}\n")
	}

	e.blocks(doc.Content.Children, &sb, "")
	sb.WriteString("}\n")

	result := ir.OK([]byte(sb.String()))
	result.Warn(e.warnings...)
	return result, nil
}

type emitter struct {
	warnings []ir.FidelityWarning
}

func (e *emitter) warn(w ir.FidelityWarning) {
	e.warnings = append(e.warnings, w)
}

func (e *emitter) blocks(nodes []*ir.Node, sb *strings.Builder, path string) {
	for i, n := range nodes {
		e.block(n, sb, ir.ChildPath(path, i))
	}
}

func (e *emitter) block(n *ir.Node, sb *strings.Builder, path string) {
	switch n.Kind {
	case ir.KindHeading:
		level := int64(1)
		if l, ok := n.Props.GetInt(ir.PropLevel); ok {
			level = l
		}
		idx := int(level) - 1
		if idx < 0 {
			idx = 0
		}
		if idx >= len(headingSizes) {
			idx = len(headingSizes) - 1
		}
		sb.WriteString(fmt.Sprintf(`{\pard\sa200\b\fs%d `, headingSizes[idx]))
		e.inlines(n.Children, sb, path)
		sb.WriteString("\\par}\n")

	case ir.KindParagraph:
		sb.WriteString(`{\pard\sa180 `)
		e.inlines(n.Children, sb, path)
		sb.WriteString("\\par}\n")

	case ir.KindSection, ir.KindDiv, ir.KindQuoteBlock:
		if n.Kind == ir.KindQuoteBlock {
			// Indented block; RTF has no quote semantics.
			sb.WriteString(`{\pard\li720` + "\n")
			e.blocks(n.Children, sb, path)
			sb.WriteString("}\n")
			return
		}
		e.blocks(n.Children, sb, path)

	case ir.KindCodeBlock:
		sb.WriteString(`{\pard\sa180\f1\fs20 `)
		lines := strings.Split(strings.TrimRight(n.Text(), "\n"), "\n")
		for i, line := range lines {
			if i > 0 {
				sb.WriteString("\\line ")
			}
			sb.WriteString(encoding.EscapeRTF(line))
		}
		sb.WriteString("\\par}\n")

	case ir.KindThematicBreak:
		sb.WriteString(`{\pard\qc\sa180 ---\par}` + "\n")

	case ir.KindList:
		ordered, _ := n.Props.GetBool(ir.PropOrdered)
		start := int64(1)
		if s, ok := n.Props.GetInt(ir.PropStart); ok {
			start = s
		}
		for i, item := range n.Children {
			marker := "\\bullet "
			if ordered {
				marker = fmt.Sprintf("%d. ", start+int64(i))
			}
			sb.WriteString(`{\pard\li360\sa120 ` + marker)
			e.itemInline(item, sb, ir.ChildPath(path, i))
			sb.WriteString("\\par}\n")
		}

	case ir.KindTable:
		e.warn(ir.WarnFeatureLost(path, "table layout", "rows rendered as tab-separated paragraphs"))
		for i, row := range n.Children {
			if row.Kind != ir.KindTableRow {
				continue
			}
			sb.WriteString(`{\pard\sa120 `)
			for j, cell := range row.Children {
				if j > 0 {
					sb.WriteString("\\tab ")
				}
				e.inlines(cell.Children, sb, ir.ChildPath(path, i))
			}
			sb.WriteString("\\par}\n")
		}

	case ir.KindRaw:
		rawFormat, _ := n.Props.GetString(ir.PropFormat)
		if rawFormat == "rtf" {
			sb.WriteString(n.Text() + "\n")
			return
		}
		e.warn(ir.WarnDataDropped(path, "raw block",
			fmt.Sprintf("raw %s content cannot appear in RTF", rawFormat)))

	default:
		e.warn(ir.WarnUnsupportedNode(path, n.Kind, "rendered as a plain paragraph"))
		if text := n.PlainText(); text != "" {
			sb.WriteString(`{\pard\sa180 ` + encoding.EscapeRTF(text) + "\\par}\n")
		}
	}
}

// itemInline renders a list item's content on one line.
func (e *emitter) itemInline(item *ir.Node, sb *strings.Builder, path string) {
	for i, c := range item.Children {
		if i > 0 {
			sb.WriteString("\\line ")
		}
		if c.Kind == ir.KindParagraph {
			e.inlines(c.Children, sb, path)
			continue
		}
		e.inlines([]*ir.Node{c}, sb, path)
	}
}

func (e *emitter) inlines(nodes []*ir.Node, sb *strings.Builder, path string) {
	for _, n := range nodes {
		e.inline(n, sb, path)
	}
}

func (e *emitter) inline(n *ir.Node, sb *strings.Builder, path string) {
	switch n.Kind {
	case ir.KindText:
		sb.WriteString(encoding.EscapeRTF(n.Text()))

	case ir.KindEmphasis:
		sb.WriteString(`{\i `)
		e.inlines(n.Children, sb, path)
		sb.WriteString("}")

	case ir.KindStrong:
		sb.WriteString(`{\b `)
		e.inlines(n.Children, sb, path)
		sb.WriteString("}")

	case ir.KindStrikeout:
		sb.WriteString(`{\strike `)
		e.inlines(n.Children, sb, path)
		sb.WriteString("}")

	case ir.KindSuperscript:
		sb.WriteString(`{\super `)
		e.inlines(n.Children, sb, path)
		sb.WriteString("}")

	case ir.KindSubscript:
		sb.WriteString(`{\sub `)
		e.inlines(n.Children, sb, path)
		sb.WriteString("}")

	case ir.KindCode:
		sb.WriteString(`{\f1 ` + encoding.EscapeRTF(n.Text()) + "}")

	case ir.KindLink:
		// Text plus parenthesized URL; field-based hyperlinks are beyond
		// the minimal profile this writer targets.
		url, _ := n.Props.GetString(ir.PropURL)
		e.inlines(n.Children, sb, path)
		if url != "" {
			sb.WriteString(" (" + encoding.EscapeRTF(url) + ")")
			e.warn(ir.NewWarning(ir.SeverityMinor, ir.WarningFeatureLost, path,
				"hyperlink rendered as text with parenthesized URL"))
		}

	case ir.KindImage:
		alt, _ := n.Props.GetString(ir.PropAlt)
		e.warn(ir.WarnDataDropped(path, "image", "images are not part of the minimal RTF profile"))
		if alt != "" {
			sb.WriteString("[" + encoding.EscapeRTF(alt) + "]")
		}

	case ir.KindLineBreak:
		sb.WriteString("\\line ")

	case ir.KindSpan:
		e.inlines(n.Children, sb, path)

	default:
		e.warn(ir.WarnUnsupportedNode(path, n.Kind, "rendered as plain text"))
		sb.WriteString(encoding.EscapeRTF(n.PlainText()))
	}
}
