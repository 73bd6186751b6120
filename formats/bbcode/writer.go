// writer.go - BBCode emission

package bbcode

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/Vellum/core/errors"
	"github.com/FocuswithJustin/Vellum/core/format"
	"github.com/FocuswithJustin/Vellum/core/ir"
)

// Emit renders the document as BBCode.
func (f *Format) Emit(doc *ir.Document, opts format.EmitOptions) (ir.ConversionResult[[]byte], error) {
	if doc == nil || doc.Content == nil {
		return ir.ConversionResult[[]byte]{}, errors.NewEmit("bbcode", "document has no content root")
	}

	w := &writer{doc: doc}
	blocks := w.renderBlocks(doc.Content.Children)

	out := strings.Join(blocks, "\n\n")
	if out != "" {
		out += "\n"
	}

	result := ir.OK([]byte(out))
	result.Warn(w.warnings...)
	return result, nil
}

type writer struct {
	doc      *ir.Document
	warnings []ir.FidelityWarning
}

func (w *writer) warn(warning ir.FidelityWarning) {
	w.warnings = append(w.warnings, warning)
}

func (w *writer) renderBlocks(nodes []*ir.Node) []string {
	var blocks []string
	for _, n := range nodes {
		for _, b := range w.renderBlock(n) {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

func (w *writer) renderBlock(n *ir.Node) []string {
	switch n.Kind {
	case ir.KindHeading:
		// BBCode has no headings; bold standalone line is the forum idiom.
		w.warn(ir.NewWarning(ir.SeverityMinor, ir.WarningFeatureLost, "",
			"heading rendered as a bold line"))
		return []string{"[b]" + w.renderInline(n.Children) + "[/b]"}

	case ir.KindParagraph:
		return []string{w.renderInline(n.Children)}

	case ir.KindSection, ir.KindDiv:
		return w.renderBlocks(n.Children)

	case ir.KindCodeBlock:
		open := "[code]"
		if lang, ok := n.Props.GetString(ir.PropLanguage); ok && lang != "" {
			open = "[code=" + lang + "]"
		}
		return []string{open + "\n" + strings.TrimRight(n.Text(), "\n") + "\n[/code]"}

	case ir.KindQuoteBlock:
		open := "[quote]"
		if author, ok := n.Props.GetString("bbcode:author"); ok && author != "" {
			open = "[quote=" + author + "]"
		}
		inner := strings.Join(w.renderBlocks(n.Children), "\n\n")
		return []string{open + "\n" + inner + "\n[/quote]"}

	case ir.KindThematicBreak:
		return []string{"----"}

	case ir.KindList:
		open := "[list]"
		if ordered, _ := n.Props.GetBool(ir.PropOrdered); ordered {
			open = "[list=1]"
		}
		var sb strings.Builder
		sb.WriteString(open + "\n")
		for _, item := range n.Children {
			sb.WriteString("[*]" + strings.Join(w.renderBlocks(item.Children), "\n") + "\n")
		}
		sb.WriteString("[/list]")
		return []string{sb.String()}

	case ir.KindTable:
		w.warn(ir.WarnFeatureLost("", "table layout", "rows rendered as plain lines"))
		var lines []string
		for _, row := range n.Children {
			if row.Kind != ir.KindTableRow {
				continue
			}
			var cells []string
			for _, cell := range row.Children {
				cells = append(cells, w.renderInline(cell.Children))
			}
			lines = append(lines, strings.Join(cells, " | "))
		}
		return []string{strings.Join(lines, "\n")}

	case ir.KindRaw:
		rawFormat, _ := n.Props.GetString(ir.PropFormat)
		if rawFormat == "bbcode" {
			return []string{n.Text()}
		}
		w.warn(ir.WarnDataDropped("", "raw block",
			fmt.Sprintf("raw %s content has no BBCode form", rawFormat)))
		return nil

	default:
		w.warn(ir.WarnUnsupportedNode("", n.Kind, "rendered as plain text"))
		if text := n.PlainText(); text != "" {
			return []string{text}
		}
		return nil
	}
}

func (w *writer) renderInline(nodes []*ir.Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		w.renderInlineNode(n, &sb)
	}
	return sb.String()
}

func (w *writer) renderInlineNode(n *ir.Node, sb *strings.Builder) {
	switch n.Kind {
	case ir.KindText:
		sb.WriteString(n.Text())

	case ir.KindStrong:
		sb.WriteString("[b]" + w.renderInline(n.Children) + "[/b]")

	case ir.KindEmphasis:
		sb.WriteString("[i]" + w.renderInline(n.Children) + "[/i]")

	case ir.KindStrikeout:
		sb.WriteString("[s]" + w.renderInline(n.Children) + "[/s]")

	case ir.KindSpan:
		if underline, _ := n.Props.GetBool(PropUnderline); underline {
			sb.WriteString("[u]" + w.renderInline(n.Children) + "[/u]")
			return
		}
		sb.WriteString(w.renderInline(n.Children))

	case ir.KindCode:
		sb.WriteString("[code]" + n.Text() + "[/code]")

	case ir.KindLink:
		url, _ := n.Props.GetString(ir.PropURL)
		text := w.renderInline(n.Children)
		if text == "" || text == url {
			sb.WriteString("[url]" + url + "[/url]")
			return
		}
		sb.WriteString("[url=" + url + "]" + text + "[/url]")

	case ir.KindImage:
		url, _ := n.Props.GetString(ir.PropURL)
		if idStr, ok := n.Props.GetString(ir.PropResourceID); ok {
			id := ir.ResourceID(idStr)
			if _, found := w.doc.Resources.Get(id); found {
				w.warn(ir.WarnDataDropped("", "embedded image",
					"BBCode references images by URL; embedded bytes dropped"))
			} else {
				w.warn(ir.WarnResourceMissing("", id))
			}
		}
		if url != "" {
			sb.WriteString("[img]" + url + "[/img]")
		}

	case ir.KindLineBreak:
		sb.WriteString("\n")

	default:
		w.warn(ir.WarnUnsupportedNode("", n.Kind, "rendered as plain text"))
		sb.WriteString(w.renderInline(n.Children))
	}
}
