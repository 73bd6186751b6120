// writer.go - Markdown emission

package markdown

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/FocuswithJustin/Vellum/core/encoding"
	"github.com/FocuswithJustin/Vellum/core/errors"
	"github.com/FocuswithJustin/Vellum/core/format"
	"github.com/FocuswithJustin/Vellum/core/ir"
)

// Emit renders the document as Markdown with YAML frontmatter when the
// document carries metadata.
func (f *Format) Emit(doc *ir.Document, opts format.EmitOptions) (ir.ConversionResult[[]byte], error) {
	if doc == nil || doc.Content == nil {
		return ir.ConversionResult[[]byte]{}, errors.NewEmit("markdown", "document has no content root")
	}

	w := &writer{doc: doc}

	var sb strings.Builder
	front, err := frontmatterFromMeta(&doc.Meta)
	if err != nil {
		return ir.ConversionResult[[]byte]{}, &errors.EmitError{Format: "markdown", Message: "cannot render frontmatter", Err: err}
	}
	if front != "" {
		sb.WriteString(front)
		sb.WriteString("\n")
	}

	blocks := w.renderBlocks(doc.Content.Children, "")
	sb.WriteString(strings.Join(blocks, "\n\n"))
	if len(blocks) > 0 {
		sb.WriteString("\n")
	}

	result := ir.OK([]byte(sb.String()))
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

func (w *writer) renderBlocks(nodes []*ir.Node, prefix string) []string {
	var blocks []string
	for _, n := range nodes {
		for _, b := range w.renderBlock(n) {
			blocks = append(blocks, prefixLines(b, prefix))
		}
	}
	return blocks
}

func (w *writer) renderBlock(n *ir.Node) []string {
	switch n.Kind {
	case ir.KindHeading:
		level := int64(1)
		if l, ok := n.Props.GetInt(ir.PropLevel); ok {
			level = l
		}
		if level < 1 {
			level = 1
		}
		if level > 6 {
			w.warn(ir.NewWarning(ir.SeverityMinor, ir.WarningFeatureLost, "",
				fmt.Sprintf("heading level %d clamped to 6", level)))
			level = 6
		}
		return []string{strings.Repeat("#", int(level)) + " " + w.renderInline(n.Children)}

	case ir.KindParagraph:
		return []string{w.renderInline(n.Children)}

	case ir.KindSection, ir.KindDiv:
		return w.renderBlocks(n.Children, "")

	case ir.KindCodeBlock:
		lang, _ := n.Props.GetString(ir.PropLanguage)
		fence := "```"
		body := strings.TrimRight(n.Text(), "\n")
		for strings.Contains(body, fence) {
			fence += "`"
		}
		return []string{fence + lang + "\n" + body + "\n" + fence}

	case ir.KindQuoteBlock:
		inner := strings.Join(w.renderBlocks(n.Children, ""), "\n\n")
		return []string{prefixLines(inner, "> ")}

	case ir.KindThematicBreak:
		return []string{"---"}

	case ir.KindList:
		return []string{w.renderList(n)}

	case ir.KindDefinitionList:
		// Markdown has no core definition list; render "term: body" text.
		w.warn(ir.NewWarning(ir.SeverityMinor, ir.WarningFeatureLost, "",
			"definition list rendered as plain paragraphs"))
		var items []string
		for _, item := range n.Children {
			term, _ := item.Props.GetString(ir.PropTerm)
			body := strings.Join(w.renderBlocks(item.Children, ""), "\n\n")
			items = append(items, "**"+term+"**\n\n"+body)
		}
		return items

	case ir.KindTable:
		return []string{w.renderTable(n)}

	case ir.KindRaw:
		rawFormat, _ := n.Props.GetString(ir.PropFormat)
		if rawFormat == "html" || rawFormat == "markdown" {
			return []string{n.Text()}
		}
		w.warn(ir.WarnDataDropped("", "raw block",
			fmt.Sprintf("raw %s content has no markdown form", rawFormat)))
		return nil

	default:
		if strings.Contains(n.Kind, ":") {
			// Format-private blocks degrade to their text content.
			if text := n.PlainText(); text != "" {
				return []string{text}
			}
			return nil
		}
		w.warn(ir.WarnUnsupportedNode("", n.Kind, "rendered as plain text"))
		if text := n.PlainText(); text != "" {
			return []string{text}
		}
		return nil
	}
}

func (w *writer) renderList(n *ir.Node) string {
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
		body := strings.Join(w.renderBlocks(item.Children, ""), "\n\n")
		cont := strings.Repeat(" ", len(marker))
		lines = append(lines, marker+strings.ReplaceAll(body, "\n", "\n"+cont))
	}
	return strings.Join(lines, "\n")
}

func (w *writer) renderTable(n *ir.Node) string {
	var rows []*ir.Node
	for _, row := range n.Children {
		if row.Kind == ir.KindTableRow {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return ""
	}

	cols := 0
	for _, row := range rows {
		if len(row.Children) > cols {
			cols = len(row.Children)
		}
	}

	aligns := make([]string, cols)
	cells := func(row *ir.Node) []string {
		out := make([]string, cols)
		for i := 0; i < cols; i++ {
			if i < len(row.Children) {
				cell := row.Children[i]
				out[i] = strings.ReplaceAll(w.renderInline(cell.Children), "|", "\\|")
				if a, ok := cell.Props.GetString(ir.PropAlign); ok && aligns[i] == "" {
					aligns[i] = a
				}
			}
		}
		return out
	}

	var sb strings.Builder
	writeRow := func(vals []string) {
		sb.WriteString("| " + strings.Join(vals, " | ") + " |\n")
	}

	first := rows[0]
	writeRow(cells(first))

	delims := make([]string, cols)
	for i := range delims {
		switch aligns[i] {
		case "left":
			delims[i] = ":---"
		case "right":
			delims[i] = "---:"
		case "center":
			delims[i] = ":---:"
		default:
			delims[i] = "---"
		}
	}
	writeRow(delims)

	for _, row := range rows[1:] {
		writeRow(cells(row))
	}
	return strings.TrimRight(sb.String(), "\n")
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
		sb.WriteString(encoding.EscapeMarkdown(n.Text()))

	case ir.KindEmphasis:
		sb.WriteString("*" + w.renderInline(n.Children) + "*")

	case ir.KindStrong:
		sb.WriteString("**" + w.renderInline(n.Children) + "**")

	case ir.KindStrikeout:
		sb.WriteString("~~" + w.renderInline(n.Children) + "~~")

	case ir.KindSuperscript:
		w.warn(ir.NewWarning(ir.SeverityMinor, ir.WarningFeatureLost, "",
			"superscript rendered as plain text"))
		sb.WriteString(w.renderInline(n.Children))

	case ir.KindSubscript:
		w.warn(ir.NewWarning(ir.SeverityMinor, ir.WarningFeatureLost, "",
			"subscript rendered as plain text"))
		sb.WriteString(w.renderInline(n.Children))

	case ir.KindCode:
		body := n.Text()
		delim := "`"
		for strings.Contains(body, delim) {
			delim += "`"
		}
		if delim != "`" {
			body = " " + body + " "
		}
		sb.WriteString(delim + body + delim)

	case ir.KindLink:
		url, _ := n.Props.GetString(ir.PropURL)
		text := w.renderInline(n.Children)
		if text == url && !strings.ContainsAny(url, " <>") {
			sb.WriteString("<" + url + ">")
			return
		}
		sb.WriteString("[" + text + "](" + url + linkTitle(n) + ")")

	case ir.KindImage:
		sb.WriteString(w.renderImage(n))

	case ir.KindLineBreak:
		sb.WriteString("  \n")

	case ir.KindFootnote:
		w.warn(ir.NewWarning(ir.SeverityMinor, ir.WarningFeatureLost, "",
			"footnote rendered inline in parentheses"))
		sb.WriteString(" (" + w.renderInline(n.Children) + ")")

	case ir.KindRaw:
		rawFormat, _ := n.Props.GetString(ir.PropFormat)
		if rawFormat == "html" || rawFormat == "markdown" {
			sb.WriteString(n.Text())
			return
		}
		w.warn(ir.WarnDataDropped("", "raw inline",
			fmt.Sprintf("raw %s content has no markdown form", rawFormat)))

	case ir.KindSpan:
		sb.WriteString(w.renderInline(n.Children))

	default:
		// Unknown inlines keep their text, losing only the markup.
		if !strings.Contains(n.Kind, ":") {
			w.warn(ir.WarnUnsupportedNode("", n.Kind, "rendered as plain text"))
		}
		sb.WriteString(w.renderInline(n.Children))
	}
}

// prefixLines prepends prefix to every non-empty line of text.
func prefixLines(text, prefix string) string {
	if prefix == "" {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

// dataURI renders a resource as a base64 data: URI.
func dataURI(res ir.Resource) string {
	return "data:" + res.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(res.Data)
}

func (w *writer) renderImage(n *ir.Node) string {
	alt, _ := n.Props.GetString(ir.PropAlt)
	url, _ := n.Props.GetString(ir.PropURL)

	if idStr, ok := n.Props.GetString(ir.PropResourceID); ok {
		id := ir.ResourceID(idStr)
		if res, found := w.doc.Resources.Get(id); found {
			url = dataURI(res)
		} else {
			w.warn(ir.WarnResourceMissing("", id))
		}
	}

	return "![" + alt + "](" + url + linkTitle(n) + ")"
}

func linkTitle(n *ir.Node) string {
	if title, ok := n.Props.GetString(ir.PropTitle); ok && title != "" {
		return ` "` + strings.ReplaceAll(title, `"`, `\"`) + `"`
	}
	return ""
}
