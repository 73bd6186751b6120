// Package html emits documents as HTML5. With EmitOptions.Standalone
// the output is a complete page; otherwise it is a body fragment
// suitable for embedding, which is how the EPUB writer consumes it per
// chapter. Binary resources are inlined as data URIs since a single
// HTML artifact has nowhere else to put them.
package html

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/FocuswithJustin/Vellum/core/encoding"
	"github.com/FocuswithJustin/Vellum/core/errors"
	"github.com/FocuswithJustin/Vellum/core/format"
	"github.com/FocuswithJustin/Vellum/core/ir"
)

// Writer emits HTML.
type Writer struct{}

// NewWriter creates the HTML writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Name returns the registry name.
func (w *Writer) Name() string {
	return "html"
}

// Extensions returns the file extensions this format claims.
func (w *Writer) Extensions() []string {
	return []string{".html", ".htm"}
}

// Emit renders the document as HTML.
func (w *Writer) Emit(doc *ir.Document, opts format.EmitOptions) (ir.ConversionResult[[]byte], error) {
	if doc == nil || doc.Content == nil {
		return ir.ConversionResult[[]byte]{}, errors.NewEmit("html", "document has no content root")
	}

	e := &emitter{doc: doc}
	var sb strings.Builder

	if opts.Standalone {
		lang := "en"
		if l, ok := doc.Meta.GetString(ir.MetaLanguage); ok && l != "" {
			lang = l
		}
		sb.WriteString("<!DOCTYPE html>\n")
		sb.WriteString(`<html lang="` + encoding.EscapeXMLAttr(lang) + "\">\n<head>\n")
		sb.WriteString("<meta charset=\"utf-8\">\n")
		if title := doc.Title(); title != "" {
			sb.WriteString("<title>" + encoding.EscapeHTML(title) + "</title>\n")
		}
		if author, ok := doc.Meta.GetString(ir.MetaAuthor); ok && author != "" {
			sb.WriteString(`<meta name="author" content="` + encoding.EscapeXMLAttr(author) + "\">\n")
		}
		sb.WriteString("</head>\n<body>\n")
	}

	for _, child := range doc.Content.Children {
		e.block(child, &sb, "")
	}

	if opts.Standalone {
		sb.WriteString("</body>\n</html>\n")
	}

	result := ir.OK([]byte(sb.String()))
	result.Warn(e.warnings...)
	return result, nil
}

type emitter struct {
	doc      *ir.Document
	warnings []ir.FidelityWarning
}

func (e *emitter) warn(w ir.FidelityWarning) {
	e.warnings = append(e.warnings, w)
}

func (e *emitter) block(n *ir.Node, sb *strings.Builder, path string) {
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
			level = 6
		}
		tag := fmt.Sprintf("h%d", level)
		sb.WriteString("<" + tag + e.idAttr(n) + ">")
		e.inlines(n.Children, sb, path)
		sb.WriteString("</" + tag + ">\n")

	case ir.KindParagraph:
		sb.WriteString("<p>")
		e.inlines(n.Children, sb, path)
		sb.WriteString("</p>\n")

	case ir.KindSection:
		sb.WriteString("<section" + e.idAttr(n) + ">\n")
		e.blocks(n.Children, sb, path)
		sb.WriteString("</section>\n")

	case ir.KindDiv:
		sb.WriteString("<div" + e.idAttr(n) + e.classAttr(n) + ">\n")
		e.blocks(n.Children, sb, path)
		sb.WriteString("</div>\n")

	case ir.KindCodeBlock:
		lang, _ := n.Props.GetString(ir.PropLanguage)
		sb.WriteString("<pre><code")
		if lang != "" {
			sb.WriteString(` class="language-` + encoding.EscapeXMLAttr(lang) + `"`)
		}
		sb.WriteString(">")
		sb.WriteString(encoding.EscapeHTML(n.Text()))
		sb.WriteString("</code></pre>\n")

	case ir.KindQuoteBlock:
		sb.WriteString("<blockquote>\n")
		e.blocks(n.Children, sb, path)
		sb.WriteString("</blockquote>\n")

	case ir.KindThematicBreak:
		sb.WriteString("<hr>\n")

	case ir.KindList:
		e.list(n, sb, path)

	case ir.KindDefinitionList:
		sb.WriteString("<dl>\n")
		for i, item := range n.Children {
			term, _ := item.Props.GetString(ir.PropTerm)
			sb.WriteString("<dt>" + encoding.EscapeHTML(term) + "</dt>\n<dd>")
			e.blocks(item.Children, sb, ir.ChildPath(path, i))
			sb.WriteString("</dd>\n")
		}
		sb.WriteString("</dl>\n")

	case ir.KindTable:
		e.table(n, sb, path)

	case ir.KindRaw:
		rawFormat, _ := n.Props.GetString(ir.PropFormat)
		if rawFormat == "html" {
			sb.WriteString(n.Text())
			sb.WriteString("\n")
			return
		}
		e.warn(ir.WarnDataDropped(path, "raw block",
			fmt.Sprintf("raw %s content cannot appear in HTML", rawFormat)))

	default:
		// Anything unrecognized, core or format-private, passes through
		// as a kind-tagged div so no content is silently lost.
		e.warn(ir.WarnUnsupportedNode(path, n.Kind, "rendered as a tagged div"))
		sb.WriteString(`<div data-kind="` + encoding.EscapeXMLAttr(n.Kind) + `">` + "\n")
		e.blocks(n.Children, sb, path)
		sb.WriteString("</div>\n")
	}
}

func (e *emitter) blocks(nodes []*ir.Node, sb *strings.Builder, path string) {
	for i, n := range nodes {
		if isInlineKind(n.Kind) {
			e.inlines([]*ir.Node{n}, sb, ir.ChildPath(path, i))
			continue
		}
		e.block(n, sb, ir.ChildPath(path, i))
	}
}

func isInlineKind(kind string) bool {
	switch kind {
	case ir.KindText, ir.KindEmphasis, ir.KindStrong, ir.KindStrikeout,
		ir.KindSuperscript, ir.KindSubscript, ir.KindCode, ir.KindLink,
		ir.KindImage, ir.KindLineBreak, ir.KindSpan, ir.KindFootnote:
		return true
	}
	return false
}

func (e *emitter) list(n *ir.Node, sb *strings.Builder, path string) {
	tag := "ul"
	var attrs string
	if ordered, _ := n.Props.GetBool(ir.PropOrdered); ordered {
		tag = "ol"
		if start, ok := n.Props.GetInt(ir.PropStart); ok && start != 1 {
			attrs = fmt.Sprintf(` start="%d"`, start)
		}
	}
	sb.WriteString("<" + tag + attrs + ">\n")
	for i, item := range n.Children {
		sb.WriteString("<li>")
		if checked, ok := item.Props.GetBool(ir.PropChecked); ok {
			box := `<input type="checkbox" disabled>`
			if checked {
				box = `<input type="checkbox" checked disabled>`
			}
			sb.WriteString(box + " ")
		}
		e.blocks(item.Children, sb, ir.ChildPath(path, i))
		sb.WriteString("</li>\n")
	}
	sb.WriteString("</" + tag + ">\n")
}

func (e *emitter) table(n *ir.Node, sb *strings.Builder, path string) {
	sb.WriteString("<table>\n")
	for i, row := range n.Children {
		if row.Kind != ir.KindTableRow {
			continue
		}
		isHeader, _ := row.Props.GetBool(ir.PropHeader)
		cellTag := "td"
		if isHeader {
			cellTag = "th"
		}
		sb.WriteString("<tr>")
		for j, cell := range row.Children {
			var style string
			if align, ok := cell.Props.GetString(ir.PropAlign); ok && align != "" {
				style = ` style="text-align:` + align + `"`
			}
			sb.WriteString("<" + cellTag + style + ">")
			e.inlines(cell.Children, sb, ir.ChildPath(ir.ChildPath(path, i), j))
			sb.WriteString("</" + cellTag + ">")
		}
		sb.WriteString("</tr>\n")
	}
	sb.WriteString("</table>\n")
}

func (e *emitter) inlines(nodes []*ir.Node, sb *strings.Builder, path string) {
	for i, n := range nodes {
		e.inline(n, sb, ir.ChildPath(path, i))
	}
}

func (e *emitter) inline(n *ir.Node, sb *strings.Builder, path string) {
	switch n.Kind {
	case ir.KindText:
		sb.WriteString(encoding.EscapeHTML(n.Text()))

	case ir.KindEmphasis:
		e.wrap("em", n, sb, path)

	case ir.KindStrong:
		e.wrap("strong", n, sb, path)

	case ir.KindStrikeout:
		e.wrap("del", n, sb, path)

	case ir.KindSuperscript:
		e.wrap("sup", n, sb, path)

	case ir.KindSubscript:
		e.wrap("sub", n, sb, path)

	case ir.KindCode:
		sb.WriteString("<code>" + encoding.EscapeHTML(n.Text()) + "</code>")

	case ir.KindLink:
		url, _ := n.Props.GetString(ir.PropURL)
		sb.WriteString(`<a href="` + encoding.EscapeXMLAttr(url) + `"`)
		if title, ok := n.Props.GetString(ir.PropTitle); ok && title != "" {
			sb.WriteString(` title="` + encoding.EscapeXMLAttr(title) + `"`)
		}
		sb.WriteString(">")
		e.inlines(n.Children, sb, path)
		sb.WriteString("</a>")

	case ir.KindImage:
		e.image(n, sb, path)

	case ir.KindLineBreak:
		sb.WriteString("<br>\n")

	case ir.KindFootnote:
		// No footnote apparatus in a fragment; render as a small aside.
		sb.WriteString(`<sup class="footnote">`)
		e.inlines(n.Children, sb, path)
		sb.WriteString("</sup>")

	case ir.KindSpan:
		sb.WriteString("<span" + e.classAttr(n) + ">")
		e.inlines(n.Children, sb, path)
		sb.WriteString("</span>")

	case ir.KindRaw:
		rawFormat, _ := n.Props.GetString(ir.PropFormat)
		if rawFormat == "html" {
			sb.WriteString(n.Text())
			return
		}
		e.warn(ir.WarnDataDropped(path, "raw inline",
			fmt.Sprintf("raw %s content cannot appear in HTML", rawFormat)))

	default:
		e.warn(ir.WarnUnsupportedNode(path, n.Kind, "rendered as a tagged span"))
		sb.WriteString(`<span data-kind="` + encoding.EscapeXMLAttr(n.Kind) + `">`)
		e.inlines(n.Children, sb, path)
		sb.WriteString("</span>")
	}
}

func (e *emitter) wrap(tag string, n *ir.Node, sb *strings.Builder, path string) {
	sb.WriteString("<" + tag + ">")
	e.inlines(n.Children, sb, path)
	sb.WriteString("</" + tag + ">")
}

func (e *emitter) image(n *ir.Node, sb *strings.Builder, path string) {
	src, _ := n.Props.GetString(ir.PropURL)
	if idStr, ok := n.Props.GetString(ir.PropResourceID); ok {
		id := ir.ResourceID(idStr)
		if res, found := e.doc.Resources.Get(id); found {
			src = "data:" + res.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(res.Data)
		} else {
			e.warn(ir.WarnResourceMissing(path, id))
		}
	}
	sb.WriteString(`<img src="` + encoding.EscapeXMLAttr(src) + `"`)
	if alt, ok := n.Props.GetString(ir.PropAlt); ok {
		sb.WriteString(` alt="` + encoding.EscapeXMLAttr(alt) + `"`)
	}
	if title, ok := n.Props.GetString(ir.PropTitle); ok && title != "" {
		sb.WriteString(` title="` + encoding.EscapeXMLAttr(title) + `"`)
	}
	sb.WriteString(">")
}

func (e *emitter) idAttr(n *ir.Node) string {
	if id, ok := n.Props.GetString(ir.PropID); ok && id != "" {
		return ` id="` + encoding.EscapeXMLAttr(id) + `"`
	}
	return ""
}

func (e *emitter) classAttr(n *ir.Node) string {
	if class, ok := n.Props.GetString(ir.PropClass); ok && class != "" {
		return ` class="` + encoding.EscapeXMLAttr(class) + `"`
	}
	return ""
}
