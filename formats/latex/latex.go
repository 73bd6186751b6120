// Package latex emits documents as LaTeX. With EmitOptions.Standalone
// the output is a complete article-class document with preamble;
// otherwise it is a fragment for \input into a host document.
package latex

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/Vellum/core/encoding"
	"github.com/FocuswithJustin/Vellum/core/errors"
	"github.com/FocuswithJustin/Vellum/core/format"
	"github.com/FocuswithJustin/Vellum/core/ir"
)

// Writer emits LaTeX.
type Writer struct{}

// NewWriter creates the LaTeX writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Name returns the registry name.
func (w *Writer) Name() string {
	return "latex"
}

// Extensions returns the file extensions this format claims.
func (w *Writer) Extensions() []string {
	return []string{".tex"}
}

// sectionCommands maps heading levels to article-class sectioning.
var sectionCommands = []string{
	"section", "subsection", "subsubsection", "paragraph", "subparagraph",
}

// Emit renders the document as LaTeX.
func (w *Writer) Emit(doc *ir.Document, opts format.EmitOptions) (ir.ConversionResult[[]byte], error) {
	if doc == nil || doc.Content == nil {
		return ir.ConversionResult[[]byte]{}, errors.NewEmit("latex", "document has no content root")
	}

	e := &emitter{doc: doc}
	var sb strings.Builder

	if opts.Standalone {
		sb.WriteString("\\documentclass{article}\n")
		sb.WriteString("\\usepackage[utf8]{inputenc}\n")
		sb.WriteString("\\usepackage{hyperref}\n")
		sb.WriteString("\\usepackage{graphicx}\n")
		if title := doc.Title(); title != "" {
			sb.WriteString("\\title{" + encoding.EscapeLaTeX(title) + "}\n")
		}
		if author, ok := doc.Meta.GetString(ir.MetaAuthor); ok && author != "" {
			sb.WriteString("\\author{" + encoding.EscapeLaTeX(author) + "}\n")
		}
		if date, ok := doc.Meta.GetString(ir.MetaDate); ok && date != "" {
			sb.WriteString("\\date{" + encoding.EscapeLaTeX(date) + "}\n")
		}
		sb.WriteString("\\begin{document}\n")
		if doc.Title() != "" {
			sb.WriteString("\\maketitle\n")
		}
		sb.WriteString("\n")
	}

	e.blocks(doc.Content.Children, &sb, "")

	if opts.Standalone {
		sb.WriteString("\\end{document}\n")
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
		if idx >= len(sectionCommands) {
			e.warn(ir.NewWarning(ir.SeverityMinor, ir.WarningFeatureLost, path,
				fmt.Sprintf("heading level %d flattened to subparagraph", level)))
			idx = len(sectionCommands) - 1
		}
		sb.WriteString("\\" + sectionCommands[idx] + "{" + e.inlines(n.Children, path) + "}\n\n")

	case ir.KindParagraph:
		sb.WriteString(e.inlines(n.Children, path) + "\n\n")

	case ir.KindSection, ir.KindDiv:
		e.blocks(n.Children, sb, path)

	case ir.KindCodeBlock:
		sb.WriteString("\\begin{verbatim}\n")
		sb.WriteString(strings.TrimRight(n.Text(), "\n"))
		sb.WriteString("\n\\end{verbatim}\n\n")

	case ir.KindQuoteBlock:
		sb.WriteString("\\begin{quote}\n")
		e.blocks(n.Children, sb, path)
		sb.WriteString("\\end{quote}\n\n")

	case ir.KindThematicBreak:
		sb.WriteString("\\begin{center}\\rule{0.5\\linewidth}{0.5pt}\\end{center}\n\n")

	case ir.KindList:
		env := "itemize"
		if ordered, _ := n.Props.GetBool(ir.PropOrdered); ordered {
			env = "enumerate"
		}
		sb.WriteString("\\begin{" + env + "}\n")
		for i, item := range n.Children {
			sb.WriteString("\\item ")
			var body strings.Builder
			e.blocks(item.Children, &body, ir.ChildPath(path, i))
			sb.WriteString(strings.TrimRight(body.String(), "\n") + "\n")
		}
		sb.WriteString("\\end{" + env + "}\n\n")

	case ir.KindDefinitionList:
		sb.WriteString("\\begin{description}\n")
		for i, item := range n.Children {
			term, _ := item.Props.GetString(ir.PropTerm)
			sb.WriteString("\\item[" + encoding.EscapeLaTeX(term) + "] ")
			var body strings.Builder
			e.blocks(item.Children, &body, ir.ChildPath(path, i))
			sb.WriteString(strings.TrimRight(body.String(), "\n") + "\n")
		}
		sb.WriteString("\\end{description}\n\n")

	case ir.KindTable:
		e.table(n, sb, path)

	case ir.KindRaw:
		rawFormat, _ := n.Props.GetString(ir.PropFormat)
		if rawFormat == "latex" || rawFormat == "tex" {
			sb.WriteString(n.Text() + "\n\n")
			return
		}
		e.warn(ir.WarnDataDropped(path, "raw block",
			fmt.Sprintf("raw %s content cannot appear in LaTeX", rawFormat)))

	default:
		e.warn(ir.WarnUnsupportedNode(path, n.Kind, "rendered as plain paragraphs"))
		if text := n.PlainText(); text != "" {
			sb.WriteString(encoding.EscapeLaTeX(text) + "\n\n")
		}
	}
}

func (e *emitter) table(n *ir.Node, sb *strings.Builder, path string) {
	var rows []*ir.Node
	cols := 0
	for _, row := range n.Children {
		if row.Kind != ir.KindTableRow {
			continue
		}
		rows = append(rows, row)
		if len(row.Children) > cols {
			cols = len(row.Children)
		}
	}
	if len(rows) == 0 || cols == 0 {
		return
	}

	spec := make([]string, cols)
	for i := range spec {
		spec[i] = "l"
	}
	for i, cell := range rows[0].Children {
		if align, ok := cell.Props.GetString(ir.PropAlign); ok {
			switch align {
			case "right":
				spec[i] = "r"
			case "center":
				spec[i] = "c"
			}
		}
	}

	sb.WriteString("\\begin{tabular}{" + strings.Join(spec, "") + "}\n")
	for ri, row := range rows {
		cells := make([]string, cols)
		for i := 0; i < cols; i++ {
			if i < len(row.Children) {
				cells[i] = e.inlines(row.Children[i].Children, ir.ChildPath(path, ri))
			}
		}
		sb.WriteString(strings.Join(cells, " & ") + " \\\\\n")
		if isHeader, _ := row.Props.GetBool(ir.PropHeader); isHeader {
			sb.WriteString("\\hline\n")
		}
	}
	sb.WriteString("\\end{tabular}\n\n")
}

func (e *emitter) inlines(nodes []*ir.Node, path string) string {
	var sb strings.Builder
	for i, n := range nodes {
		e.inline(n, &sb, ir.ChildPath(path, i))
	}
	return sb.String()
}

func (e *emitter) inline(n *ir.Node, sb *strings.Builder, path string) {
	switch n.Kind {
	case ir.KindText:
		sb.WriteString(encoding.EscapeLaTeX(n.Text()))

	case ir.KindEmphasis:
		sb.WriteString("\\emph{" + e.inlines(n.Children, path) + "}")

	case ir.KindStrong:
		sb.WriteString("\\textbf{" + e.inlines(n.Children, path) + "}")

	case ir.KindStrikeout:
		// \sout needs ulem; degrade to emphasis rather than add a package
		// requirement to every fragment.
		e.warn(ir.NewWarning(ir.SeverityMinor, ir.WarningFeatureLost, path,
			"strikeout rendered as emphasis"))
		sb.WriteString("\\emph{" + e.inlines(n.Children, path) + "}")

	case ir.KindSuperscript:
		sb.WriteString("\\textsuperscript{" + e.inlines(n.Children, path) + "}")

	case ir.KindSubscript:
		sb.WriteString("\\textsubscript{" + e.inlines(n.Children, path) + "}")

	case ir.KindCode:
		sb.WriteString("\\texttt{" + encoding.EscapeLaTeX(n.Text()) + "}")

	case ir.KindLink:
		url, _ := n.Props.GetString(ir.PropURL)
		text := e.inlines(n.Children, path)
		if text == "" || text == url {
			sb.WriteString("\\url{" + url + "}")
			return
		}
		sb.WriteString("\\href{" + url + "}{" + text + "}")

	case ir.KindImage:
		url, _ := n.Props.GetString(ir.PropURL)
		if idStr, ok := n.Props.GetString(ir.PropResourceID); ok {
			id := ir.ResourceID(idStr)
			if _, found := e.doc.Resources.Get(id); !found {
				e.warn(ir.WarnResourceMissing(path, id))
			} else {
				// LaTeX references images by path; embedded bytes cannot
				// ride along in a .tex file.
				e.warn(ir.WarnDataDropped(path, "embedded image",
					"LaTeX output references images by file path"))
			}
		}
		if url != "" {
			sb.WriteString("\\includegraphics{" + url + "}")
		}

	case ir.KindLineBreak:
		sb.WriteString("\\\\\n")

	case ir.KindFootnote:
		sb.WriteString("\\footnote{" + e.inlines(n.Children, path) + "}")

	case ir.KindSpan:
		sb.WriteString(e.inlines(n.Children, path))

	case ir.KindRaw:
		rawFormat, _ := n.Props.GetString(ir.PropFormat)
		if rawFormat == "latex" || rawFormat == "tex" {
			sb.WriteString(n.Text())
			return
		}
		e.warn(ir.WarnDataDropped(path, "raw inline",
			fmt.Sprintf("raw %s content cannot appear in LaTeX", rawFormat)))

	default:
		e.warn(ir.WarnUnsupportedNode(path, n.Kind, "rendered as plain text"))
		sb.WriteString(e.inlines(n.Children, path))
	}
}
