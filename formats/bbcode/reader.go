// reader.go - BBCode parsing

package bbcode

import (
	"strings"

	"github.com/FocuswithJustin/Vellum/core/encoding"
	"github.com/FocuswithJustin/Vellum/core/errors"
	"github.com/FocuswithJustin/Vellum/core/format"
	"github.com/FocuswithJustin/Vellum/core/ir"
)

// Parse converts BBCode input into a document.
func (f *Format) Parse(data []byte, opts format.ParseOptions) (ir.ConversionResult[*ir.Document], error) {
	text, _, err := encoding.Decode(data, opts.Charset)
	if err != nil {
		return ir.ConversionResult[*ir.Document]{}, &errors.ParseError{Format: "bbcode", Message: "cannot decode input", Err: err}
	}

	doc := ir.NewDocument()
	doc.Source = "bbcode"
	result := ir.OK(doc)

	p := &parser{}
	doc.Content.Children = p.parseBlocks(strings.ReplaceAll(text, "\r\n", "\n"))
	result.Warn(p.warnings...)
	return result, nil
}

type parser struct {
	warnings []ir.FidelityWarning
}

func (p *parser) warn(w ir.FidelityWarning) {
	p.warnings = append(p.warnings, w)
}

// blockTags are the tags that open a block of their own rather than
// styling inline text.
var blockTags = map[string]bool{"quote": true, "code": true, "list": true}

// tagAt parses "[name=arg]" or "[/name]" starting at index i. Returns
// the lower-cased name, the optional argument, whether it is a closing
// tag, and the index one past the bracket. ok is false when the
// brackets do not form a tag.
func tagAt(s string, i int) (name, arg string, closing bool, end int, ok bool) {
	if i >= len(s) || s[i] != '[' {
		return "", "", false, 0, false
	}
	close := strings.IndexByte(s[i:], ']')
	if close < 0 || close == 1 {
		return "", "", false, 0, false
	}
	inner := s[i+1 : i+close]
	end = i + close + 1

	if strings.HasPrefix(inner, "/") {
		name = strings.ToLower(inner[1:])
	} else if eq := strings.IndexByte(inner, '='); eq >= 0 {
		name, arg = strings.ToLower(inner[:eq]), inner[eq+1:]
	} else {
		name = strings.ToLower(inner)
	}

	if name == "*" {
		return name, "", false, end, true
	}
	for _, c := range name {
		if c < 'a' || c > 'z' {
			return "", "", false, 0, false
		}
	}
	return name, arg, strings.HasPrefix(inner, "/"), end, name != ""
}

// findClose locates the matching [/name] for a tag opened just before
// from, honoring nesting of the same tag. Returns the index of the
// closing tag's '[' and the index one past it, or -1.
func findClose(s string, from int, name string) (start, end int) {
	depth := 1
	for i := from; i < len(s); {
		if s[i] != '[' {
			i++
			continue
		}
		n, _, closing, e, ok := tagAt(s, i)
		if !ok || n != name {
			i++
			continue
		}
		if closing {
			depth--
			if depth == 0 {
				return i, e
			}
		} else {
			depth++
		}
		i = e
	}
	return -1, -1
}

// parseBlocks splits text into block nodes: [quote], [code] and [list]
// blocks, and blank-line separated paragraphs between them.
func (p *parser) parseBlocks(text string) []*ir.Node {
	var nodes []*ir.Node
	var para strings.Builder

	flush := func() {
		content := strings.TrimSpace(para.String())
		para.Reset()
		if content == "" {
			return
		}
		node := ir.NewNode(ir.KindParagraph)
		node.Children = p.parseInline(content)
		nodes = append(nodes, node)
	}

	i := 0
	for i < len(text) {
		if text[i] == '[' {
			if name, arg, closing, end, ok := tagAt(text, i); ok && !closing && blockTags[name] {
				if node, next := p.parseBlockTag(text, name, arg, end); node != nil {
					flush()
					nodes = append(nodes, node)
					i = next
					continue
				}
			}
		}
		if strings.HasPrefix(text[i:], "\n\n") {
			flush()
			for i < len(text) && text[i] == '\n' {
				i++
			}
			continue
		}
		para.WriteByte(text[i])
		i++
	}
	flush()
	return nodes
}

// parseBlockTag parses one [quote]/[code]/[list] block whose opening
// tag ends at contentStart. A missing closing tag leaves the opening
// tag as literal text by returning nil.
func (p *parser) parseBlockTag(text, name, arg string, contentStart int) (*ir.Node, int) {
	closeStart, closeEnd := findClose(text, contentStart, name)
	if closeStart < 0 {
		p.warn(ir.NewWarning(ir.SeverityMinor, ir.WarningFeatureLost, "",
			"unclosed ["+name+"] tag kept as literal text"))
		return nil, 0
	}
	content := text[contentStart:closeStart]

	switch name {
	case "code":
		node := ir.NewNode(ir.KindCodeBlock).
			WithPropString(ir.PropText, strings.Trim(content, "\n"))
		if arg != "" {
			node.Props.SetString(ir.PropLanguage, arg)
		}
		return node, closeEnd

	case "quote":
		node := ir.NewNode(ir.KindQuoteBlock)
		if arg != "" {
			node.Props.SetString("bbcode:author", strings.Trim(arg, `"`))
		}
		node.Children = p.parseBlocks(strings.TrimSpace(content))
		return node, closeEnd

	case "list":
		node := ir.NewNode(ir.KindList)
		if arg == "1" {
			node.Props.SetBool(ir.PropOrdered, true)
		}
		for _, itemText := range splitListItems(content) {
			item := ir.NewNode(ir.KindListItem)
			item.Children = p.parseBlocks(strings.TrimSpace(itemText))
			node.AppendChild(item)
		}
		return node, closeEnd
	}
	return nil, 0
}

// splitListItems splits [list] content on top-level [*] markers.
func splitListItems(content string) []string {
	var items []string
	depth := 0
	last := -1
	for i := 0; i < len(content); {
		if content[i] != '[' {
			i++
			continue
		}
		name, _, closing, end, ok := tagAt(content, i)
		if !ok {
			i++
			continue
		}
		if name == "*" && depth == 0 {
			if last >= 0 {
				items = append(items, content[last:i])
			}
			last = end
			i = end
			continue
		}
		if blockTags[name] {
			if closing {
				depth--
			} else {
				depth++
			}
		}
		i = end
	}
	if last >= 0 {
		items = append(items, content[last:])
	}
	return items
}

// inlineKinds maps simple styling tags to their node kinds.
var inlineKinds = map[string]string{
	"b": ir.KindStrong,
	"i": ir.KindEmphasis,
	"s": ir.KindStrikeout,
}

// parseInline parses inline BBCode into nodes.
func (p *parser) parseInline(text string) []*ir.Node {
	var out []*ir.Node
	var buf strings.Builder

	flush := func() {
		if buf.Len() > 0 {
			out = append(out, ir.NewText(buf.String()))
			buf.Reset()
		}
	}

	i := 0
	for i < len(text) {
		if text[i] == '\n' {
			flush()
			out = append(out, ir.NewNode(ir.KindLineBreak))
			i++
			continue
		}
		if text[i] != '[' {
			buf.WriteByte(text[i])
			i++
			continue
		}

		name, arg, closing, end, ok := tagAt(text, i)
		if !ok || closing {
			buf.WriteByte(text[i])
			i++
			continue
		}

		node, next := p.parseInlineTag(text, name, arg, end)
		if node == nil {
			if next == 0 {
				// Unknown tag: literal text plus one warning.
				p.warn(ir.NewWarning(ir.SeverityMinor, ir.WarningUnsupportedNode, "",
					"unknown ["+name+"] tag kept as literal text"))
			}
			buf.WriteString(text[i:end])
			i = end
			continue
		}
		flush()
		out = append(out, node)
		i = next
	}
	flush()
	return out
}

// parseInlineTag parses one inline tag whose opener ends at
// contentStart. Returns (nil, 0) for unknown tags and (nil, -1) for
// known tags missing their closer.
func (p *parser) parseInlineTag(text, name, arg string, contentStart int) (*ir.Node, int) {
	kind, known := inlineKinds[name]
	if !known && name != "u" && name != "url" && name != "img" {
		return nil, 0
	}

	closeStart, closeEnd := findClose(text, contentStart, name)
	if closeStart < 0 {
		p.warn(ir.NewWarning(ir.SeverityMinor, ir.WarningFeatureLost, "",
			"unclosed ["+name+"] tag kept as literal text"))
		return nil, -1
	}
	content := text[contentStart:closeStart]

	switch name {
	case "b", "i", "s":
		node := ir.NewNode(kind)
		node.Children = p.parseInline(content)
		return node, closeEnd

	case "u":
		node := ir.NewNode(ir.KindSpan).WithPropBool(PropUnderline, true)
		node.Children = p.parseInline(content)
		return node, closeEnd

	case "url":
		url := arg
		if url == "" {
			url = strings.TrimSpace(content)
		}
		node := ir.NewNode(ir.KindLink).WithPropString(ir.PropURL, url)
		node.Children = p.parseInline(content)
		return node, closeEnd

	case "img":
		node := ir.NewNode(ir.KindImage).
			WithPropString(ir.PropURL, strings.TrimSpace(content))
		if arg != "" {
			node.Props.SetString(ir.PropAlt, arg)
		}
		return node, closeEnd
	}
	return nil, 0
}
