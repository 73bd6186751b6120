// reader.go - Markdown block and inline parsing

package markdown

import (
	"encoding/base64"
	"regexp"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/Vellum/core/encoding"
	"github.com/FocuswithJustin/Vellum/core/errors"
	"github.com/FocuswithJustin/Vellum/core/format"
	"github.com/FocuswithJustin/Vellum/core/ir"
)

var (
	thematicBreakPattern = regexp.MustCompile(`^ {0,3}((\* *){3,}|(- *){3,}|(_ *){3,})$`)
	listMarkerPattern    = regexp.MustCompile(`^( {0,3})([-*+]|\d{1,9}[.)])( +)(.*)$`)
	tableDelimPattern    = regexp.MustCompile(`^ {0,3}\|?( *:?-+:? *\|)+ *:?-*:? *\|? *$`)
	closingHashesPattern = regexp.MustCompile(` +#+ *$`)
	autolinkPattern      = regexp.MustCompile(`^<([a-zA-Z][a-zA-Z0-9+.\-]{1,31}:[^<>\s]*)>`)
	emailPattern         = regexp.MustCompile(`^<([^\s<>@]+@[^\s<>]+\.[^\s<>]+)>`)
	htmlBlockPattern     = regexp.MustCompile(`^ {0,3}<[/!?a-zA-Z]`)
)

// Parse converts Markdown input into a document.
func (f *Format) Parse(data []byte, opts format.ParseOptions) (ir.ConversionResult[*ir.Document], error) {
	text, used, err := encoding.Decode(data, opts.Charset)
	if err != nil {
		return ir.ConversionResult[*ir.Document]{}, &errors.ParseError{Format: "markdown", Message: "cannot decode input", Err: err}
	}

	doc := ir.NewDocument()
	doc.Source = "markdown"
	result := ir.OK(doc)

	if opts.Charset == "" && used != encoding.CharsetUTF8 {
		result.Warn(ir.NewWarning(ir.SeverityMinor, ir.WarningFeatureLost, "",
			"input was not valid UTF-8; decoded as "+used))
	}

	body := text
	bodyOffset := 0
	if yamlText, rest, offset, found := splitFrontmatter(text); found {
		warnings, err := metaFromYAML(yamlText, &doc.Meta)
		if err != nil {
			result.Warn(ir.WarnMetadataLost("frontmatter", "invalid YAML: "+err.Error()))
		} else {
			result.Warn(warnings...)
		}
		body, bodyOffset = rest, offset
	}

	p := &blockParser{doc: doc, opts: opts}
	lines, offsets := splitLines(body, bodyOffset)
	doc.Content.Children = p.parse(lines, offsets)
	result.Warn(p.warnings...)

	return result, nil
}

// splitLines splits text into lines without terminators, tracking each
// line's byte offset in the original input.
func splitLines(text string, base int) ([]string, []int) {
	if text == "" {
		return nil, nil
	}
	raw := strings.Split(text, "\n")
	lines := make([]string, len(raw))
	offsets := make([]int, len(raw))
	offset := base
	for i, line := range raw {
		offsets[i] = offset
		offset += len(line) + 1
		lines[i] = strings.TrimRight(line, "\r")
	}
	return lines, offsets
}

// blockParser turns lines into block nodes. Offsets may be nil for
// nested content, in which case no spans are recorded.
type blockParser struct {
	doc      *ir.Document
	opts     format.ParseOptions
	warnings []ir.FidelityWarning
}

func (p *blockParser) warn(w ir.FidelityWarning) {
	p.warnings = append(p.warnings, w)
}

func (p *blockParser) parse(lines []string, offsets []int) []*ir.Node {
	var nodes []*ir.Node
	i := 0
	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			i++
			continue
		}

		start := i
		var node *ir.Node

		switch {
		case isFenceLine(trimmed):
			node, i = p.parseFence(lines, i)

		case isATXHeading(strings.TrimLeft(line, " ")) && leadingSpaces(line) < 4:
			node = p.parseHeading(line)
			i++

		case thematicBreakPattern.MatchString(line):
			node = ir.NewNode(ir.KindThematicBreak)
			i++

		case strings.HasPrefix(trimmed, ">"):
			node, i = p.parseQuote(lines, i)

		case listMarkerPattern.MatchString(line):
			node, i = p.parseList(lines, i)

		case strings.Contains(line, "|") && i+1 < len(lines) && tableDelimPattern.MatchString(lines[i+1]):
			node, i = p.parseTable(lines, i)

		case htmlBlockPattern.MatchString(line):
			node, i = p.parseHTMLBlock(lines, i)

		default:
			node, i = p.parseParagraph(lines, i)
		}

		if node == nil {
			continue
		}
		if p.opts.PreserveSourceInfo && offsets != nil {
			end := i - 1
			if end < start {
				end = start
			}
			node.Span = &ir.Span{Start: offsets[start], End: offsets[end] + len(lines[end])}
		}
		nodes = append(nodes, node)
	}
	return nodes
}

func leadingSpaces(line string) int {
	return len(line) - len(strings.TrimLeft(line, " "))
}

func isFenceLine(trimmed string) bool {
	return strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~")
}

func (p *blockParser) parseHeading(line string) *ir.Node {
	trimmed := strings.TrimLeft(line, " ")
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	text := strings.TrimSpace(trimmed[level:])
	text = closingHashesPattern.ReplaceAllString(text, "")

	node := ir.NewNode(ir.KindHeading).WithPropInt(ir.PropLevel, int64(level))
	node.Children = p.parseInline(text)
	return node
}

func (p *blockParser) parseFence(lines []string, i int) (*ir.Node, int) {
	opening := strings.TrimLeft(lines[i], " ")
	fenceChar := opening[0]
	fenceLen := 0
	for fenceLen < len(opening) && opening[fenceLen] == fenceChar {
		fenceLen++
	}
	info := strings.TrimSpace(opening[fenceLen:])

	var content []string
	j := i + 1
	for j < len(lines) {
		closing := strings.TrimSpace(lines[j])
		if isClosingFence(closing, fenceChar, fenceLen) {
			j++
			break
		}
		content = append(content, lines[j])
		j++
	}

	node := ir.NewNode(ir.KindCodeBlock).WithPropString(ir.PropText, strings.Join(content, "\n"))
	if info != "" {
		lang := strings.Fields(info)[0]
		node.Props.SetString(ir.PropLanguage, lang)
	}
	return node, j
}

func isClosingFence(line string, fenceChar byte, minLen int) bool {
	if len(line) < minLen {
		return false
	}
	for k := 0; k < len(line); k++ {
		if line[k] != fenceChar {
			return false
		}
	}
	return true
}

func (p *blockParser) parseQuote(lines []string, i int) (*ir.Node, int) {
	var inner []string
	j := i
	for j < len(lines) {
		trimmed := strings.TrimLeft(lines[j], " ")
		if !strings.HasPrefix(trimmed, ">") || leadingSpaces(lines[j]) > 3 {
			break
		}
		stripped := strings.TrimPrefix(trimmed, ">")
		stripped = strings.TrimPrefix(stripped, " ")
		inner = append(inner, stripped)
		j++
	}

	node := ir.NewNode(ir.KindQuoteBlock)
	node.Children = p.parse(inner, nil)
	return node, j
}

func (p *blockParser) parseList(lines []string, i int) (*ir.Node, int) {
	first := listMarkerPattern.FindStringSubmatch(lines[i])
	ordered := first[2][0] >= '0' && first[2][0] <= '9'

	node := ir.NewNode(ir.KindList)
	if ordered {
		node.Props.SetBool(ir.PropOrdered, true)
		start, _ := strconv.ParseInt(first[2][:len(first[2])-1], 10, 64)
		if start != 1 {
			node.Props.SetInt(ir.PropStart, start)
		}
	}

	j := i
	for j < len(lines) {
		m := listMarkerPattern.FindStringSubmatch(lines[j])
		if m == nil {
			break
		}
		itemOrdered := m[2][0] >= '0' && m[2][0] <= '9'
		if itemOrdered != ordered {
			break
		}

		contentIndent := len(m[1]) + len(m[2]) + len(m[3])
		itemLines := []string{m[4]}
		j++

		for j < len(lines) {
			line := lines[j]
			switch {
			case strings.TrimSpace(line) == "":
				// A blank inside an item only continues it when indented
				// content follows.
				if j+1 < len(lines) && leadingSpaces(lines[j+1]) >= contentIndent && strings.TrimSpace(lines[j+1]) != "" {
					itemLines = append(itemLines, "")
					j++
					continue
				}
			case leadingSpaces(line) >= contentIndent:
				itemLines = append(itemLines, line[contentIndent:])
				j++
				continue
			case listMarkerPattern.MatchString(line):
				// Next item.
			case strings.TrimSpace(itemLines[len(itemLines)-1]) != "":
				// Lazy continuation of the item's trailing paragraph.
				itemLines = append(itemLines, strings.TrimSpace(line))
				j++
				continue
			}
			break
		}

		item := ir.NewNode(ir.KindListItem)
		if checked, rest, ok := taskCheckbox(itemLines[0]); ok {
			item.Props.SetBool(ir.PropChecked, checked)
			itemLines[0] = rest
		}
		item.Children = p.parse(itemLines, nil)
		node.AppendChild(item)
	}

	return node, j
}

func taskCheckbox(line string) (checked bool, rest string, ok bool) {
	switch {
	case strings.HasPrefix(line, "[ ] "):
		return false, line[4:], true
	case strings.HasPrefix(line, "[x] "), strings.HasPrefix(line, "[X] "):
		return true, line[4:], true
	}
	return false, line, false
}

func (p *blockParser) parseTable(lines []string, i int) (*ir.Node, int) {
	node := ir.NewNode(ir.KindTable)

	headerCells := splitTableRow(lines[i])
	aligns := tableAlignments(lines[i+1])

	header := ir.NewNode(ir.KindTableRow).WithPropBool(ir.PropHeader, true)
	for k, cell := range headerCells {
		header.AppendChild(p.tableCell(cell, aligns, k))
	}
	node.AppendChild(header)

	j := i + 2
	for j < len(lines) {
		line := lines[j]
		if strings.TrimSpace(line) == "" || !strings.Contains(line, "|") {
			break
		}
		row := ir.NewNode(ir.KindTableRow)
		for k, cell := range splitTableRow(line) {
			row.AppendChild(p.tableCell(cell, aligns, k))
		}
		node.AppendChild(row)
		j++
	}

	return node, j
}

func (p *blockParser) tableCell(content string, aligns []string, col int) *ir.Node {
	cell := ir.NewNode(ir.KindTableCell)
	if col < len(aligns) && aligns[col] != "" {
		cell.Props.SetString(ir.PropAlign, aligns[col])
	}
	cell.Children = p.parseInline(strings.TrimSpace(content))
	return cell
}

// splitTableRow splits a pipe table row into cells, honoring \| escapes.
func splitTableRow(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")

	var cells []string
	var cur strings.Builder
	for k := 0; k < len(line); k++ {
		c := line[k]
		if c == '\\' && k+1 < len(line) && line[k+1] == '|' {
			cur.WriteByte('|')
			k++
			continue
		}
		if c == '|' {
			cells = append(cells, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteByte(c)
	}
	cells = append(cells, cur.String())
	return cells
}

func tableAlignments(delim string) []string {
	var aligns []string
	for _, cell := range splitTableRow(delim) {
		cell = strings.TrimSpace(cell)
		left := strings.HasPrefix(cell, ":")
		right := strings.HasSuffix(cell, ":")
		switch {
		case left && right:
			aligns = append(aligns, "center")
		case right:
			aligns = append(aligns, "right")
		case left:
			aligns = append(aligns, "left")
		default:
			aligns = append(aligns, "")
		}
	}
	return aligns
}

func (p *blockParser) parseHTMLBlock(lines []string, i int) (*ir.Node, int) {
	var content []string
	j := i
	for j < len(lines) && strings.TrimSpace(lines[j]) != "" {
		content = append(content, lines[j])
		j++
	}
	node := ir.NewNode(ir.KindRaw).
		WithPropString(ir.PropFormat, "html").
		WithPropString(ir.PropText, strings.Join(content, "\n"))
	return node, j
}

func (p *blockParser) parseParagraph(lines []string, i int) (*ir.Node, int) {
	var content []string
	j := i
	for j < len(lines) {
		line := lines[j]
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			break
		}
		if j > i && startsNewBlock(line, trimmed) {
			break
		}
		content = append(content, line)
		j++
	}

	node := ir.NewNode(ir.KindParagraph)
	node.Children = p.parseInline(strings.Join(content, "\n"))
	return node, j
}

// startsNewBlock reports whether a line interrupts a paragraph.
func startsNewBlock(line, trimmed string) bool {
	return isFenceLine(trimmed) ||
		(isATXHeading(strings.TrimLeft(line, " ")) && leadingSpaces(line) < 4) ||
		thematicBreakPattern.MatchString(line) ||
		strings.HasPrefix(trimmed, ">") ||
		listMarkerPattern.MatchString(line)
}

// inline parsing

func (p *blockParser) parseInline(s string) []*ir.Node {
	ip := &inlineParser{p: p, src: s}
	return ip.run()
}

type inlineParser struct {
	p    *blockParser
	src  string
	pos  int
	out  []*ir.Node
	text strings.Builder
}

func (ip *inlineParser) flush() {
	if ip.text.Len() > 0 {
		ip.out = append(ip.out, ir.NewText(ip.text.String()))
		ip.text.Reset()
	}
}

func (ip *inlineParser) append(n *ir.Node) {
	ip.flush()
	ip.out = append(ip.out, n)
}

func (ip *inlineParser) run() []*ir.Node {
	for ip.pos < len(ip.src) {
		c := ip.src[ip.pos]
		switch c {
		case '\\':
			ip.backslash()
		case '\n':
			ip.lineEnding()
		case '`':
			ip.codeSpan()
		case '*', '_':
			ip.emphasis(c)
		case '~':
			ip.strikeout()
		case '!':
			if !ip.image() {
				ip.literal()
			}
		case '[':
			if !ip.link() {
				ip.literal()
			}
		case '<':
			if !ip.autolink() {
				ip.literal()
			}
		default:
			ip.literal()
		}
	}
	ip.flush()
	return ip.out
}

func (ip *inlineParser) literal() {
	ip.text.WriteByte(ip.src[ip.pos])
	ip.pos++
}

func (ip *inlineParser) backslash() {
	if ip.pos+1 >= len(ip.src) {
		ip.literal()
		return
	}
	next := ip.src[ip.pos+1]
	if next == '\n' {
		ip.append(ir.NewNode(ir.KindLineBreak))
		ip.pos += 2
		return
	}
	if strings.IndexByte("\\`*_{}[]()#+-.!|<>~\"'", next) >= 0 {
		ip.text.WriteByte(next)
		ip.pos += 2
		return
	}
	ip.literal()
}

func (ip *inlineParser) lineEnding() {
	// Two trailing spaces make a hard break; otherwise the newline is a
	// soft break and renders as a space.
	buf := ip.text.String()
	if strings.HasSuffix(buf, "  ") {
		ip.text.Reset()
		ip.text.WriteString(strings.TrimRight(buf, " "))
		ip.append(ir.NewNode(ir.KindLineBreak))
	} else {
		ip.text.WriteByte(' ')
	}
	ip.pos++
}

func (ip *inlineParser) codeSpan() {
	n := 0
	for ip.pos+n < len(ip.src) && ip.src[ip.pos+n] == '`' {
		n++
	}
	rest := ip.src[ip.pos+n:]

	// Find a closing run of exactly n backticks.
	search := 0
	for {
		idx := strings.Index(rest[search:], strings.Repeat("`", n))
		if idx < 0 {
			ip.text.WriteString(ip.src[ip.pos : ip.pos+n])
			ip.pos += n
			return
		}
		idx += search
		runEnd := idx
		for runEnd < len(rest) && rest[runEnd] == '`' {
			runEnd++
		}
		if runEnd-idx == n {
			content := rest[:idx]
			if len(content) >= 2 && strings.HasPrefix(content, " ") && strings.HasSuffix(content, " ") && strings.TrimSpace(content) != "" {
				content = content[1 : len(content)-1]
			}
			content = strings.ReplaceAll(content, "\n", " ")
			ip.append(ir.NewNode(ir.KindCode).WithPropString(ir.PropText, content))
			ip.pos += n + runEnd
			return
		}
		search = runEnd
	}
}

func (ip *inlineParser) emphasis(marker byte) {
	double := string(marker) + string(marker)
	if strings.HasPrefix(ip.src[ip.pos:], double) {
		if ip.spanned(double, double, ir.KindStrong) {
			return
		}
		ip.literal()
		ip.literal()
		return
	}
	if ip.spanned(string(marker), string(marker), ir.KindEmphasis) {
		return
	}
	ip.literal()
}

func (ip *inlineParser) strikeout() {
	if strings.HasPrefix(ip.src[ip.pos:], "~~") {
		if ip.spanned("~~", "~~", ir.KindStrikeout) {
			return
		}
		ip.literal()
		ip.literal()
		return
	}
	ip.literal()
}

// spanned matches open...close and appends a styled node around the
// recursively parsed interior. The interior must be non-empty and not
// start or end with whitespace.
func (ip *inlineParser) spanned(open, close string, kind string) bool {
	inner := ip.src[ip.pos+len(open):]
	idx := strings.Index(inner, close)
	if idx <= 0 {
		return false
	}
	content := inner[:idx]
	if strings.TrimSpace(content) == "" ||
		content[0] == ' ' || content[len(content)-1] == ' ' {
		return false
	}
	node := ir.NewNode(kind)
	node.Children = ip.p.parseInline(content)
	ip.append(node)
	ip.pos += len(open) + idx + len(close)
	return true
}

// bracketSpan finds the matching ] for the [ at start, honoring nesting
// and escapes. Returns the index of the closing bracket or -1.
func bracketSpan(s string, start int) int {
	depth := 0
	for k := start; k < len(s); k++ {
		switch s[k] {
		case '\\':
			k++
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return k
			}
		}
	}
	return -1
}

// linkTarget parses "(dest "title")" beginning at start, returning the
// destination, optional title, and the index one past the closing paren.
func linkTarget(s string, start int) (dest, title string, end int, ok bool) {
	if start >= len(s) || s[start] != '(' {
		return "", "", 0, false
	}
	k := start + 1
	for k < len(s) && s[k] == ' ' {
		k++
	}

	var destBuf strings.Builder
	depth := 0
	for k < len(s) {
		c := s[k]
		if c == '\\' && k+1 < len(s) {
			destBuf.WriteByte(s[k+1])
			k += 2
			continue
		}
		if c == '(' {
			depth++
		}
		if c == ')' {
			if depth == 0 {
				break
			}
			depth--
		}
		if c == ' ' || c == '\n' {
			break
		}
		destBuf.WriteByte(c)
		k++
	}

	for k < len(s) && s[k] == ' ' {
		k++
	}
	if k < len(s) && (s[k] == '"' || s[k] == '\'') {
		quote := s[k]
		k++
		var titleBuf strings.Builder
		for k < len(s) && s[k] != quote {
			titleBuf.WriteByte(s[k])
			k++
		}
		if k >= len(s) {
			return "", "", 0, false
		}
		title = titleBuf.String()
		k++
		for k < len(s) && s[k] == ' ' {
			k++
		}
	}

	if k >= len(s) || s[k] != ')' {
		return "", "", 0, false
	}
	return destBuf.String(), title, k + 1, true
}

func (ip *inlineParser) link() bool {
	closeIdx := bracketSpan(ip.src, ip.pos)
	if closeIdx < 0 {
		return false
	}
	dest, title, end, ok := linkTarget(ip.src, closeIdx+1)
	if !ok {
		return false
	}

	node := ir.NewNode(ir.KindLink).WithPropString(ir.PropURL, dest)
	if title != "" {
		node.Props.SetString(ir.PropTitle, title)
	}
	node.Children = ip.p.parseInline(ip.src[ip.pos+1 : closeIdx])
	ip.append(node)
	ip.pos = end
	return true
}

func (ip *inlineParser) image() bool {
	if ip.pos+1 >= len(ip.src) || ip.src[ip.pos+1] != '[' {
		return false
	}
	closeIdx := bracketSpan(ip.src, ip.pos+1)
	if closeIdx < 0 {
		return false
	}
	dest, title, end, ok := linkTarget(ip.src, closeIdx+1)
	if !ok {
		return false
	}

	alt := ip.src[ip.pos+2 : closeIdx]
	node := ir.NewNode(ir.KindImage)
	if alt != "" {
		node.Props.SetString(ir.PropAlt, alt)
	}
	if title != "" {
		node.Props.SetString(ir.PropTitle, title)
	}

	if ip.p.opts.EmbedResources && strings.HasPrefix(dest, "data:") {
		if id, ok := ip.p.embedDataURI(dest); ok {
			node.Props.SetString(ir.PropResourceID, string(id))
		} else {
			ip.p.warn(ir.WarnDataDropped("", "image data URI", "malformed data URI; keeping the reference"))
			node.Props.SetString(ir.PropURL, dest)
		}
	} else {
		node.Props.SetString(ir.PropURL, dest)
	}

	ip.append(node)
	ip.pos = end
	return true
}

// embedDataURI decodes a data: URI into the resource map.
func (p *blockParser) embedDataURI(uri string) (ir.ResourceID, bool) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", false
	}
	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return "", false
	}
	meta, payload := rest[:comma], rest[comma+1:]

	mimeType := "text/plain"
	isBase64 := false
	for i, part := range strings.Split(meta, ";") {
		if part == "base64" {
			isBase64 = true
		} else if i == 0 && part != "" {
			mimeType = part
		}
	}

	var data []byte
	var err error
	if isBase64 {
		data, err = base64.StdEncoding.DecodeString(payload)
	} else {
		data = []byte(payload)
	}
	if err != nil {
		return "", false
	}

	id := p.doc.Resources.Add(ir.Resource{MIMEType: mimeType, Data: data})
	return id, true
}

func (ip *inlineParser) autolink() bool {
	rest := ip.src[ip.pos:]
	if m := autolinkPattern.FindStringSubmatch(rest); m != nil {
		node := ir.NewNode(ir.KindLink).WithPropString(ir.PropURL, m[1])
		node.AppendChild(ir.NewText(m[1]))
		ip.append(node)
		ip.pos += len(m[0])
		return true
	}
	if m := emailPattern.FindStringSubmatch(rest); m != nil {
		node := ir.NewNode(ir.KindLink).WithPropString(ir.PropURL, "mailto:"+m[1])
		node.AppendChild(ir.NewText(m[1]))
		ip.append(node)
		ip.pos += len(m[0])
		return true
	}
	return false
}
