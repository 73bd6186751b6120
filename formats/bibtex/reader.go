// reader.go - BibTeX parsing
//
// Parsing happens in two stages: a scanner isolates @-entries from the
// surrounding prose (BibTeX files may carry arbitrary text between
// entries) and validates brace balance, then a participle grammar
// parses each regular entry's structure. @string, @preamble and
// @comment directives are recognized and skipped with a warning.

package bibtex

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/Vellum/core/encoding"
	"github.com/FocuswithJustin/Vellum/core/errors"
	"github.com/FocuswithJustin/Vellum/core/format"
	"github.com/FocuswithJustin/Vellum/core/ir"
)

// bibLexer tokenizes one entry. Braced values get their own lexer
// state so arbitrary text, including nested braces, survives exactly.
var bibLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "Whitespace", Pattern: `\s+`},
		{Name: "At", Pattern: `@`},
		{Name: "EntryType", Pattern: `[A-Za-z]+`},
		{Name: "EntryOpen", Pattern: `\{`, Action: lexer.Push("Entry")},
	},
	"Entry": {
		{Name: "Whitespace", Pattern: `\s+`},
		{Name: "EntryClose", Pattern: `\}`, Action: lexer.Pop()},
		{Name: "BraceOpen", Pattern: `\{`, Action: lexer.Push("Braced")},
		{Name: "Comma", Pattern: `,`},
		{Name: "Equals", Pattern: `=`},
		{Name: "Hash", Pattern: `#`},
		{Name: "Quoted", Pattern: `"(\\.|[^"\\])*"`},
		{Name: "Number", Pattern: `[0-9]+`},
		{Name: "Ident", Pattern: `[A-Za-z][A-Za-z0-9_:+./-]*`},
	},
	"Braced": {
		{Name: "BraceOpen", Pattern: `\{`, Action: lexer.Push("Braced")},
		{Name: "BraceClose", Pattern: `\}`, Action: lexer.Pop()},
		{Name: "Chunk", Pattern: `[^{}]+`},
	},
})

type bibFile struct {
	Entries []*bibEntry `parser:"@@*"`
}

type bibEntry struct {
	Type   string      `parser:"At @EntryType"`
	Key    string      `parser:"EntryOpen @(Ident|Number)"`
	Fields []*bibField `parser:"(Comma @@?)* EntryClose"`
}

type bibField struct {
	Name  string      `parser:"@Ident Equals"`
	Parts []*bibValue `parser:"@@ (Hash @@)*"`
}

type bibValue struct {
	Quoted *string    `parser:"@Quoted"`
	Number *string    `parser:"| @Number"`
	Ident  *string    `parser:"| @Ident"`
	Braced *bibBraced `parser:"| @@"`
}

type bibBraced struct {
	Parts []*bracedPart `parser:"BraceOpen @@* BraceClose"`
}

type bracedPart struct {
	Chunk  string     `parser:"@Chunk"`
	Nested *bibBraced `parser:"| @@"`
}

var bibParser = participle.MustBuild[bibFile](
	participle.Lexer(bibLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

// Parse converts BibTeX input into a document of bibliography entries.
func (f *Format) Parse(data []byte, opts format.ParseOptions) (ir.ConversionResult[*ir.Document], error) {
	text, _, err := encoding.Decode(data, opts.Charset)
	if err != nil {
		return ir.ConversionResult[*ir.Document]{}, &errors.ParseError{Format: "bibtex", Message: "cannot decode input", Err: err}
	}

	doc := ir.NewDocument()
	doc.Source = "bibtex"
	result := ir.OK(doc)

	clean, warnings, err := extractEntries(text)
	if err != nil {
		return ir.ConversionResult[*ir.Document]{}, err
	}
	result.Warn(warnings...)

	file, err := bibParser.ParseString("", clean)
	if err != nil {
		return ir.ConversionResult[*ir.Document]{}, &errors.ParseError{Format: "bibtex", Message: "invalid entry syntax", Err: err}
	}

	for _, entry := range file.Entries {
		node := ir.NewNode(KindEntry).
			WithPropString(PropType, strings.ToLower(entry.Type)).
			WithPropString(PropKey, entry.Key)
		for _, field := range entry.Fields {
			if field == nil {
				continue
			}
			node.Props.SetString(FieldProp(strings.ToLower(field.Name)), field.text())
		}
		doc.Content.AppendChild(node)
	}
	return result, nil
}

// extractEntries isolates @-entries from surrounding prose and checks
// brace balance. @string/@preamble/@comment directives are dropped
// with a warning. A brace left open at end of input is a ParseError.
func extractEntries(text string) (string, []ir.FidelityWarning, error) {
	var sb strings.Builder
	var warnings []ir.FidelityWarning

	i := 0
	line := 1
	for i < len(text) {
		c := text[i]
		if c == '\n' {
			line++
		}
		if c != '@' {
			i++
			continue
		}

		start := i
		startLine := line
		i++
		nameStart := i
		for i < len(text) && isAlpha(text[i]) {
			i++
		}
		name := strings.ToLower(text[nameStart:i])
		for i < len(text) && (text[i] == ' ' || text[i] == '\t') {
			i++
		}
		if i >= len(text) || text[i] != '{' {
			return "", nil, errors.NewParseAt("bibtex", startLine,
				fmt.Sprintf("@%s is not followed by '{'", name))
		}

		depth := 0
		inQuote := false
		for i < len(text) {
			switch text[i] {
			case '\n':
				line++
			case '"':
				if depth == 1 {
					inQuote = !inQuote
				}
			case '{':
				if !inQuote {
					depth++
				}
			case '}':
				if !inQuote {
					depth--
				}
			}
			i++
			if depth == 0 && text[i-1] == '}' {
				break
			}
		}
		if depth != 0 {
			return "", nil, errors.NewParseAt("bibtex", startLine,
				fmt.Sprintf("unbalanced braces in @%s entry", name))
		}

		switch name {
		case "string", "preamble", "comment":
			warnings = append(warnings, ir.WarnFeatureLost("", "@"+name+" directive",
				"directives are not carried into the document"))
		default:
			sb.WriteString(text[start:i])
			sb.WriteString("\n")
		}
	}
	return sb.String(), warnings, nil
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// text flattens a field value: quoted strings lose their quotes,
// braced values lose their protective braces, concatenation parts
// join directly.
func (f *bibField) text() string {
	var sb strings.Builder
	for _, part := range f.Parts {
		switch {
		case part.Quoted != nil:
			q := *part.Quoted
			sb.WriteString(strings.ReplaceAll(q[1:len(q)-1], `\"`, `"`))
		case part.Number != nil:
			sb.WriteString(*part.Number)
		case part.Ident != nil:
			sb.WriteString(*part.Ident)
		case part.Braced != nil:
			part.Braced.flatten(&sb)
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

func (b *bibBraced) flatten(sb *strings.Builder) {
	for _, part := range b.Parts {
		if part.Nested != nil {
			part.Nested.flatten(sb)
			continue
		}
		sb.WriteString(part.Chunk)
	}
}
