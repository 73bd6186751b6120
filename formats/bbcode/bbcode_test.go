package bbcode

import (
	"strings"
	"testing"

	"github.com/FocuswithJustin/Vellum/core/format"
	"github.com/FocuswithJustin/Vellum/core/ir"
)

func mustParse(t *testing.T, input string) ir.ConversionResult[*ir.Document] {
	t.Helper()
	result, err := New().Parse([]byte(input), format.ParseOptions{})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return result
}

func TestDetect(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"some [b]bold[/b] text", true},
		{"[quote=someone]hi[/quote]", true},
		{"[URL=x]link[/URL]", true},
		{"plain text with [brackets] only", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := New().Detect([]byte(tt.input)); got != tt.want {
			t.Errorf("Detect(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseInlineStyles(t *testing.T) {
	result := mustParse(t, "[b]bold[/b] [i]italic[/i] [u]under[/u] [s]gone[/s]")
	para := result.Value.Content.Children[0]

	var kinds []string
	for _, c := range para.Children {
		kinds = append(kinds, c.Kind)
	}
	want := []string{
		ir.KindStrong, ir.KindText, ir.KindEmphasis, ir.KindText,
		ir.KindSpan, ir.KindText, ir.KindStrikeout,
	}
	if strings.Join(kinds, ",") != strings.Join(want, ",") {
		t.Errorf("kinds = %v, want %v", kinds, want)
	}

	span := para.Children[4]
	if underline, _ := span.Props.GetBool(PropUnderline); !underline {
		t.Error("[u] span should carry the underline prop")
	}
}

func TestParseURL(t *testing.T) {
	result := mustParse(t, "[url=https://example.com]site[/url] and [url]https://bare.example[/url]")
	para := result.Value.Content.Children[0]

	var links []*ir.Node
	for _, c := range para.Children {
		if c.Kind == ir.KindLink {
			links = append(links, c)
		}
	}
	if len(links) != 2 {
		t.Fatalf("got %d links, want 2", len(links))
	}
	if url, _ := links[0].Props.GetString(ir.PropURL); url != "https://example.com" {
		t.Errorf("first link url = %q", url)
	}
	if url, _ := links[1].Props.GetString(ir.PropURL); url != "https://bare.example" {
		t.Errorf("second link url = %q", url)
	}
}

func TestParseQuoteAndCode(t *testing.T) {
	input := "[quote=alice]\nquoted words\n[/quote]\n\n[code=go]\nfunc main() {}\n[/code]"
	result := mustParse(t, input)
	blocks := result.Value.Content.Children
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}

	quote := blocks[0]
	if quote.Kind != ir.KindQuoteBlock {
		t.Fatalf("first block kind = %q", quote.Kind)
	}
	if author, _ := quote.Props.GetString("bbcode:author"); author != "alice" {
		t.Errorf("quote author = %q", author)
	}

	code := blocks[1]
	if code.Kind != ir.KindCodeBlock {
		t.Fatalf("second block kind = %q", code.Kind)
	}
	if lang, _ := code.Props.GetString(ir.PropLanguage); lang != "go" {
		t.Errorf("code language = %q", lang)
	}
	if code.Text() != "func main() {}" {
		t.Errorf("code text = %q", code.Text())
	}
}

func TestParseList(t *testing.T) {
	result := mustParse(t, "[list=1]\n[*]one\n[*]two\n[/list]")
	list := result.Value.Content.Children[0]
	if list.Kind != ir.KindList {
		t.Fatalf("kind = %q, want list", list.Kind)
	}
	if ordered, _ := list.Props.GetBool(ir.PropOrdered); !ordered {
		t.Error("list=1 should be ordered")
	}
	if len(list.Children) != 2 {
		t.Fatalf("got %d items, want 2", len(list.Children))
	}
}

func TestParseUnknownTagWarns(t *testing.T) {
	result := mustParse(t, "text with [flash]stuff[/flash] inside")
	if !result.HasWarnings() {
		t.Fatal("unknown tag should warn")
	}
	text := result.Value.Content.PlainText()
	if !strings.Contains(text, "[flash]stuff[/flash]") {
		t.Errorf("unknown tag should stay literal, got %q", text)
	}
}

func TestParseUnclosedTagWarns(t *testing.T) {
	result := mustParse(t, "oops [b]no closer")
	if !result.HasWarnings() {
		t.Fatal("unclosed tag should warn")
	}
	text := result.Value.Content.PlainText()
	if !strings.Contains(text, "[b]no closer") {
		t.Errorf("unclosed tag should stay literal, got %q", text)
	}
}

func TestRoundTrip(t *testing.T) {
	input := "[b]bold[/b] and [i]fine[/i]\n\n[quote]\nwise words\n[/quote]\n\n[list]\n[*]one\n[*]two\n[/list]\n"

	doc := mustParse(t, input).Value
	emitted, err := New().Emit(doc, format.EmitOptions{})
	if err != nil {
		t.Fatalf("Emit() error = %v", err)
	}

	again := mustParse(t, string(emitted.Value)).Value
	if got, want := len(again.Content.Children), len(doc.Content.Children); got != want {
		t.Errorf("round-trip blocks = %d, want %d", got, want)
	}
	if got, want := again.Content.PlainText(), doc.Content.PlainText(); got != want {
		t.Errorf("round-trip text:\n got %q\nwant %q", got, want)
	}
}

func TestEmitHeadingDegrades(t *testing.T) {
	doc := ir.NewDocument()
	doc.Content.AppendChild(ir.NewNode(ir.KindHeading).WithPropInt(ir.PropLevel, 1).
		AppendChild(ir.NewText("Title")))

	result, err := New().Emit(doc, format.EmitOptions{})
	if err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	if !strings.Contains(string(result.Value), "[b]Title[/b]") {
		t.Errorf("heading should render bold:\n%s", result.Value)
	}
	if !result.HasWarnings() {
		t.Error("heading degradation should warn")
	}
}
