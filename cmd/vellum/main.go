// Command vellum converts documents between formats through a shared
// intermediate representation. Converted output goes to stdout or
// --out; logs and fidelity warnings go to stderr.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"

	"github.com/FocuswithJustin/Vellum/core/format"
	"github.com/FocuswithJustin/Vellum/core/ir"
	"github.com/FocuswithJustin/Vellum/core/sqlite"
	"github.com/FocuswithJustin/Vellum/core/transform"
	"github.com/FocuswithJustin/Vellum/formats"
	"github.com/FocuswithJustin/Vellum/formats/plain"
	"github.com/FocuswithJustin/Vellum/internal/logging"
	"github.com/FocuswithJustin/Vellum/internal/validation"
)

const version = "0.1.0"

// CLI defines the command-line interface for vellum.
var CLI struct {
	// Global flags
	LogLevel  string `name:"log-level" default:"warn" enum:"debug,info,warn,error" help:"Log verbosity (debug, info, warn, error)"`
	LogFormat string `name:"log-format" default:"text" enum:"text,json" help:"Log output format (text, json)"`
	NoColor   bool   `name:"no-color" help:"Disable colored warning output"`

	Convert ConvertCmd `cmd:"" help:"Convert a document to another format"`
	Detect  DetectCmd  `cmd:"" help:"Detect the format of a file"`
	Formats FormatsCmd `cmd:"" help:"List supported formats"`
	Inspect InspectCmd `cmd:"" help:"Show the structure of a document"`
	Compare CompareCmd `cmd:"" help:"Compare the text content of two documents"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// newRegistry builds a registry with every built-in format.
func newRegistry() *format.Registry {
	reg := format.NewRegistry()
	formats.Register(reg)
	return reg
}

// readInput reads a file, or stdin when the path is "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(io.LimitReader(os.Stdin, validation.MaxInputSize+1))
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		if err := validation.ValidateInputSize(len(data)); err != nil {
			return nil, err
		}
		return data, nil
	}
	if err := validation.ValidatePath(path); err != nil {
		return nil, fmt.Errorf("invalid input path: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := validation.ValidateInputSize(len(data)); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}

// detectReader picks the reader for a path, honoring an explicit
// format name first.
func detectReader(reg *format.Registry, explicit, path string, data []byte) (format.Reader, error) {
	if explicit != "" {
		return reg.Reader(explicit)
	}
	filename := path
	if filename == "-" {
		filename = ""
	}
	reader, err := reg.DetectReader(filename, data)
	if err != nil {
		return nil, fmt.Errorf("cannot determine input format (use --from): %w", err)
	}
	logging.FormatDetected(reader.Name(), "auto")
	return reader, nil
}

var (
	minorColor = color.New(color.FgYellow)
	majorColor = color.New(color.FgRed)
)

// printWarnings renders fidelity warnings to stderr, color-coded by
// severity when stderr is a terminal.
func printWarnings(warnings []ir.FidelityWarning) {
	if len(warnings) == 0 {
		return
	}
	for _, w := range warnings {
		line := fmt.Sprintf("warning [%s/%s]", w.Severity, w.Kind)
		if w.Path != "" {
			line += " at " + w.Path
		}
		line += ": " + w.Message
		switch w.Severity {
		case ir.SeverityMajor:
			majorColor.Fprintln(os.Stderr, line)
		default:
			minorColor.Fprintln(os.Stderr, line)
		}
	}
	fmt.Fprintf(os.Stderr, "%d warning(s)\n", len(warnings))
}

// ConvertCmd converts one document.
type ConvertCmd struct {
	Input string `arg:"" help:"Input file, or - for stdin"`
	From  string `help:"Input format (default: detect from extension or content)"`
	To    string `required:"" help:"Output format"`
	Out   string `help:"Output file (default: stdout)" type:"path"`

	EmbedResources bool   `name:"embed-resources" help:"Inline referenced binaries into the document's resource map"`
	SourceInfo     bool   `name:"source-info" help:"Track source byte offsets on parsed nodes"`
	Charset        string `help:"Input charset (utf-8, utf-16, latin-1, windows-1252; default: detect)"`
	Standalone     bool   `help:"Emit a complete document rather than a fragment"`
	Compression    string `help:"Container compression for formats that have one (xz, gzip)"`
	OutputCharset  string `name:"output-charset" help:"Output charset for text formats that honor it (default: utf-8)"`

	ShiftHeadings int64 `name:"shift-headings" help:"Shift heading levels by N (clamped to 1..6)"`
	StripEmpty    bool  `name:"strip-empty" help:"Remove empty text nodes and emptied containers"`
	MergeText     bool  `name:"merge-text" help:"Coalesce adjacent text nodes"`
	Unwrap        bool  `name:"unwrap" help:"Collapse single-child wrapper containers"`
}

// pipeline assembles the requested transforms in canonical order:
// shift, strip, merge, unwrap.
func (c *ConvertCmd) pipeline() *transform.Pipeline {
	p := transform.NewPipeline()
	if c.ShiftHeadings != 0 {
		p.Then(transform.NewShiftHeadings(c.ShiftHeadings))
		logging.TransformApplied("shift_headings", "delta", c.ShiftHeadings)
	}
	if c.StripEmpty {
		p.Then(transform.StripEmpty{})
		logging.TransformApplied("strip_empty")
	}
	if c.MergeText {
		p.Then(transform.MergeText{})
		logging.TransformApplied("merge_text")
	}
	if c.Unwrap {
		p.Then(transform.UnwrapSingleChild{})
		logging.TransformApplied("unwrap_single_child")
	}
	if p.Len() == 0 {
		return nil
	}
	return p
}

func (c *ConvertCmd) Run() error {
	reg := newRegistry()
	data, err := readInput(c.Input)
	if err != nil {
		return err
	}
	reader, err := detectReader(reg, c.From, c.Input, data)
	if err != nil {
		return err
	}

	opts := format.ConvertOptions{
		Parse: format.ParseOptions{
			PreserveSourceInfo: c.SourceInfo,
			EmbedResources:     c.EmbedResources,
			Charset:            c.Charset,
		},
		Emit: format.EmitOptions{
			Standalone:  c.Standalone,
			Compression: c.Compression,
			Charset:     c.OutputCharset,
		},
	}
	if p := c.pipeline(); p != nil {
		opts.Transform = p
	}

	logging.ConversionStart(reader.Name(), c.To, len(data))
	start := time.Now()
	result, err := reg.Convert(reader.Name(), c.To, data, opts)
	if err != nil {
		logging.ConversionError(reader.Name(), c.To, err)
		return err
	}
	logging.ConversionDone(reader.Name(), c.To, len(result.Value), len(result.Warnings), time.Since(start))
	printWarnings(result.Warnings)

	if c.Out == "" || c.Out == "-" {
		_, err = os.Stdout.Write(result.Value)
		return err
	}
	if err := validation.ValidatePath(c.Out); err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}
	if err := os.WriteFile(c.Out, result.Value, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", c.Out, err)
	}
	return nil
}

// DetectCmd reports the detected format of a file.
type DetectCmd struct {
	Input string `arg:"" help:"Input file, or - for stdin"`
}

func (c *DetectCmd) Run() error {
	reg := newRegistry()
	data, err := readInput(c.Input)
	if err != nil {
		return err
	}
	reader, err := detectReader(reg, "", c.Input, data)
	if err != nil {
		return err
	}
	fmt.Println(reader.Name())
	return nil
}

// FormatsCmd lists the registered formats and their capabilities.
type FormatsCmd struct{}

func (c *FormatsCmd) Run() error {
	reg := newRegistry()

	names := make(map[string]bool)
	for _, n := range reg.ReaderNames() {
		names[n] = true
	}
	for _, n := range reg.WriterNames() {
		names[n] = true
	}
	sorted := make([]string, 0, len(names))
	for n := range names {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	fmt.Printf("%-12s %-6s %s\n", "FORMAT", "OPS", "EXTENSIONS")
	for _, name := range sorted {
		var ops string
		var exts []string
		if reg.HasReader(name) {
			ops += "R"
			rd, _ := reg.Reader(name)
			exts = rd.Extensions()
		}
		if reg.HasWriter(name) {
			ops += "W"
			if exts == nil {
				w, _ := reg.Writer(name)
				exts = w.Extensions()
			}
		}
		fmt.Printf("%-12s %-6s %s\n", name, ops, strings.Join(exts, " "))
	}
	return nil
}

// InspectCmd summarizes a parsed document.
type InspectCmd struct {
	Input string `arg:"" help:"Input file, or - for stdin"`
	From  string `help:"Input format (default: detect)"`
	JSON  bool   `help:"Emit the summary as JSON"`
}

// inspection is the JSON shape of an inspect run.
type inspection struct {
	Format    string         `json:"format"`
	Title     string         `json:"title,omitempty"`
	Nodes     int            `json:"nodes"`
	Kinds     map[string]int `json:"kinds"`
	Resources []resourceInfo `json:"resources,omitempty"`
	Warnings  int            `json:"warnings"`
}

type resourceInfo struct {
	ID       string `json:"id"`
	MIMEType string `json:"mime_type"`
	Size     int    `json:"size"`
}

func (c *InspectCmd) Run() error {
	reg := newRegistry()
	data, err := readInput(c.Input)
	if err != nil {
		return err
	}
	reader, err := detectReader(reg, c.From, c.Input, data)
	if err != nil {
		return err
	}
	result, err := reader.Parse(data, format.DefaultParseOptions())
	if err != nil {
		return err
	}
	doc := result.Value

	info := inspection{
		Format:   reader.Name(),
		Title:    doc.Title(),
		Kinds:    make(map[string]int),
		Warnings: len(result.Warnings),
	}
	ir.Walk(doc.Content, func(n *ir.Node, path string) error {
		info.Nodes++
		info.Kinds[n.Kind]++
		return nil
	})
	for _, id := range doc.Resources.IDs() {
		res, _ := doc.Resources.Get(id)
		info.Resources = append(info.Resources, resourceInfo{
			ID:       string(id),
			MIMEType: res.MIMEType,
			Size:     len(res.Data),
		})
	}

	if c.JSON {
		out, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Printf("Format:   %s\n", info.Format)
	if info.Title != "" {
		fmt.Printf("Title:    %s\n", info.Title)
	}
	fmt.Printf("Nodes:    %d\n", info.Nodes)
	kinds := make([]string, 0, len(info.Kinds))
	for k := range info.Kinds {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Printf("  %-20s %d\n", k, info.Kinds[k])
	}
	if len(info.Resources) > 0 {
		fmt.Printf("Resources:\n")
		for _, r := range info.Resources {
			fmt.Printf("  %s  %s  %d bytes\n", r.ID, r.MIMEType, r.Size)
		}
	}
	printWarnings(result.Warnings)
	return nil
}

// CompareCmd diffs the plain-text rendering of two documents. Useful
// for checking what a conversion kept: compare the original against
// its converted output regardless of the two formats involved.
type CompareCmd struct {
	A    string `arg:"" help:"First file"`
	B    string `arg:"" help:"Second file"`
	From string `help:"Force the same input format for both files"`
}

func (c *CompareCmd) Run() error {
	reg := newRegistry()
	renderText := func(path string) (string, error) {
		data, err := readInput(path)
		if err != nil {
			return "", err
		}
		reader, err := detectReader(reg, c.From, path, data)
		if err != nil {
			return "", err
		}
		parsed, err := reader.Parse(data, format.DefaultParseOptions())
		if err != nil {
			return "", fmt.Errorf("%s: %w", path, err)
		}
		rendered, err := plain.NewWriter().Emit(parsed.Value, format.DefaultEmitOptions())
		if err != nil {
			return "", fmt.Errorf("%s: %w", path, err)
		}
		return string(rendered.Value), nil
	}

	textA, err := renderText(c.A)
	if err != nil {
		return err
	}
	textB, err := renderText(c.B)
	if err != nil {
		return err
	}

	if textA == textB {
		fmt.Println("documents are textually identical")
		return nil
	}

	dmp := diffpatch.New()
	diffs := dmp.DiffMain(textA, textB, true)
	diffs = dmp.DiffCleanupSemantic(diffs)

	ins := color.New(color.FgGreen)
	del := color.New(color.FgRed)
	for _, d := range diffs {
		switch d.Type {
		case diffpatch.DiffInsert:
			ins.Printf("+%s", d.Text)
		case diffpatch.DiffDelete:
			del.Printf("-%s", d.Text)
		default:
			fmt.Print(d.Text)
		}
	}
	fmt.Println()
	return nil
}

// VersionCmd prints version and build information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("vellum %s\n", version)
	info := sqlite.GetInfo()
	fmt.Printf("sqlite driver: %s (%s)\n", info.DriverName, info.DriverType)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("vellum"),
		kong.Description("Vellum - document conversion through a shared intermediate representation"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	logging.InitLogger(logging.ParseLevel(CLI.LogLevel), parseLogFormat(CLI.LogFormat))
	if CLI.NoColor || !isatty.IsTerminal(os.Stderr.Fd()) {
		color.NoColor = true
	}

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

func parseLogFormat(name string) logging.Format {
	if name == "json" {
		return logging.FormatJSON
	}
	return logging.FormatText
}
