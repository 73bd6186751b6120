// Package epub writes EPUB 3 books. The document is split into
// chapters at level-1 headings, each chapter body is rendered by the
// html writer, and the pieces are packed into the standard EPUB zip
// layout (uncompressed mimetype entry first, then META-INF and OEBPS).
package epub

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/Vellum/core/encoding"
	"github.com/FocuswithJustin/Vellum/core/errors"
	"github.com/FocuswithJustin/Vellum/core/format"
	"github.com/FocuswithJustin/Vellum/core/ir"
	"github.com/FocuswithJustin/Vellum/formats/html"
)

// MetaCover names the document metadata key holding the resource id of
// the cover image.
const MetaCover = "epub:cover"

// Writer emits EPUB 3.
type Writer struct{}

// NewWriter creates the epub writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Name returns the registry name.
func (w *Writer) Name() string {
	return "epub"
}

// Extensions returns the file extensions this format claims.
func (w *Writer) Extensions() []string {
	return []string{".epub"}
}

var _ format.Writer = (*Writer)(nil)

// chapter is one spine item before rendering.
type chapter struct {
	title  string
	blocks []*ir.Node
}

// Emit builds the EPUB archive.
func (w *Writer) Emit(doc *ir.Document, opts format.EmitOptions) (ir.ConversionResult[[]byte], error) {
	if doc == nil || doc.Content == nil {
		return ir.ConversionResult[[]byte]{}, errors.NewEmit("epub", "document has no content root")
	}

	chapters := splitChapters(doc)
	if len(chapters) == 0 {
		return ir.ConversionResult[[]byte]{}, errors.NewEmit("epub", "document is empty")
	}

	var warnings []ir.FidelityWarning
	htmlWriter := html.NewWriter()
	bodies := make([]string, len(chapters))
	for i, ch := range chapters {
		chapterDoc := &ir.Document{
			Content:   ir.NewNode(ir.KindDocument).AppendChildren(ch.blocks...),
			Meta:      doc.Meta,
			Resources: doc.Resources,
			Source:    doc.Source,
		}
		rendered, err := htmlWriter.Emit(chapterDoc, format.EmitOptions{})
		if err != nil {
			return ir.ConversionResult[[]byte]{}, &errors.EmitError{Format: "epub",
				Message: fmt.Sprintf("rendering chapter %d", i+1), Err: err}
		}
		warnings = append(warnings, rendered.Warnings...)
		bodies[i] = toXHTML(string(rendered.Value))
	}

	cover, coverMime := coverImage(doc, &warnings)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	// The mimetype entry must come first and stay uncompressed.
	mimetypeWriter, err := zw.CreateHeader(&zip.FileHeader{
		Name:   "mimetype",
		Method: zip.Store,
	})
	if err != nil {
		return ir.ConversionResult[[]byte]{}, wrapEmit(err)
	}
	if _, err := mimetypeWriter.Write([]byte("application/epub+zip")); err != nil {
		return ir.ConversionResult[[]byte]{}, wrapEmit(err)
	}

	meta := bookMetadata(doc)
	steps := []func(*zip.Writer) error{
		addContainerXML,
		func(zw *zip.Writer) error { return addContentOPF(zw, meta, chapters, coverMime) },
		func(zw *zip.Writer) error { return addNav(zw, meta, chapters) },
		addCSS,
	}
	if len(cover) > 0 {
		steps = append(steps, func(zw *zip.Writer) error { return addCover(zw, cover, coverMime) })
	}
	for i := range chapters {
		i := i
		steps = append(steps, func(zw *zip.Writer) error {
			return addChapter(zw, i, chapters[i].title, bodies[i])
		})
	}
	for _, step := range steps {
		if err := step(zw); err != nil {
			return ir.ConversionResult[[]byte]{}, wrapEmit(err)
		}
	}
	if err := zw.Close(); err != nil {
		return ir.ConversionResult[[]byte]{}, wrapEmit(err)
	}

	result := ir.OK(buf.Bytes())
	result.Warn(warnings...)
	return result, nil
}

func wrapEmit(err error) error {
	return &errors.EmitError{Format: "epub", Message: "writing archive", Err: err}
}

// splitChapters flattens the block sequence (sections are transparent)
// and cuts it at level-1 headings. Content before the first heading
// becomes a front-matter chapter.
func splitChapters(doc *ir.Document) []chapter {
	var blocks []*ir.Node
	var flatten func(nodes []*ir.Node)
	flatten = func(nodes []*ir.Node) {
		for _, n := range nodes {
			if n.Kind == ir.KindSection {
				flatten(n.Children)
				continue
			}
			blocks = append(blocks, n)
		}
	}
	flatten(doc.Content.Children)

	var chapters []chapter
	var current *chapter
	for _, block := range blocks {
		level, _ := block.Props.GetInt(ir.PropLevel)
		if block.Kind == ir.KindHeading && level <= 1 {
			chapters = append(chapters, chapter{title: block.PlainText()})
			current = &chapters[len(chapters)-1]
			continue
		}
		if current == nil {
			title := doc.Title()
			if title == "" {
				title = "Front Matter"
			}
			chapters = append(chapters, chapter{title: title})
			current = &chapters[len(chapters)-1]
		}
		current.blocks = append(current.blocks, block)
	}
	return chapters
}

// coverImage resolves the cover resource, if any.
func coverImage(doc *ir.Document, warnings *[]ir.FidelityWarning) ([]byte, string) {
	idStr, ok := doc.Meta.GetString(MetaCover)
	if !ok || idStr == "" {
		return nil, ""
	}
	res, ok := doc.Resources.Get(ir.ResourceID(idStr))
	if !ok {
		*warnings = append(*warnings, ir.WarnResourceMissing("", ir.ResourceID(idStr)))
		return nil, ""
	}
	return res.Data, res.MIMEType
}

type bookMeta struct {
	title      string
	author     string
	language   string
	identifier string
	date       string
}

func bookMetadata(doc *ir.Document) bookMeta {
	m := bookMeta{
		title:      doc.Title(),
		language:   "en",
		identifier: "urn:uuid:" + uuid.NewString(),
		date:       time.Now().UTC().Format("2006-01-02"),
	}
	if m.title == "" {
		m.title = "Untitled"
	}
	if author, ok := doc.Meta.GetString(ir.MetaAuthor); ok {
		m.author = author
	}
	if lang, ok := doc.Meta.GetString(ir.MetaLanguage); ok && lang != "" {
		m.language = lang
	}
	if date, ok := doc.Meta.GetString(ir.MetaDate); ok && date != "" {
		m.date = date
	}
	return m
}

// xhtmlVoid closes the void elements the html writer emits in HTML5
// style; EPUB content documents are XHTML.
var xhtmlVoid = regexp.MustCompile(`<(img|br|hr)((?:[^<>"]|"[^"]*")*)>`)

func toXHTML(body string) string {
	return xhtmlVoid.ReplaceAllString(body, "<$1$2/>")
}

func addContainerXML(zw *zip.Writer) error {
	w, err := zw.Create("META-INF/container.xml")
	if err != nil {
		return err
	}
	container := `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`
	_, err = w.Write([]byte(container))
	return err
}

func addContentOPF(zw *zip.Writer, meta bookMeta, chapters []chapter, coverMime string) error {
	w, err := zw.Create("OEBPS/content.opf")
	if err != nil {
		return err
	}

	var manifest strings.Builder
	var spine strings.Builder
	manifest.WriteString(`    <item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>` + "\n")
	manifest.WriteString(`    <item id="style" href="style.css" media-type="text/css"/>` + "\n")
	if coverMime != "" {
		manifest.WriteString(fmt.Sprintf(`    <item id="cover-image" href="images/cover.%s" media-type="%s" properties="cover-image"/>`,
			coverExt(coverMime), coverMime) + "\n")
	}
	for i := range chapters {
		id := fmt.Sprintf("chapter%d", i+1)
		manifest.WriteString(fmt.Sprintf(`    <item id="%s" href="text/%s.xhtml" media-type="application/xhtml+xml"/>`, id, id) + "\n")
		spine.WriteString(fmt.Sprintf(`    <itemref idref="%s"/>`, id) + "\n")
	}

	var author string
	if meta.author != "" {
		author = "    <dc:creator>" + encoding.EscapeXMLText(meta.author) + "</dc:creator>\n"
	}
	opf := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="BookId">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:identifier id="BookId">%s</dc:identifier>
    <dc:title>%s</dc:title>
%s    <dc:language>%s</dc:language>
    <dc:date>%s</dc:date>
    <meta property="dcterms:modified">%s</meta>
  </metadata>
  <manifest>
%s  </manifest>
  <spine>
%s  </spine>
</package>`,
		encoding.EscapeXMLText(meta.identifier),
		encoding.EscapeXMLText(meta.title),
		author,
		encoding.EscapeXMLText(meta.language),
		encoding.EscapeXMLText(meta.date),
		time.Now().UTC().Format("2006-01-02T15:04:05Z"),
		manifest.String(),
		spine.String(),
	)
	_, err = w.Write([]byte(opf))
	return err
}

func addNav(zw *zip.Writer, meta bookMeta, chapters []chapter) error {
	w, err := zw.Create("OEBPS/nav.xhtml")
	if err != nil {
		return err
	}

	var items strings.Builder
	for i, ch := range chapters {
		items.WriteString(fmt.Sprintf("      <li><a href=\"text/chapter%d.xhtml\">%s</a></li>\n",
			i+1, encoding.EscapeXMLText(ch.title)))
	}

	nav := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">
<head>
  <title>%s</title>
  <link rel="stylesheet" type="text/css" href="style.css"/>
</head>
<body>
  <nav epub:type="toc" id="toc">
    <h1>Contents</h1>
    <ol>
%s    </ol>
  </nav>
</body>
</html>`, encoding.EscapeXMLText(meta.title), items.String())

	_, err = w.Write([]byte(nav))
	return err
}

func addCSS(zw *zip.Writer) error {
	w, err := zw.Create("OEBPS/style.css")
	if err != nil {
		return err
	}
	css := `body {
  font-family: serif;
  margin: 1em;
  line-height: 1.6;
}
h1, h2, h3 {
  font-family: sans-serif;
}
p {
  margin: 0.5em 0;
}
img {
  max-width: 100%;
}
`
	_, err = w.Write([]byte(css))
	return err
}

func coverExt(mime string) string {
	if strings.Contains(mime, "png") {
		return "png"
	}
	return "jpg"
}

func addCover(zw *zip.Writer, data []byte, mime string) error {
	w, err := zw.Create("OEBPS/images/cover." + coverExt(mime))
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func addChapter(zw *zip.Writer, index int, title, body string) error {
	w, err := zw.Create(fmt.Sprintf("OEBPS/text/chapter%d.xhtml", index+1))
	if err != nil {
		return err
	}

	xhtml := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <title>%s</title>
  <link rel="stylesheet" type="text/css" href="../style.css"/>
</head>
<body>
  <h1>%s</h1>
%s</body>
</html>`,
		encoding.EscapeXMLText(title),
		encoding.EscapeXMLText(title),
		body,
	)
	_, err = w.Write([]byte(xhtml))
	return err
}
