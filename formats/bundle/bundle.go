// Package bundle reads and writes the portable document bundle: a
// compressed tar archive holding the document tree as IR JSON plus
// each binary resource as its own entry. Bundles are the lossless
// interchange container; a document survives a bundle round trip
// byte-for-byte.
//
// Layout inside the tar:
//
//	document.json    the tree, metadata, and resource manifest
//	resources/<id>   raw payload bytes, one entry per resource
//
// The archive is xz-compressed by default; gzip is available through
// EmitOptions.Compression. Readers sniff the compression from the
// magic bytes, so either flavor opens transparently.
package bundle

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/Vellum/core/errors"
	"github.com/FocuswithJustin/Vellum/core/format"
	"github.com/FocuswithJustin/Vellum/core/ir"
	"github.com/FocuswithJustin/Vellum/formats/irjson"
)

// Compression names accepted in EmitOptions.Compression.
const (
	CompressionXZ   = "xz"
	CompressionGzip = "gzip"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	xzMagic   = []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}
)

// Format reads and writes document bundles.
type Format struct{}

// New creates the bundle format module.
func New() *Format {
	return &Format{}
}

// Name returns the registry name.
func (f *Format) Name() string {
	return "bundle"
}

// Extensions returns the file extensions this format claims.
func (f *Format) Extensions() []string {
	return []string{".vbundle"}
}

// Detect reports whether the input starts with a known compression
// magic. Both bundle flavors are compressed streams, so the magic is
// the cheapest reliable signal.
func (f *Format) Detect(data []byte) bool {
	return bytes.HasPrefix(data, xzMagic) || bytes.HasPrefix(data, gzipMagic)
}

var _ format.Reader = (*Format)(nil)
var _ format.Writer = (*Format)(nil)

// Parse opens a bundle and restores the document it holds.
func (f *Format) Parse(data []byte, opts format.ParseOptions) (ir.ConversionResult[*ir.Document], error) {
	var decompressed io.Reader
	switch {
	case bytes.HasPrefix(data, xzMagic):
		r, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return ir.ConversionResult[*ir.Document]{}, &errors.ParseError{Format: "bundle", Message: "opening xz stream", Err: err}
		}
		decompressed = r
	case bytes.HasPrefix(data, gzipMagic):
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return ir.ConversionResult[*ir.Document]{}, &errors.ParseError{Format: "bundle", Message: "opening gzip stream", Err: err}
		}
		defer r.Close()
		decompressed = r
	default:
		return ir.ConversionResult[*ir.Document]{}, errors.NewParse("bundle", "input is neither xz nor gzip compressed")
	}

	var docJSON []byte
	payloads := make(map[ir.ResourceID][]byte)

	tr := tar.NewReader(decompressed)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return ir.ConversionResult[*ir.Document]{}, &errors.ParseError{Format: "bundle", Message: "reading tar entry", Err: err}
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		name := path.Clean(header.Name)
		if strings.HasPrefix(name, "..") {
			continue
		}

		content, err := io.ReadAll(tr)
		if err != nil {
			return ir.ConversionResult[*ir.Document]{}, &errors.ParseError{Format: "bundle",
				Message: fmt.Sprintf("reading entry %s", name), Err: err}
		}

		switch {
		case name == "document.json":
			docJSON = content
		case strings.HasPrefix(name, "resources/"):
			id := ir.ResourceID(strings.TrimPrefix(name, "resources/"))
			payloads[id] = content
		}
	}

	if docJSON == nil {
		return ir.ConversionResult[*ir.Document]{}, errors.NewParse("bundle", "archive has no document.json")
	}

	result, err := irjson.New().Parse(docJSON, opts)
	if err != nil {
		return ir.ConversionResult[*ir.Document]{}, &errors.ParseError{Format: "bundle", Message: "decoding document.json", Err: err}
	}
	doc := result.Value
	doc.Source = "bundle"

	// The manifest inside document.json carries ids and MIME types;
	// payload bytes live in their own tar entries.
	for _, id := range doc.Resources.IDs() {
		res, _ := doc.Resources.Get(id)
		payload, ok := payloads[id]
		if !ok {
			if len(res.Data) > 0 {
				continue
			}
			result.Warn(ir.WarnResourceMissing("", id))
			continue
		}
		res.Data = payload
		doc.Resources.Insert(id, res)
	}
	return result, nil
}

// Emit packs the document into a bundle archive.
func (f *Format) Emit(doc *ir.Document, opts format.EmitOptions) (ir.ConversionResult[[]byte], error) {
	if doc == nil || doc.Content == nil {
		return ir.ConversionResult[[]byte]{}, errors.NewEmit("bundle", "document has no content root")
	}

	// The manifest keeps MIME types only; payloads get their own
	// entries so large assets are not base64-inflated inside the JSON.
	stripped := doc.Clone()
	for _, id := range stripped.Resources.IDs() {
		res, _ := stripped.Resources.Get(id)
		res.Data = nil
		stripped.Resources.Insert(id, res)
	}

	jsonResult, err := irjson.New().Emit(stripped, format.EmitOptions{})
	if err != nil {
		return ir.ConversionResult[[]byte]{}, &errors.EmitError{Format: "bundle", Message: "encoding document.json", Err: err}
	}

	var buf bytes.Buffer
	var compressor io.WriteCloser
	switch opts.Compression {
	case CompressionGzip:
		compressor, err = gzip.NewWriterLevel(&buf, gzip.BestCompression)
		if err != nil {
			return ir.ConversionResult[[]byte]{}, &errors.EmitError{Format: "bundle", Message: "creating gzip writer", Err: err}
		}
	case CompressionXZ, "":
		compressor, err = xz.NewWriter(&buf)
		if err != nil {
			return ir.ConversionResult[[]byte]{}, &errors.EmitError{Format: "bundle", Message: "creating xz writer", Err: err}
		}
	default:
		return ir.ConversionResult[[]byte]{}, errors.NewEmit("bundle",
			fmt.Sprintf("unsupported compression %q", opts.Compression))
	}

	tw := tar.NewWriter(compressor)
	if err := writeEntry(tw, "document.json", jsonResult.Value); err != nil {
		return ir.ConversionResult[[]byte]{}, err
	}
	for _, id := range doc.Resources.IDs() {
		res, _ := doc.Resources.Get(id)
		if err := writeEntry(tw, "resources/"+string(id), res.Data); err != nil {
			return ir.ConversionResult[[]byte]{}, err
		}
	}
	if err := tw.Close(); err != nil {
		return ir.ConversionResult[[]byte]{}, &errors.EmitError{Format: "bundle", Message: "closing tar stream", Err: err}
	}
	if err := compressor.Close(); err != nil {
		return ir.ConversionResult[[]byte]{}, &errors.EmitError{Format: "bundle", Message: "closing compression stream", Err: err}
	}

	result := ir.OK(buf.Bytes())
	result.Warn(jsonResult.Warnings...)
	return result, nil
}

func writeEntry(tw *tar.Writer, name string, data []byte) error {
	header := &tar.Header{
		Name:    name,
		Mode:    0644,
		Size:    int64(len(data)),
		ModTime: time.Unix(0, 0).UTC(),
	}
	if err := tw.WriteHeader(header); err != nil {
		return &errors.EmitError{Format: "bundle", Message: "writing tar header for " + name, Err: err}
	}
	if _, err := tw.Write(data); err != nil {
		return &errors.EmitError{Format: "bundle", Message: "writing tar entry " + name, Err: err}
	}
	return nil
}
