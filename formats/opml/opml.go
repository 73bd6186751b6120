// Package opml reads and writes OPML 2.0 outlines. Each outline
// element becomes a section holding a heading at the outline's depth;
// leaf paragraphs become child outlines on the way back out.
package opml

import (
	"bytes"

	"github.com/FocuswithJustin/Vellum/core/format"
)

// Format reads and writes OPML.
type Format struct{}

// New creates the opml format module.
func New() *Format {
	return &Format{}
}

// Name returns the registry name.
func (f *Format) Name() string {
	return "opml"
}

// Extensions returns the file extensions this format claims.
func (f *Format) Extensions() []string {
	return []string{".opml"}
}

// Detect reports whether the input looks like an OPML document.
func (f *Format) Detect(data []byte) bool {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.Contains(head, []byte("<opml"))
}

var _ format.Reader = (*Format)(nil)
var _ format.Writer = (*Format)(nil)

// Attribute carry-over props. OPML outlines may carry type and link
// attributes that have no general IR equivalent; they ride along as
// namespaced props so opml-to-opml conversion keeps them.
const (
	PropOutlineType = "opml:type"
	PropXMLURL      = "opml:xmlUrl"
	PropHTMLURL     = "opml:htmlUrl"
)
