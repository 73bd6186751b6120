// Package bbcode reads and writes BBCode, the bracket-tag markup used
// by forum software. The dialect covers [b] [i] [u] [s] [url] [img]
// [quote] [code] [list]; unknown tags stay in the text literally and
// warn, since forum dialects disagree on everything past this set.
package bbcode

import (
	"bytes"
	"regexp"
)

// PropUnderline marks a span node carrying BBCode underline styling,
// which has no core inline kind.
const PropUnderline = "bbcode:underline"

// Format reads and writes BBCode.
type Format struct{}

// New creates the bbcode format module.
func New() *Format {
	return &Format{}
}

// Name returns the registry name.
func (f *Format) Name() string {
	return "bbcode"
}

// Extensions returns the file extensions this format claims.
func (f *Format) Extensions() []string {
	return []string{".bbcode", ".bb"}
}

var detectTagPattern = regexp.MustCompile(`\[(b|i|u|s|url|img|quote|code|list)[]=]`)

// Detect reports whether the input looks like BBCode.
func (f *Format) Detect(data []byte) bool {
	return detectTagPattern.Match(bytes.ToLower(data))
}
