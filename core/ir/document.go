package ir

// Document is the unit of one conversion: a single content tree,
// document-level metadata, the binary assets the tree references, and
// optional provenance.
//
// A Document is constructed once by a reader, may pass through zero or
// more transforms (each producing a new Document value), and is
// consumed once by a writer. It is never persisted and lives only for
// the duration of one conversion.
type Document struct {
	// Content is the root node, by convention of kind "document".
	Content *Node `json:"content"`

	// Meta holds document-level data (title, author, date, language,
	// format-specific extras).
	Meta Properties `json:"meta,omitzero"`

	// Resources holds the binary assets referenced by the tree.
	Resources ResourceMap `json:"resources,omitzero"`

	// Source names the originating format, informational only.
	Source string `json:"source,omitempty"`
}

// NewDocument creates a Document with an empty root node of kind
// "document".
func NewDocument() *Document {
	return &Document{Content: NewNode(KindDocument)}
}

// Clone returns a deep copy of the document. The content tree and
// metadata are copied; resource payload bytes are shared since
// resources are immutable once inserted.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	return &Document{
		Content:   d.Content.Clone(),
		Meta:      d.Meta.Clone(),
		Resources: d.Resources.Clone(),
		Source:    d.Source,
	}
}

// Title returns the document title from metadata, or "" if unset.
func (d *Document) Title() string {
	s, _ := d.Meta.GetString(MetaTitle)
	return s
}
