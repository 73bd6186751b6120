package ir

// kinds.go - Shared node-kind and property-key vocabulary
// This vocabulary is the de facto wire format between readers and writers:
// two format modules interoperate only insofar as they agree on it, so it
// must stay additive. New kinds and keys may be introduced; existing ones
// must not change meaning. Format modules may also introduce private,
// namespaced kinds ("bibtex:entry") that everything else passes through
// unchanged.

// Core node kinds.
const (
	KindDocument       = "document"
	KindSection        = "section"
	KindHeading        = "heading"
	KindParagraph      = "paragraph"
	KindText           = "text"
	KindEmphasis       = "emphasis"
	KindStrong         = "strong"
	KindStrikeout      = "strikeout"
	KindSuperscript    = "superscript"
	KindSubscript      = "subscript"
	KindCode           = "code"
	KindCodeBlock      = "code_block"
	KindQuoteBlock     = "quote_block"
	KindList           = "list"
	KindListItem       = "list_item"
	KindDefinitionList = "definition_list"
	KindDefinitionItem = "definition_item"
	KindLink           = "link"
	KindImage          = "image"
	KindLineBreak      = "line_break"
	KindThematicBreak  = "thematic_break"
	KindTable          = "table"
	KindTableRow       = "table_row"
	KindTableCell      = "table_cell"
	KindFootnote       = "footnote"
	KindRaw            = "raw"
	KindSpan           = "span"
	KindDiv            = "div"
)

// Core property keys.
const (
	PropText       = "text"
	PropLevel      = "level"
	PropURL        = "url"
	PropTitle      = "title"
	PropLanguage   = "language"
	PropAlt        = "alt"
	PropResourceID = "resource_id"
	PropOrdered    = "ordered"
	PropStart      = "start"
	PropChecked    = "checked"
	PropTerm       = "term"
	PropFormat     = "format"
	PropAlign      = "align"
	PropHeader     = "header"
	PropID         = "id"
	PropClass      = "class"
)

// Core document metadata keys.
const (
	MetaTitle    = "title"
	MetaAuthor   = "author"
	MetaDate     = "date"
	MetaLanguage = "language"
)

// coreKinds is the set of kinds belonging to the core vocabulary.
var coreKinds = map[string]bool{
	KindDocument:       true,
	KindSection:        true,
	KindHeading:        true,
	KindParagraph:      true,
	KindText:           true,
	KindEmphasis:       true,
	KindStrong:         true,
	KindStrikeout:      true,
	KindSuperscript:    true,
	KindSubscript:      true,
	KindCode:           true,
	KindCodeBlock:      true,
	KindQuoteBlock:     true,
	KindList:           true,
	KindListItem:       true,
	KindDefinitionList: true,
	KindDefinitionItem: true,
	KindLink:           true,
	KindImage:          true,
	KindLineBreak:      true,
	KindThematicBreak:  true,
	KindTable:          true,
	KindTableRow:       true,
	KindTableCell:      true,
	KindFootnote:       true,
	KindRaw:            true,
	KindSpan:           true,
	KindDiv:            true,
}

// IsCoreKind returns true if the kind belongs to the core vocabulary.
// Unknown kinds are not invalid; they are format-private extensions that
// default handling passes through.
func IsCoreKind(kind string) bool {
	return coreKinds[kind]
}
