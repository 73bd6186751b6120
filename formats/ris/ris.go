// Package ris reads and writes RIS, the line-tagged bibliography
// format ("TY  - JOUR" ... "ER  - "). Records map onto the same
// bibliography vocabulary the bibtex module defines, so RIS and
// BibTeX interconvert through the IR without a dedicated bridge.
package ris

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/FocuswithJustin/Vellum/core/encoding"
	"github.com/FocuswithJustin/Vellum/core/errors"
	"github.com/FocuswithJustin/Vellum/core/format"
	"github.com/FocuswithJustin/Vellum/core/ir"
	"github.com/FocuswithJustin/Vellum/formats/bibtex"
)

// Format reads and writes RIS.
type Format struct{}

// New creates the ris format module.
func New() *Format {
	return &Format{}
}

// Name returns the registry name.
func (f *Format) Name() string {
	return "ris"
}

// Extensions returns the file extensions this format claims.
func (f *Format) Extensions() []string {
	return []string{".ris"}
}

var tagLinePattern = regexp.MustCompile(`^([A-Z][A-Z0-9])  - ?(.*)$`)

// Detect reports whether the input looks like RIS.
func (f *Format) Detect(data []byte) bool {
	for _, line := range bytes.Split(data, []byte("\n")) {
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 {
			continue
		}
		return bytes.HasPrefix(trimmed, []byte("TY  -"))
	}
	return false
}

// typeToBibtex maps RIS reference types to BibTeX entry types.
var typeToBibtex = map[string]string{
	"JOUR":   "article",
	"BOOK":   "book",
	"CHAP":   "incollection",
	"CONF":   "inproceedings",
	"CPAPER": "inproceedings",
	"THES":   "phdthesis",
	"RPRT":   "techreport",
	"UNPB":   "unpublished",
	"GEN":    "misc",
	"ELEC":   "misc",
}

// bibtexToType is the reverse mapping, first match wins.
var bibtexToType = map[string]string{
	"article":       "JOUR",
	"book":          "BOOK",
	"incollection":  "CHAP",
	"inproceedings": "CONF",
	"phdthesis":     "THES",
	"mastersthesis": "THES",
	"techreport":    "RPRT",
	"unpublished":   "UNPB",
	"misc":          "GEN",
}

// tagToField maps RIS tags to BibTeX field names.
var tagToField = map[string]string{
	"TI": "title",
	"T1": "title",
	"JO": "journal",
	"JF": "journal",
	"T2": "journal",
	"PY": "year",
	"Y1": "year",
	"VL": "volume",
	"IS": "number",
	"PB": "publisher",
	"UR": "url",
	"DO": "doi",
	"SN": "issn",
	"AB": "abstract",
	"KW": "keywords",
	"CY": "address",
	"ET": "edition",
}

// fieldToTag is the emission mapping from BibTeX field names.
var fieldToTag = map[string]string{
	"title":     "TI",
	"journal":   "JO",
	"year":      "PY",
	"volume":    "VL",
	"number":    "IS",
	"publisher": "PB",
	"url":       "UR",
	"doi":       "DO",
	"issn":      "SN",
	"abstract":  "AB",
	"keywords":  "KW",
	"address":   "CY",
	"edition":   "ET",
}

// Parse converts RIS input into a document of bibliography entries.
func (f *Format) Parse(data []byte, opts format.ParseOptions) (ir.ConversionResult[*ir.Document], error) {
	text, _, err := encoding.Decode(data, opts.Charset)
	if err != nil {
		return ir.ConversionResult[*ir.Document]{}, &errors.ParseError{Format: "ris", Message: "cannot decode input", Err: err}
	}

	doc := ir.NewDocument()
	doc.Source = "ris"
	result := ir.OK(doc)

	var entry *ir.Node
	var authors []string
	var startPage, endPage string
	entrySeq := 0

	finish := func(line int) error {
		if entry == nil {
			return errors.NewParseAt("ris", line, "ER tag without a preceding TY")
		}
		if len(authors) > 0 {
			entry.Props.SetString(bibtex.FieldProp("author"), strings.Join(authors, " and "))
		}
		if startPage != "" {
			pages := startPage
			if endPage != "" {
				pages += "--" + endPage
			}
			entry.Props.SetString(bibtex.FieldProp("pages"), pages)
		}
		doc.Content.AppendChild(entry)
		entry, authors, startPage, endPage = nil, nil, "", ""
		return nil
	}

	lines := strings.Split(text, "\n")
	sawRecord := false
	for i, raw := range lines {
		line := strings.TrimRight(raw, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		m := tagLinePattern.FindStringSubmatch(line)
		if m == nil {
			if entry == nil {
				return ir.ConversionResult[*ir.Document]{}, errors.NewParseAt("ris", i+1,
					fmt.Sprintf("line %q is not a tagged RIS line", strings.TrimSpace(line)))
			}
			result.Warn(ir.NewWarning(ir.SeverityMinor, ir.WarningDataDropped, "",
				fmt.Sprintf("untagged continuation line %d dropped", i+1)))
			continue
		}
		tag, value := m[1], strings.TrimSpace(m[2])

		switch tag {
		case "TY":
			if entry != nil {
				result.Warn(ir.NewWarning(ir.SeverityMajor, ir.WarningDataDropped, "",
					fmt.Sprintf("record before line %d has no ER terminator", i+1)))
				if err := finish(i + 1); err != nil {
					return ir.ConversionResult[*ir.Document]{}, err
				}
			}
			sawRecord = true
			entrySeq++
			entryType, ok := typeToBibtex[value]
			if !ok {
				entryType = "misc"
				result.Warn(ir.WarnFeatureLost("", "reference type "+value,
					"mapped to misc"))
			}
			entry = ir.NewNode(bibtex.KindEntry).
				WithPropString(bibtex.PropType, entryType).
				WithPropString(bibtex.PropKey, fmt.Sprintf("ris-%d", entrySeq))

		case "ER":
			if err := finish(i + 1); err != nil {
				return ir.ConversionResult[*ir.Document]{}, err
			}

		case "ID":
			if entry == nil {
				return ir.ConversionResult[*ir.Document]{}, errors.NewParseAt("ris", i+1,
					fmt.Sprintf("tag %s before TY", tag))
			}
			if value != "" {
				entry.Props.SetString(bibtex.PropKey, value)
			}

		case "AU", "A1", "A2":
			if entry == nil {
				return ir.ConversionResult[*ir.Document]{}, errors.NewParseAt("ris", i+1,
					fmt.Sprintf("tag %s before TY", tag))
			}
			if value != "" {
				authors = append(authors, value)
			}

		case "SP", "EP":
			if entry == nil {
				return ir.ConversionResult[*ir.Document]{}, errors.NewParseAt("ris", i+1,
					fmt.Sprintf("tag %s before TY", tag))
			}
			if tag == "SP" {
				startPage = value
			} else {
				endPage = value
			}

		default:
			if entry == nil {
				return ir.ConversionResult[*ir.Document]{}, errors.NewParseAt("ris", i+1,
					fmt.Sprintf("tag %s before TY", tag))
			}
			field, ok := tagToField[tag]
			if !ok {
				result.Warn(ir.NewWarning(ir.SeverityMinor, ir.WarningFeatureLost, "",
					fmt.Sprintf("RIS tag %s has no field mapping; dropped", tag)))
				continue
			}
			if field == "year" {
				// PY values may carry "/month/day" detail.
				value = strings.SplitN(value, "/", 2)[0]
			}
			appendField(entry, bibtex.FieldProp(field), value)
		}
	}

	if entry != nil {
		result.Warn(ir.NewWarning(ir.SeverityMajor, ir.WarningDataDropped, "",
			"final record has no ER terminator"))
		if err := finish(len(lines)); err != nil {
			return ir.ConversionResult[*ir.Document]{}, err
		}
	}
	if !sawRecord {
		return ir.ConversionResult[*ir.Document]{}, errors.NewParse("ris", "no TY record found")
	}
	return result, nil
}

// appendField sets a field, joining repeated tags with "; ".
func appendField(entry *ir.Node, key, value string) {
	if value == "" {
		return
	}
	if existing, ok := entry.Props.GetString(key); ok && existing != "" {
		entry.Props.SetString(key, existing+"; "+value)
		return
	}
	entry.Props.SetString(key, value)
}

// Emit renders the document's bibliography entries as RIS records.
func (f *Format) Emit(doc *ir.Document, opts format.EmitOptions) (ir.ConversionResult[[]byte], error) {
	if doc == nil || doc.Content == nil {
		return ir.ConversionResult[[]byte]{}, errors.NewEmit("ris", "document has no content root")
	}

	var warnings []ir.FidelityWarning
	var entries []*ir.Node
	ir.Walk(doc.Content, func(n *ir.Node, path string) error {
		if n.Kind == bibtex.KindEntry {
			entries = append(entries, n)
			return ir.SkipChildren
		}
		if n.Kind != ir.KindDocument && n.Kind != ir.KindSection && n.Kind != ir.KindDiv {
			warnings = append(warnings, ir.WarnDataDropped(path, n.Kind+" node",
				"RIS carries only bibliography entries"))
			return ir.SkipChildren
		}
		return nil
	})

	if len(entries) == 0 {
		return ir.ConversionResult[[]byte]{}, errors.NewEmit("ris", "document has no bibliography entries")
	}

	var sb strings.Builder
	for i, entry := range entries {
		if i > 0 {
			sb.WriteString("\n")
		}
		emitEntry(&sb, entry, &warnings)
	}

	result := ir.OK([]byte(sb.String()))
	result.Warn(warnings...)
	return result, nil
}

func emitEntry(sb *strings.Builder, entry *ir.Node, warnings *[]ir.FidelityWarning) {
	entryType, _ := entry.Props.GetString(bibtex.PropType)
	risType, ok := bibtexToType[entryType]
	if !ok {
		risType = "GEN"
		*warnings = append(*warnings, ir.WarnFeatureLost("", "entry type "+entryType,
			"mapped to GEN"))
	}
	writeTag(sb, "TY", risType)

	if key, ok := entry.Props.GetString(bibtex.PropKey); ok && key != "" {
		writeTag(sb, "ID", key)
	}

	entry.Props.Iterate(func(propKey string, v ir.Value) bool {
		field, isField := strings.CutPrefix(propKey, bibtex.FieldProp(""))
		if !isField || propKey == bibtex.PropType || propKey == bibtex.PropKey {
			return true
		}
		value := v.String()
		switch field {
		case "author":
			for _, author := range strings.Split(value, " and ") {
				writeTag(sb, "AU", strings.TrimSpace(author))
			}
		case "pages":
			start, end, _ := strings.Cut(value, "--")
			writeTag(sb, "SP", strings.TrimSpace(start))
			if end != "" {
				writeTag(sb, "EP", strings.TrimSpace(end))
			}
		default:
			tag, mapped := fieldToTag[field]
			if !mapped {
				*warnings = append(*warnings, ir.WarnFeatureLost("",
					"field "+field, "no RIS tag; dropped"))
				return true
			}
			writeTag(sb, tag, value)
		}
		return true
	})

	sb.WriteString("ER  - \n")
}

func writeTag(sb *strings.Builder, tag, value string) {
	sb.WriteString(tag + "  - " + value + "\n")
}
