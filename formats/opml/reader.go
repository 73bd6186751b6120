package opml

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/Vellum/core/errors"
	"github.com/FocuswithJustin/Vellum/core/format"
	"github.com/FocuswithJustin/Vellum/core/ir"
	"github.com/FocuswithJustin/Vellum/core/xml"
)

// Parse converts an OPML outline into a section tree. Every outline
// element maps to a section whose first child is a heading at the
// outline's nesting depth.
func (f *Format) Parse(data []byte, opts format.ParseOptions) (ir.ConversionResult[*ir.Document], error) {
	if v := xml.Validate(data); !v.Valid {
		msg := "malformed XML"
		if len(v.Errors) > 0 {
			msg = v.Errors[0].Message
		}
		return ir.ConversionResult[*ir.Document]{}, errors.NewParse("opml", msg)
	}

	xdoc, err := xml.Parse(data)
	if err != nil {
		return ir.ConversionResult[*ir.Document]{}, &errors.ParseError{Format: "opml", Message: "cannot parse XML", Err: err}
	}
	root := xdoc.Root()
	if root == nil || root.Name() != "opml" {
		return ir.ConversionResult[*ir.Document]{}, errors.NewParse("opml", "root element is not <opml>")
	}

	doc := ir.NewDocument()
	doc.Source = "opml"
	result := ir.OK(doc)

	if title, err := xdoc.XPathFirst("/opml/head/title"); err == nil && title != nil {
		if t := strings.TrimSpace(title.Text()); t != "" {
			doc.Meta.SetString(ir.MetaTitle, t)
		}
	}
	if owner, err := xdoc.XPathFirst("/opml/head/ownerName"); err == nil && owner != nil {
		if o := strings.TrimSpace(owner.Text()); o != "" {
			doc.Meta.SetString(ir.MetaAuthor, o)
		}
	}
	if created, err := xdoc.XPathFirst("/opml/head/dateCreated"); err == nil && created != nil {
		if c := strings.TrimSpace(created.Text()); c != "" {
			doc.Meta.SetString(ir.MetaDate, c)
		}
	}

	body, err := xdoc.XPathFirst("/opml/body")
	if err != nil || body == nil {
		return ir.ConversionResult[*ir.Document]{}, errors.NewParse("opml", "document has no <body>")
	}

	for _, child := range body.Children() {
		if child.Name() != "outline" {
			result.Warn(ir.WarnDataDropped("", "<"+child.Name()+"> element",
				"only outline elements are meaningful in an OPML body"))
			continue
		}
		doc.Content.AppendChild(parseOutline(child, 1, &result))
	}
	if len(doc.Content.Children) == 0 {
		result.Warn(ir.NewWarning(ir.SeverityMinor, ir.WarningDataDropped, "",
			"OPML body holds no outlines"))
	}
	return result, nil
}

func parseOutline(el *xml.Node, depth int, result *ir.ConversionResult[*ir.Document]) *ir.Node {
	level := int64(depth)
	if level > 6 {
		level = 6
	}
	heading := ir.NewNode(ir.KindHeading).WithPropInt(ir.PropLevel, level)

	text := el.Attr("text")
	if text == "" {
		text = el.Attr("title")
	}
	if text == "" {
		result.Warn(ir.NewWarning(ir.SeverityMinor, ir.WarningDataDropped, "",
			fmt.Sprintf("outline at depth %d has no text attribute", depth)))
	}
	if url := el.Attr("url"); url != "" {
		heading.AppendChild(ir.NewNode(ir.KindLink).
			WithPropString(ir.PropURL, url).
			AppendChild(ir.NewText(text)))
	} else {
		heading.AppendChild(ir.NewText(text))
	}

	if t := el.Attr("type"); t != "" {
		heading.Props.SetString(PropOutlineType, t)
	}
	if u := el.Attr("xmlUrl"); u != "" {
		heading.Props.SetString(PropXMLURL, u)
	}
	if u := el.Attr("htmlUrl"); u != "" {
		heading.Props.SetString(PropHTMLURL, u)
	}

	section := ir.NewNode(ir.KindSection).AppendChild(heading)
	for _, child := range el.Children() {
		if child.Name() != "outline" {
			continue
		}
		section.AppendChild(parseOutline(child, depth+1, result))
	}
	return section
}
