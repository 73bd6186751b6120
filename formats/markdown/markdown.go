// Package markdown reads and writes Markdown with optional YAML
// frontmatter. The reader covers ATX headings, paragraphs, fenced code,
// blockquotes, lists (including task lists), pipe tables, thematic
// breaks, and the usual inline styling; the writer emits the same
// subset with frontmatter regenerated from document metadata.
package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/Vellum/core/ir"
)

// Format reads and writes Markdown.
type Format struct{}

// New creates the markdown format module.
func New() *Format {
	return &Format{}
}

// Name returns the registry name.
func (f *Format) Name() string {
	return "markdown"
}

// Extensions returns the file extensions this format claims.
func (f *Format) Extensions() []string {
	return []string{".md", ".markdown"}
}

// Detect reports whether the input looks like Markdown.
func (f *Format) Detect(data []byte) bool {
	if bytes.HasPrefix(data, []byte("---\n")) || bytes.HasPrefix(data, []byte("---\r\n")) {
		return true
	}
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if isATXHeading(trimmed) || strings.HasPrefix(trimmed, "```") {
			return true
		}
		// A link or image on the first content line is a strong signal.
		return strings.Contains(trimmed, "](")
	}
	return false
}

func isATXHeading(line string) bool {
	i := 0
	for i < len(line) && line[i] == '#' {
		i++
	}
	return i >= 1 && i <= 6 && i < len(line) && line[i] == ' '
}

// splitFrontmatter splits leading YAML frontmatter from the body. The
// returned body offset points at the first byte after the closing
// delimiter line.
func splitFrontmatter(text string) (yamlText string, body string, bodyOffset int, found bool) {
	if !strings.HasPrefix(text, "---\n") && !strings.HasPrefix(text, "---\r\n") {
		return "", text, 0, false
	}
	first := strings.IndexByte(text, '\n')
	rest := text[first+1:]

	offset := first + 1
	for len(rest) > 0 {
		lineEnd := strings.IndexByte(rest, '\n')
		var line string
		var next int
		if lineEnd < 0 {
			line = rest
			next = len(rest)
		} else {
			line = rest[:lineEnd]
			next = lineEnd + 1
		}
		if strings.TrimRight(line, "\r") == "---" {
			yamlText = text[first+1 : offset]
			return yamlText, text[offset+next:], offset + next, true
		}
		rest = rest[next:]
		offset += next
	}
	return "", text, 0, false
}

// metaFromYAML folds parsed frontmatter into document metadata in source
// order. Scalars and scalar lists carry over; anything nested warns and
// drops.
func metaFromYAML(yamlText string, meta *ir.Properties) ([]ir.FidelityWarning, error) {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(yamlText), &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return nil, nil
	}
	mapping := root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("frontmatter is not a mapping")
	}

	var warnings []ir.FidelityWarning
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key := mapping.Content[i].Value
		v, ok := yamlNodeValue(mapping.Content[i+1])
		if !ok {
			warnings = append(warnings, ir.WarnMetadataLost(key, "nested frontmatter value is not representable"))
			continue
		}
		meta.Set(key, v)
	}
	return warnings, nil
}

func yamlNodeValue(n *yaml.Node) (ir.Value, bool) {
	switch n.Kind {
	case yaml.ScalarNode:
		var raw any
		if err := n.Decode(&raw); err != nil {
			return ir.Value{}, false
		}
		return yamlScalar(raw)
	case yaml.SequenceNode:
		items := make([]ir.Value, 0, len(n.Content))
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode {
				return ir.Value{}, false
			}
			var raw any
			if err := item.Decode(&raw); err != nil {
				return ir.Value{}, false
			}
			v, ok := yamlScalar(raw)
			if !ok {
				return ir.Value{}, false
			}
			items = append(items, v)
		}
		return ir.ListValue(items...), true
	default:
		return ir.Value{}, false
	}
}

func yamlScalar(v any) (ir.Value, bool) {
	switch t := v.(type) {
	case string:
		return ir.StringValue(t), true
	case bool:
		return ir.BoolValue(t), true
	case int:
		return ir.IntValue(int64(t)), true
	case int64:
		return ir.IntValue(t), true
	case float64:
		return ir.FloatValue(t), true
	case nil:
		return ir.StringValue(""), true
	default:
		return ir.Value{}, false
	}
}

// frontmatterFromMeta renders document metadata as YAML frontmatter.
func frontmatterFromMeta(meta *ir.Properties) (string, error) {
	if meta.Len() == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	var marshalErr error
	// Keys marshal one at a time so metadata order survives the trip.
	meta.Iterate(func(key string, v ir.Value) bool {
		out, err := yaml.Marshal(map[string]any{key: goValue(v)})
		if err != nil {
			marshalErr = fmt.Errorf("frontmatter key %q: %w", key, err)
			return false
		}
		sb.Write(out)
		return true
	})
	if marshalErr != nil {
		return "", marshalErr
	}
	sb.WriteString("---\n")
	return sb.String(), nil
}

func goValue(v ir.Value) any {
	switch v.Kind() {
	case ir.ValueString:
		s, _ := v.Str()
		return s
	case ir.ValueInt:
		n, _ := v.Int()
		return n
	case ir.ValueFloat:
		f, _ := v.Float()
		return f
	case ir.ValueBool:
		b, _ := v.Bool()
		return b
	case ir.ValueList:
		list, _ := v.List()
		items := make([]any, len(list))
		for i, item := range list {
			items[i] = goValue(item)
		}
		return items
	default:
		return nil
	}
}
