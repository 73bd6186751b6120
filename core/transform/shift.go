package transform

import (
	"fmt"

	"github.com/FocuswithJustin/Vellum/core/errors"
	"github.com/FocuswithJustin/Vellum/core/ir"
)

// ShiftHeadings adds Delta to the level of every heading node,
// clamping the result into [Min, Max]. Clamping, not wraparound or
// error, is the overflow policy: a level-6 heading shifted by +2 with
// Max 6 stays at 6.
type ShiftHeadings struct {
	Delta int64
	Min   int64
	Max   int64
}

// NewShiftHeadings creates a shift over the conventional heading range
// 1 to 6.
func NewShiftHeadings(delta int64) *ShiftHeadings {
	return &ShiftHeadings{Delta: delta, Min: 1, Max: 6}
}

// Name implements Transformer.
func (s *ShiftHeadings) Name() string { return "shift-headings" }

// Transform implements Transformer.
func (s *ShiftHeadings) Transform(doc *ir.Document) (*ir.Document, error) {
	if err := requireContent(s.Name(), doc); err != nil {
		return nil, err
	}
	if s.Min > s.Max {
		return nil, errors.NewTransform(s.Name(), fmt.Sprintf("min %d exceeds max %d", s.Min, s.Max))
	}
	out := doc.Clone()
	_ = ir.Walk(out.Content, func(n *ir.Node, path string) error {
		if n.Kind != ir.KindHeading {
			return nil
		}
		if level, ok := n.Props.GetInt(ir.PropLevel); ok {
			n.Props.SetInt(ir.PropLevel, clamp(level+s.Delta, s.Min, s.Max))
		}
		return nil
	})
	return out, nil
}

func clamp(v, min, max int64) int64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
