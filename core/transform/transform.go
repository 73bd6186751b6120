// Package transform provides pure Document-to-Document rewrite steps
// and the Pipeline that composes them.
//
// Every transform takes a Document and returns a new Document, never
// mutating its input. A Pipeline applies its transforms strictly in
// registration order and aborts on the first failure; there is no
// partial application.
package transform

import (
	"github.com/FocuswithJustin/Vellum/core/errors"
	"github.com/FocuswithJustin/Vellum/core/ir"
)

// Transformer is one rewrite step. Implementations must treat the
// input document as read-only and return a fresh value.
type Transformer interface {
	// Name identifies the transform in diagnostics and error messages.
	Name() string

	// Transform produces a rewritten document or a *errors.TransformError.
	Transform(doc *ir.Document) (*ir.Document, error)
}

// Pipeline is an ordered sequence of transforms, itself a Transformer.
type Pipeline struct {
	steps []Transformer
}

// NewPipeline creates a pipeline over the given steps in order.
func NewPipeline(steps ...Transformer) *Pipeline {
	return &Pipeline{steps: steps}
}

// Then appends a step and returns the pipeline for chaining.
func (p *Pipeline) Then(t Transformer) *Pipeline {
	p.steps = append(p.steps, t)
	return p
}

// Len returns the number of steps.
func (p *Pipeline) Len() int { return len(p.steps) }

// Name implements Transformer.
func (p *Pipeline) Name() string { return "pipeline" }

// Transform applies the steps in registration order, threading each
// output into the next input. The first failure aborts the rest and is
// returned; the caller's input document is never touched.
func (p *Pipeline) Transform(doc *ir.Document) (*ir.Document, error) {
	if doc == nil {
		return nil, errors.NewTransform(p.Name(), "document is nil")
	}
	current := doc
	for _, step := range p.steps {
		next, err := step.Transform(current)
		if err != nil {
			var terr *errors.TransformError
			if errors.As(err, &terr) {
				return nil, err
			}
			return nil, &errors.TransformError{Transform: step.Name(), Message: err.Error(), Err: err}
		}
		current = next
	}
	if current == doc {
		// Zero steps: still honor the value-to-value contract.
		return doc.Clone(), nil
	}
	return current, nil
}

// requireContent validates the shared transform precondition.
func requireContent(name string, doc *ir.Document) error {
	if doc == nil {
		return errors.NewTransform(name, "document is nil")
	}
	if doc.Content == nil {
		return errors.NewTransform(name, "document has no content")
	}
	return nil
}
