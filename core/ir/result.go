package ir

// ConversionResult is the uniform return shape for every parse and emit
// operation: the produced value plus the fidelity warnings accumulated
// while producing it. Warnings are additive through composition; a
// stage that calls into sub-operations concatenates their warnings
// into its own result so full provenance survives.
type ConversionResult[T any] struct {
	// Value is the produced document, byte slice, or other payload.
	Value T

	// Warnings lists every fidelity compromise, in the order made.
	Warnings []FidelityWarning
}

// OK wraps a value with no warnings.
func OK[T any](v T) ConversionResult[T] {
	return ConversionResult[T]{Value: v}
}

// WithWarnings wraps a value with the given warnings.
func WithWarnings[T any](v T, warnings ...FidelityWarning) ConversionResult[T] {
	return ConversionResult[T]{Value: v, Warnings: warnings}
}

// Warn appends warnings in order.
func (r *ConversionResult[T]) Warn(warnings ...FidelityWarning) {
	r.Warnings = append(r.Warnings, warnings...)
}

// HasWarnings returns true if any warnings accumulated.
func (r *ConversionResult[T]) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// MaxSeverity returns the most severe level among the warnings, or ""
// if there are none.
func (r *ConversionResult[T]) MaxSeverity() Severity {
	var max Severity
	for _, w := range r.Warnings {
		if w.Severity.Level() > max.Level() {
			max = w.Severity
		}
	}
	return max
}
