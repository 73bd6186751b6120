package ir

import "fmt"

// Severity classifies how much a fidelity warning matters.
type Severity string

// Severity constants, from least to most severe.
const (
	// SeverityMinor indicates cosmetic loss - the content survives,
	// some presentation detail does not.
	SeverityMinor Severity = "minor"

	// SeverityMajor indicates content loss - something the source
	// expressed is absent or degraded in the output.
	SeverityMajor Severity = "major"
)

// validSeverities is the set of valid severities.
var validSeverities = map[Severity]bool{
	SeverityMinor: true,
	SeverityMajor: true,
}

// IsValid returns true if the severity is valid.
func (s Severity) IsValid() bool {
	return validSeverities[s]
}

// Level returns the numeric level (1-2) of the severity.
func (s Severity) Level() int {
	switch s {
	case SeverityMinor:
		return 1
	case SeverityMajor:
		return 2
	default:
		return 0
	}
}

// WarningKind categorizes what a fidelity warning is about.
type WarningKind string

// Warning kind constants. The set is open: format modules may report
// kinds of their own when none of these fit.
const (
	// WarningUnsupportedNode reports a node kind the handler cannot
	// render or represent.
	WarningUnsupportedNode WarningKind = "unsupported-node"

	// WarningUnsupportedProp reports a property the handler ignores.
	WarningUnsupportedProp WarningKind = "unsupported-prop"

	// WarningFeatureLost reports a source construct with no IR or
	// target equivalent.
	WarningFeatureLost WarningKind = "feature-lost"

	// WarningDataDropped reports content omitted from the output.
	WarningDataDropped WarningKind = "data-dropped"

	// WarningResourceMissing reports a resource id with no entry in
	// the document's resource map.
	WarningResourceMissing WarningKind = "resource-missing"

	// WarningMetadataLost reports document metadata the target format
	// cannot carry.
	WarningMetadataLost WarningKind = "metadata-lost"
)

// FidelityWarning records one lossy or unsupported step of a
// conversion. Warnings are never fatal; they accumulate on the
// ConversionResult and reach the caller in the order they occurred.
type FidelityWarning struct {
	// Severity is how much this warning matters.
	Severity Severity `json:"severity"`

	// Kind categorizes the warning.
	Kind WarningKind `json:"kind"`

	// Path locates the affected node in the tree (e.g. "/0/2"),
	// empty when the warning applies to the document as a whole.
	Path string `json:"path,omitempty"`

	// Message explains the compromise in human-readable form.
	Message string `json:"message"`
}

// NewWarning creates a warning.
func NewWarning(severity Severity, kind WarningKind, path, message string) FidelityWarning {
	return FidelityWarning{Severity: severity, Kind: kind, Path: path, Message: message}
}

// WarnUnsupportedNode reports a node kind the handler cannot represent.
func WarnUnsupportedNode(path, nodeKind, detail string) FidelityWarning {
	msg := fmt.Sprintf("unsupported node kind %q", nodeKind)
	if detail != "" {
		msg += ": " + detail
	}
	return NewWarning(SeverityMajor, WarningUnsupportedNode, path, msg)
}

// WarnUnsupportedProp reports a property the handler ignores.
func WarnUnsupportedProp(path, key, detail string) FidelityWarning {
	msg := fmt.Sprintf("unsupported property %q", key)
	if detail != "" {
		msg += ": " + detail
	}
	return NewWarning(SeverityMinor, WarningUnsupportedProp, path, msg)
}

// WarnFeatureLost reports a source construct with no equivalent.
func WarnFeatureLost(path, feature, detail string) FidelityWarning {
	msg := feature + " lost"
	if detail != "" {
		msg += ": " + detail
	}
	return NewWarning(SeverityMajor, WarningFeatureLost, path, msg)
}

// WarnDataDropped reports content omitted from the output.
func WarnDataDropped(path, what, detail string) FidelityWarning {
	msg := what + " dropped"
	if detail != "" {
		msg += ": " + detail
	}
	return NewWarning(SeverityMajor, WarningDataDropped, path, msg)
}

// WarnResourceMissing reports a dangling resource id.
func WarnResourceMissing(path string, id ResourceID) FidelityWarning {
	return NewWarning(SeverityMinor, WarningResourceMissing, path,
		fmt.Sprintf("resource %q is not in the resource map", id))
}

// WarnMetadataLost reports metadata the target cannot carry.
func WarnMetadataLost(key, detail string) FidelityWarning {
	msg := fmt.Sprintf("metadata %q lost", key)
	if detail != "" {
		msg += ": " + detail
	}
	return NewWarning(SeverityMinor, WarningMetadataLost, "", msg)
}

// String renders the warning for logs and CLI output.
func (w FidelityWarning) String() string {
	if w.Path == "" {
		return fmt.Sprintf("[%s] %s: %s", w.Severity, w.Kind, w.Message)
	}
	return fmt.Sprintf("[%s] %s at %s: %s", w.Severity, w.Kind, w.Path, w.Message)
}
