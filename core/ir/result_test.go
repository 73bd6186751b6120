package ir

import "testing"

func TestConversionResultOK(t *testing.T) {
	r := OK("payload")
	if r.Value != "payload" {
		t.Errorf("Value = %q, want %q", r.Value, "payload")
	}
	if r.HasWarnings() {
		t.Error("OK result has warnings")
	}
	if r.MaxSeverity() != Severity("") {
		t.Errorf("MaxSeverity() = %q, want empty", r.MaxSeverity())
	}
}

func TestConversionResultWithWarnings(t *testing.T) {
	w := WarnFeatureLost("/0", "tables", "")
	r := WithWarnings([]byte("out"), w)
	if !r.HasWarnings() {
		t.Error("HasWarnings() = false, want true")
	}
	if len(r.Warnings) != 1 || r.Warnings[0].Kind != WarningFeatureLost {
		t.Errorf("Warnings = %v, want one feature-lost", r.Warnings)
	}
}

func TestConversionResultWarnConcatenatesInOrder(t *testing.T) {
	r := OK(1)
	r.Warn(WarnMetadataLost("a", ""))
	r.Warn(WarnFeatureLost("/0", "b", ""), WarnDataDropped("/1", "c", ""))

	want := []WarningKind{WarningMetadataLost, WarningFeatureLost, WarningDataDropped}
	if len(r.Warnings) != len(want) {
		t.Fatalf("len(Warnings) = %d, want %d", len(r.Warnings), len(want))
	}
	for i, k := range want {
		if r.Warnings[i].Kind != k {
			t.Errorf("Warnings[%d].Kind = %q, want %q", i, r.Warnings[i].Kind, k)
		}
	}
}

func TestConversionResultSubOperationWarnings(t *testing.T) {
	// A composite operation absorbs a sub-operation's warnings without
	// loss of count or content.
	sub := WithWarnings("chapter",
		WarnUnsupportedNode("/2", "table", ""),
		WarnResourceMissing("/3", "res-gone"),
	)

	outer := OK([]string{})
	outer.Value = append(outer.Value, sub.Value)
	outer.Warn(sub.Warnings...)
	outer.Warn(WarnMetadataLost("toc", ""))

	if len(outer.Warnings) != 3 {
		t.Fatalf("len(Warnings) = %d, want 3", len(outer.Warnings))
	}
	if outer.Warnings[0].Kind != WarningUnsupportedNode {
		t.Errorf("Warnings[0].Kind = %q, want %q", outer.Warnings[0].Kind, WarningUnsupportedNode)
	}
	if outer.MaxSeverity() != SeverityMajor {
		t.Errorf("MaxSeverity() = %q, want %q", outer.MaxSeverity(), SeverityMajor)
	}
}
