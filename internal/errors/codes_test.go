package errors

import "testing"

func TestErrorCodeTaxonomy(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		phase    string
		category string
	}{
		{"ABC006", ABC006SlotIDTaken, "classbuild", "slot"},
		{"ABC007", ABC007ClassCircularRef, "classbuild", "cycle"},
		{"RES001", RES001AlreadyDefined, "globals", "conflict"},
		{"RES003", RES003AmbiguousNameMatch, "resolve", "lookup"},
		{"TYP005", TYP005IllegalOverride, "sig", "override"},
		{"TYP007", TYP007InterfaceMethodUnimpl, "sig", "interface"},
		{"FUN002", FUN002ScopeMismatch, "schedule", "newfunction"},
		{"LDR001", LDR001CustomLoaderRejected, "finalize", "loader"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, exists := GetInfo(tt.code)
			if !exists {
				t.Fatalf("error code %s not found in registry", tt.code)
			}
			if info.Phase != tt.phase {
				t.Errorf("phase mismatch for %s: got %s, want %s", tt.code, info.Phase, tt.phase)
			}
			if info.Category != tt.category {
				t.Errorf("category mismatch for %s: got %s, want %s", tt.code, info.Category, tt.category)
			}
		})
	}
}

func TestIsPhase(t *testing.T) {
	if !IsPhase(TYP005IllegalOverride, "sig") {
		t.Errorf("expected %s to be in phase sig", TYP005IllegalOverride)
	}
	if IsPhase(TYP005IllegalOverride, "classbuild") {
		t.Errorf("did not expect %s to be in phase classbuild", TYP005IllegalOverride)
	}
}

func TestReportRoundTrip(t *testing.T) {
	err := New(RES001AlreadyDefined, &Where{Class: "com.example::Foo"}, "trait %q already defined", "foo")
	rep, ok := AsReport(err)
	if !ok {
		t.Fatalf("expected *Report to be recoverable via AsReport")
	}
	if rep.Code != RES001AlreadyDefined {
		t.Errorf("code = %s, want %s", rep.Code, RES001AlreadyDefined)
	}
	if rep.Message != `trait "foo" already defined` {
		t.Errorf("message = %q", rep.Message)
	}
	if _, jerr := rep.ToJSON(true); jerr != nil {
		t.Errorf("ToJSON failed: %v", jerr)
	}
}
