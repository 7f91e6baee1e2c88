package main

import "testing"

func TestFlagOverridesOnlyChangedFlagsApply(t *testing.T) {
	cmd := buildCmd
	if err := cmd.Flags().Set("converge-limit", "7"); err != nil {
		t.Fatalf("set converge-limit: %v", err)
	}
	if err := cmd.Flags().Set("stats", "true"); err != nil {
		t.Fatalf("set stats: %v", err)
	}
	o := flagOverrides(cmd)
	if o.ConvergeLimit == nil || *o.ConvergeLimit != 7 {
		t.Fatalf("ConvergeLimit override = %v, want 7", o.ConvergeLimit)
	}
	if o.Stats == nil || !*o.Stats {
		t.Fatal("Stats override missing")
	}
	if o.SplitThreshold != nil || o.ProtectIds != nil || o.XInitialEdge != nil || o.Timings != nil {
		t.Fatal("untouched flags must not produce overrides")
	}
}
