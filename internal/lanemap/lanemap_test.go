package lanemap_test

import (
	"testing"

	"github.com/sarchlab/zeonica-animator/internal/diag"
	"github.com/sarchlab/zeonica-animator/internal/lanemap"
)

func TestByIndexMapping(t *testing.T) {
	r := lanemap.Map(
		[]string{"a", "b", "c", "d", "e", "f"},
		make([]string, 8),
		lanemap.ModeByIndex, lanemap.PolicyStrict, diag.TargetRef{}, nil,
	)
	want := []int32{0, 1, 2, 3, 4, 5, -1, -1}
	for i, v := range want {
		if r.NewToOld[i] != v {
			t.Fatalf("lane %d: got %d want %d", i, r.NewToOld[i], v)
		}
	}
	if r.Matched != 6 || r.UnmatchedNew != 2 {
		t.Fatalf("matched/unmatched mismatch: %+v", r)
	}
}

func TestByIdMapping(t *testing.T) {
	r := lanemap.Map(
		[]string{"a", "b", "c"},
		[]string{"a", "b", "c", "d"},
		lanemap.ModeByID, lanemap.PolicyStrict, diag.TargetRef{}, nil,
	)
	want := []int32{0, 1, 2, -1}
	for i, v := range want {
		if r.NewToOld[i] != v {
			t.Fatalf("lane %d: got %d want %d", i, r.NewToOld[i], v)
		}
	}
}

func TestNoneModeAllUnmatched(t *testing.T) {
	r := lanemap.Map([]string{"a"}, []string{"a", "b"}, lanemap.ModeNone, lanemap.PolicyStrict, diag.TargetRef{}, nil)
	if r.NewToOld[0] != -1 || r.NewToOld[1] != -1 {
		t.Fatalf("expected all -1, got %v", r.NewToOld)
	}
}

func TestDuplicateIdentityStrictResetsAll(t *testing.T) {
	hub := diag.NewHub(10)
	r := lanemap.Map(
		[]string{"a", "b", "c"},
		[]string{"a", "b", "b", "d"},
		lanemap.ModeByID, lanemap.PolicyStrict, diag.TargetRef{BlockID: "target1"}, hub,
	)
	if r.ModeUsed != "resetAll" {
		t.Fatalf("expected resetAll, got %q", r.ModeUsed)
	}
	if !r.DuplicateDetected {
		t.Fatalf("expected DuplicateDetected")
	}
	for _, v := range r.NewToOld {
		if v != -1 {
			t.Fatalf("expected all -1 under resetAll, got %v", r.NewToOld)
		}
	}
	found := false
	for _, d := range hub.Snapshot() {
		if d.Kind == diag.KindDuplicateIdentity {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a DuplicateIdentity diagnostic")
	}
}

func TestDuplicateIdentityLenientDegradesToByIndex(t *testing.T) {
	r := lanemap.Map(
		[]string{"a", "b", "c"},
		[]string{"a", "b", "b", "d"},
		lanemap.ModeByID, lanemap.PolicyLenient, diag.TargetRef{}, nil,
	)
	if r.ModeUsed != lanemap.ModeByIndex {
		t.Fatalf("expected byIndex degrade, got %q", r.ModeUsed)
	}
	if !r.DuplicateDetected {
		t.Fatalf("expected DuplicateDetected")
	}
}

func TestMigrateStridedCopiesMappedLanesOnly(t *testing.T) {
	old := []float64{10, 20, 30, 40, 50, 60} // 3 lanes, stride 2
	next := make([]float64, 8)               // 4 lanes, stride 2, zero-init
	lanemap.MigrateStrided(next, old, []int32{0, 1, 2, -1}, 2)
	want := []float64{10, 20, 30, 40, 50, 60, 0, 0}
	for i, v := range want {
		if next[i] != v {
			t.Fatalf("index %d: got %v want %v", i, next[i], v)
		}
	}
}
