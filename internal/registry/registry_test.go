package registry_test

import (
	"testing"

	"github.com/sarchlab/zeonica-animator/internal/registry"
)

func TestHumanizeName(t *testing.T) {
	cases := map[string]string{
		"oscSin":            "Osc Sin",
		"HslToRgba":         "Hsl To Rgba",
		"Const":             "Const",
		"RenderInstances2D": "Render Instances2 D",
	}
	for in, want := range cases {
		if got := registry.HumanizeName(in); got != want {
			t.Errorf("HumanizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRegisterRejectsDuplicateTypeTag(t *testing.T) {
	reg := registry.NewRegistry()
	def := &registry.Def{TypeTag: "Const"}
	if err := reg.Register(def); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := reg.Register(def); err == nil {
		t.Fatalf("expected an error registering %q twice", def.TypeTag)
	}
}

func TestLookupReturnsFalseForUnknownType(t *testing.T) {
	reg := registry.NewRegistry()
	if _, ok := reg.Lookup("NoSuchBlock"); ok {
		t.Fatalf("expected ok=false for an unregistered type tag")
	}
}
