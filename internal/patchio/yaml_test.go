package patchio_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sarchlab/zeonica-animator/internal/graph"
	"github.com/sarchlab/zeonica-animator/internal/patchio"
	"github.com/sarchlab/zeonica-animator/internal/registry"
)

const fixtureYAML = `
patch:
  id: demo
  revision: 3
  blocks:
    - id: c1
      type: Const
      params:
        value: 1.5
    - id: c2
      type: Const
      params:
        value: 2.5
    - id: sum
      type: Adder
      inputs:
        a:
          combine: sum
        b:
          default:
            kind: const
            value: 0
  edges:
    - from: c1.value
      to: sum.a
    - from: c2.value
      to: sum.b
`

func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.yaml")
	if err := os.WriteFile(path, []byte(fixtureYAML), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadPatchBuildsBlocksAndEdges(t *testing.T) {
	path := writeFixture(t)
	reg := registry.Builtins()

	p, err := patchio.LoadPatch(path, reg)
	if err != nil {
		t.Fatalf("LoadPatch: %v", err)
	}

	if p.ID != "demo" || p.Revision != 3 {
		t.Fatalf("unexpected patch identity: %+v", p)
	}
	if len(p.Blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(p.Blocks))
	}

	sum, ok := p.Blocks[graph.BlockID("sum")]
	if !ok {
		t.Fatalf("missing sum block")
	}
	if len(sum.Inputs) != 2 || len(sum.Outputs) != 1 {
		t.Fatalf("sum block ports not seeded from registry def: %+v", sum)
	}
	aPort, ok := sum.Input("a")
	if !ok {
		t.Fatalf("sum block missing input a")
	}
	if aPort.CombineMode != "sum" {
		t.Fatalf("expected combine mode sum on input a, got %q", aPort.CombineMode)
	}
	bPort, ok := sum.Input("b")
	if !ok {
		t.Fatalf("sum block missing input b")
	}
	if bPort.DefaultSource == nil || bPort.DefaultSource.Kind != "const" {
		t.Fatalf("expected default source override on input b, got %+v", bPort.DefaultSource)
	}

	if len(p.Edges) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(p.Edges))
	}
}

func TestLoadPatchRejectsUnknownBlockType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	bad := "patch:\n  id: bad\n  blocks:\n    - id: x\n      type: Nope\n"
	if err := os.WriteFile(path, []byte(bad), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	_, err := patchio.LoadPatch(path, registry.Builtins())
	if err == nil {
		t.Fatalf("expected error for unknown block type")
	}
}

func TestLoadPatchRejectsMalformedEndpoint(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	bad := "patch:\n  id: bad\n  blocks:\n    - id: x\n      type: Const\n  edges:\n    - from: noDot\n      to: x.value\n"
	if err := os.WriteFile(path, []byte(bad), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	_, err := patchio.LoadPatch(path, registry.Builtins())
	if err == nil {
		t.Fatalf("expected error for malformed endpoint")
	}
}
