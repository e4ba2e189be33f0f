// Package patchio loads an authored Patch from a YAML fixture (spec.md
// treats patch authoring/storage as out of scope, but a complete repo
// needs a way to get a graph.Patch onto disk and back). Grounded on the
// teacher's core/program.go LoadProgramFileFromYAML: nested yaml-tagged
// structs decoded with gopkg.in/yaml.v3, one root struct per file. Unlike
// the teacher, errors are returned rather than panicked — spec.md's
// ambient error-handling convention (see SPEC_FULL.md) is explicit
// *diag.Diagnostic-carrying errors, not process aborts on malformed input.
package patchio

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/zeonica-animator/internal/graph"
	"github.com/sarchlab/zeonica-animator/internal/registry"
	"github.com/sarchlab/zeonica-animator/internal/types"
)

// yamlRoot mirrors the teacher's YAMLRoot: one named top-level key holding
// the whole document.
type yamlRoot struct {
	Patch yamlPatch `yaml:"patch"`
}

type yamlPatch struct {
	ID       string      `yaml:"id"`
	Revision int         `yaml:"revision"`
	Blocks   []yamlBlock `yaml:"blocks"`
	Edges    []yamlEdge  `yaml:"edges"`
}

type yamlBlock struct {
	ID     string                  `yaml:"id"`
	Type   string                  `yaml:"type"`
	Params map[string]any          `yaml:"params"`
	Inputs map[string]yamlInputCfg `yaml:"inputs"`
}

// yamlInputCfg is an author-supplied override of a registry-declared input
// port: a combine mode for multi-writer ports, or an explicit default
// source replacing the block def's own default. Both are optional; an
// absent yamlInputCfg entry leaves the registry's declared behavior alone.
type yamlInputCfg struct {
	Combine string `yaml:"combine"`
	Default *struct {
		Kind  string `yaml:"kind"`
		Value any    `yaml:"value"`
	} `yaml:"default"`
}

type yamlEdge struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// LoadPatch reads path, validates every block's type against reg, and
// builds a *graph.Patch with ports populated from each block's registry
// Def. Port-level types (ResolvedType/StaticCard) are left zero-valued —
// the compiler's own passes derive those from the registry on every
// compile (internal/compiler/payload.go, cardinality.go), so patchio never
// duplicates that logic.
func LoadPatch(path string, reg *registry.Registry) (*graph.Patch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("patchio: read %s: %w", path, err)
	}

	var root yamlRoot
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("patchio: parse %s: %w", path, err)
	}

	return buildPatch(root.Patch, reg)
}

func buildPatch(yp yamlPatch, reg *registry.Registry) (*graph.Patch, error) {
	if yp.ID == "" {
		return nil, fmt.Errorf("patchio: patch id is required")
	}

	patch := graph.NewPatch(yp.ID, yp.Revision)

	for _, yb := range yp.Blocks {
		block, err := buildBlock(yb, reg)
		if err != nil {
			return nil, err
		}
		if err := patch.AddBlock(block); err != nil {
			return nil, fmt.Errorf("patchio: block %q: %w", yb.ID, err)
		}
	}

	for _, ye := range yp.Edges {
		from, err := parseEndpoint(ye.From)
		if err != nil {
			return nil, fmt.Errorf("patchio: edge %q -> %q: %w", ye.From, ye.To, err)
		}
		to, err := parseEndpoint(ye.To)
		if err != nil {
			return nil, fmt.Errorf("patchio: edge %q -> %q: %w", ye.From, ye.To, err)
		}
		if err := patch.AddEdge(from, to); err != nil {
			return nil, fmt.Errorf("patchio: %w", err)
		}
	}

	return patch, nil
}

func buildBlock(yb yamlBlock, reg *registry.Registry) (*graph.Block, error) {
	if yb.ID == "" {
		return nil, fmt.Errorf("patchio: block with empty id (type %q)", yb.Type)
	}
	def, ok := reg.Lookup(yb.Type)
	if !ok {
		return nil, fmt.Errorf("patchio: block %q has unknown type %q", yb.ID, yb.Type)
	}

	block := &graph.Block{
		ID:      graph.BlockID(yb.ID),
		TypeTag: yb.Type,
		Params:  yb.Params,
	}

	for _, in := range def.Inputs {
		port := &graph.InputPort{ID: in.ID}
		if cfg, ok := yb.Inputs[string(in.ID)]; ok {
			if cfg.Combine != "" {
				port.CombineMode = types.CombineMode(cfg.Combine)
			}
			if cfg.Default != nil {
				port.DefaultSource = &graph.DefaultSource{Kind: cfg.Default.Kind, Value: cfg.Default.Value}
			}
		}
		block.Inputs = append(block.Inputs, port)
	}

	for _, out := range def.Outputs {
		block.Outputs = append(block.Outputs, &graph.OutputPort{ID: out.ID})
	}

	return block, nil
}

// parseEndpoint splits "blockId.portId" the way graph.Endpoint.String
// formats it.
func parseEndpoint(s string) (graph.Endpoint, error) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return graph.Endpoint{Block: graph.BlockID(s[:i]), Port: graph.PortID(s[i+1:])}, nil
		}
	}
	return graph.Endpoint{}, fmt.Errorf("endpoint %q is not in blockId.portId form", s)
}
