package eval

import (
	"fmt"
	"sort"

	"github.com/atlaslab/handbook/internal/agent"
)

// StructureResult is the outcome of the graph-structure conformance check:
// a pure set diff of the declared topology against the expected one, with
// no runtime execution involved.
type StructureResult struct {
	NodesOK            bool
	DirectEdgesOK      bool
	ConditionalEdgesOK bool

	MissingNodes []string
	ExtraNodes   []string
	MissingEdges []string
	ExtraEdges   []string
	CondDiffs    []string
}

// AllOK reports whether every structural aspect conforms.
func (r StructureResult) AllOK() bool {
	return r.NodesOK && r.DirectEdgesOK && r.ConditionalEdgesOK
}

// CheckStructure diffs the declared topology against the expected one.
// Node and edge order is irrelevant; conditional targets are compared as
// sets per source node.
func CheckStructure(declared, expected agent.Topology) StructureResult {
	var result StructureResult

	result.MissingNodes, result.ExtraNodes = diffSets(expected.Nodes, declared.Nodes)
	result.NodesOK = len(result.MissingNodes) == 0 && len(result.ExtraNodes) == 0

	result.MissingEdges, result.ExtraEdges = diffSets(edgeKeys(expected.Edges), edgeKeys(declared.Edges))
	result.DirectEdgesOK = len(result.MissingEdges) == 0 && len(result.ExtraEdges) == 0

	result.CondDiffs = diffConditional(expected.ConditionalEdges, declared.ConditionalEdges)
	result.ConditionalEdgesOK = len(result.CondDiffs) == 0

	return result
}

func edgeKeys(edges []agent.Edge) []string {
	keys := make([]string, len(edges))
	for i, e := range edges {
		keys[i] = e.From + " -> " + e.To
	}
	return keys
}

// diffSets returns want-minus-got (missing) and got-minus-want (extra),
// both sorted.
func diffSets(want, got []string) (missing, extra []string) {
	wantSet := make(map[string]bool, len(want))
	for _, w := range want {
		wantSet[w] = true
	}
	gotSet := make(map[string]bool, len(got))
	for _, g := range got {
		gotSet[g] = true
	}
	for w := range wantSet {
		if !gotSet[w] {
			missing = append(missing, w)
		}
	}
	for g := range gotSet {
		if !wantSet[g] {
			extra = append(extra, g)
		}
	}
	sort.Strings(missing)
	sort.Strings(extra)
	return missing, extra
}

func diffConditional(want, got []agent.ConditionalEdge) []string {
	var diffs []string

	wantBySource := condBySource(want)
	gotBySource := condBySource(got)

	for source, wantTargets := range wantBySource {
		gotTargets, ok := gotBySource[source]
		if !ok {
			diffs = append(diffs, fmt.Sprintf("missing conditional edge from %q", source))
			continue
		}
		missing, extra := diffSets(wantTargets, gotTargets)
		for _, m := range missing {
			diffs = append(diffs, fmt.Sprintf("conditional %q missing target %q", source, m))
		}
		for _, e := range extra {
			diffs = append(diffs, fmt.Sprintf("conditional %q has extra target %q", source, e))
		}
	}
	for source := range gotBySource {
		if _, ok := wantBySource[source]; !ok {
			diffs = append(diffs, fmt.Sprintf("unexpected conditional edge from %q", source))
		}
	}
	sort.Strings(diffs)
	return diffs
}

func condBySource(edges []agent.ConditionalEdge) map[string][]string {
	bySource := make(map[string][]string, len(edges))
	for _, e := range edges {
		bySource[e.From] = append(bySource[e.From], e.To...)
	}
	return bySource
}
