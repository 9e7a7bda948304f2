package eval

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/atlaslab/handbook/internal/agent"
)

func TestCheckStructureConformingGraph(t *testing.T) {
	result := CheckStructure(agent.Graph(), agent.Graph())
	if !result.AllOK() {
		t.Errorf("the declared topology does not conform to itself: %+v", result)
	}
}

func TestCheckStructureOrderIndependent(t *testing.T) {
	expected := agent.Graph()
	// Shuffle node and edge order; sets must still match.
	expected.Nodes = []string{
		agent.NodeNotFound, agent.NodeClassify, agent.NodeGrade,
		agent.NodeGenerate, agent.NodeRetrieve, agent.NodeOffTopic,
		agent.NodeConversational,
	}
	expected.Edges[0], expected.Edges[1] = expected.Edges[1], expected.Edges[0]

	result := CheckStructure(agent.Graph(), expected)
	if !result.AllOK() {
		t.Errorf("structure check is order-sensitive: %+v", result)
	}
}

func TestCheckStructureDetectsDrift(t *testing.T) {
	expected := agent.Graph()
	expected.Nodes = append(expected.Nodes, "rerank")
	expected.Edges = append(expected.Edges, agent.Edge{From: "rerank", To: agent.NodeGrade})

	result := CheckStructure(agent.Graph(), expected)
	if result.NodesOK {
		t.Error("missing node not detected")
	}
	if diff := cmp.Diff([]string{"rerank"}, result.MissingNodes); diff != "" {
		t.Errorf("MissingNodes mismatch (-want +got):\n%s", diff)
	}
	if result.DirectEdgesOK {
		t.Error("missing edge not detected")
	}
	if diff := cmp.Diff([]string{"rerank -> grade"}, result.MissingEdges); diff != "" {
		t.Errorf("MissingEdges mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckStructureDetectsConditionalDrift(t *testing.T) {
	expected := agent.Graph()
	expected.ConditionalEdges = []agent.ConditionalEdge{
		{From: agent.NodeClassify, To: []string{agent.NodeConversational, agent.NodeRetrieve}},
		{From: agent.NodeGrade, To: []string{agent.NodeGenerate, agent.NodeNotFound}},
	}

	result := CheckStructure(agent.Graph(), expected)
	if result.ConditionalEdgesOK {
		t.Error("conditional-edge drift not detected")
	}
	// Declared has off_topic as a classify target; expected does not.
	want := []string{`conditional "classify" has extra target "off_topic"`}
	if diff := cmp.Diff(want, result.CondDiffs); diff != "" {
		t.Errorf("CondDiffs mismatch (-want +got):\n%s", diff)
	}
}
