package agent

// Graph node names and the start/end markers used in the topology.
const (
	NodeStart          = "__start__"
	NodeEnd            = "__end__"
	NodeClassify       = "classify"
	NodeRetrieve       = "retrieve"
	NodeGrade          = "grade"
	NodeGenerate       = "generate"
	NodeConversational = "conversational"
	NodeOffTopic       = "off_topic"
	NodeNotFound       = "not_found"
)

// Edge is a direct transition between two nodes.
type Edge struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// ConditionalEdge is a branching transition: From dispatches to exactly one
// of To at runtime.
type ConditionalEdge struct {
	From string   `yaml:"from"`
	To   []string `yaml:"to"`
}

// Topology is the executor's declared graph structure, used for offline
// conformance checks. Purely declarative: no runtime behavior depends on it.
type Topology struct {
	Nodes            []string          `yaml:"nodes"`
	Edges            []Edge            `yaml:"edges"`
	ConditionalEdges []ConditionalEdge `yaml:"conditional_edges"`
}

// Graph declares the executor's topology. Must stay in lockstep with
// Executor.run and Route; the structure conformance check exists to catch
// drift between the two.
func Graph() Topology {
	return Topology{
		Nodes: []string{
			NodeClassify,
			NodeRetrieve,
			NodeGrade,
			NodeGenerate,
			NodeConversational,
			NodeOffTopic,
			NodeNotFound,
		},
		Edges: []Edge{
			{From: NodeStart, To: NodeClassify},
			{From: NodeRetrieve, To: NodeGrade},
			{From: NodeGenerate, To: NodeEnd},
			{From: NodeConversational, To: NodeEnd},
			{From: NodeOffTopic, To: NodeEnd},
			{From: NodeNotFound, To: NodeEnd},
		},
		ConditionalEdges: []ConditionalEdge{
			{From: NodeClassify, To: []string{NodeConversational, NodeRetrieve, NodeOffTopic}},
			{From: NodeGrade, To: []string{NodeGenerate, NodeNotFound}},
		},
	}
}
