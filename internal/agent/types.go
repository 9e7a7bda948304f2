// Package agent implements the question-answering graph: classification,
// routing, retrieval grading, and answer generation over the handbook corpus.
package agent

import "github.com/atlaslab/handbook/internal/knowledge"

// Question is one inbound user question. Immutable once created.
type Question struct {
	Text     string
	ThreadID string
}

// Answer is the graph's single output per question. Source always carries
// the final effective category, after any grading or failure override.
type Answer struct {
	Text   string
	Source Category
}

// Exchange is one completed (question, answer) turn in a thread's history.
type Exchange struct {
	Question Question
	Answer   Answer
}

// GradedDocument is a retrieval candidate with its relevance verdict.
type GradedDocument struct {
	Document  knowledge.Document
	Relevant  bool
	Rationale string
}

// relevantDocuments filters graded candidates down to the relevant ones,
// preserving the original rank order.
func relevantDocuments(graded []GradedDocument) []knowledge.Document {
	docs := make([]knowledge.Document, 0, len(graded))
	for _, g := range graded {
		if g.Relevant {
			docs = append(docs, g.Document)
		}
	}
	return docs
}
