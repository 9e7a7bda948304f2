package agent

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/atlaslab/handbook/internal/knowledge"
)

// Grader judges each retrieval candidate's relevance to the question with
// one model call per candidate. Candidates are independent, so judgments
// run concurrently under a bounded limit; output preserves rank order.
type Grader struct {
	generator   TextGenerator
	concurrency int
	logger      *slog.Logger
}

// NewGrader creates a Grader. concurrency <= 0 defaults to 4; logger may be nil.
func NewGrader(generator TextGenerator, concurrency int, logger *slog.Logger) *Grader {
	if concurrency <= 0 {
		concurrency = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Grader{generator: generator, concurrency: concurrency, logger: logger}
}

// shortFollowUpWords is the threshold below which a question with prior
// history is treated as a follow-up ("tell me more") and grading is skipped.
const shortFollowUpWords = 4

// Grade returns one GradedDocument per candidate, in the candidates' rank
// order. A failed judgment call conservatively marks that candidate not
// relevant; Grade itself never fails.
func (g *Grader) Grade(ctx context.Context, question Question, candidates []knowledge.Result, history []Exchange) []GradedDocument {
	graded := make([]GradedDocument, len(candidates))
	for i, c := range candidates {
		graded[i] = GradedDocument{Document: c.Document}
	}
	if len(candidates) == 0 {
		return graded
	}

	// Short follow-ups in an ongoing conversation keep the previous
	// retrieval context rather than re-judging it.
	if len(strings.Fields(question.Text)) < shortFollowUpWords && len(history) > 0 {
		for i := range graded {
			graded[i].Relevant = true
			graded[i].Rationale = "short follow-up, grading skipped"
		}
		return graded
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(g.concurrency)
	for i := range graded {
		group.Go(func() error {
			verdict, err := g.generator.GenerateText(groupCtx, gradePrompt(question.Text, graded[i].Document))
			if err != nil {
				g.logger.Warn("relevance judgment failed, marking irrelevant",
					"document_id", graded[i].Document.ID,
					"error", err,
				)
				graded[i].Relevant = false
				graded[i].Rationale = "judgment call failed"
				return nil
			}
			graded[i].Relevant = parseVerdict(verdict)
			graded[i].Rationale = strings.TrimSpace(verdict)
			return nil
		})
	}
	_ = group.Wait() // workers never return errors

	return graded
}

// parseVerdict reads a binary relevance verdict. Doubt resolves to relevant:
// partial information counts.
func parseVerdict(verdict string) bool {
	v := strings.ToLower(strings.TrimSpace(verdict))
	if v == "no" || strings.HasPrefix(v, "no.") || strings.HasPrefix(v, "no,") || strings.HasPrefix(v, "no ") {
		return false
	}
	return true
}
