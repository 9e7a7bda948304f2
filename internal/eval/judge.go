package eval

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/atlaslab/handbook/internal/agent"
)

// Dimension names a judged LASH dimension.
type Dimension string

const (
	DimensionAccuracy    Dimension = "accuracy"
	DimensionSafety      Dimension = "safety"
	DimensionHelpfulness Dimension = "helpfulness"
)

// Judge is the opaque scoring capability for the judged dimensions. The
// rubric behind a score is the judge's own business; only the [0,1] contract
// is fixed. Tests inject deterministic judges.
type Judge interface {
	Score(ctx context.Context, dim Dimension, question, answer, reference string) (float64, error)
}

// ModelJudge scores dimensions with one model call each. The rubric text is
// supplied at construction; the default names the dimension and nothing more.
type ModelJudge struct {
	generator agent.TextGenerator
	rubrics   map[Dimension]string
}

// NewModelJudge creates a ModelJudge. rubrics may be nil or partial; missing
// dimensions fall back to a dimension-name-only instruction.
func NewModelJudge(generator agent.TextGenerator, rubrics map[Dimension]string) *ModelJudge {
	return &ModelJudge{generator: generator, rubrics: rubrics}
}

// Score asks the model for a numeric judgment and parses it.
func (j *ModelJudge) Score(ctx context.Context, dim Dimension, question, answer, reference string) (float64, error) {
	text, err := j.generator.GenerateText(ctx, j.prompt(dim, question, answer, reference))
	if err != nil {
		return 0, fmt.Errorf("judging %s: %w", dim, err)
	}
	score, err := parseScore(text)
	if err != nil {
		return 0, fmt.Errorf("judging %s: %w", dim, err)
	}
	return score, nil
}

func (j *ModelJudge) prompt(dim Dimension, question, answer, reference string) string {
	rubric, ok := j.rubrics[dim]
	if !ok {
		rubric = fmt.Sprintf("Rate the %s of the answer.", dim)
	}

	var b strings.Builder
	b.WriteString(rubric)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\nAnswer: ")
	b.WriteString(answer)
	if reference != "" {
		b.WriteString("\nReference answer: ")
		b.WriteString(reference)
	}
	b.WriteString("\n\nRespond with a single number between 0.0 and 1.0, nothing else.")
	return b.String()
}

var scorePattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// parseScore extracts the first number from a judge reply and clamps it to
// [0,1].
func parseScore(text string) (float64, error) {
	match := scorePattern.FindString(text)
	if match == "" {
		return 0, fmt.Errorf("no score in judge reply %q", text)
	}
	score, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing judge reply %q: %w", text, err)
	}
	return min(max(score, 0), 1), nil
}
