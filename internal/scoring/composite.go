// Package scoring combines independent judge sub-scores into weighted
// composites and runs the deterministic code validation for coding
// challenges.
package scoring

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/skillgauge/skillgauge/internal/judge"
	"github.com/skillgauge/skillgauge/internal/models"
)

// Composite weights. They sum to 1 so the composite stays in [0,1].
const (
	WeightAccuracy     = 0.4
	WeightCompleteness = 0.3
	WeightCodeQuality  = 0.3
)

// Judge score keys reported to the feedback sink.
const (
	KeyAccuracy     = "accuracy"
	KeyCompleteness = "completeness"
	KeyCodeQuality  = "code_quality"
	KeyBoundary     = "boundary"
)

const (
	accuracyFocus     = "factual consistency: is every claim in the answer supported by the reference content?"
	completenessFocus = "coverage: does the answer cover the key points implied by the grading criteria?"
	codeQualityFocus  = "code quality: are the answer's code examples correct, idiomatic, and consistent with the reference content?"
	refusalFocus      = "boundary handling: the question is out of scope, so a good answer declines or redirects instead of inventing an answer."
	containmentFocus  = "boundary handling: a good answer stays within information present in the reference content and does not speculate beyond it."
)

// CompositeResult holds the three sub-scores and their weighted combination.
type CompositeResult struct {
	Accuracy     float64
	Completeness float64
	CodeQuality  float64
	Composite    float64
	// Reasoning maps each judge key to its reasoning text.
	Reasoning map[string]string
}

// ChallengeResult combines the judged composite with the deterministic code
// validation score for coding-challenge cases.
type ChallengeResult struct {
	Judged   *CompositeResult
	Code     CodeValidation
	Combined float64
}

// Input carries one answer and its grading context.
type Input struct {
	Question         string
	Answer           string
	ReferenceContent string
	Ref              models.ReferenceOutputs
}

// CompositeScorer runs the sub-evaluations through one shared judge invoker.
type CompositeScorer struct {
	judges *judge.Invoker
}

func NewCompositeScorer(inv *judge.Invoker) *CompositeScorer {
	return &CompositeScorer{judges: inv}
}

// Score runs the accuracy, completeness, and code-quality judges
// concurrently and combines them. Cases without grading criteria earn zero
// across the board without reaching the judge. Transport errors from any
// sub-evaluation abort the whole case.
func (s *CompositeScorer) Score(ctx context.Context, in Input) (*CompositeResult, error) {
	res := &CompositeResult{Reasoning: map[string]string{}}

	// Fail closed: an ungraded case earns no credit.
	if strings.TrimSpace(in.Ref.Criteria) == "" {
		return res, nil
	}

	var accuracy, completeness, codeQuality judge.Score

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accuracy, err = s.judges.Judge(gctx, judge.Input{
			Key:              KeyAccuracy,
			Question:         in.Question,
			Answer:           in.Answer,
			Criteria:         in.Ref.Criteria,
			ReferenceContent: in.ReferenceContent,
			Focus:            accuracyFocus,
		})
		return err
	})
	g.Go(func() error {
		var err error
		completeness, err = s.judges.Judge(gctx, judge.Input{
			Key:              KeyCompleteness,
			Question:         in.Question,
			Answer:           in.Answer,
			Criteria:         in.Ref.Criteria,
			ReferenceContent: in.ReferenceContent,
			Focus:            completenessFocus,
		})
		return err
	})
	g.Go(func() error {
		// Answers without code blocks get full marks without a judge call.
		if len(extractFences(in.Answer)) == 0 {
			codeQuality = judge.Score{
				Key:       KeyCodeQuality,
				Score:     1,
				Reasoning: "no code blocks in answer",
				ParseOK:   true,
			}
			return nil
		}
		var err error
		codeQuality, err = s.judges.Judge(gctx, judge.Input{
			Key:              KeyCodeQuality,
			Question:         in.Question,
			Answer:           in.Answer,
			Criteria:         in.Ref.Criteria,
			ReferenceContent: in.ReferenceContent,
			Focus:            codeQualityFocus,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res.Accuracy = accuracy.Score
	res.Completeness = completeness.Score
	res.CodeQuality = codeQuality.Score
	res.Composite = WeightAccuracy*res.Accuracy +
		WeightCompleteness*res.Completeness +
		WeightCodeQuality*res.CodeQuality
	res.Reasoning[KeyAccuracy] = accuracy.Reasoning
	res.Reasoning[KeyCompleteness] = completeness.Reasoning
	res.Reasoning[KeyCodeQuality] = codeQuality.Reasoning
	return res, nil
}

// ScoreChallenge grades a coding-challenge answer: the judged composite and
// the deterministic code validation each contribute half.
func (s *CompositeScorer) ScoreChallenge(ctx context.Context, in Input) (*ChallengeResult, error) {
	judged, err := s.Score(ctx, in)
	if err != nil {
		return nil, err
	}
	code := ValidateCode(in.Answer, in.Ref)
	return &ChallengeResult{
		Judged:   judged,
		Code:     code,
		Combined: 0.5*judged.Composite + 0.5*code.Score,
	}, nil
}

// ScoreBoundary grades a boundary-probe answer with a single judge call
// whose rubric flips on the expect-refusal flag.
func (s *CompositeScorer) ScoreBoundary(ctx context.Context, in Input) (judge.Score, error) {
	if strings.TrimSpace(in.Ref.Criteria) == "" {
		return judge.Score{
			Key:       KeyBoundary,
			Score:     0,
			Reasoning: "no grading criteria",
			ParseOK:   true,
		}, nil
	}

	focus := containmentFocus
	if in.Ref.ExpectRefusal != nil && *in.Ref.ExpectRefusal {
		focus = refusalFocus
	}
	return s.judges.Judge(ctx, judge.Input{
		Key:              KeyBoundary,
		Question:         in.Question,
		Answer:           in.Answer,
		Criteria:         in.Ref.Criteria,
		ReferenceContent: in.ReferenceContent,
		Focus:            focus,
	})
}
