// Package orchestration iterates a dataset and drives the validator or the
// composite scorer per test case, reporting results to a feedback sink.
package orchestration

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/skillgauge/skillgauge/internal/checks"
	"github.com/skillgauge/skillgauge/internal/config"
	"github.com/skillgauge/skillgauge/internal/execution"
	"github.com/skillgauge/skillgauge/internal/feedback"
	"github.com/skillgauge/skillgauge/internal/models"
	"github.com/skillgauge/skillgauge/internal/scoring"
	"github.com/skillgauge/skillgauge/internal/skill"
)

// EventType identifies a progress event.
type EventType string

const (
	EventSuiteStart    EventType = "suite_start"
	EventSuiteComplete EventType = "suite_complete"
	EventCaseStart     EventType = "case_start"
	EventCaseComplete  EventType = "case_complete"
)

// ProgressEvent is a progress update emitted while a suite runs.
type ProgressEvent struct {
	EventType  EventType
	CaseID     string
	CaseNum    int
	TotalCases int
	Status     models.Status
	DurationMs int64
}

// ProgressListener receives progress updates.
type ProgressListener func(event ProgressEvent)

// Runner executes a suite of test cases. Cases are mutually independent and
// may run concurrently across a bounded worker pool.
type Runner struct {
	cfg    *config.SuiteConfig
	engine execution.AnswerEngine
	scorer *scoring.CompositeScorer
	sink   feedback.Sink

	progressMu sync.Mutex
	listeners  []ProgressListener
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithProgressListener registers a progress listener at construction.
func WithProgressListener(l ProgressListener) RunnerOption {
	return func(r *Runner) {
		r.listeners = append(r.listeners, l)
	}
}

// NewRunner builds a runner. engine and scorer may be nil for structural
// suites, which never touch them.
func NewRunner(cfg *config.SuiteConfig, engine execution.AnswerEngine, scorer *scoring.CompositeScorer, sink feedback.Sink, opts ...RunnerOption) *Runner {
	r := &Runner{
		cfg:    cfg,
		engine: engine,
		scorer: scorer,
		sink:   sink,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// OnProgress registers a progress listener.
func (r *Runner) OnProgress(listener ProgressListener) {
	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	r.listeners = append(r.listeners, listener)
}

func (r *Runner) notifyProgress(event ProgressEvent) {
	r.progressMu.Lock()
	listeners := make([]ProgressListener, len(r.listeners))
	copy(listeners, r.listeners)
	r.progressMu.Unlock()

	for _, listener := range listeners {
		listener(event)
	}
}

// RunSuite executes every test case and returns the aggregated outcome.
func (r *Runner) RunSuite(ctx context.Context, cases []models.TestCase) (*models.SuiteOutcome, error) {
	if len(cases) == 0 {
		return nil, fmt.Errorf("no test cases in suite %q", r.cfg.Name)
	}

	if r.cfg.Kind == config.SuiteQuality {
		if r.engine == nil || r.scorer == nil {
			return nil, fmt.Errorf("quality suite %q needs an answer engine and a scorer", r.cfg.Name)
		}
		if err := r.engine.Initialize(ctx); err != nil {
			return nil, fmt.Errorf("initializing answer engine: %w", err)
		}
		defer func() {
			if err := r.engine.Shutdown(ctx); err != nil {
				slog.Warn("answer engine shutdown failed", "error", err)
			}
		}()
	}

	start := time.Now()
	r.notifyProgress(ProgressEvent{EventType: EventSuiteStart, TotalCases: len(cases)})

	var outcomes []models.CaseOutcome
	if r.cfg.Parallel {
		outcomes = r.runConcurrent(ctx, cases)
	} else {
		outcomes = r.runSequential(ctx, cases)
	}

	outcome := &models.SuiteOutcome{
		Name:      r.cfg.Name,
		Kind:      string(r.cfg.Kind),
		Timestamp: start,
		Cases:     outcomes,
		Digest:    buildDigest(outcomes, time.Since(start)),
	}

	r.notifyProgress(ProgressEvent{
		EventType:  EventSuiteComplete,
		TotalCases: len(cases),
		DurationMs: outcome.Digest.DurationMs,
	})
	return outcome, nil
}

func (r *Runner) runSequential(ctx context.Context, cases []models.TestCase) []models.CaseOutcome {
	outcomes := make([]models.CaseOutcome, 0, len(cases))
	for i, tc := range cases {
		outcomes = append(outcomes, r.runOne(ctx, tc, i+1, len(cases)))
	}
	return outcomes
}

func (r *Runner) runConcurrent(ctx context.Context, cases []models.TestCase) []models.CaseOutcome {
	workers := r.cfg.Workers
	if workers <= 0 {
		workers = config.DefaultWorkers
	}

	type result struct {
		index   int
		outcome models.CaseOutcome
	}

	resultChan := make(chan result, len(cases))
	semaphore := make(chan struct{}, workers)

	var wg sync.WaitGroup
	for i, tc := range cases {
		wg.Add(1)
		go func(idx int, tc models.TestCase) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			resultChan <- result{index: idx, outcome: r.runOne(ctx, tc, idx+1, len(cases))}
		}(i, tc)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]models.CaseOutcome, len(cases))
	for res := range resultChan {
		results[res.index] = res.outcome
	}
	return results
}

// runOne executes a single test case: load the artifact fresh, then validate
// (structural) or answer and score (quality).
func (r *Runner) runOne(ctx context.Context, tc models.TestCase, caseNum, total int) models.CaseOutcome {
	r.notifyProgress(ProgressEvent{
		EventType:  EventCaseStart,
		CaseID:     tc.ID,
		CaseNum:    caseNum,
		TotalCases: total,
	})

	start := time.Now()
	outcome := models.CaseOutcome{ID: tc.ID, Scores: map[string]float64{}}

	artifact, err := skill.Load(r.cfg.ResolveSkillPath(tc.Inputs.SkillPath))
	if err != nil {
		outcome.Status = models.StatusError
		outcome.ErrorMsg = err.Error()
	} else if r.cfg.Kind == config.SuiteStructural {
		r.runStructural(artifact, tc, &outcome)
	} else {
		r.runQuality(ctx, artifact, tc, &outcome)
	}

	outcome.DurationMs = time.Since(start).Milliseconds()
	r.notifyProgress(ProgressEvent{
		EventType:  EventCaseComplete,
		CaseID:     tc.ID,
		CaseNum:    caseNum,
		TotalCases: total,
		Status:     outcome.Status,
		DurationMs: outcome.DurationMs,
	})
	return outcome
}

// runStructural validates the artifact and hard-fails the case on any
// required-check violation.
func (r *Runner) runStructural(artifact *skill.Artifact, tc models.TestCase, outcome *models.CaseOutcome) {
	res := checks.EvaluateStructure(artifact)

	outcome.Scores["sections_completeness"] = res.SectionsCompleteness()
	outcome.Failures = res.Failures

	r.report(tc.ID, "structure_pass", boolScore(res.Pass()))
	r.report(tc.ID, "sections_completeness", res.SectionsCompleteness())
	r.report(tc.ID, "overview_min_words", boolScore(res.OverviewMinWords))
	r.report(tc.ID, "code_block_count", float64(res.CodeBlockCount))
	r.report(tc.ID, "has_decision_table", boolScore(res.HasDecisionTable))
	r.report(tc.ID, "all_links_absolute", boolScore(res.AllLinksAbsolute))

	if res.Pass() {
		outcome.Status = models.StatusPassed
	} else {
		outcome.Status = models.StatusFailed
	}
}

// runQuality obtains a candidate answer and scores it. Low scores never fail
// the case; only infrastructure errors do.
func (r *Runner) runQuality(ctx context.Context, artifact *skill.Artifact, tc models.TestCase, outcome *models.CaseOutcome) {
	question := tc.Inputs.Question
	if tc.Inputs.Challenge != "" {
		question = tc.Inputs.Challenge
	}

	resp, err := r.engine.Answer(ctx, &execution.AnswerRequest{
		CaseID:       tc.ID,
		Question:     question,
		SkillContent: artifact.RawContent,
	})
	if err != nil {
		outcome.Status = models.StatusError
		outcome.ErrorMsg = err.Error()
		return
	}

	in := scoring.Input{
		Question:         question,
		Answer:           resp.Output,
		ReferenceContent: artifact.RawContent,
		Ref:              tc.ReferenceOutputs,
	}

	switch {
	case tc.ReferenceOutputs.ExpectRefusal != nil:
		score, err := r.scorer.ScoreBoundary(ctx, in)
		if err != nil {
			outcome.Status = models.StatusError
			outcome.ErrorMsg = err.Error()
			return
		}
		outcome.Scores[scoring.KeyBoundary] = score.Score
		r.report(tc.ID, scoring.KeyBoundary, score.Score)
		r.warnBelowThreshold(tc.ID, score.Score, outcome.Scores)

	case tc.Inputs.Challenge != "":
		res, err := r.scorer.ScoreChallenge(ctx, in)
		if err != nil {
			outcome.Status = models.StatusError
			outcome.ErrorMsg = err.Error()
			return
		}
		r.recordComposite(tc.ID, res.Judged, outcome)
		outcome.Scores["code_validation"] = res.Code.Score
		outcome.Scores["combined"] = res.Combined
		r.report(tc.ID, "code_validation", res.Code.Score)
		r.report(tc.ID, "combined", res.Combined)
		r.warnBelowThreshold(tc.ID, res.Combined, outcome.Scores)

	default:
		res, err := r.scorer.Score(ctx, in)
		if err != nil {
			outcome.Status = models.StatusError
			outcome.ErrorMsg = err.Error()
			return
		}
		r.recordComposite(tc.ID, res, outcome)
		r.warnBelowThreshold(tc.ID, res.Composite, outcome.Scores)
	}

	outcome.Status = models.StatusPassed
}

func (r *Runner) recordComposite(caseID string, res *scoring.CompositeResult, outcome *models.CaseOutcome) {
	outcome.Scores[scoring.KeyAccuracy] = res.Accuracy
	outcome.Scores[scoring.KeyCompleteness] = res.Completeness
	outcome.Scores[scoring.KeyCodeQuality] = res.CodeQuality
	outcome.Scores["composite"] = res.Composite

	r.report(caseID, scoring.KeyAccuracy, res.Accuracy)
	r.report(caseID, scoring.KeyCompleteness, res.Completeness)
	r.report(caseID, scoring.KeyCodeQuality, res.CodeQuality)
	r.report(caseID, "composite", res.Composite)
}

func (r *Runner) warnBelowThreshold(caseID string, composite float64, scores map[string]float64) {
	if composite >= r.cfg.SoftThreshold {
		return
	}
	args := []any{"case", caseID, "composite", composite, "threshold", r.cfg.SoftThreshold}
	for k, v := range scores {
		args = append(args, k, v)
	}
	slog.Warn("composite score below threshold", args...)
}

func (r *Runner) report(caseID, key string, score float64) {
	if r.sink == nil {
		return
	}
	if err := r.sink.Report(feedback.Entry{Case: caseID, Key: key, Score: score}); err != nil {
		slog.Warn("feedback sink report failed", "case", caseID, "key", key, "error", err)
	}
}

func buildDigest(outcomes []models.CaseOutcome, elapsed time.Duration) models.Digest {
	d := models.Digest{Total: len(outcomes), DurationMs: elapsed.Milliseconds()}
	for _, o := range outcomes {
		switch o.Status {
		case models.StatusPassed:
			d.Passed++
		case models.StatusFailed:
			d.Failed++
		default:
			d.Errors++
		}
	}
	if d.Total > 0 {
		d.PassRate = float64(d.Passed) / float64(d.Total)
	}
	return d
}

func boolScore(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
