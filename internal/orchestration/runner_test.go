package orchestration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skillgauge/skillgauge/internal/config"
	"github.com/skillgauge/skillgauge/internal/execution"
	"github.com/skillgauge/skillgauge/internal/feedback"
	"github.com/skillgauge/skillgauge/internal/judge"
	"github.com/skillgauge/skillgauge/internal/models"
	"github.com/skillgauge/skillgauge/internal/scoring"
)

const validSkillFile = `---
name: http-requests
description: Make HTTP requests with the requests library
language: python
---

# HTTP Requests

## Overview

The requests library is the standard way to make HTTP calls from Python.
It wraps urllib3 with a friendly API for sessions, headers, query
parameters, timeouts, and response decoding. This section explains when
to reach for plain requests versus a session, how connection pooling
behaves, and which defaults need overriding before production use, with
the timeout default being the most important one to change everywhere.

## Code Examples

` + "```python" + `
import requests

resp = requests.get("https://api.example.com", timeout=10)
` + "```" + `

## Boundaries

What agents can do: issue idempotent requests.

## Gotchas

Always pass an explicit timeout.

## Documentation

- [requests docs](https://requests.readthedocs.io/en/latest/)
`

const invalidSkillFile = `# No Frontmatter

Just a body with nothing the validator wants.
`

func writeSkill(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func structuralConfig(name string) *config.SuiteConfig {
	return &config.SuiteConfig{
		Name:          name,
		Kind:          config.SuiteStructural,
		SoftThreshold: config.DefaultSoftThreshold,
	}
}

func qualityConfig(name string) *config.SuiteConfig {
	return &config.SuiteConfig{
		Name:          name,
		Kind:          config.SuiteQuality,
		SoftThreshold: config.DefaultSoftThreshold,
	}
}

func TestRunSuite_Structural(t *testing.T) {
	dir := t.TempDir()
	valid := writeSkill(t, dir, "valid.md", validSkillFile)
	invalid := writeSkill(t, dir, "invalid.md", invalidSkillFile)

	sink := &feedback.MemorySink{}
	runner := NewRunner(structuralConfig("structure"), nil, nil, sink)

	cases := []models.TestCase{
		{ID: "ok", Inputs: models.Inputs{SkillPath: valid}},
		{ID: "bad", Inputs: models.Inputs{SkillPath: invalid}},
		{ID: "gone", Inputs: models.Inputs{SkillPath: filepath.Join(dir, "missing.md")}},
	}

	outcome, err := runner.RunSuite(context.Background(), cases)
	require.NoError(t, err)
	require.Len(t, outcome.Cases, 3)

	require.Equal(t, models.StatusPassed, outcome.Cases[0].Status)
	require.Empty(t, outcome.Cases[0].Failures)
	require.Equal(t, 1.0, outcome.Cases[0].Scores["sections_completeness"])

	require.Equal(t, models.StatusFailed, outcome.Cases[1].Status)
	require.NotEmpty(t, outcome.Cases[1].Failures)
	require.Contains(t, outcome.Cases[1].Failures, "frontmatter block missing")

	require.Equal(t, models.StatusError, outcome.Cases[2].Status)
	require.NotEmpty(t, outcome.Cases[2].ErrorMsg)

	require.Equal(t, 3, outcome.Digest.Total)
	require.Equal(t, 1, outcome.Digest.Passed)
	require.Equal(t, 1, outcome.Digest.Failed)
	require.Equal(t, 1, outcome.Digest.Errors)
	require.InDelta(t, 1.0/3.0, outcome.Digest.PassRate, 1e-9)

	passEntries := sink.ByKey("ok", "structure_pass")
	require.Len(t, passEntries, 1)
	require.Equal(t, 1.0, passEntries[0].Score)

	failEntries := sink.ByKey("bad", "structure_pass")
	require.Len(t, failEntries, 1)
	require.Equal(t, 0.0, failEntries[0].Score)

	// Unloadable artifacts report nothing.
	require.Empty(t, sink.ByKey("gone", "structure_pass"))
}

// scriptedJudge maps a rubric focus fragment in the system prompt to a score.
type scriptedJudge struct {
	scores map[string]float64
	calls  atomic.Int32
}

func (j *scriptedJudge) Complete(_ context.Context, system, _ string) (string, error) {
	j.calls.Add(1)
	for sub, score := range j.scores {
		if strings.Contains(system, sub) {
			return fmt.Sprintf(`{"score": %g, "reasoning": "ok"}`, score), nil
		}
	}
	return "", fmt.Errorf("no scripted score for: %s", system)
}

func allJudgesAt(score float64) *scriptedJudge {
	return &scriptedJudge{scores: map[string]float64{
		"factual consistency":   score,
		"coverage":              score,
		"code quality":          score,
		"declines or redirects": score,
		"does not speculate":    score,
	}}
}

func TestRunSuite_Quality(t *testing.T) {
	dir := t.TempDir()
	path := writeSkill(t, dir, "skill.md", validSkillFile)

	client := allJudgesAt(0.8)
	scorer := scoring.NewCompositeScorer(judge.NewInvoker(client))
	engine := &execution.MockEngine{DefaultOutput: "Use requests.get with a timeout."}
	sink := &feedback.MemorySink{}

	runner := NewRunner(qualityConfig("quality"), engine, scorer, sink)

	refuse := true
	cases := []models.TestCase{
		{
			ID:               "qa",
			Inputs:           models.Inputs{SkillPath: path, Question: "How do I set a timeout?"},
			ReferenceOutputs: models.ReferenceOutputs{Criteria: "mentions timeout"},
		},
		{
			ID:     "challenge",
			Inputs: models.Inputs{SkillPath: path, Challenge: "Write a GET with a timeout."},
			ReferenceOutputs: models.ReferenceOutputs{
				Criteria:         "uses timeout",
				RequiredPatterns: []string{"requests.get"},
			},
		},
		{
			ID:     "boundary",
			Inputs: models.Inputs{SkillPath: path, Question: "How do I mine bitcoin?"},
			ReferenceOutputs: models.ReferenceOutputs{
				Criteria:      "declines",
				ExpectRefusal: &refuse,
			},
		},
	}

	outcome, err := runner.RunSuite(context.Background(), cases)
	require.NoError(t, err)

	require.Equal(t, 1, engine.InitializeCalls)
	require.Equal(t, 3, engine.AnswerCalls)
	require.Equal(t, 1, engine.ShutdownCalls)

	qa := outcome.Cases[0]
	require.Equal(t, models.StatusPassed, qa.Status)
	require.InDelta(t, 0.8*0.4+0.8*0.3+1.0*0.3, qa.Scores["composite"], 1e-9)
	// The plain-text mock answer has no code blocks, so code quality is free.
	require.Equal(t, 1.0, qa.Scores[scoring.KeyCodeQuality])

	challenge := outcome.Cases[1]
	require.Equal(t, models.StatusPassed, challenge.Status)
	require.Contains(t, challenge.Scores, "code_validation")
	require.Contains(t, challenge.Scores, "combined")

	boundary := outcome.Cases[2]
	require.Equal(t, models.StatusPassed, boundary.Status)
	require.Equal(t, 0.8, boundary.Scores[scoring.KeyBoundary])
	require.NotContains(t, boundary.Scores, "composite")

	require.Len(t, sink.ByKey("qa", "composite"), 1)
	require.Len(t, sink.ByKey("boundary", scoring.KeyBoundary), 1)
}

func TestRunSuite_EngineFailureIsError(t *testing.T) {
	dir := t.TempDir()
	path := writeSkill(t, dir, "skill.md", validSkillFile)

	scorer := scoring.NewCompositeScorer(judge.NewInvoker(allJudgesAt(1)))
	engine := &execution.MockEngine{
		DefaultOutput: "fine",
		FailCases:     map[string]bool{"broken": true},
	}

	runner := NewRunner(qualityConfig("quality"), engine, scorer, nil)

	cases := []models.TestCase{
		{ID: "broken", Inputs: models.Inputs{SkillPath: path, Question: "q"},
			ReferenceOutputs: models.ReferenceOutputs{Criteria: "c"}},
		{ID: "fine", Inputs: models.Inputs{SkillPath: path, Question: "q"},
			ReferenceOutputs: models.ReferenceOutputs{Criteria: "c"}},
	}

	outcome, err := runner.RunSuite(context.Background(), cases)
	require.NoError(t, err)

	require.Equal(t, models.StatusError, outcome.Cases[0].Status)
	require.Contains(t, outcome.Cases[0].ErrorMsg, "scripted failure")
	require.Equal(t, models.StatusPassed, outcome.Cases[1].Status)
	require.Equal(t, 1, outcome.Digest.Errors)
}

func TestRunSuite_JudgeTransportFailureIsError(t *testing.T) {
	dir := t.TempDir()
	path := writeSkill(t, dir, "skill.md", validSkillFile)

	// No scripted scores: every judge call errors.
	scorer := scoring.NewCompositeScorer(judge.NewInvoker(&scriptedJudge{}))
	engine := &execution.MockEngine{DefaultOutput: "an answer"}

	runner := NewRunner(qualityConfig("quality"), engine, scorer, nil)

	outcome, err := runner.RunSuite(context.Background(), []models.TestCase{
		{ID: "qa", Inputs: models.Inputs{SkillPath: path, Question: "q"},
			ReferenceOutputs: models.ReferenceOutputs{Criteria: "c"}},
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusError, outcome.Cases[0].Status)
}

func TestRunSuite_ConcurrentPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	valid := writeSkill(t, dir, "valid.md", validSkillFile)
	invalid := writeSkill(t, dir, "invalid.md", invalidSkillFile)

	cfg := structuralConfig("parallel")
	cfg.Parallel = true
	cfg.Workers = 3

	runner := NewRunner(cfg, nil, nil, &feedback.MemorySink{})

	var cases []models.TestCase
	for i := 0; i < 12; i++ {
		path := valid
		if i%3 == 0 {
			path = invalid
		}
		cases = append(cases, models.TestCase{
			ID:     fmt.Sprintf("case-%d", i),
			Inputs: models.Inputs{SkillPath: path},
		})
	}

	outcome, err := runner.RunSuite(context.Background(), cases)
	require.NoError(t, err)
	require.Len(t, outcome.Cases, 12)

	// Outcomes keep dataset order regardless of completion order.
	for i, c := range outcome.Cases {
		require.Equal(t, fmt.Sprintf("case-%d", i), c.ID)
		if i%3 == 0 {
			require.Equal(t, models.StatusFailed, c.Status)
		} else {
			require.Equal(t, models.StatusPassed, c.Status)
		}
	}
}

func TestRunSuite_ProgressEvents(t *testing.T) {
	dir := t.TempDir()
	path := writeSkill(t, dir, "skill.md", validSkillFile)

	var events []ProgressEvent
	runner := NewRunner(structuralConfig("events"), nil, nil, nil,
		WithProgressListener(func(e ProgressEvent) {
			events = append(events, e)
		}))

	_, err := runner.RunSuite(context.Background(), []models.TestCase{
		{ID: "only", Inputs: models.Inputs{SkillPath: path}},
	})
	require.NoError(t, err)

	require.Len(t, events, 4)
	require.Equal(t, EventSuiteStart, events[0].EventType)
	require.Equal(t, EventCaseStart, events[1].EventType)
	require.Equal(t, EventCaseComplete, events[2].EventType)
	require.Equal(t, models.StatusPassed, events[2].Status)
	require.Equal(t, EventSuiteComplete, events[3].EventType)
}

func TestRunSuite_EmptyDataset(t *testing.T) {
	runner := NewRunner(structuralConfig("empty"), nil, nil, nil)
	_, err := runner.RunSuite(context.Background(), nil)
	require.Error(t, err)
}

func TestRunSuite_QualityNeedsEngineAndScorer(t *testing.T) {
	runner := NewRunner(qualityConfig("incomplete"), nil, nil, nil)
	_, err := runner.RunSuite(context.Background(), []models.TestCase{
		{ID: "x", Inputs: models.Inputs{SkillPath: "skill.md"}},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "answer engine")
}
