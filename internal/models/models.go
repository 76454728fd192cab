// Package models holds the shared test case and outcome types.
package models

import "time"

// Status is the outcome status of one test case.
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
	// StatusError marks infrastructure failures (e.g. the judge transport),
	// distinct from a low score or a failed check.
	StatusError Status = "error"
)

// TestCase is one dataset record.
type TestCase struct {
	ID               string           `yaml:"id" json:"id" mapstructure:"id"`
	Inputs           Inputs           `yaml:"inputs" json:"inputs" mapstructure:"inputs"`
	ReferenceOutputs ReferenceOutputs `yaml:"reference_outputs" json:"reference_outputs" mapstructure:"reference_outputs"`
}

// Inputs identifies the artifact under test plus the question or coding
// challenge posed against it.
type Inputs struct {
	SkillPath string `yaml:"skill_path" json:"skill_path" mapstructure:"skill_path"`
	Question  string `yaml:"question,omitempty" json:"question,omitempty" mapstructure:"question"`
	Challenge string `yaml:"challenge,omitempty" json:"challenge,omitempty" mapstructure:"challenge"`
}

// ReferenceOutputs carries the grading inputs for a test case.
type ReferenceOutputs struct {
	Criteria          string   `yaml:"criteria,omitempty" json:"criteria,omitempty" mapstructure:"criteria"`
	RequiredImports   []string `yaml:"required_imports,omitempty" json:"required_imports,omitempty" mapstructure:"required_imports"`
	RequiredPatterns  []string `yaml:"required_patterns,omitempty" json:"required_patterns,omitempty" mapstructure:"required_patterns"`
	ForbiddenPatterns []string `yaml:"forbidden_patterns,omitempty" json:"forbidden_patterns,omitempty" mapstructure:"forbidden_patterns"`
	// ExpectRefusal selects the boundary-probe grading variant; nil means
	// the case is a plain QA or challenge case.
	ExpectRefusal *bool `yaml:"expect_refusal,omitempty" json:"expect_refusal,omitempty" mapstructure:"expect_refusal"`
}

// CaseOutcome is the result of one executed test case.
type CaseOutcome struct {
	ID         string             `json:"id"`
	Status     Status             `json:"status"`
	Scores     map[string]float64 `json:"scores,omitempty"`
	Failures   []string           `json:"failures,omitempty"`
	ErrorMsg   string             `json:"error_msg,omitempty"`
	DurationMs int64              `json:"duration_ms"`
}

// SuiteOutcome aggregates the outcomes of one suite run.
type SuiteOutcome struct {
	Name      string        `json:"name"`
	Kind      string        `json:"kind"`
	Timestamp time.Time     `json:"timestamp"`
	Cases     []CaseOutcome `json:"cases"`
	Digest    Digest        `json:"digest"`
}

// Digest summarizes a suite run.
type Digest struct {
	Total      int     `json:"total"`
	Passed     int     `json:"passed"`
	Failed     int     `json:"failed"`
	Errors     int     `json:"errors"`
	PassRate   float64 `json:"pass_rate"`
	DurationMs int64   `json:"duration_ms"`
}
