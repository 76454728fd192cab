// Package execution produces candidate answers for quality test cases. The
// answer generator is an external collaborator; this package defines the
// interface the runner depends on plus a thin chat-backed implementation.
package execution

import "context"

// AnswerRequest asks for a candidate answer to a question, with the skill
// artifact's content supplied as the only reference material.
type AnswerRequest struct {
	CaseID       string
	Question     string
	SkillContent string
}

// AnswerResponse is the generated candidate answer.
type AnswerResponse struct {
	Output     string
	ModelID    string
	DurationMs int64
}

// AnswerEngine generates candidate answers.
type AnswerEngine interface {
	// Initialize sets up the engine.
	Initialize(ctx context.Context) error

	// Answer produces a candidate answer for one test case.
	Answer(ctx context.Context, req *AnswerRequest) (*AnswerResponse, error)

	// Shutdown cleans up resources.
	Shutdown(ctx context.Context) error
}
