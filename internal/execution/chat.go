package execution

import (
	"context"
	"fmt"
	"time"
)

// ChatClient is the chat-completion surface the engine needs. The judge
// clients satisfy it, so one process-wide client instance serves both
// answer generation and judging.
type ChatClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

const answerSystemPrompt = `You answer questions using only the provided skill document as reference material.
If the document does not cover the question, say so instead of guessing.`

// ChatEngine generates answers through a chat client.
type ChatEngine struct {
	client  ChatClient
	modelID string
}

var _ AnswerEngine = (*ChatEngine)(nil)

func NewChatEngine(client ChatClient, modelID string) *ChatEngine {
	return &ChatEngine{client: client, modelID: modelID}
}

func (e *ChatEngine) Initialize(ctx context.Context) error { return nil }

func (e *ChatEngine) Answer(ctx context.Context, req *AnswerRequest) (*AnswerResponse, error) {
	start := time.Now()
	user := fmt.Sprintf("## Skill document\n%s\n\n## Question\n%s", req.SkillContent, req.Question)
	output, err := e.client.Complete(ctx, answerSystemPrompt, user)
	if err != nil {
		return nil, fmt.Errorf("generating answer for %s: %w", req.CaseID, err)
	}
	return &AnswerResponse{
		Output:     output,
		ModelID:    e.modelID,
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

func (e *ChatEngine) Shutdown(ctx context.Context) error { return nil }
