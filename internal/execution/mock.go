package execution

import (
	"context"
	"fmt"
	"sync"
)

// MockEngine is a scripted engine for tests. Answers are keyed by case ID;
// unkeyed cases fall back to DefaultOutput.
type MockEngine struct {
	mu            sync.Mutex
	Answers       map[string]string
	DefaultOutput string
	// FailCases lists case IDs whose Answer call returns an error.
	FailCases map[string]bool

	InitializeCalls int
	AnswerCalls     int
	ShutdownCalls   int
}

var _ AnswerEngine = (*MockEngine)(nil)

func (m *MockEngine) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InitializeCalls++
	return nil
}

func (m *MockEngine) Answer(ctx context.Context, req *AnswerRequest) (*AnswerResponse, error) {
	m.mu.Lock()
	m.AnswerCalls++
	m.mu.Unlock()

	if m.FailCases[req.CaseID] {
		return nil, fmt.Errorf("mock engine: scripted failure for %s", req.CaseID)
	}

	output := m.DefaultOutput
	if answer, ok := m.Answers[req.CaseID]; ok {
		output = answer
	}
	return &AnswerResponse{Output: output, ModelID: "mock"}, nil
}

func (m *MockEngine) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ShutdownCalls++
	return nil
}
