// Package judge scores candidate answers with a rubric-constrained language
// model call. Parse problems are absorbed into a zero score; only transport
// failures surface as errors.
package judge

import "context"

// Client is a minimal chat-completion client. Implementations must be safe
// for concurrent use: one instance is constructed per process and shared
// across every concurrent judge call.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
}
