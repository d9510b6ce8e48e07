// Package completion abstracts the outbound text-completion service
// consumed by the model-assisted extraction tier and the daily summarizer.
package completion

import "context"

// Client is a minimal text-completion interface: one system prompt, one
// user prompt, one text answer. Implementations own their own timeouts.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
