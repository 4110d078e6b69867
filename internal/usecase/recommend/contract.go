package recommend

import "context"

// Completer sends a prompt to a hosted language model and returns its reply text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Configured() bool
}
