package extract

import "context"

// Completer is the completion capability of the model gateway.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
