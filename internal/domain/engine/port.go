package engine

import "context"

// Client is the port to the external analysis engine. Generate sends one
// natural-language prompt and returns the engine's raw text output. Callers
// decide whether that text is a bare label (classification) or a JSON payload
// to hand to ParseResult.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
