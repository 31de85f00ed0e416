package engine

import "errors"

// Failure taxonomy for engine calls. All three are absorbed into the fallback
// result at the orchestration layer and never reach a submitting caller.
var (
	// ErrUnreachable indicates a network/transport failure, including a
	// client-side timeout.
	ErrUnreachable = errors.New("analysis engine unreachable")

	// ErrMalformedResponse indicates the engine answered but without the
	// expected candidate structure.
	ErrMalformedResponse = errors.New("analysis engine returned malformed response")

	// ErrResultParse indicates the candidate text was not valid JSON even
	// after code-fence stripping.
	ErrResultParse = errors.New("analysis result is not valid JSON")
)
