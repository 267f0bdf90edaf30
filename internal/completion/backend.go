package completion

import "context"

// Tier is the coarse cost/quality class of a completion request.
type Tier string

const (
	TierSimple  Tier = "simple"
	TierMedium  Tier = "medium"
	TierComplex Tier = "complex"
)

// Backend sends one prompt to one named model and returns the generated
// text. Implementations wrap a provider SDK and nothing else; selection,
// fallback and accounting live in Service.
type Backend interface {
	Name() string
	Complete(ctx context.Context, model, prompt string) (string, error)
}

// Error records which model a failed completion was issued against.
type Error struct {
	Model string
	Err   error
}

func (e *Error) Error() string {
	return "completion with " + e.Model + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
