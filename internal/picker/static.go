package picker

import "context"

// Static answers with fixed paths. An empty answer counts as a cancellation
// unless Fallback is set, in which case Fallback is asked instead.
type Static struct {
	Executable string
	File       string
	Fallback   Picker
}

func (s Static) Name() string { return "static" }

func (s Static) PickExecutable(ctx context.Context, prompt string) (string, error) {
	if s.Executable != "" {
		return s.Executable, nil
	}
	if s.Fallback != nil {
		return s.Fallback.PickExecutable(ctx, prompt)
	}
	return "", ErrCancelled
}

func (s Static) PickFile(ctx context.Context, prompt string) (string, error) {
	if s.File != "" {
		return s.File, nil
	}
	if s.Fallback != nil {
		return s.Fallback.PickFile(ctx, prompt)
	}
	return "", ErrCancelled
}
