package workflow

import (
	"context"
	"fmt"
)

// ExtractNode reads the receipt fields for a classified image.
// A failure is fatal to the invocation and leaves the session resumable here.
func ExtractNode(rt *Runtime) Node {
	return NodeFunc(func(ctx context.Context, s State) (Transition, error) {
		if s.Image == nil {
			return Transition{}, fmt.Errorf("%w: no image in state", ErrExtractFailed)
		}

		callCtx, cancel := rt.call(ctx)
		defer cancel()

		fields, err := rt.Extractor.Extract(callCtx, *s.Image, s.Classification)
		if err != nil {
			return Transition{}, fmt.Errorf("%w: %w", ErrExtractFailed, err)
		}
		if err := fields.Validate(); err != nil {
			return Transition{}, fmt.Errorf("%w: %w", ErrExtractFailed, err)
		}

		s.Extracted = &fields
		s.IsValid = true

		rt.Logger.InfoContext(
			ctx, "extract node complete",
			"session_id", s.SessionID,
			"due_date", fields.DueDate,
			"provider", fields.ProviderName,
		)

		return Continue(NodeUpload, s), nil
	})
}
