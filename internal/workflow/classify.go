package workflow

import (
	"context"
	"fmt"
)

// ClassifyNode returns the node that labels the current image. Classifier
// errors, per-call timeouts and unrecognized labels degrade to Invalid so
// the retry policy handles them like an unreadable photo. Cancellation of
// the invocation itself is returned as an error and costs no attempt.
func ClassifyNode(rt *Runtime) Node {
	return NodeFunc(func(ctx context.Context, s State) (Transition, error) {
		if s.AwaitingInput {
			rt.Logger.WarnContext(ctx, "classify entered while awaiting input", "session_id", s.SessionID)
			return Continue(NodeEnd, s), nil
		}

		label, err := classifyImage(ctx, rt, s)
		if err != nil {
			return Transition{}, err
		}

		s.Classification = label
		s.IsValid = false
		s.Extracted = nil
		s = s.withMessage(classifiedMessage(label))

		rt.Logger.InfoContext(
			ctx, "classify node complete",
			"session_id", s.SessionID,
			"classification", label,
			"attempt", s.AttemptCount+1,
		)

		return Continue(NodeDecide, s), nil
	})
}

func classifyImage(ctx context.Context, rt *Runtime, s State) (Classification, error) {
	if s.Image == nil || len(s.Image.Data) == 0 {
		return Invalid, nil
	}

	callCtx, cancel := rt.call(ctx)
	defer cancel()

	label, err := rt.Classifier.Classify(callCtx, *s.Image)
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return Invalid, fmt.Errorf("classify interrupted: %w", cerr)
		}
		rt.Logger.WarnContext(ctx, "classification failed, treating as invalid", "session_id", s.SessionID, "error", err)
		return Invalid, nil
	}
	if !label.Known() {
		return Invalid, nil
	}
	return label, nil
}
