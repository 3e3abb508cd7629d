package workflow

import "context"

// RequestRetryNode records the failed attempt, asks for a new image,
// and suspends until one arrives.
func RequestRetryNode(rt *Runtime) Node {
	return NodeFunc(func(ctx context.Context, s State) (Transition, error) {
		s.AttemptCount++
		s.AwaitingInput = true
		s.Image = nil
		s = s.withMessage(retryMessage(s.AttemptCount, s.AttemptLimit))

		s, _ = rt.deliver(ctx, s)

		rt.Logger.InfoContext(
			ctx, "awaiting new image",
			"session_id", s.SessionID,
			"attempt_count", s.AttemptCount,
			"attempt_limit", s.AttemptLimit,
		)

		return Suspend(NodeClassify, s), nil
	})
}

// MaxRetriesNode records the final failed attempt and ends the workflow.
func MaxRetriesNode(rt *Runtime) Node {
	return NodeFunc(func(ctx context.Context, s State) (Transition, error) {
		s.AttemptCount = min(s.AttemptCount+1, s.AttemptLimit)
		s.IsValid = false
		s.AwaitingInput = false
		s.Image = nil
		s = s.withMessage(maxRetriesMessage(s.AttemptLimit))

		s, _ = rt.deliver(ctx, s)

		rt.Logger.InfoContext(ctx, "attempt limit reached", "session_id", s.SessionID, "attempt_count", s.AttemptCount)
		return Continue(NodeEnd, s), nil
	})
}
