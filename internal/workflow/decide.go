package workflow

import "context"

// DecideNode routes on the classification without touching state.
func DecideNode(rt *Runtime) Node {
	var guard RetryGuard

	return NodeFunc(func(ctx context.Context, s State) (Transition, error) {
		switch {
		case s.Classification.Known():
			return Continue(NodeExtract, s), nil
		case guard.Exhausted(s):
			return Continue(NodeMaxRetries, s), nil
		default:
			return Continue(NodeRequestRetry, s), nil
		}
	})
}
