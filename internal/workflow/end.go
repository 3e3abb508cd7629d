package workflow

import "context"

// EndNode delivers any message not yet sent and terminates the instance.
func EndNode(rt *Runtime) Node {
	return NodeFunc(func(ctx context.Context, s State) (Transition, error) {
		if !s.MessageSent {
			s, _ = rt.deliver(ctx, s)
		}
		return Terminate(s), nil
	})
}
