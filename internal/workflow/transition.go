package workflow

import "context"

// NodeName identifies a node in the workflow graph.
type NodeName string

// Workflow nodes.
const (
	NodeClassify     NodeName = "classify"
	NodeDecide       NodeName = "decide"
	NodeExtract      NodeName = "extract"
	NodeUpload       NodeName = "upload"
	NodePersist      NodeName = "persist"
	NodeConfirm      NodeName = "confirm"
	NodeRequestRetry NodeName = "request_retry"
	NodeMaxRetries   NodeName = "max_retries"
	NodeEnd          NodeName = "end"
)

// TransitionKind distinguishes the outcomes a node can report.
type TransitionKind int

const (
	// KindContinue moves to Next within the same invocation.
	KindContinue TransitionKind = iota
	// KindSuspend ends the invocation; the session resumes at Next.
	KindSuspend
	// KindTerminate ends the workflow instance.
	KindTerminate
)

func (k TransitionKind) String() string {
	switch k {
	case KindContinue:
		return "continue"
	case KindSuspend:
		return "suspend"
	case KindTerminate:
		return "terminate"
	default:
		return "unknown"
	}
}

// Transition is the result of running a node.
type Transition struct {
	Kind  TransitionKind
	Next  NodeName
	State State
}

// Continue moves to next carrying s.
func Continue(next NodeName, s State) Transition {
	return Transition{Kind: KindContinue, Next: next, State: s}
}

// Suspend stops the invocation; the next Run with input re-enters at resumeAt.
func Suspend(resumeAt NodeName, s State) Transition {
	return Transition{Kind: KindSuspend, Next: resumeAt, State: s}
}

// Terminate finishes the workflow instance.
func Terminate(s State) Transition {
	return Transition{Kind: KindTerminate, State: s}
}

// Node is a single workflow step.
type Node interface {
	Run(ctx context.Context, s State) (Transition, error)
}

// NodeFunc adapts a function to Node.
type NodeFunc func(ctx context.Context, s State) (Transition, error)

// Run calls f.
func (f NodeFunc) Run(ctx context.Context, s State) (Transition, error) {
	return f(ctx, s)
}
