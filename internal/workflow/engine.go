package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/JaimeStill/tally/internal/sessions"
)

// Options configures an Engine.
type Options struct {
	AttemptLimit int
	MaxSteps     int
}

func (o *Options) defaults() {
	if o.AttemptLimit <= 0 {
		o.AttemptLimit = 3
	}
	if o.MaxSteps <= 0 {
		o.MaxSteps = 32
	}
}

// Input is the payload of one Run invocation. Image is nil when the caller
// only wants to continue an interrupted session.
type Input struct {
	Image *Image
}

// Result describes a session after a Run or as reported by Status.
type Result struct {
	SessionID string    `json:"session_id"`
	State     State     `json:"state"`
	Next      NodeName  `json:"next,omitempty"`
	Suspended bool      `json:"suspended"`
	Completed bool      `json:"completed"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Engine drives sessions through the workflow graph, checkpointing after
// every transition. Runs for the same session are serialized in process;
// the store's version check guards against writers in other processes.
type Engine struct {
	store sessions.Store
	rt    *Runtime
	graph *Graph
	locks *keyedLock
	opts  Options
}

// NewEngine builds the workflow graph over rt and returns an Engine backed by store.
func NewEngine(store sessions.Store, rt *Runtime, opts Options) (*Engine, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if rt == nil || rt.Logger == nil {
		return nil, errors.New("runtime with logger is required")
	}

	g, err := BuildGraph(rt)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	opts.defaults()

	return &Engine{
		store: store,
		rt:    rt,
		graph: g,
		locks: newKeyedLock(),
		opts:  opts,
	}, nil
}

// Run advances sessionID with in until the workflow suspends, terminates,
// or a node fails. A failed node leaves the session resumable at that node.
func (e *Engine) Run(ctx context.Context, sessionID string, in Input) (*Result, error) {
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	unlock, err := e.locks.lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	cp, err := e.store.Load(ctx, sessionID)
	if err != nil && !errors.Is(err, sessions.ErrNotFound) {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}

	state, next, version, err := e.prepare(ctx, sessionID, cp, in)
	if err != nil {
		return nil, err
	}

	current := &sessions.Checkpoint{SessionID: sessionID, Version: version}
	if err := e.commit(ctx, current, state, next, false); err != nil {
		return nil, err
	}

	e.rt.Logger.InfoContext(
		ctx, "workflow run started",
		"session_id", sessionID,
		"node", next,
		"attempt_count", state.AttemptCount,
	)

	for step := 0; ; step++ {
		if step >= e.opts.MaxSteps {
			return nil, fmt.Errorf("%w: %d steps at %s", ErrStepLimit, step, next)
		}

		node, err := e.graph.Node(next)
		if err != nil {
			return nil, err
		}

		tr, err := node.Run(ctx, state)
		if err != nil && ctx.Err() != nil {
			e.rt.Logger.WarnContext(ctx, "workflow interrupted, checkpoint kept", "session_id", sessionID, "node", next, "error", err)
			return nil, fmt.Errorf("node %s: %w", next, err)
		}
		if err != nil {
			e.notifyFailure(ctx, state)
			e.rt.Logger.ErrorContext(ctx, "workflow node failed", "session_id", sessionID, "node", next, "error", err)
			return nil, fmt.Errorf("node %s: %w", next, err)
		}

		if err := e.graph.Check(next, tr); err != nil {
			return nil, err
		}

		state = tr.State

		switch tr.Kind {
		case KindContinue:
			next = tr.Next
			if err := e.commit(ctx, current, state, next, false); err != nil {
				return nil, err
			}
		case KindSuspend:
			if err := e.commit(ctx, current, state, tr.Next, true); err != nil {
				return nil, err
			}
			e.rt.Logger.InfoContext(ctx, "workflow suspended", "session_id", sessionID, "resume_at", tr.Next)
			return toResult(current, state), nil
		case KindTerminate:
			if err := e.commit(ctx, current, state, "", false); err != nil {
				return nil, err
			}
			e.rt.Logger.InfoContext(
				ctx, "workflow completed",
				"session_id", sessionID,
				"classification", state.Classification,
				"is_valid", state.IsValid,
			)
			return toResult(current, state), nil
		}
	}
}

// Status returns the stored view of sessionID.
func (e *Engine) Status(ctx context.Context, sessionID string) (*Result, error) {
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	cp, state, err := e.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return toResult(cp, state), nil
}

// Reset deletes the checkpoint for sessionID. An image uploaded by an
// interrupted run that never reached the repository is discarded.
func (e *Engine) Reset(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return ErrInvalidSession
	}

	unlock, err := e.locks.lock(ctx, sessionID)
	if err != nil {
		return err
	}
	defer unlock()

	_, state, err := e.load(ctx, sessionID)
	if err != nil {
		return err
	}

	e.discardOrphan(ctx, state)

	if err := e.store.Delete(ctx, sessionID); err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("delete checkpoint: %w", err)
	}

	e.rt.Logger.InfoContext(ctx, "session reset", "session_id", sessionID)
	return nil
}

func (e *Engine) prepare(ctx context.Context, id string, cp *sessions.Checkpoint, in Input) (State, NodeName, int64, error) {
	if cp == nil {
		if in.Image == nil {
			return State{}, "", 0, ErrSessionNotFound
		}
		return NewState(id, e.opts.AttemptLimit, *in.Image), e.graph.Entry(), 0, nil
	}

	if cp.Completed() {
		if in.Image == nil {
			return State{}, "", 0, ErrNoInput
		}
		return NewState(id, e.opts.AttemptLimit, *in.Image), e.graph.Entry(), cp.Version, nil
	}

	prior, err := decodeState(cp)
	if err != nil {
		return State{}, "", 0, err
	}

	switch {
	case cp.Awaiting && in.Image == nil:
		return State{}, "", 0, ErrAwaitingInput
	case cp.Awaiting:
		return prior.Resume(*in.Image), NodeName(cp.Next), cp.Version, nil
	case in.Image == nil:
		e.rt.Logger.InfoContext(ctx, "resuming interrupted session", "session_id", id, "node", cp.Next)
		return prior, NodeName(cp.Next), cp.Version, nil
	default:
		e.discardOrphan(ctx, prior)
		return prior.Resume(*in.Image), e.graph.Entry(), cp.Version, nil
	}
}

func (e *Engine) commit(ctx context.Context, cp *sessions.Checkpoint, s State, next NodeName, awaiting bool) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	cp.State = data
	cp.Next = string(next)
	cp.Awaiting = awaiting

	if err := e.store.Commit(ctx, cp); err != nil {
		if errors.Is(err, sessions.ErrConflict) {
			return fmt.Errorf("%w: %w", ErrConflict, err)
		}
		return fmt.Errorf("commit checkpoint: %w", err)
	}
	return nil
}

func (e *Engine) load(ctx context.Context, id string) (*sessions.Checkpoint, State, error) {
	cp, err := e.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			return nil, State{}, ErrSessionNotFound
		}
		return nil, State{}, fmt.Errorf("load checkpoint: %w", err)
	}

	state, err := decodeState(cp)
	if err != nil {
		return nil, State{}, err
	}
	return cp, state, nil
}

func (e *Engine) notifyFailure(ctx context.Context, s State) {
	callCtx, cancel := e.rt.call(context.WithoutCancel(ctx))
	defer cancel()

	if _, err := e.rt.Notifier.Send(callCtx, s.SessionID, failureMessage()); err != nil {
		e.rt.Logger.WarnContext(ctx, "failure notification failed", "session_id", s.SessionID, "error", err)
	}
}

func (e *Engine) discardOrphan(ctx context.Context, s State) {
	if s.UploadedRef == "" || s.ReceiptID != "" {
		return
	}

	callCtx, cancel := e.rt.call(ctx)
	defer cancel()

	if err := e.rt.Uploader.Discard(callCtx, s.UploadedRef); err != nil {
		e.rt.Logger.WarnContext(ctx, "discard orphaned upload failed", "session_id", s.SessionID, "ref", s.UploadedRef, "error", err)
	}
}

func decodeState(cp *sessions.Checkpoint) (State, error) {
	var s State
	if err := json.Unmarshal(cp.State, &s); err != nil {
		return State{}, fmt.Errorf("decode state for %s: %w", cp.SessionID, err)
	}
	return s, nil
}

func toResult(cp *sessions.Checkpoint, s State) *Result {
	return &Result{
		SessionID: cp.SessionID,
		State:     s,
		Next:      NodeName(cp.Next),
		Suspended: cp.Awaiting,
		Completed: cp.Completed(),
		Version:   cp.Version,
		UpdatedAt: cp.UpdatedAt,
	}
}
