package workflow

import (
	"context"
	"log/slog"
	"time"
)

// Runtime bundles the collaborators and settings that workflow nodes require.
// It is constructed by higher-level composition code from Infrastructure and Domain systems.
type Runtime struct {
	Classifier   Classifier
	Extractor    Extractor
	Uploader     Uploader
	Receipts     Repository
	Notifier     Notifier
	Reminders    Scheduler
	Logger       *slog.Logger
	CallTimeout  time.Duration
	UploadFolder string
}

// call bounds a single collaborator call.
func (rt *Runtime) call(ctx context.Context) (context.Context, context.CancelFunc) {
	if rt.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, rt.CallTimeout)
}

// deliver hands s.UserMessage to the Notifier and marks it sent.
// Delivery failures are logged; the workflow continues either way.
func (rt *Runtime) deliver(ctx context.Context, s State) (State, bool) {
	s.MessageSent = true
	if s.UserMessage == "" {
		return s, false
	}

	callCtx, cancel := rt.call(ctx)
	defer cancel()

	receipt, err := rt.Notifier.Send(callCtx, s.SessionID, s.UserMessage)
	if err != nil {
		rt.Logger.WarnContext(ctx, "notification failed", "session_id", s.SessionID, "error", err)
		return s, false
	}

	rt.Logger.DebugContext(ctx, "notification sent", "session_id", s.SessionID, "message_id", receipt.MessageID)
	return s, true
}
