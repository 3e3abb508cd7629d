package workflow

import (
	"context"

	"github.com/JaimeStill/tally/internal/reminders"
)

// ConfirmNode tells the user the receipt was registered, then marks the
// record notified and books payment reminders. Only a failed delivery is
// visible in the receipt record; every follow-up here is best effort.
func ConfirmNode(rt *Runtime) Node {
	return NodeFunc(func(ctx context.Context, s State) (Transition, error) {
		s = s.withMessage(confirmMessage(s.Classification, *s.Extracted))

		s, delivered := rt.deliver(ctx, s)
		if delivered && s.ReceiptID != "" {
			markNotified(ctx, rt, s)
		}

		scheduleReminders(ctx, rt, s)

		return Continue(NodeEnd, s), nil
	})
}

func markNotified(ctx context.Context, rt *Runtime, s State) {
	callCtx, cancel := rt.call(ctx)
	defer cancel()

	if err := rt.Receipts.MarkNotified(callCtx, s.ReceiptID); err != nil {
		rt.Logger.WarnContext(ctx, "mark notified failed", "receipt_id", s.ReceiptID, "error", err)
	}
}

func scheduleReminders(ctx context.Context, rt *Runtime, s State) {
	if rt.Reminders == nil {
		return
	}

	due, err := s.Extracted.Due()
	if err != nil {
		return
	}

	callCtx, cancel := rt.call(ctx)
	defer cancel()

	bookings, err := rt.Reminders.Schedule(callCtx, reminders.Request{
		Destination:   s.SessionID,
		Service:       s.Classification.Noun(),
		Provider:      s.Extracted.ProviderName,
		Amount:        s.Extracted.TotalAmount,
		BillingPeriod: s.Extracted.BillingPeriod,
		DueDate:       due,
	})
	if err != nil {
		rt.Logger.WarnContext(ctx, "reminder scheduling failed", "session_id", s.SessionID, "error", err)
	}
	if len(bookings) > 0 {
		rt.Logger.InfoContext(ctx, "reminders scheduled", "session_id", s.SessionID, "count", len(bookings))
	}
}
