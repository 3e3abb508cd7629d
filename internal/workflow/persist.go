package workflow

import (
	"context"
	"fmt"

	"github.com/JaimeStill/tally/internal/receipts"
)

// PersistNode records the receipt. Saving is keyed by the uploaded image, so
// re-entering after a crash between save and checkpoint does not duplicate it.
func PersistNode(rt *Runtime) Node {
	return NodeFunc(func(ctx context.Context, s State) (Transition, error) {
		if s.Extracted == nil || s.UploadedRef == "" {
			return Transition{}, fmt.Errorf("%w: missing extracted fields or upload reference", ErrPersistFailed)
		}

		due, err := s.Extracted.Due()
		if err != nil {
			return Transition{}, fmt.Errorf("%w: %w", ErrPersistFailed, err)
		}

		callCtx, cancel := rt.call(ctx)
		defer cancel()

		rec, err := rt.Receipts.Save(callCtx, receipts.CreateCommand{
			PhoneNumber:   s.SessionID,
			ServiceType:   string(s.Classification),
			IsValid:       s.IsValid,
			TotalAmount:   s.Extracted.TotalAmount,
			DueDate:       due,
			BillingPeriod: s.Extracted.BillingPeriod,
			ProviderName:  s.Extracted.ProviderName,
			ImageURL:      s.UploadedRef,
		})
		if err != nil {
			return Transition{}, fmt.Errorf("%w: %w", ErrPersistFailed, err)
		}

		s.ReceiptID = rec.ID.String()

		rt.Logger.InfoContext(ctx, "persist node complete", "session_id", s.SessionID, "receipt_id", s.ReceiptID)
		return Continue(NodeConfirm, s), nil
	})
}
