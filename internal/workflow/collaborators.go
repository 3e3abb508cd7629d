package workflow

import (
	"context"

	"github.com/JaimeStill/tally/internal/notify"
	"github.com/JaimeStill/tally/internal/receipts"
	"github.com/JaimeStill/tally/internal/reminders"
)

// Classifier labels a receipt image.
type Classifier interface {
	Classify(ctx context.Context, img Image) (Classification, error)
}

// Extractor reads structured fields from a classified receipt image.
type Extractor interface {
	Extract(ctx context.Context, img Image, c Classification) (ExtractedFields, error)
}

// Uploader stores receipt images durably.
type Uploader interface {
	// Upload stores img and returns a durable reference to it.
	Upload(ctx context.Context, img Image, folder, name string, tags map[string]string) (string, error)
	// Discard removes an image previously returned by Upload.
	Discard(ctx context.Context, ref string) error
}

// Repository records processed receipts.
type Repository interface {
	Save(ctx context.Context, cmd receipts.CreateCommand) (*receipts.Receipt, error)
	MarkNotified(ctx context.Context, id string) error
}

// Notifier delivers user-facing messages.
type Notifier interface {
	Send(ctx context.Context, to, message string) (notify.Receipt, error)
}

// Scheduler books payment reminders for a stored receipt.
type Scheduler interface {
	Schedule(ctx context.Context, req reminders.Request) ([]reminders.Booking, error)
}
