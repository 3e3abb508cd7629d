package receipts

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/tally/pkg/pagination"
	"github.com/JaimeStill/tally/pkg/storage"
)

// System defines the public contract for receipt operations.
type System interface {
	Handler() *Handler

	List(ctx context.Context, page pagination.Request, filters Filters) (*pagination.Result[Receipt], error)
	ListByPhone(ctx context.Context, phone, service string) ([]Receipt, error)
	Find(ctx context.Context, id uuid.UUID) (*Receipt, error)
	ExpiringOn(ctx context.Context, date time.Time) ([]Receipt, error)
	Image(ctx context.Context, id uuid.UUID) (*storage.Blob, error)

	Save(ctx context.Context, cmd CreateCommand) (*Receipt, error)
	MarkNotified(ctx context.Context, id string) error
}
