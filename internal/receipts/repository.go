package receipts

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/tally/pkg/pagination"
	"github.com/JaimeStill/tally/pkg/query"
	"github.com/JaimeStill/tally/pkg/repository"
	"github.com/JaimeStill/tally/pkg/storage"
)

type repo struct {
	db         *sql.DB
	storage    storage.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a receipt repository implementing System.
func New(
	db *sql.DB,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		logger:     logger.With("system", "receipts"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(ctx context.Context, page pagination.Request, filters Filters) (*pagination.Result[Receipt], error) {
	page.Normalize(r.pagination)

	qb := filters.Apply(query.NewBuilder(projection, defaultSort)).OrderBy(page.Sort)

	countSQL, countArgs, err := qb.Count()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidReceipt, err)
	}

	total, err := repository.Count(ctx, r.db, countSQL, countArgs)
	if err != nil {
		return nil, fmt.Errorf("count receipts: %w", err)
	}

	pageSQL, pageArgs, err := qb.Page(page.PageSize, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidReceipt, err)
	}

	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanReceipt)
	if err != nil {
		return nil, fmt.Errorf("query receipts: %w", err)
	}

	result := pagination.NewResult(items, total, page)
	return &result, nil
}

func (r *repo) ListByPhone(ctx context.Context, phone, service string) ([]Receipt, error) {
	if phone == "" {
		return nil, fmt.Errorf("%w: phone number is required", ErrInvalidReceipt)
	}

	q, args, err := Filters{Phone: phone, Service: service}.
		Apply(query.NewBuilder(projection, defaultSort)).
		Select()
	if err != nil {
		return nil, err
	}

	items, err := repository.QueryMany(ctx, r.db, q, args, scanReceipt)
	if err != nil {
		return nil, fmt.Errorf("query receipts for %s: %w", phone, err)
	}
	return items, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Receipt, error) {
	q := `SELECT ` + columns + ` FROM receipts WHERE id = $1`

	rec, err := repository.QueryOne(ctx, r.db, q, []any{id}, scanReceipt)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &rec, nil
}

func (r *repo) ExpiringOn(ctx context.Context, date time.Time) ([]Receipt, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	q := `SELECT ` + columns + `
		FROM receipts
		WHERE due_date = $1 AND is_valid
		ORDER BY phone_number`

	items, err := repository.QueryMany(ctx, r.db, q, []any{day}, scanReceipt)
	if err != nil {
		return nil, fmt.Errorf("query receipts due %s: %w", day.Format(DateLayout), err)
	}
	return items, nil
}

func (r *repo) Image(ctx context.Context, id uuid.UUID) (*storage.Blob, error) {
	rec, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	key, err := r.storage.KeyFromURL(rec.ImageURL)
	if err != nil {
		return nil, fmt.Errorf("resolve image for receipt %s: %w", id, err)
	}

	return r.storage.Download(ctx, key)
}

func (r *repo) Save(ctx context.Context, cmd CreateCommand) (*Receipt, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	q := `
		INSERT INTO receipts(id, phone_number, service_type, is_valid, total_amount, due_date, billing_period, provider_name, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (image_url) DO UPDATE SET updated_at = now()
		RETURNING ` + columns

	args := []any{
		uuid.New(),
		cmd.PhoneNumber,
		cmd.ServiceType,
		cmd.IsValid,
		Cents(cmd.TotalAmount),
		cmd.DueDate,
		cmd.BillingPeriod,
		cmd.ProviderName,
		cmd.ImageURL,
	}

	rec, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Receipt, error) {
		return repository.QueryOne(ctx, tx, q, args, scanReceipt)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("receipt saved", "id", rec.ID, "phone", rec.PhoneNumber, "service", rec.ServiceType)
	return &rec, nil
}

func (r *repo) MarkNotified(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidID, id)
	}

	q := `UPDATE receipts SET is_notified = true, updated_at = now() WHERE id = $1`
	if err := repository.ExecExpectOne(ctx, r.db, q, uid); err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return nil
}
