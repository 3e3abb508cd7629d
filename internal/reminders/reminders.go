// Package reminders books payment reminders for stored receipts as cal.com
// events: one the day before the due date and one on the due date.
package reminders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrBookingFailed indicates cal.com rejected a booking.
var ErrBookingFailed = errors.New("reminder booking failed")

const apiVersion = "2024-08-13"

// Booking kinds.
const (
	KindDayBefore = "day_before"
	KindDueDate   = "due_date"
)

// Request describes the receipt a reminder is for.
type Request struct {
	Destination   string
	Service       string
	Provider      string
	Amount        float64
	BillingPeriod string
	DueDate       time.Time
}

// Booking is a created reminder.
type Booking struct {
	Kind  string    `json:"kind"`
	UID   string    `json:"uid"`
	Start time.Time `json:"start"`
}

// System schedules reminders.
type System interface {
	Schedule(ctx context.Context, req Request) ([]Booking, error)
}

// New returns a cal.com scheduler when cfg is enabled, otherwise a scheduler
// that books nothing.
func New(cfg *Config, logger *slog.Logger) System {
	logger = logger.With("system", "reminders")

	if !cfg.Enabled() {
		logger.Warn("reminders not configured, scheduling disabled")
		return disabled{}
	}

	return &calcom{
		cfg:    *cfg,
		loc:    cfg.Location(),
		client: &http.Client{Timeout: cfg.TimeoutDuration()},
		logger: logger,
		now:    time.Now,
	}
}

type disabled struct{}

func (disabled) Schedule(context.Context, Request) ([]Booking, error) {
	return nil, nil
}

type calcom struct {
	cfg    Config
	loc    *time.Location
	client *http.Client
	logger *slog.Logger
	now    func() time.Time
}

type slot struct {
	kind  string
	title string
	start time.Time
}

func (c *calcom) Schedule(ctx context.Context, req Request) ([]Booking, error) {
	slots := c.slots(req)
	results := make([]*Booking, len(slots))

	var g errgroup.Group
	for i, s := range slots {
		g.Go(func() error {
			uid, err := c.book(ctx, req, s)
			if err != nil {
				c.logger.WarnContext(ctx, "reminder booking failed", "kind", s.kind, "destination", req.Destination, "error", err)
				return err
			}
			results[i] = &Booking{Kind: s.kind, UID: uid, Start: s.start}
			return nil
		})
	}
	err := g.Wait()

	bookings := make([]Booking, 0, len(results))
	for _, b := range results {
		if b != nil {
			bookings = append(bookings, *b)
		}
	}
	return bookings, err
}

// slots returns the reminders still in the future.
func (c *calcom) slots(req Request) []slot {
	due := time.Date(req.DueDate.Year(), req.DueDate.Month(), req.DueDate.Day(), c.cfg.Hour, 0, 0, 0, c.loc)
	amount := fmt.Sprintf("S/ %.2f", req.Amount)

	candidates := []slot{
		{KindDayBefore, fmt.Sprintf("⏰ Due tomorrow: %s - %s", req.Service, amount), due.AddDate(0, 0, -1)},
		{KindDueDate, fmt.Sprintf("🚨 Due today: %s - %s", req.Service, amount), due},
	}

	now := c.now()
	out := make([]slot, 0, len(candidates))
	for _, s := range candidates {
		if s.start.After(now) {
			out = append(out, s)
		}
	}
	return out
}

type attendee struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	TimeZone string `json:"timeZone"`
	Language string `json:"language"`
}

type bookingRequest struct {
	Start                  string            `json:"start"`
	EventTypeID            int               `json:"eventTypeId"`
	Attendee               attendee          `json:"attendee"`
	Guests                 []string          `json:"guests,omitempty"`
	Metadata               map[string]string `json:"metadata"`
	BookingFieldsResponses map[string]string `json:"bookingFieldsResponses"`
}

type bookingResponse struct {
	Status string `json:"status"`
	Data   struct {
		UID string `json:"uid"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *calcom) book(ctx context.Context, req Request, s slot) (string, error) {
	notes := describe(req, s.title)

	payload, err := json.Marshal(bookingRequest{
		Start:       s.start.UTC().Format(time.RFC3339),
		EventTypeID: c.cfg.EventTypeID,
		Attendee: attendee{
			Name:     c.cfg.AttendeeName,
			Email:    c.cfg.AttendeeEmail,
			TimeZone: c.cfg.TimeZone,
			Language: c.cfg.Language,
		},
		Guests:                 c.cfg.Guests,
		Metadata:               map[string]string{"title": s.title, "phone": req.Destination},
		BookingFieldsResponses: map[string]string{"notes": notes},
	})
	if err != nil {
		return "", fmt.Errorf("encode booking: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.cfg.BaseURL, "/")+"/bookings", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("cal-api-version", apiVersion)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBookingFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: read response: %w", ErrBookingFailed, err)
	}

	var parsed bookingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: status %d: decode response: %w", ErrBookingFailed, resp.StatusCode, err)
	}

	if resp.StatusCode >= 300 || parsed.Status != "success" {
		msg := parsed.Status
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return "", fmt.Errorf("%w: status %d: %s", ErrBookingFailed, resp.StatusCode, msg)
	}

	return parsed.Data.UID, nil
}

func describe(req Request, title string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n🔔 Payment reminder\n\n", title)
	fmt.Fprintf(&b, "Service: %s\n", req.Service)
	if req.Provider != "" {
		fmt.Fprintf(&b, "Provider: %s\n", req.Provider)
	}
	fmt.Fprintf(&b, "Amount: S/ %.2f\n", req.Amount)
	fmt.Fprintf(&b, "Due: %s\n", req.DueDate.Format("02/01/2006"))
	if req.BillingPeriod != "" {
		fmt.Fprintf(&b, "Period: %s\n", req.BillingPeriod)
	}
	if req.Destination != "" {
		fmt.Fprintf(&b, "Phone: %s\n", req.Destination)
	}
	return b.String()
}
