// Package receipts records processed utility receipts and exposes them over HTTP.
package receipts

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire format for due dates.
const DateLayout = "2006-01-02"

// MaxAmount is the largest total that fits the NUMERIC(12,2) column.
const MaxAmount = 9999999999.99

// Cents rounds v to two decimal places.
func Cents(v float64) float64 {
	return math.Round(v*100) / 100
}

// Receipt is a stored utility receipt.
type Receipt struct {
	ID            uuid.UUID `json:"id"`
	PhoneNumber   string    `json:"phone_number"`
	ServiceType   string    `json:"service_type"`
	IsValid       bool      `json:"is_valid"`
	IsNotified    bool      `json:"is_notified"`
	TotalAmount   float64   `json:"total_amount"`
	DueDate       time.Time `json:"due_date"`
	BillingPeriod string    `json:"billing_period"`
	ProviderName  string    `json:"provider_name"`
	ImageURL      string    `json:"image_url"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateCommand carries the fields of a newly processed receipt.
// ImageURL identifies the receipt: saving the same image twice yields one record.
type CreateCommand struct {
	PhoneNumber   string
	ServiceType   string
	IsValid       bool
	TotalAmount   float64
	DueDate       time.Time
	BillingPeriod string
	ProviderName  string
	ImageURL      string
}

// Validate checks the command carries the required identifying fields.
func (c CreateCommand) Validate() error {
	switch {
	case c.PhoneNumber == "":
		return fmt.Errorf("%w: phone number is required", ErrInvalidReceipt)
	case c.ServiceType == "":
		return fmt.Errorf("%w: service type is required", ErrInvalidReceipt)
	case c.ImageURL == "":
		return fmt.Errorf("%w: image url is required", ErrInvalidReceipt)
	case c.DueDate.IsZero():
		return fmt.Errorf("%w: due date is required", ErrInvalidReceipt)
	case c.TotalAmount < 0:
		return fmt.Errorf("%w: total amount must not be negative", ErrInvalidReceipt)
	case math.IsNaN(c.TotalAmount) || Cents(c.TotalAmount) > MaxAmount:
		return fmt.Errorf("%w: total amount out of range", ErrInvalidReceipt)
	}
	return nil
}
