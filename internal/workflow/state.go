package workflow

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical due date format carried in ExtractedFields.
const DateLayout = "2006-01-02"

// Classification is the service label assigned to a receipt image.
type Classification string

// Classification labels. Only the three services are Known.
const (
	Unset       Classification = "UNSET"
	Water       Classification = "WATER"
	Electricity Classification = "ELECTRICITY"
	Gas         Classification = "GAS"
	Invalid     Classification = "INVALID"
)

var aliases = map[string]Classification{
	"WATER":       Water,
	"AGUA":        Water,
	"ELECTRICITY": Electricity,
	"ELECTRIC":    Electricity,
	"LUZ":         Electricity,
	"GAS":         Gas,
	"INVALID":     Invalid,
	"NO_VALIDO":   Invalid,
}

// ParseClassification normalizes a model label. Anything unrecognized is Invalid.
func ParseClassification(label string) Classification {
	key := strings.ToUpper(strings.TrimSpace(label))
	key = strings.ReplaceAll(key, " ", "_")
	if c, ok := aliases[key]; ok {
		return c
	}
	return Invalid
}

// Known reports whether c names a supported service.
func (c Classification) Known() bool {
	return c == Water || c == Electricity || c == Gas
}

// Noun returns the lower-case service name used in user messages.
func (c Classification) Noun() string {
	return strings.ToLower(string(c))
}

// Image is a receipt image payload. Treat as immutable once constructed.
type Image struct {
	Data        []byte `json:"data"`
	ContentType string `json:"content_type"`
}

// ExtractedFields are the structured values read from a classified receipt.
type ExtractedFields struct {
	TotalAmount   float64 `json:"total_amount"`
	DueDate       string  `json:"due_date"`
	BillingPeriod string  `json:"billing_period"`
	ProviderName  string  `json:"provider_name"`
}

// Due parses DueDate.
func (f ExtractedFields) Due() (time.Time, error) {
	return time.Parse(DateLayout, f.DueDate)
}

// Validate checks the fields are usable for persistence and reminders.
func (f ExtractedFields) Validate() error {
	if f.TotalAmount < 0 {
		return fmt.Errorf("negative total amount %.2f", f.TotalAmount)
	}
	if _, err := f.Due(); err != nil {
		return fmt.Errorf("due date %q: %w", f.DueDate, err)
	}
	return nil
}

// State is the per-session workflow record. Nodes receive it by value and
// return an updated copy inside their Transition.
type State struct {
	SessionID      string           `json:"session_id"`
	Image          *Image           `json:"image,omitempty"`
	Classification Classification   `json:"classification"`
	// IsValid is set once a known classification has been extracted.
	IsValid        bool             `json:"is_valid"`
	AttemptCount   int              `json:"attempt_count"`
	AttemptLimit   int              `json:"attempt_limit"`
	AwaitingInput  bool             `json:"awaiting_input"`
	Extracted      *ExtractedFields `json:"extracted,omitempty"`
	UserMessage    string           `json:"user_message,omitempty"`
	MessageSent    bool             `json:"message_sent"`
	UploadedRef    string           `json:"uploaded_ref,omitempty"`
	ReceiptID      string           `json:"receipt_id,omitempty"`
}

// NewState starts a fresh workflow instance for sessionID holding img.
func NewState(sessionID string, limit int, img Image) State {
	return State{
		SessionID:      sessionID,
		Image:          &img,
		Classification: Unset,
		AttemptLimit:   limit,
	}
}

// Resume replaces the image of an existing instance and clears everything
// derived from the previous one. Attempt accounting is preserved.
func (s State) Resume(img Image) State {
	return State{
		SessionID:      s.SessionID,
		Image:          &img,
		Classification: Unset,
		AttemptCount:   s.AttemptCount,
		AttemptLimit:   s.AttemptLimit,
	}
}

func (s State) withMessage(msg string) State {
	s.UserMessage = msg
	s.MessageSent = false
	return s
}
