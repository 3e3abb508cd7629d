// Package notify delivers user-facing text messages over the WhatsApp Cloud API.
package notify

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
)

var (
	// ErrEmptyDestination indicates a message without a recipient.
	ErrEmptyDestination = errors.New("destination must not be empty")
	// ErrEmptyMessage indicates a message without a body.
	ErrEmptyMessage = errors.New("message must not be empty")
	// ErrSendFailed indicates the messaging API rejected the message.
	ErrSendFailed = errors.New("message delivery failed")
)

// Receipt acknowledges a delivered message.
type Receipt struct {
	MessageID   string    `json:"message_id"`
	Destination string    `json:"destination"`
	SentAt      time.Time `json:"sent_at"`
}

// System sends text messages to a destination phone number.
type System interface {
	Send(ctx context.Context, to, message string) (Receipt, error)
}

// New returns a WhatsApp sender when cfg is enabled, otherwise a sender that
// only logs messages.
func New(cfg *Config, logger *slog.Logger) System {
	logger = logger.With("system", "notify")

	if !cfg.Enabled() {
		logger.Warn("notifier not configured, messages will be logged only")
		return &logOnly{logger: logger}
	}

	return &whatsapp{
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/" + cfg.PhoneNumberID + "/messages",
		token:    cfg.AccessToken,
		client:   &http.Client{Timeout: cfg.TimeoutDuration()},
		logger:   logger,
	}
}

type whatsapp struct {
	endpoint string
	token    string
	client   *http.Client
	logger   *slog.Logger
}

type textBody struct {
	Body string `json:"body"`
}

type sendRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	RecipientType    string   `json:"recipient_type"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func (w *whatsapp) Send(ctx context.Context, to, message string) (Receipt, error) {
	if err := check(to, message); err != nil {
		return Receipt{}, err
	}

	payload, err := json.Marshal(sendRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               strings.TrimPrefix(to, "+"),
		Type:             "text",
		Text:             textBody{Body: message},
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Receipt{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+w.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: read response: %w", ErrSendFailed, err)
	}

	var parsed sendResponse
	_ = json.Unmarshal(body, &parsed)

	if resp.StatusCode >= 300 {
		if parsed.Error != nil {
			return Receipt{}, fmt.Errorf("%w: status %d: %s (code %d)", ErrSendFailed, resp.StatusCode, parsed.Error.Message, parsed.Error.Code)
		}
		return Receipt{}, fmt.Errorf("%w: status %d", ErrSendFailed, resp.StatusCode)
	}
	if len(parsed.Messages) == 0 {
		return Receipt{}, fmt.Errorf("%w: response carried no message id", ErrSendFailed)
	}

	return Receipt{
		MessageID:   parsed.Messages[0].ID,
		Destination: to,
		SentAt:      time.Now().UTC(),
	}, nil
}

type logOnly struct {
	logger *slog.Logger
}

func (l *logOnly) Send(ctx context.Context, to, message string) (Receipt, error) {
	if err := check(to, message); err != nil {
		return Receipt{}, err
	}

	l.logger.InfoContext(ctx, "message not sent, notifier disabled", "to", to, "message", message)
	return Receipt{Destination: to, SentAt: time.Now().UTC()}, nil
}

func check(to, message string) error {
	if strings.TrimSpace(to) == "" {
		return ErrEmptyDestination
	}
	if strings.TrimSpace(message) == "" {
		return ErrEmptyMessage
	}
	return nil
}
