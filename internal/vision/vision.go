// Package vision classifies receipt images and extracts their payment fields
// using an OpenAI-compatible multimodal chat model.
package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	openai "github.com/sashabaranov/go-openai"

	"github.com/JaimeStill/tally/internal/workflow"
	"github.com/JaimeStill/tally/pkg/formatting"
)

var (
	// ErrEmptyImage indicates an image without data.
	ErrEmptyImage = errors.New("image has no data")
	// ErrEmptyResponse indicates the model returned no content.
	ErrEmptyResponse = errors.New("model returned no content")
)

// System reads receipt images.
type System interface {
	Classify(ctx context.Context, img workflow.Image) (workflow.Classification, error)
	Extract(ctx context.Context, img workflow.Image, c workflow.Classification) (workflow.ExtractedFields, error)
}

type client struct {
	api     *openai.Client
	model   string
	detail  openai.ImageURLDetail
	retries uint64
	backoff time.Duration
	logger  *slog.Logger
}

// New creates a vision System over the endpoint described by cfg.
func New(cfg *Config, logger *slog.Logger) System {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	apiCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	apiCfg.HTTPClient = &http.Client{Timeout: cfg.TimeoutDuration()}

	return &client{
		api:     openai.NewClientWithConfig(apiCfg),
		model:   cfg.Model,
		detail:  openai.ImageURLDetail(cfg.Detail),
		retries: uint64(cfg.MaxRetries),
		backoff: cfg.InitialBackoffDuration(),
		logger:  logger.With("system", "vision"),
	}
}

type classifyResponse struct {
	Label string `json:"label"`
}

func (c *client) Classify(ctx context.Context, img workflow.Image) (workflow.Classification, error) {
	content, err := c.complete(ctx, classifySystem, classifyUser, img)
	if err != nil {
		return workflow.Invalid, err
	}

	label := content
	if parsed, err := formatting.Parse[classifyResponse](content); err == nil {
		label = parsed.Label
	}

	result := workflow.ParseClassification(label)
	c.logger.DebugContext(ctx, "image classified", "label", label, "classification", result)
	return result, nil
}

type extractResponse struct {
	TotalAmount   *amount `json:"total_amount"`
	DueDate       string `json:"due_date"`
	BillingPeriod string `json:"billing_period"`
	ProviderName  string `json:"provider_name"`
}

func (c *client) Extract(ctx context.Context, img workflow.Image, class workflow.Classification) (workflow.ExtractedFields, error) {
	content, err := c.complete(ctx, extractPrompt(class), extractUser, img)
	if err != nil {
		return workflow.ExtractedFields{}, err
	}

	parsed, err := formatting.Parse[extractResponse](content)
	if err != nil {
		return workflow.ExtractedFields{}, err
	}

	if parsed.TotalAmount == nil {
		return workflow.ExtractedFields{}, fmt.Errorf("%w: missing total amount", formatting.ErrParseFailed)
	}

	due, err := NormalizeDate(parsed.DueDate)
	if err != nil {
		return workflow.ExtractedFields{}, err
	}

	return workflow.ExtractedFields{
		TotalAmount:   float64(*parsed.TotalAmount),
		DueDate:       due,
		BillingPeriod: strings.TrimSpace(parsed.BillingPeriod),
		ProviderName:  strings.TrimSpace(parsed.ProviderName),
	}, nil
}

func (c *client) complete(ctx context.Context, system, user string, img workflow.Image) (string, error) {
	if len(img.Data) == 0 {
		return "", ErrEmptyImage
	}

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: user},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    DataURI(img),
							Detail: c.detail,
						},
					},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	var resp openai.ChatCompletionResponse
	op := func() error {
		var err error
		resp, err = c.api.CreateChatCompletion(ctx, req)
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		c.logger.WarnContext(ctx, "chat completion failed, retrying", "wait", wait, "error", err)
	}

	if err := backoff.RetryNotify(op, c.policy(ctx), notify); err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *client) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.backoff
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, c.retries), ctx)
}

// retryable reports whether err is a rate limit, a server error, or a
// transport failure.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	default:
		return true
	}

	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// DataURI encodes img as a base64 data URI.
func DataURI(img workflow.Image) string {
	ct := img.ContentType
	if ct == "" {
		ct = http.DetectContentType(img.Data)
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"02.01.2006",
	workflow.DateLayout,
}

// NormalizeDate converts a day-first or ISO date to YYYY-MM-DD.
func NormalizeDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(workflow.DateLayout), nil
		}
	}
	return "", fmt.Errorf("unrecognized date %q", s)
}

// amount accepts a JSON number or a string such as "S/ 1,234.50" or
// "1.234,50", rounded to cents.
type amount float64

func (a *amount) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*a = amount(math.Round(n*100) / 100)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' || r == '-' {
			return r
		}
		return -1
	}, s)
	cleaned = strings.TrimLeft(cleaned, ".")

	// the last separator is decimal when one or two digits follow it
	whole, frac := cleaned, ""
	if i := strings.LastIndexAny(cleaned, ".,"); i >= 0 && len(cleaned)-i-1 >= 1 && len(cleaned)-i-1 <= 2 {
		whole, frac = cleaned[:i], cleaned[i+1:]
	}
	num := strings.NewReplacer(".", "", ",", "").Replace(whole)
	if frac != "" {
		num += "." + frac
	}

	if num == "" {
		return fmt.Errorf("parse amount %q: no digits", s)
	}

	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return fmt.Errorf("parse amount %q: %w", s, err)
	}
	*a = amount(math.Round(n*100) / 100)
	return nil
}
