package workflow

import (
	"fmt"
	"strings"
)

var serviceIcons = map[Classification]string{
	Water:       "💧",
	Electricity: "⚡",
	Gas:         "🔥",
}

func classifiedMessage(c Classification) string {
	if !c.Known() {
		return "We could not recognize this image as a water, electricity, or gas receipt."
	}
	return fmt.Sprintf("Receipt received. It looks like a %s bill, reading the details now.", c.Noun())
}

func retryMessage(attempt, limit int) string {
	return fmt.Sprintf(
		"We could not recognize that image as a utility receipt. Please send a clearer photo of the whole receipt (attempt %d of %d).",
		attempt, limit,
	)
}

func maxRetriesMessage(limit int) string {
	return fmt.Sprintf(
		"We could not recognize your receipt after %d attempts. Please check that it is a water, electricity, or gas bill and start again with a new photo.",
		limit,
	)
}

func confirmMessage(c Classification, f ExtractedFields) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Your %s %s receipt has been registered.\n", serviceIcons[c], c.Noun())
	fmt.Fprintf(&b, "💰 Amount: %.2f\n", f.TotalAmount)
	if due, err := f.Due(); err == nil {
		fmt.Fprintf(&b, "📅 Due date: %s\n", due.Format("02/01/2006"))
	}
	if f.BillingPeriod != "" {
		fmt.Fprintf(&b, "🗓️ Period: %s\n", f.BillingPeriod)
	}
	if f.ProviderName != "" {
		fmt.Fprintf(&b, "🏢 Provider: %s\n", f.ProviderName)
	}
	b.WriteString("We will remind you before the due date.")
	return b.String()
}

func failureMessage() string {
	return "Something went wrong while processing your receipt. Please try again in a few minutes."
}

