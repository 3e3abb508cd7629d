package receipts

import (
	"net/url"

	"github.com/JaimeStill/tally/pkg/query"
	"github.com/JaimeStill/tally/pkg/repository"
)

const columns = `id, phone_number, service_type, is_valid, is_notified, total_amount,
	due_date, billing_period, provider_name, image_url, created_at, updated_at`

var projection = query.NewProjection("receipts", "r").
	Project("id", "ID").
	Project("phone_number", "PhoneNumber").
	Project("service_type", "ServiceType").
	Project("is_valid", "IsValid").
	Project("is_notified", "IsNotified").
	Project("total_amount", "TotalAmount").
	Project("due_date", "DueDate").
	Project("billing_period", "BillingPeriod").
	Project("provider_name", "ProviderName").
	Project("image_url", "ImageURL").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{Field: "DueDate", Descending: true}

// Filters narrows receipt listings. Empty fields are ignored.
type Filters struct {
	Phone    string `json:"phone,omitempty"`
	Service  string `json:"service,omitempty"`
	Provider string `json:"provider,omitempty"`
	Notified *bool  `json:"notified,omitempty"`
}

// Apply adds the filter conditions to b.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		Equals("PhoneNumber", f.Phone).
		Equals("ServiceType", f.Service).
		Contains("ProviderName", f.Provider).
		Equals("IsNotified", f.Notified)
}

// FiltersFromQuery reads phone, service, provider and notified from values.
func FiltersFromQuery(values url.Values) Filters {
	f := Filters{
		Phone:    values.Get("phone"),
		Service:  values.Get("service"),
		Provider: values.Get("provider"),
	}

	switch values.Get("notified") {
	case "true":
		v := true
		f.Notified = &v
	case "false":
		v := false
		f.Notified = &v
	}

	return f
}

func scanReceipt(s repository.Scanner) (Receipt, error) {
	var r Receipt
	err := s.Scan(
		&r.ID,
		&r.PhoneNumber,
		&r.ServiceType,
		&r.IsValid,
		&r.IsNotified,
		&r.TotalAmount,
		&r.DueDate,
		&r.BillingPeriod,
		&r.ProviderName,
		&r.ImageURL,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	return r, err
}
