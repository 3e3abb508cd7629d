package receipts_test

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/JaimeStill/tally/internal/receipts"
	"github.com/JaimeStill/tally/pkg/query"
)

func TestCreateCommandValidate(t *testing.T) {
	valid := receipts.CreateCommand{
		PhoneNumber: "+51987654321",
		ServiceType: "GAS",
		TotalAmount: 32.1,
		DueDate:     time.Date(2026, 11, 3, 0, 0, 0, 0, time.UTC),
		ImageURL:    "http://blob/receipts/gas-1.png",
	}

	tests := []struct {
		name    string
		mutate  func(c *receipts.CreateCommand)
		wantErr bool
	}{
		{"valid", func(c *receipts.CreateCommand) {}, false},
		{"missing phone", func(c *receipts.CreateCommand) { c.PhoneNumber = "" }, true},
		{"missing service", func(c *receipts.CreateCommand) { c.ServiceType = "" }, true},
		{"missing image", func(c *receipts.CreateCommand) { c.ImageURL = "" }, true},
		{"missing due date", func(c *receipts.CreateCommand) { c.DueDate = time.Time{} }, true},
		{"negative amount", func(c *receipts.CreateCommand) { c.TotalAmount = -1 }, true},
		{"largest amount", func(c *receipts.CreateCommand) { c.TotalAmount = receipts.MaxAmount }, false},
		{"amount exceeds column", func(c *receipts.CreateCommand) { c.TotalAmount = 1e10 }, true},
		{"amount not a number", func(c *receipts.CreateCommand) { c.TotalAmount = math.NaN() }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := valid
			tt.mutate(&cmd)
			err := cmd.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, receipts.ErrInvalidReceipt) {
				t.Errorf("err = %v, want ErrInvalidReceipt", err)
			}
		})
	}
}

func TestCents(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{84.5, 84.5},
		{84.567, 84.57},
		{0.1 + 0.2, 0.3},
		{1234.004, 1234},
	}

	for _, tt := range tests {
		if got := receipts.Cents(tt.in); got != tt.want {
			t.Errorf("Cents(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{receipts.ErrNotFound, http.StatusNotFound},
		{receipts.ErrDuplicate, http.StatusConflict},
		{fmt.Errorf("%w: x", receipts.ErrInvalidReceipt), http.StatusBadRequest},
		{receipts.ErrInvalidID, http.StatusBadRequest},
		{receipts.ErrInvalidDate, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := receipts.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestFiltersApply(t *testing.T) {
	values, _ := url.ParseQuery("phone=%2B51999&service=LUZ&notified=true")
	f := receipts.FiltersFromQuery(values)

	proj := query.NewProjection("receipts", "r").
		Project("phone_number", "PhoneNumber").
		Project("service_type", "ServiceType").
		Project("provider_name", "ProviderName").
		Project("is_notified", "IsNotified")

	q, args, err := f.Apply(query.NewBuilder(proj)).Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}

	want := "SELECT COUNT(*) FROM receipts r WHERE r.phone_number = $1 AND r.service_type = $2 AND r.is_notified = $3"
	if q != want {
		t.Errorf("query:\n got %s\nwant %s", q, want)
	}
	if len(args) != 3 {
		t.Errorf("args = %v", args)
	}
}
