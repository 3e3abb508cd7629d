package formatting_test

import (
	"testing"

	"github.com/JaimeStill/tally/pkg/formatting"
)

func TestParseBytes(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"512", 512, false},
		{"10MB", 10 << 20, false},
		{"1.5 kb", 1536, false},
		{"4MiB", 4 << 20, false},
		{"2g", 2 << 30, false},
		{" 64 B ", 64, false},
		{"", 0, true},
		{"12XB", 0, true},
		{"MB", 0, true},
		{"1.2.3MB", 0, true},
		{"-5MB", 0, true},
		{"99999EB", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := formatting.ParseBytes(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err: got %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n         int64
		precision int
		want      string
	}{
		{0, 0, "0 B"},
		{900, 2, "900 B"},
		{1024, 0, "1 KB"},
		{1536, 1, "1.5 KB"},
		{10 << 20, -1, "10 MB"},
		{-2048, 0, "-2 KB"},
	}

	for _, tt := range tests {
		if got := formatting.FormatBytes(tt.n, tt.precision); got != tt.want {
			t.Errorf("FormatBytes(%d, %d): got %s, want %s", tt.n, tt.precision, got, tt.want)
		}
	}
}
