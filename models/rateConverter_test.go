package models

import (
	"errors"
	"testing"

	"github.com/mmdatafocus/sales_report_backend/models/reports"
	"github.com/shopspring/decimal"
)

func TestConvertWithRates(t *testing.T) {
	cases := []struct {
		name     string
		amount   string
		fromRate string
		toRate   string
		places   int32
		want     string
	}{
		{"company to foreign", "100", "1", "0.5", 2, "50"},
		{"foreign to company", "40", "0.5", "1", 2, "80"},
		{"foreign to foreign", "10", "0.5", "0.8", 2, "16"},
		{"rounds to target places", "10", "3", "1", 2, "3.33"},
		{"zero decimal currency", "10", "1", "1234.567", 0, "12346"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ConvertWithRates(decimal.RequireFromString(tc.amount), decimal.RequireFromString(tc.fromRate), decimal.RequireFromString(tc.toRate), tc.places)
			if err != nil {
				t.Fatalf("ConvertWithRates: %v", err)
			}
			if got.String() != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}

	if _, err := ConvertWithRates(decimal.NewFromInt(1), decimal.Zero, decimal.NewFromInt(1), 2); !errors.Is(err, reports.ErrNoExchangeRate) {
		t.Fatalf("zero source rate: got %v, want ErrNoExchangeRate", err)
	}
	if _, err := ConvertWithRates(decimal.NewFromInt(100), decimal.NewFromInt(1), decimal.Zero, 2); !errors.Is(err, reports.ErrNoExchangeRate) {
		t.Fatalf("zero target rate: got %v, want ErrNoExchangeRate", err)
	}
}

func TestDecimalPlacesInt32(t *testing.T) {
	if got := DecimalPlacesZero.Int32(); got != 0 {
		t.Fatalf("zero: got %d", got)
	}
	if got := DecimalPlacesThree.Int32(); got != 3 {
		t.Fatalf("three: got %d", got)
	}
	if got := DecimalPlaces("x").Int32(); got != 2 {
		t.Fatalf("invalid falls back to 2, got %d", got)
	}
	if DecimalPlaces("5").IsValid() {
		t.Fatalf("5 must not be a valid decimal places value")
	}
}
