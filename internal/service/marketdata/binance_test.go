package marketdata

import (
	"testing"
	"time"
)

func TestParseKlines(t *testing.T) {
	raw := [][]interface{}{
		{float64(1700000000000), "100.5", "101.0", "99.5", "100.8", "12.34", float64(1700003599999)},
		{float64(1700003600000), "100.8", "102.0", "100.1", "101.9", "8.1", float64(1700007199999)},
	}

	bars, err := parseKlines("BTCUSDT", raw)
	if err != nil {
		t.Fatalf("parseKlines: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}

	b := bars[0]
	if b.Symbol != "BTCUSDT" {
		t.Fatalf("symbol %q", b.Symbol)
	}
	if want := time.UnixMilli(1700000000000).UTC(); !b.Bucket.Equal(want) {
		t.Fatalf("bucket %v, want %v", b.Bucket, want)
	}
	if b.Open != 100.5 || b.High != 101.0 || b.Low != 99.5 || b.Close != 100.8 || b.Volume != 12.34 {
		t.Fatalf("ohlcv mismatch: %+v", b)
	}
}

func TestParseKlinesSkipsShortRows(t *testing.T) {
	raw := [][]interface{}{
		{float64(1700000000000), "1"},
		{float64(1700003600000), "100.8", "102.0", "100.1", "101.9", "8.1"},
	}
	bars, err := parseKlines("BTCUSDT", raw)
	if err != nil {
		t.Fatalf("parseKlines: %v", err)
	}
	if len(bars) != 1 {
		t.Fatalf("short rows should be skipped, got %d bars", len(bars))
	}
}

func TestParseKlinesRejectsBadTypes(t *testing.T) {
	raw := [][]interface{}{
		{"not-a-number", "100", "101", "99", "100", "1"},
	}
	if _, err := parseKlines("BTCUSDT", raw); err == nil {
		t.Fatal("expected type error for open time")
	}

	raw = [][]interface{}{
		{float64(1700000000000), "100", "101", "99", float64(100), "1"},
	}
	if _, err := parseKlines("BTCUSDT", raw); err == nil {
		t.Fatal("expected type error for numeric field")
	}
}
