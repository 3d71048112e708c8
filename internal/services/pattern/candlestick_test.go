package pattern

import (
	"testing"

	"TradeSage/internal/domain/models"
)

func bar(o, h, l, c float64) models.Bar {
	return models.Bar{Open: o, High: h, Low: l, Close: c}
}

func TestRecognizeSingleBar(t *testing.T) {
	tests := []struct {
		name string
		b    models.Bar
		want string
	}{
		{"hammer", bar(100, 100.5, 96, 100.4), Hammer},
		{"shooting star", bar(100, 104, 99.9, 100.2), ShootingStar},
		{"doji", bar(100, 101, 99, 100.05), Doji},
		{"plain up bar", bar(100, 103, 99.5, 102.5), models.PatternNone},
		{"flat bar", bar(100, 100, 100, 100), models.PatternNone},
	}
	c := New()
	for _, tt := range tests {
		got := c.Recognize([]models.Bar{tt.b})
		if len(got) != 1 {
			t.Fatalf("%s: got %d labels, want 1", tt.name, len(got))
		}
		if got[0] != tt.want {
			t.Fatalf("%s: got %q, want %q", tt.name, got[0], tt.want)
		}
	}
}

func TestRecognizeEngulfing(t *testing.T) {
	bull := []models.Bar{bar(102, 102.5, 99.5, 100), bar(99.8, 103.5, 99.6, 103)}
	got := New().Recognize(bull)
	if got[1] != BullishEngulfing {
		t.Fatalf("got %q, want %q", got[1], BullishEngulfing)
	}

	bear := []models.Bar{bar(100, 102.5, 99.8, 102), bar(102.2, 102.6, 98.5, 99)}
	got = New().Recognize(bear)
	if got[1] != BearishEngulfing {
		t.Fatalf("got %q, want %q", got[1], BearishEngulfing)
	}
}

func TestRecognizeEmpty(t *testing.T) {
	if got := New().Recognize(nil); len(got) != 0 {
		t.Fatalf("got %d labels, want 0", len(got))
	}
}

func TestRecognizeLabelPerBar(t *testing.T) {
	bars := []models.Bar{
		bar(100, 103, 99.5, 102.5),
		bar(100, 101, 99, 100.02),
	}
	got := New().Recognize(bars)
	if len(got) != len(bars) {
		t.Fatalf("got %d labels, want %d", len(got), len(bars))
	}
	if got[0] != models.PatternNone || got[1] != Doji {
		t.Fatalf("unexpected labels %v", got)
	}
}
