package stream

import "testing"

func TestParseTrade(t *testing.T) {
	b := []byte(`{"e":"trade","s":"BTCUSDT","p":"65000.12","q":"0.004","T":1767225600123}`)
	tick, ok := parseTrade(b)
	if !ok {
		t.Fatal("expected trade event")
	}
	if tick.Symbol != "BTCUSDT" {
		t.Fatalf("symbol = %s", tick.Symbol)
	}
	if tick.Price != 65000.12 || tick.Volume != 0.004 {
		t.Fatalf("price/volume = %v/%v", tick.Price, tick.Volume)
	}
	if tick.Timestamp != 1767225600 {
		t.Fatalf("timestamp = %d, want seconds", tick.Timestamp)
	}
}

func TestParseTradeIgnoresOtherFrames(t *testing.T) {
	for _, b := range [][]byte{
		[]byte(`{"result":null,"id":1}`),
		[]byte(`{"e":"kline","s":"BTCUSDT"}`),
		[]byte(`{"e":"trade","s":"BTCUSDT","p":"not-a-number","q":"1","T":1}`),
		[]byte(`garbage`),
	} {
		if _, ok := parseTrade(b); ok {
			t.Fatalf("frame %s accepted", b)
		}
	}
}
