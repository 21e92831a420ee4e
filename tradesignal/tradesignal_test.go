package tradesignal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Signal
	}{
		{
			name: "full",
			line: "SELL LIMIT XAUUSD 1.5% 2558 2573.6 2520 DAY my_trade",
			want: Signal{
				Side: Sell, Kind: Limit, Symbol: "XAUUSD",
				RiskPct: 1.5, Entry: 2558, SL: 2573.6, TP: 2520,
				Expiration: Day, Comment: "my_trade",
			},
		},
		{
			name: "no optional fields",
			line: "BUY MARKET EURUSD 1% 1.0850 1.0800 1.0950",
			want: Signal{
				Side: Buy, Kind: Market, Symbol: "EURUSD",
				RiskPct: 1, Entry: 1.085, SL: 1.08, TP: 1.095,
			},
		},
		{
			name: "comment without expiration",
			line: "BUY STOP US30 .5% 39000 38800 39500 breakout",
			want: Signal{
				Side: Buy, Kind: Stop, Symbol: "US30",
				RiskPct: 0.5, Entry: 39000, SL: 38800, TP: 39500,
				Comment: "breakout",
			},
		},
		{
			name: "week expiration and extra whitespace",
			line: "SELL  STOP   GBPJPY 2%  190.5 191 188 WEEK",
			want: Signal{
				Side: Sell, Kind: Stop, Symbol: "GBPJPY",
				RiskPct: 2, Entry: 190.5, SL: 191, TP: 188,
				Expiration: Week,
			},
		},
		{
			name: "trailing text ignored",
			line: "BUY LIMIT XAGUSD 1% 30 29 33 DAY note and more words",
			want: Signal{
				Side: Buy, Kind: Limit, Symbol: "XAGUSD",
				RiskPct: 1, Entry: 30, SL: 29, TP: 33,
				Expiration: Day, Comment: "note",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseInvalid(t *testing.T) {
	for _, line := range []string{
		"",
		"hello there",
		"buy limit XAUUSD 1% 1 2 3",
		"BUY LIMIT XAUUSD 1 2558 2573 2520",
		"HOLD LIMIT XAUUSD 1% 2558 2573 2520",
		"BUY LIMIT XAUUSD 1% 2558 2573",
		"BUY LIMIT XAUUSD 1% -2558 2573 2520",
		" BUY LIMIT XAUUSD 1% 2558 2573 2520",
	} {
		_, err := Parse(line)
		assert.ErrorIs(t, err, ErrInvalidFormat, line)
	}
}

func TestLines(t *testing.T) {
	assert.Nil(t, Lines("   \n  "))
	assert.Equal(t, []string{"a", "", "b"}, Lines("\n a\n\nb \n"))
}

func TestSignalString(t *testing.T) {
	sig, err := Parse("SELL LIMIT XAUUSD 1.5% 2558 2573.6 2520 DAY my_trade")
	require.NoError(t, err)
	assert.Equal(t, "SELL LIMIT XAUUSD 1.5% 2558 2573.6 2520 DAY my_trade", sig.String())
}
