// Package tradesignal parses trade signals posted as chat messages.
//
// A signal occupies one line:
//
//	ORDER_TYPE ORDER_KIND SYMBOL RISK_PERCENT ENTRY_PRICE SL TP [EXPIRATION] [COMMENT]
//	SELL LIMIT XAUUSD 1.5% 2558 2573.6 2520 DAY my_trade
package tradesignal

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const Format = "ORDER_TYPE ORDER_KIND SYMBOL RISK_PERCENT ENTRY_PRICE SL TP [EXPIRATION] [COMMENT]"

var ErrInvalidFormat = errors.New("invalid signal format")

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

type Kind string

const (
	Limit  Kind = "LIMIT"
	Stop   Kind = "STOP"
	Market Kind = "MARKET"
)

type Expiration string

const (
	NoExpiration Expiration = ""
	Day          Expiration = "DAY"
	Week         Expiration = "WEEK"
)

type Signal struct {
	Side       Side
	Kind       Kind
	Symbol     string
	RiskPct    float64
	Entry      float64
	SL         float64
	TP         float64
	Expiration Expiration
	Comment    string
}

func (s Signal) String() string {
	out := fmt.Sprintf("%s %s %s %g%% %g %g %g", s.Side, s.Kind, s.Symbol, s.RiskPct, s.Entry, s.SL, s.TP)
	if s.Expiration != NoExpiration {
		out += " " + string(s.Expiration)
	}
	if s.Comment != "" {
		out += " " + s.Comment
	}
	return out
}

// Anchored at the start only: anything after a complete signal is ignored.
var pattern = regexp.MustCompile(`^(?P<side>BUY|SELL)\s+(?P<kind>LIMIT|STOP|MARKET)\s+(?P<symbol>\w+)\s+(?P<risk>\d*\.?\d+)%\s+(?P<entry>\d*\.?\d+)\s+(?P<sl>\d*\.?\d+)\s+(?P<tp>\d*\.?\d+)(?:\s+(?P<expiration>DAY|WEEK))?(?:\s+(?P<comment>\S+))?`)

func Parse(line string) (Signal, error) {
	m := pattern.FindStringSubmatch(line)
	if m == nil {
		return Signal{}, ErrInvalidFormat
	}
	group := func(name string) string {
		return m[pattern.SubexpIndex(name)]
	}

	sig := Signal{
		Side:       Side(group("side")),
		Kind:       Kind(group("kind")),
		Symbol:     group("symbol"),
		Expiration: Expiration(group("expiration")),
		Comment:    group("comment"),
	}
	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"risk", &sig.RiskPct},
		{"entry", &sig.Entry},
		{"sl", &sig.SL},
		{"tp", &sig.TP},
	} {
		v, err := strconv.ParseFloat(group(f.name), 64)
		if err != nil {
			return Signal{}, fmt.Errorf("%w: %s: %v", ErrInvalidFormat, f.name, err)
		}
		*f.dst = v
	}
	return sig, nil
}

// Lines splits a message into candidate signal lines.
func Lines(content string) []string {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}
