package alert

import (
	"math"

	"dexscreener-alert-bot/internal/types"
)

// Evaluate is the pure trigger check: given one token's quote and the alerts
// grouped under that token, it returns the ones whose condition holds. The
// observed price and percentage change are frozen into each FiredAlert at
// this point; the live price keeps moving and must not be re-read later.
//
// Alerts with a zero initial price are skipped outright, their percentage
// change being undefined. An alert whose condition does not hold is simply
// omitted; that is the normal outcome of almost every cycle.
func Evaluate(quote *types.TokenQuote, alerts []types.Alert) []types.FiredAlert {
	var fired []types.FiredAlert

	for _, a := range alerts {
		if a.InitialPrice == 0 {
			continue
		}

		actualChangePct := (quote.PriceUSD - a.InitialPrice) / a.InitialPrice * 100

		var hit bool
		switch a.Direction {
		case types.DirectionUp:
			hit = quote.PriceUSD >= a.TargetPrice
		case types.DirectionDown:
			hit = quote.PriceUSD <= a.TargetPrice
		case types.DirectionAny:
			// Magnitude threshold in either direction, independent of any
			// target price.
			hit = math.Abs(actualChangePct) >= a.Percent
		}

		if hit {
			fired = append(fired, types.FiredAlert{
				Alert:           a,
				CurrentPrice:    quote.PriceUSD,
				ActualChangePct: actualChangePct,
			})
		}
	}

	return fired
}
