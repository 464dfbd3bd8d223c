package alert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dexscreener-alert-bot/internal/types"
)

func quoteAt(price float64) *types.TokenQuote {
	return &types.TokenQuote{
		TokenAddress: "0xaa",
		Symbol:       "TST",
		PriceUSD:     price,
	}
}

func TestEvaluateUpDirection(t *testing.T) {
	alert := types.Alert{ID: 1, Direction: types.DirectionUp, InitialPrice: 100, TargetPrice: 110}

	tests := []struct {
		name  string
		price float64
		fires bool
	}{
		{"below target", 109.99, false},
		{"exactly at target", 110, true},
		{"above target", 150, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fired := Evaluate(quoteAt(tt.price), []types.Alert{alert})
			assert.Equal(t, tt.fires, len(fired) == 1)
		})
	}
}

func TestEvaluateDownDirection(t *testing.T) {
	alert := types.Alert{ID: 2, Direction: types.DirectionDown, InitialPrice: 100, TargetPrice: 90}

	tests := []struct {
		name  string
		price float64
		fires bool
	}{
		{"above target", 90.01, false},
		{"exactly at target", 90, true},
		{"below target", 50, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fired := Evaluate(quoteAt(tt.price), []types.Alert{alert})
			assert.Equal(t, tt.fires, len(fired) == 1)
		})
	}
}

func TestEvaluateAnyDirection(t *testing.T) {
	alert := types.Alert{ID: 3, Direction: types.DirectionAny, InitialPrice: 100, Percent: 5}

	tests := []struct {
		name  string
		price float64
		fires bool
	}{
		{"drop beyond threshold", 94.9, true},
		{"drop within threshold", 95.5, false},
		{"rise beyond threshold", 105.1, true},
		{"rise within threshold", 104.5, false},
		{"exactly at threshold", 95, true},
		{"unchanged", 100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fired := Evaluate(quoteAt(tt.price), []types.Alert{alert})
			assert.Equal(t, tt.fires, len(fired) == 1)
		})
	}
}

func TestEvaluateZeroInitialPriceNeverFires(t *testing.T) {
	alerts := []types.Alert{
		{ID: 4, Direction: types.DirectionUp, InitialPrice: 0, TargetPrice: 1},
		{ID: 5, Direction: types.DirectionAny, InitialPrice: 0, Percent: 1},
	}

	fired := Evaluate(quoteAt(1000), alerts)
	assert.Empty(t, fired)
}

func TestEvaluateFreezesObservedValues(t *testing.T) {
	alert := types.Alert{ID: 6, Direction: types.DirectionUp, InitialPrice: 100, TargetPrice: 110}

	fired := Evaluate(quoteAt(125), []types.Alert{alert})
	require.Len(t, fired, 1)
	assert.Equal(t, 125.0, fired[0].CurrentPrice)
	assert.InDelta(t, 25.0, fired[0].ActualChangePct, 1e-9)
	assert.Equal(t, alert.ID, fired[0].Alert.ID)
}

func TestEvaluateMixedOutcomes(t *testing.T) {
	alerts := []types.Alert{
		{ID: 7, Direction: types.DirectionUp, InitialPrice: 100, TargetPrice: 110},
		{ID: 8, Direction: types.DirectionUp, InitialPrice: 100, TargetPrice: 200},
		{ID: 9, Direction: types.DirectionDown, InitialPrice: 100, TargetPrice: 80},
		{ID: 10, Direction: types.DirectionAny, InitialPrice: 100, Percent: 10},
	}

	fired := Evaluate(quoteAt(115), alerts)
	require.Len(t, fired, 2)
	assert.Equal(t, int64(7), fired[0].Alert.ID)
	assert.Equal(t, int64(10), fired[1].Alert.ID)
}
