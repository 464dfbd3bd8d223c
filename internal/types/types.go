package types

import "time"

// Direction describes which way the price must move for an alert to fire.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	// DirectionAny fires on a move of Percent magnitude in either direction.
	DirectionAny Direction = "any"
)

// TokenQuote is a point-in-time snapshot of a token's market state, built
// from the best DexScreener pair. It is never persisted; it lives in the
// price cache and in a single evaluation pass.
type TokenQuote struct {
	TokenAddress   string    `json:"token_address"`
	Name           string    `json:"name"`
	Symbol         string    `json:"symbol"`
	Chain          string    `json:"chain"`
	Dex            string    `json:"dex"`
	PairAddress    string    `json:"pair_address"`
	PriceUSD       float64   `json:"price_usd"`
	LiquidityUSD   float64   `json:"liquidity_usd"`
	Volume24hUSD   float64   `json:"volume_24h_usd"`
	PriceChange24h float64   `json:"price_change_24h"`
	FetchedAt      time.Time `json:"fetched_at"`
}

// Alert is a user's standing one-shot price instruction. TargetPrice carries
// the absolute trigger price for up/down alerts; Percent carries the change
// threshold, which for "any" alerts is the whole condition.
type Alert struct {
	ID           int64      `json:"id"`
	OwnerID      int64      `json:"owner_id"`
	TokenAddress string     `json:"token_address"`
	TokenName    string     `json:"token_name"`
	TokenSymbol  string     `json:"token_symbol"`
	Chain        string     `json:"chain"`
	InitialPrice float64    `json:"initial_price"`
	TargetPrice  float64    `json:"target_price"`
	Direction    Direction  `json:"direction"`
	Percent      float64    `json:"percent"`
	CreatedAt    time.Time  `json:"created_at"`
	Active       bool       `json:"active"`
	Triggered    bool       `json:"triggered"`
	TriggeredAt  *time.Time `json:"triggered_at,omitempty"`
}

// AlertDraft is the creation-time view of an alert. The store assigns the ID
// and the active/triggered flags.
type AlertDraft struct {
	OwnerID      int64
	TokenAddress string
	TokenName    string
	TokenSymbol  string
	Chain        string
	InitialPrice float64
	TargetPrice  float64
	Direction    Direction
	Percent      float64
}

// FiredAlert pairs an alert with the price observed at the moment its
// condition held. CurrentPrice and ActualChangePct are frozen here; the live
// price keeps moving and must not leak into the notification.
type FiredAlert struct {
	Alert           Alert
	CurrentPrice    float64
	ActualChangePct float64
}

// WatchlistEntry is a token a user tracks without an alert condition.
// The monitor never polls the watchlist.
type WatchlistEntry struct {
	OwnerID      int64     `json:"owner_id"`
	TokenAddress string    `json:"token_address"`
	Name         string    `json:"name"`
	Symbol       string    `json:"symbol"`
	Chain        string    `json:"chain"`
	InitialPrice float64   `json:"initial_price"`
	AddedAt      time.Time `json:"added_at"`
}

// UserStats aggregates a user's footprint for the /stats command.
type UserStats struct {
	ActiveAlerts    int
	TriggeredAlerts int
	TotalAlerts     int
	WatchlistCount  int
	MemberSince     time.Time
}
