package domain

const (
	ActionBuy  = "buy"
	ActionSell = "sell"

	// TimestampLayout is the presentation format of trade timestamps (UTC).
	TimestampLayout = "2006-01-02 15:04:05"
)
