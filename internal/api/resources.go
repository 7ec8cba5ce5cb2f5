package api

import (
	"github.com/leonid6372/paper-trading/internal/common/domain"
)

const (
	msgRunning       = "Paper trading API is running"
	msgInternalError = "internal server error"
	msgNoTickers     = "query parameter 'tickers' is required"
	msgBadTradeBody  = "invalid request body"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type healthResponse struct {
	Status string `json:"status"`
}

type tradeRequest struct {
	Username string `json:"username"`
	Ticker   string `json:"ticker"`
	Quantity int64  `json:"quantity"`
	Action   string `json:"action"`
}

func (r *tradeRequest) CreateDomain() domain.TradeRequest {
	return domain.TradeRequest{
		Username: r.Username,
		Ticker:   r.Ticker,
		Quantity: r.Quantity,
		Action:   r.Action,
	}
}

type quoteResponse struct {
	Ticker    string  `json:"ticker"`
	LastPrice float64 `json:"last_price"`
	OpenPrice float64 `json:"open_price"`
	HighPrice float64 `json:"high_price"`
	LowPrice  float64 `json:"low_price"`
	Volume    int64   `json:"volume"`
}

func newQuoteResponse(q *domain.Quote) *quoteResponse {
	return &quoteResponse{
		Ticker:    q.Ticker,
		LastPrice: q.Last.InexactFloat64(),
		OpenPrice: q.Open.InexactFloat64(),
		HighPrice: q.High.InexactFloat64(),
		LowPrice:  q.Low.InexactFloat64(),
		Volume:    q.Volume,
	}
}

type tradeRecord struct {
	ID        int64   `json:"id"`
	Username  string  `json:"username"`
	Ticker    string  `json:"ticker"`
	Quantity  int64   `json:"quantity"`
	Price     float64 `json:"price"`
	Action    string  `json:"action"`
	Timestamp string  `json:"timestamp"`
}

func newTradeRecords(trades []*domain.Trade) []*tradeRecord {
	records := make([]*tradeRecord, 0, len(trades))
	for _, t := range trades {
		records = append(records, &tradeRecord{
			ID:        t.ID,
			Username:  t.Username,
			Ticker:    t.Ticker,
			Quantity:  t.Quantity,
			Price:     t.Price.InexactFloat64(),
			Action:    t.Action,
			Timestamp: t.Timestamp(),
		})
	}

	return records
}

type tradeResponse struct {
	Message            string           `json:"message"`
	Portfolio          domain.Portfolio `json:"portfolio"`
	TransactionHistory []*tradeRecord   `json:"transaction_history"`
}
