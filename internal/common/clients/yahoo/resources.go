package yahoo

import (
	"strings"

	"github.com/leonid6372/paper-trading/internal/common/domain"
	"github.com/shopspring/decimal"
)

const pricePlaces = 2

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol string `json:"symbol"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []chartQuote `json:"quote"`
	} `json:"indicators"`
}

// chartQuote holds parallel per-bar series. Yahoo reports missing bars as null.
type chartQuote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

// lastBar returns the index of the most recent bar with a complete OHLC set, or -1.
func (q *chartQuote) lastBar() int {
	n := min(len(q.Open), len(q.High), len(q.Low), len(q.Close))
	for i := n - 1; i >= 0; i-- {
		if q.Open[i] != nil && q.High[i] != nil && q.Low[i] != nil && q.Close[i] != nil {
			return i
		}
	}

	return -1
}

func (q *chartQuote) CreateDomain(ticker string, i int) *domain.Quote {
	var volume int64
	if i < len(q.Volume) && q.Volume[i] != nil {
		volume = *q.Volume[i]
	}

	return &domain.Quote{
		Ticker: strings.ToUpper(ticker),
		Last:   decimal.NewFromFloat(*q.Close[i]).Round(pricePlaces),
		Open:   decimal.NewFromFloat(*q.Open[i]).Round(pricePlaces),
		High:   decimal.NewFromFloat(*q.High[i]).Round(pricePlaces),
		Low:    decimal.NewFromFloat(*q.Low[i]).Round(pricePlaces),
		Volume: volume,
	}
}
