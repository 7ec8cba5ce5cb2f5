package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/leonid6372/paper-trading/internal/tradeerrs"
	"github.com/leonid6372/paper-trading/pkg/log"
	"go.uber.org/zap"
)

func (a *API) rootHandler(c *gin.Context) {
	c.JSON(http.StatusOK, messageResponse{Message: msgRunning})
}

func (a *API) healthHandler(c *gin.Context) {
	if err := a.service.Ping(c.Request.Context()); err != nil {
		log.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		return
	}

	c.JSON(http.StatusOK, healthResponse{Status: "ok"})
}

func (a *API) stockHandler(c *gin.Context) {
	quote, err := a.service.Quote(c.Request.Context(), c.Param("ticker"))
	if err != nil {
		switch {
		case errors.Is(err, tradeerrs.ErrUnknownTicker):
			c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
		case errors.Is(err, tradeerrs.ErrQuoteUnavailable):
			c.JSON(http.StatusBadGateway, errorResponse{Error: err.Error()})
		default:
			a.internalError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, newQuoteResponse(quote))
}

func (a *API) stocksHandler(c *gin.Context) {
	raw, ok := c.GetQuery("tickers")
	if !ok {
		c.JSON(http.StatusBadRequest, errorResponse{Error: msgNoTickers})
		return
	}

	results := a.service.Quotes(c.Request.Context(), strings.Split(raw, ","))

	response := make(map[string]any, len(results))
	for ticker, result := range results {
		if result.Err != nil {
			if !tradeerrs.IsRejection(result.Err) {
				log.Error("quote lookup failed", zap.String("ticker", ticker), zap.Error(result.Err))
				response[ticker] = errorResponse{Error: msgInternalError}
				continue
			}

			response[ticker] = errorResponse{Error: result.Err.Error()}
			continue
		}

		response[ticker] = newQuoteResponse(result.Quote)
	}

	c.JSON(http.StatusOK, response)
}

func (a *API) tradeHandler(c *gin.Context) {
	var req tradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debug("malformed trade request", zap.Error(err))
		c.JSON(http.StatusBadRequest, errorResponse{Error: msgBadTradeBody})
		return
	}

	result, err := a.service.Execute(c.Request.Context(), req.CreateDomain())
	if err != nil {
		if tradeerrs.IsRejection(err) {
			c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		a.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, tradeResponse{
		Message:            result.Message,
		Portfolio:          result.Portfolio,
		TransactionHistory: newTradeRecords(result.History),
	})
}

func (a *API) portfolioHandler(c *gin.Context) {
	portfolio, err := a.service.Portfolio(c.Request.Context(), c.Param("username"))
	if err != nil {
		a.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, portfolio)
}

func (a *API) transactionsHandler(c *gin.Context) {
	history, err := a.service.History(c.Request.Context(), c.Param("username"))
	if err != nil {
		a.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTradeRecords(history))
}

// internalError hides err from the client. err is expected to be logged with
// its stack where it was created.
func (a *API) internalError(c *gin.Context, err error) {
	log.Debug("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	c.JSON(http.StatusInternalServerError, errorResponse{Error: msgInternalError})
}
