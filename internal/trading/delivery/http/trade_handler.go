package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"momentum-trader/internal/trading/service"
	"momentum-trader/pkg/logger"
	"momentum-trader/pkg/utils"
)

// TradeHandler handles HTTP requests for executed trades.
type TradeHandler struct {
	historyService service.HistoryService
	logger         *logger.Logger
}

// NewTradeHandler creates a new TradeHandler.
func NewTradeHandler(historyService service.HistoryService, logger *logger.Logger) *TradeHandler {
	return &TradeHandler{historyService: historyService, logger: logger}
}

// RegisterRoutes registers the trade routes to the Echo group.
func (h *TradeHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetTrades)
}

// GetTrades godoc
// @Summary Get trades
// @Description Get trades for a date, or the most recent trades when no date is given
// @Tags trades
// @Produce  json
// @Param   date   query    string false    "Trade date (YYYY-MM-DD)"
// @Param   limit  query    int    false    "Max trades to return without a date (default 50)"
// @Success 200 {array} entity.Trade
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /trades [get]
func (h *TradeHandler) GetTrades(c echo.Context) error {
	if raw := c.QueryParam("date"); raw != "" {
		date, err := utils.ParseRunDate(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid date, expected YYYY-MM-DD"})
		}
		trades, err := h.historyService.GetTrades(c.Request().Context(), date)
		if err != nil {
			h.logger.Error("Failed to get trades", logger.ErrorField(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to get trades"})
		}
		return c.JSON(http.StatusOK, trades)
	}

	limit := parseLimit(c.QueryParam("limit"), 50)
	trades, err := h.historyService.GetRecentTrades(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("Failed to get recent trades", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to get trades"})
	}

	return c.JSON(http.StatusOK, trades)
}
