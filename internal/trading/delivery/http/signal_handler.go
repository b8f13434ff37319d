package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"momentum-trader/internal/trading/service"
	"momentum-trader/pkg/logger"
	"momentum-trader/pkg/utils"
)

// SignalHandler handles HTTP requests for daily signals.
type SignalHandler struct {
	historyService service.HistoryService
	logger         *logger.Logger
}

// NewSignalHandler creates a new SignalHandler.
func NewSignalHandler(historyService service.HistoryService, logger *logger.Logger) *SignalHandler {
	return &SignalHandler{historyService: historyService, logger: logger}
}

// RegisterRoutes registers the signal routes to the Echo group.
func (h *SignalHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetSignals)
}

// GetSignals godoc
// @Summary Get signals for a date
// @Description Get all signals generated on the given date, strongest first
// @Tags signals
// @Produce  json
// @Param   date  query    string true    "Signal date (YYYY-MM-DD)"
// @Success 200 {array} entity.DailySignal
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /signals [get]
func (h *SignalHandler) GetSignals(c echo.Context) error {
	date, err := utils.ParseRunDate(c.QueryParam("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid or missing date, expected YYYY-MM-DD"})
	}

	signals, err := h.historyService.GetSignals(c.Request().Context(), date)
	if err != nil {
		h.logger.Error("Failed to get signals", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to get signals"})
	}

	return c.JSON(http.StatusOK, signals)
}
