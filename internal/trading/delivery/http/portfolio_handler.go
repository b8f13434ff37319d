package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"momentum-trader/internal/trading/repository"
	"momentum-trader/internal/trading/service"
	"momentum-trader/pkg/logger"
)

// PortfolioHandler handles HTTP requests for positions, snapshots and the
// live broker account.
type PortfolioHandler struct {
	historyService service.HistoryService
	broker         repository.BrokerRepository
	logger         *logger.Logger
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(historyService service.HistoryService, broker repository.BrokerRepository, logger *logger.Logger) *PortfolioHandler {
	return &PortfolioHandler{historyService: historyService, broker: broker, logger: logger}
}

// RegisterRoutes registers the portfolio routes to the Echo group.
func (h *PortfolioHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/positions", h.GetPositions)
	g.GET("/snapshots", h.GetSnapshots)
	g.GET("/account", h.GetAccount)
}

// GetPositions godoc
// @Summary Get open positions
// @Description Get the currently tracked open positions
// @Tags portfolio
// @Produce  json
// @Success 200 {array} entity.Position
// @Failure 500 {object} dto.ErrorResponse
// @Router /portfolio/positions [get]
func (h *PortfolioHandler) GetPositions(c echo.Context) error {
	positions, err := h.historyService.GetPositions(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to get positions", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to get positions"})
	}
	return c.JSON(http.StatusOK, positions)
}

// GetSnapshots godoc
// @Summary Get portfolio snapshots
// @Description Get recent end-of-run portfolio snapshots, newest first
// @Tags portfolio
// @Produce  json
// @Param   limit  query    int false    "Max snapshots to return (default 30)"
// @Success 200 {array} entity.PortfolioSnapshot
// @Failure 500 {object} dto.ErrorResponse
// @Router /portfolio/snapshots [get]
func (h *PortfolioHandler) GetSnapshots(c echo.Context) error {
	limit := parseLimit(c.QueryParam("limit"), 30)

	snapshots, err := h.historyService.GetSnapshots(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("Failed to get snapshots", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to get snapshots"})
	}
	return c.JSON(http.StatusOK, snapshots)
}

// GetAccount godoc
// @Summary Get the broker account
// @Description Get the live account snapshot from the broker
// @Tags portfolio
// @Produce  json
// @Success 200 {object} dto.AccountSnapshot
// @Failure 502 {object} dto.ErrorResponse
// @Router /portfolio/account [get]
func (h *PortfolioHandler) GetAccount(c echo.Context) error {
	account, err := h.broker.GetAccount(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to get account", logger.ErrorField(err))
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "Failed to get account from broker"})
	}
	return c.JSON(http.StatusOK, account)
}
