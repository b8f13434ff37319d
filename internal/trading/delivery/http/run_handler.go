package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"momentum-trader/internal/trading/dto"
	"momentum-trader/internal/trading/service"
	"momentum-trader/pkg/logger"
	"momentum-trader/pkg/utils"
)

// RunHandler handles HTTP requests for algorithm runs.
type RunHandler struct {
	historyService service.HistoryService
	logger         *logger.Logger
}

// NewRunHandler creates a new RunHandler.
func NewRunHandler(historyService service.HistoryService, logger *logger.Logger) *RunHandler {
	return &RunHandler{historyService: historyService, logger: logger}
}

// RegisterRoutes registers the run routes to the Echo group.
func (h *RunHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.TriggerRun)
	g.GET("", h.GetRecentRuns)
	g.GET("/:date", h.GetRun)
}

// TriggerRun godoc
// @Summary Trigger an algorithm run
// @Description Publish a run task for the given date (defaults to today in market time). The run is skipped if the date was already executed.
// @Tags runs
// @Accept  json
// @Produce  json
// @Param   run  body    dto.TriggerRunRequest   false    "Run to trigger"
// @Success 202 {object} dto.RunTaskPayload
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /runs [post]
func (h *RunHandler) TriggerRun(c echo.Context) error {
	var req dto.TriggerRunRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	runDate := utils.TimeNowNY()
	if req.RunDate != "" {
		parsed, err := utils.ParseRunDate(req.RunDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid run_date, expected YYYY-MM-DD"})
		}
		runDate = parsed
	}

	if err := h.historyService.TriggerRun(c.Request().Context(), runDate); err != nil {
		h.logger.Error("Failed to trigger run", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to trigger run"})
	}

	return c.JSON(http.StatusAccepted, dto.RunTaskPayload{RunDate: utils.FormatRunDate(runDate)})
}

// GetRun godoc
// @Summary Get a run by date
// @Description Get the outcome of the run executed on the given date
// @Tags runs
// @Produce  json
// @Param   date  path    string true    "Run date (YYYY-MM-DD)"
// @Success 200 {object} dto.RunSummary
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /runs/{date} [get]
func (h *RunHandler) GetRun(c echo.Context) error {
	runDate, err := utils.ParseRunDate(c.Param("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid date, expected YYYY-MM-DD"})
	}

	summary, err := h.historyService.GetRun(c.Request().Context(), runDate)
	if err != nil {
		h.logger.Error("Failed to get run", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to get run"})
	}
	if summary == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "No run recorded for date"})
	}

	return c.JSON(http.StatusOK, summary)
}

// GetRecentRuns godoc
// @Summary Get recent runs
// @Description Get the most recent algorithm runs, newest first
// @Tags runs
// @Produce  json
// @Param   limit  query    int false    "Max runs to return (default 30)"
// @Success 200 {array} dto.RunSummary
// @Failure 500 {object} dto.ErrorResponse
// @Router /runs [get]
func (h *RunHandler) GetRecentRuns(c echo.Context) error {
	limit := parseLimit(c.QueryParam("limit"), 30)

	summaries, err := h.historyService.GetRecentRuns(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("Failed to get recent runs", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to get runs"})
	}

	return c.JSON(http.StatusOK, summaries)
}

func parseLimit(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}
