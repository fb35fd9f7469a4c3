package routes

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HexaField/causalmap/internal/server/middleware"
	"github.com/HexaField/causalmap/pkg/logger"
	"github.com/HexaField/causalmap/pkg/store"
)

// GetRunHandler returns the state and, when completed, the result of a run.
func GetRunHandler(c echo.Context) error {
	type getRunResponse struct {
		Message string     `json:"message,omitempty"`
		Run     *store.Run `json:"run,omitempty"`
	}

	runID := c.Param("id")
	if runID == "" {
		return c.JSON(http.StatusBadRequest, getRunResponse{
			Message: "Missing run id",
		})
	}

	app := c.(*middleware.AppContext).App
	run, err := app.Runs.GetRun(c.Request().Context(), runID)
	if err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			return c.JSON(http.StatusNotFound, getRunResponse{
				Message: "Run not found",
			})
		}
		logger.Error("[Runs] Failed to load run", "run_id", runID, "err", err)
		return c.JSON(http.StatusInternalServerError, getRunResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, getRunResponse{Run: run})
}

// ListRunsHandler returns recent runs, newest first.
func ListRunsHandler(c echo.Context) error {
	type listRunsResponse struct {
		Message string      `json:"message,omitempty"`
		Runs    []store.Run `json:"runs"`
	}

	app := c.(*middleware.AppContext).App
	runs, err := app.Runs.ListRuns(c.Request().Context(), 50)
	if err != nil {
		logger.Error("[Runs] Failed to list runs", "err", err)
		return c.JSON(http.StatusInternalServerError, listRunsResponse{
			Message: "Internal server error",
		})
	}
	if runs == nil {
		runs = []store.Run{}
	}

	return c.JSON(http.StatusOK, listRunsResponse{Runs: runs})
}
