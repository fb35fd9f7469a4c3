package routes

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/HexaField/causalmap/internal/queue"
	"github.com/HexaField/causalmap/internal/server/middleware"
	"github.com/HexaField/causalmap/pkg/cld"
	"github.com/HexaField/causalmap/pkg/logger"
	"github.com/HexaField/causalmap/pkg/store"
)

// CreateJobHandler enqueues an asynchronous extraction run. Inputs may carry
// inline text or an s3:// source URI resolved by the worker.
func CreateJobHandler(c echo.Context) error {
	type jobInput struct {
		ID        string `json:"id" validate:"required"`
		Text      string `json:"text"`
		Title     string `json:"title"`
		SourceURI string `json:"source_uri"`
	}

	type createJobRequest struct {
		Inputs    []jobInput     `json:"inputs" validate:"required,min=1,dive"`
		Overrides *cld.Overrides `json:"overrides"`
	}

	type createJobResponse struct {
		Message string          `json:"message"`
		RunID   string          `json:"run_id,omitempty"`
		Status  store.RunStatus `json:"status,omitempty"`
	}

	data := new(createJobRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, createJobResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, createJobResponse{
			Message: "Invalid request body",
		})
	}

	inputs := make([]cld.Input, len(data.Inputs))
	seen := make(map[string]bool, len(data.Inputs))
	for i, input := range data.Inputs {
		if input.Text == "" && input.SourceURI == "" {
			return c.JSON(http.StatusBadRequest, createJobResponse{
				Message: "Input " + input.ID + " needs either text or a source uri",
			})
		}
		if seen[input.ID] {
			return c.JSON(http.StatusBadRequest, createJobResponse{
				Message: "Duplicate input id: " + input.ID,
			})
		}
		seen[input.ID] = true
		inputs[i] = cld.Input{ID: input.ID, Text: input.Text, Title: input.Title, SourceURI: input.SourceURI}
	}

	runID, err := gonanoid.New()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, createJobResponse{
			Message: "Internal server error",
		})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App
	if err := app.Runs.CreateRun(ctx, runID); err != nil {
		logger.Error("[Jobs] Failed to create run", "err", err)
		return c.JSON(http.StatusInternalServerError, createJobResponse{
			Message: "Internal server error",
		})
	}

	job := queue.ExtractJobMsg{
		RunID:     runID,
		Inputs:    inputs,
		Overrides: data.Overrides,
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, createJobResponse{
			Message: "Internal server error",
		})
	}
	if err := queue.PublishFIFO(app.Queue, queue.ExtractQueue, payload); err != nil {
		logger.Error("[Jobs] Failed to publish extract job", "run_id", runID, "err", err)
		if failErr := app.Runs.FailRun(ctx, runID, "failed to enqueue job"); failErr != nil {
			logger.Warn("[Jobs] Failed to mark run as failed", "run_id", runID, "err", failErr)
		}
		return c.JSON(http.StatusInternalServerError, createJobResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusAccepted, createJobResponse{
		Message: "Extraction job accepted",
		RunID:   runID,
		Status:  store.RunPending,
	})
}
