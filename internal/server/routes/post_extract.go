package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HexaField/causalmap/pkg/cld"
	"github.com/HexaField/causalmap/pkg/logger"
)

// ExtractHandler runs the extraction pipeline synchronously and returns the
// full result. Intended for small corpora; large jobs go through /api/jobs.
func ExtractHandler(c echo.Context) error {
	type extractInput struct {
		ID    string `json:"id" validate:"required"`
		Text  string `json:"text" validate:"required"`
		Title string `json:"title"`
	}

	type extractRequest struct {
		Inputs         []extractInput `json:"inputs" validate:"required,min=1,dive"`
		Overrides      *cld.Overrides `json:"overrides"`
		RequireDiagram bool           `json:"require_diagram"`
	}

	type extractResponse struct {
		Message string      `json:"message"`
		Result  *cld.Result `json:"result,omitempty"`
	}

	data := new(extractRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, extractResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, extractResponse{
			Message: "Invalid request body",
		})
	}

	inputs := make([]cld.Input, len(data.Inputs))
	seen := make(map[string]bool, len(data.Inputs))
	for i, input := range data.Inputs {
		if seen[input.ID] {
			return c.JSON(http.StatusBadRequest, extractResponse{
				Message: "Duplicate input id: " + input.ID,
			})
		}
		seen[input.ID] = true
		inputs[i] = cld.Input{ID: input.ID, Text: input.Text, Title: input.Title}
	}

	ctx := c.Request().Context()
	run, err := cld.Run(ctx, inputs, cld.Options{Overrides: data.Overrides})
	if err != nil {
		logger.Error("[Extract] Pipeline failed", "err", err)
		return c.JSON(http.StatusBadRequest, extractResponse{
			Message: err.Error(),
		})
	}

	if data.RequireDiagram && !run.HasDiagram() {
		return c.JSON(http.StatusUnprocessableEntity, extractResponse{
			Message: "no causal relationships found",
			Result:  run.Result,
		})
	}

	return c.JSON(http.StatusOK, extractResponse{
		Message: "Extraction completed",
		Result:  run.Result,
	})
}
