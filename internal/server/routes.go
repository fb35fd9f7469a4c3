package server

import (
	"github.com/labstack/echo/v4"

	"github.com/HexaField/causalmap/internal/server/routes"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api")

	// Synchronous extraction
	apiRoutes.POST("/extract", routes.ExtractHandler)

	// Asynchronous extraction jobs
	apiRoutes.POST("/jobs", routes.CreateJobHandler)
	apiRoutes.GET("/runs", routes.ListRunsHandler)
	apiRoutes.GET("/runs/:id", routes.GetRunHandler)
}
