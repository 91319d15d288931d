package routes

import (
	"context"
	"errors"
	"net/http"

	"github.com/alchemy-game-studios/game-planner/internal/server/middleware"
	"github.com/alchemy-game-studios/game-planner/pkg/assembler"
	"github.com/alchemy-game-studios/game-planner/pkg/common"
	"github.com/alchemy-game-studios/game-planner/pkg/logger"

	"github.com/labstack/echo/v4"
)

type contextParams struct {
	assembler.Request
	Format common.Format `json:"format,omitempty"`
}

func bindContextParams(c echo.Context) (*contextParams, error) {
	params := new(contextParams)
	if err := c.Bind(params); err != nil {
		return nil, err
	}
	if err := c.Validate(params); err != nil {
		return nil, err
	}
	if params.Format == "" {
		params.Format = common.FormatMarkdown
	}
	return params, nil
}

// errorStatus maps assembly errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, assembler.ErrEntityNotFound):
		return http.StatusNotFound
	case errors.Is(err, assembler.ErrInvalidTarget),
		errors.Is(err, assembler.ErrInvalidFormat),
		errors.Is(err, assembler.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func assemblyError(c echo.Context, err error) error {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		logger.Error("[Server][Context] assembly failed", "err", err)
		return c.JSON(status, map[string]string{"error": "Internal server error"})
	}
	return c.JSON(status, map[string]string{"error": err.Error()})
}

func AssembleContextHandler(c echo.Context) error {
	params, err := bindContextParams(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	a := c.(*middleware.AppContext).App.Assembler
	out, err := a.Assemble(c.Request().Context(), params.Request, params.Format)
	if err != nil {
		return assemblyError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func LegacyContextHandler(c echo.Context) error {
	params, err := bindContextParams(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request params"})
	}

	a := c.(*middleware.AppContext).App.Assembler
	out, err := a.AssembleEntityContext(c.Request().Context(), params.Request)
	if err != nil {
		return assemblyError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func GetSchemaHandler(c echo.Context) error {
	if c.QueryParam("view") == "legacy" {
		return c.JSON(http.StatusOK, assembler.LegacySchema())
	}
	return c.JSON(http.StatusOK, assembler.Schema())
}
