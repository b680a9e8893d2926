package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/admariner/wrangles/pkg/recipe"
	w "github.com/admariner/wrangles/pkg/wrangles"
)

type RunRequest struct {
	Recipe    string           `json:"recipe" validate:"required"`
	Variables map[string]any   `json:"variables"`
	Columns   []string         `json:"columns"`
	Data      []map[string]any `json:"data"`
}

type RunResponse struct {
	Columns []string         `json:"columns"`
	Data    []map[string]any `json:"data"`
}

// RunRecipe runs the posted recipe over the posted records and returns
// the resulting table. Columns orders the input table; keys it does not
// name follow in sorted order.
func (s *HTTPServer) RunRecipe(c *CustomContext) error {
	var req RunRequest
	if err := ValidateRequest(c, &req); err != nil {
		return err
	}
	r, err := recipe.Parse([]byte(req.Recipe), recipe.YAML)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	opts := append(append([]recipe.Option{}, s.opts...), recipe.WithVariables(req.Variables))
	if req.Data != nil {
		opts = append(opts, recipe.WithDataframe(w.FromRecords(req.Data, req.Columns)))
	}
	out, err := recipe.Run(c.Request().Context(), r, opts...)
	if err != nil {
		return runError(c, err)
	}
	return c.JSON(http.StatusOK, RunResponse{Columns: out.Columns(), Data: out.Records()})
}

func runError(c *CustomContext, err error) error {
	var ra *w.RemoteAccessError
	var uf *w.UnknownFunctionError
	switch {
	case w.IsConfiguration(err), w.IsMissingColumn(err), errors.As(err, &uf):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.As(err, &ra):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.InternalError(err, "recipe run failed")
}
