package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/alama/core/report"
)

type reportApi struct {
	reports *report.Renderer
}

func registerReportAPI(g *echo.Group, jwt []echo.MiddlewareFunc, deps ServerDeps) {
	api := reportApi{reports: deps.Reports}

	rg := g.Group("/reports", jwt...)
	rg.GET("", api.summary)
	rg.GET("/:chart", api.chart)
}

func (api *reportApi) summary(ctx echo.Context) error {
	sess := getContextSession(ctx)
	rep, err := api.reports.Generate(ctx.Request().Context(), sess.Email)
	if err != nil {
		return errors.Wrap(err, "generating report")
	}
	return ctx.JSON(http.StatusOK, rep)
}

func (api *reportApi) chart(ctx echo.Context) error {
	kind, err := report.ParseKind(ctx.Param("chart"))
	if err != nil {
		return err
	}
	format, err := report.ParseFormat(ctx.QueryParam("format"))
	if err != nil {
		return err
	}

	sess := getContextSession(ctx)
	data, err := api.reports.Render(ctx.Request().Context(), sess.Email, kind, format)
	if err != nil {
		return errors.Wrapf(err, "rendering %s chart", kind)
	}
	return ctx.Blob(http.StatusOK, format.ContentType(), data)
}
