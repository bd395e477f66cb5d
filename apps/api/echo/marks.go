package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/alama/core/gradebook"
)

type marksApi struct {
	svc      *gradebook.Service
	validate *validator.Validate
}

func registerMarksAPI(g *echo.Group, jwt []echo.MiddlewareFunc, deps ServerDeps) {
	api := marksApi{
		svc:      deps.GradebookSvc,
		validate: deps.Validate,
	}

	mg := g.Group("/marks", jwt...)
	mg.GET("", api.retrieve)
	mg.PUT("", api.save)
}

func (api *marksApi) retrieve(ctx echo.Context) error {
	sess := getContextSession(ctx)
	gb, err := api.svc.LoadMarks(ctx.Request().Context(), sess.Email)
	if err != nil {
		return errors.Wrap(err, "loading marks")
	}
	return ctx.JSON(http.StatusOK, gb)
}

func (api *marksApi) save(ctx echo.Context) error {
	var data gradebook.Submission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Submission")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sess := getContextSession(ctx)
	subjects, marks := data.Pairs()
	gb, err := api.svc.SaveMarks(ctx.Request().Context(), sess.Email, subjects, marks)
	if err != nil {
		return errors.Wrap(err, "saving marks")
	}
	return ctx.JSON(http.StatusOK, gb)
}
