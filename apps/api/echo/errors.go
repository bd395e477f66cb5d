package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/gradebook"
	"github.com/trezcool/alama/core/report"
	"github.com/trezcool/alama/core/user"
)

var (
	errUnauthorized       = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errTokenRevoked       = echo.NewHTTPError(http.StatusUnauthorized, "session has been signed out")
	errInvalidCredentials = echo.NewHTTPError(http.StatusBadRequest, "invalid credentials")
	errRefreshExpired     = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
)

// domainErrors are answered with their own message.
var domainErrors = []struct {
	err  error
	code int
}{
	{err: user.ErrDuplicateAccount, code: http.StatusConflict},
	{err: gradebook.ErrNotFound, code: http.StatusNotFound},
	{err: report.ErrUnknownChart, code: http.StatusNotFound},
	{err: report.ErrUnknownFormat, code: http.StatusBadRequest},
}

// errorResponse maps err to a status code and a JSON body; ok is false for unexpected errors.
func errorResponse(err error, translator ut.Translator) (code int, body interface{}, ok bool) {
	for _, de := range domainErrors {
		if errors.Is(err, de.err) {
			return de.code, echo.Map{"error": de.err.Error()}, true
		}
	}

	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		return http.StatusBadRequest, core.TranslateErrors(vErrs, translator), true
	}
	if vErr, ok := core.AsValidationError(err); ok {
		if fldErrs := vErr.FieldMap(); fldErrs != nil {
			return http.StatusBadRequest, fldErrs, true
		}
		return http.StatusBadRequest, echo.Map{"error": vErr.Error()}, true
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr == middleware.ErrJWTMissing {
			return http.StatusUnauthorized, echo.Map{"error": httpErr.Message}, true
		}
		if inner, ok := httpErr.Internal.(*echo.HTTPError); ok {
			httpErr = inner
		}
		if msg, ok := httpErr.Message.(string); ok {
			return httpErr.Code, echo.Map{"error": msg}, true
		}
		return httpErr.Code, httpErr.Message, true
	}

	return http.StatusInternalServerError, nil, false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// Unexpected errors are logged with the session; a core shutdown error also stops the Server.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		code, body, ok := errorResponse(err, translator)
		if !ok {
			msg := http.StatusText(http.StatusInternalServerError)
			logger.Error(msg, errors.Wrap(err, ctx.Request().Method+" "+ctx.Path()), getContextSession(ctx))
			if ctx.Echo().Debug {
				msg = err.Error()
			}
			body = echo.Map{"error": msg}

			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Response().Committed {
			return
		}
		if ctx.Request().Method == http.MethodHead {
			err = ctx.NoContent(code)
		} else {
			err = ctx.JSON(code, body)
		}
		if err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}
