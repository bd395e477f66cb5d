package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/gradebook"
	"github.com/trezcool/alama/core/report"
	"github.com/trezcool/alama/core/session"
	"github.com/trezcool/alama/core/user"
)

type userApi struct {
	svc        *user.Service
	marks      *gradebook.Service
	reports    *report.Renderer
	auth       *authenticator
	logger     core.Logger
	validate   *validator.Validate
	translator ut.Translator
}

func registerUserAPI(g *echo.Group, jwt []echo.MiddlewareFunc, auth *authenticator, deps ServerDeps) {
	api := userApi{
		svc:        deps.UserSvc,
		marks:      deps.GradebookSvc,
		reports:    deps.Reports,
		auth:       auth,
		logger:     deps.Logger,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	ug := g.Group("/users")

	// un-authed endpoints
	ug.POST("/signup", api.signup)
	ug.POST("/login", api.login)

	// authed endpoints
	ag := ug.Group("", jwt...)
	ag.POST("/signout", api.signout)
	ag.POST("/token-refresh", api.refreshToken)
	ag.GET("/me", api.me)
}

// Handlers

func (api *userApi) signup(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.Signup(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "signing up")
	}
	return ctx.JSON(http.StatusCreated, SuccessResponse{Success: "Account created for " + usr.Email + ". You can now log in."})
}

func (api *userApi) login(ctx echo.Context) error {
	var data user.LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	usr, ok, err := api.svc.Authenticate(reqCtx, data.Email, data.Password)
	if err != nil {
		return errors.Wrap(err, "validating login")
	}
	if !ok {
		return errInvalidCredentials
	}

	sess := session.New(usr.Name, usr.Email)
	token, err := api.auth.GenerateToken(api.auth.newClaims(sess))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	resp := LoginResponse{Token: token, Name: usr.Name}
	// the login itself succeeded; report failures are only logged
	if resp.HasMarks, err = api.marks.HasMarks(reqCtx, sess.Email); err != nil {
		api.logger.Error("echoapi.userApi.login", errors.Wrap(err, "checking marks"), sess)
	} else if resp.HasMarks {
		rep, err := api.reports.Generate(reqCtx, sess.Email)
		if err != nil {
			api.logger.Error("echoapi.userApi.login", errors.Wrap(err, "generating report"), sess)
		} else {
			resp.Report = &rep
		}
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *userApi) signout(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	api.auth.revoke(claims)

	sess := getContextSession(ctx)
	sess.Clear()
	ctx.Set(sessionContextKey, sess)
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Signed out."})
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	sess := getContextSession(ctx)
	if _, err := api.svc.GetByEmail(ctx.Request().Context(), sess.Email); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return errUnauthorized
		}
		return errors.Wrap(err, "finding user by email")
	}

	token, err := api.auth.refreshToken(ctx)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token, Name: sess.Name})
}

func (api *userApi) me(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, getContextSession(ctx))
}

type (
	LoginResponse struct {
		Token    string         `json:"token"`
		Name     string         `json:"name"`
		HasMarks bool           `json:"has_marks"`
		Report   *report.Report `json:"report,omitempty"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)
