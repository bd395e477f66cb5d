package echoapi

import (
	"html/template"
	"net/http"
	"strconv"

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

const (
	menuLogin  = "login"
	menuSignup = "signup"

	noticeSuccess = "success"
	noticeWarning = "warning"
	noticeError   = "error"
)

type (
	notice struct {
		Level string
		Text  string
	}

	markRow struct {
		Subject string
		Mark    int
	}

	chartView struct {
		Title string
		SVG   template.HTML
	}

	reportView struct {
		Average float64
		Slices  []report.Slice
		Charts  []chartView
	}

	page struct {
		AppName string
		Menu    string
		Session session.Session
		Notices []notice
		Errors  map[string]string
		Form    map[string]string
		Rows    []markRow
		MinMark int
		MaxMark int
		Report  *reportView
	}

	webUI struct {
		users      *user.Service
		marks      *gradebook.Service
		reports    *report.Renderer
		auth       *authenticator
		logger     core.Logger
		validate   *validator.Validate
		translator ut.Translator
		appName    string
	}
)

var chartTitles = map[report.Kind]string{
	report.Bar:  "Bar Chart",
	report.Line: "Line Chart",
	report.Pie:  "Pie Chart",
}

func registerWebUI(e *echo.Echo, auth *authenticator, deps ServerDeps) {
	ui := webUI{
		users:      deps.UserSvc,
		marks:      deps.GradebookSvc,
		reports:    deps.Reports,
		auth:       auth,
		logger:     deps.Logger,
		validate:   deps.Validate,
		translator: deps.Translator,
		appName:    deps.Conf.AppName,
	}

	sess := auth.cookieSessionMiddleware()
	e.GET("/", ui.home, sess)
	e.POST("/signup", ui.signup, sess)
	e.POST("/login", ui.login, sess)
	e.POST("/signout", ui.signout, sess, loginRequired)
	e.GET("/marks", ui.marksForm, sess, loginRequired)
	e.POST("/marks", ui.saveMarks, sess, loginRequired)
	e.POST("/report", ui.report, sess, loginRequired)
}

func loginRequired(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if !getContextSession(ctx).LoggedIn {
			return ctx.Redirect(http.StatusSeeOther, "/?menu="+menuLogin)
		}
		return next(ctx)
	}
}

func (ui *webUI) newPage(ctx echo.Context, menu string) *page {
	return &page{
		AppName: ui.appName,
		Menu:    menu,
		Session: getContextSession(ctx),
		Form:    make(map[string]string),
		MinMark: gradebook.MinMark,
		MaxMark: gradebook.MaxMark,
	}
}

func (p *page) notify(level, text string) {
	p.Notices = append(p.Notices, notice{Level: level, Text: text})
}

// fieldErrors turns validation failures into form errors; false if err is not a validation error.
func (ui *webUI) fieldErrors(err error) (map[string]string, bool) {
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		return core.TranslateErrors(vErrs, ui.translator), true
	}
	if vErr, ok := core.AsValidationError(err); ok {
		if fldErrs := vErr.FieldMap(); fldErrs != nil {
			return fldErrs, true
		}
		return map[string]string{"form": vErr.Error()}, true
	}
	return nil, false
}

// Handlers

func (ui *webUI) home(ctx echo.Context) error {
	if getContextSession(ctx).LoggedIn {
		return ctx.Redirect(http.StatusSeeOther, "/marks")
	}
	menu := ctx.QueryParam("menu")
	if menu != menuSignup {
		menu = menuLogin
	}
	return ctx.Render(http.StatusOK, homePage, ui.newPage(ctx, menu))
}

func (ui *webUI) signup(ctx echo.Context) error {
	p := ui.newPage(ctx, menuSignup)

	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	p.Form["name"] = data.Name
	p.Form["phone"] = data.Phone
	p.Form["dob"] = data.DOB
	p.Form["email"] = data.Email

	if err := data.Validate(ui.validate); err != nil {
		if fldErrs, ok := ui.fieldErrors(err); ok {
			p.Errors = fldErrs
			return ctx.Render(http.StatusBadRequest, homePage, p)
		}
		return err
	}

	usr, err := ui.users.Signup(ctx.Request().Context(), data)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateAccount) {
			p.notify(noticeWarning, "An account with this email already exists. Please log in instead.")
			return ctx.Render(http.StatusConflict, homePage, p)
		}
		if fldErrs, ok := ui.fieldErrors(err); ok {
			p.Errors = fldErrs
			return ctx.Render(http.StatusBadRequest, homePage, p)
		}
		return errors.Wrap(err, "signing up")
	}

	p = ui.newPage(ctx, menuLogin)
	p.Form["email"] = usr.Email
	p.notify(noticeSuccess, "Account created successfully! Please log in.")
	return ctx.Render(http.StatusCreated, homePage, p)
}

func (ui *webUI) login(ctx echo.Context) error {
	p := ui.newPage(ctx, menuLogin)

	var data user.LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	p.Form["email"] = data.Email

	if err := data.Validate(ui.validate); err != nil {
		if fldErrs, ok := ui.fieldErrors(err); ok {
			p.Errors = fldErrs
			return ctx.Render(http.StatusBadRequest, homePage, p)
		}
		return err
	}

	usr, ok, err := ui.users.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		return errors.Wrap(err, "validating login")
	}
	if !ok {
		p.notify(noticeError, "Invalid email or password.")
		return ctx.Render(http.StatusBadRequest, homePage, p)
	}

	token, err := ui.auth.GenerateToken(ui.auth.newClaims(session.New(usr.Name, usr.Email)))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	ui.auth.setSessionCookie(ctx, token)
	return ctx.Redirect(http.StatusSeeOther, "/marks?welcome=1")
}

func (ui *webUI) signout(ctx echo.Context) error {
	if claims, err := getContextClaims(ctx); err == nil {
		ui.auth.revoke(claims)
	}
	ui.auth.clearSessionCookie(ctx)
	return ctx.Redirect(http.StatusSeeOther, "/?menu="+menuLogin)
}

// marksForm shows the marks form. Right after login (?welcome=1) it greets the user
// and follows the form with the report when marks were saved before.
func (ui *webUI) marksForm(ctx echo.Context) error {
	p := ui.newPage(ctx, "")
	reqCtx := ctx.Request().Context()

	gb, err := ui.marks.LoadMarks(reqCtx, p.Session.Email)
	if err != nil && !errors.Is(err, gradebook.ErrNotFound) {
		return errors.Wrap(err, "loading marks")
	}
	p.Rows = formRows(gb.Entries)
	if ctx.QueryParam("welcome") != "1" {
		return ctx.Render(http.StatusOK, marksPage, p)
	}

	p.notify(noticeSuccess, "Welcome, "+displayName(p.Session)+"!")
	if !gb.IsEmpty() {
		if err = ui.attachReport(ctx, p); err != nil {
			return err
		}
	}
	return ctx.Render(http.StatusOK, marksPage, p)
}

func (ui *webUI) saveMarks(ctx echo.Context) error {
	p := ui.newPage(ctx, "")

	params, err := ctx.FormParams()
	if err != nil {
		return errors.Wrap(err, "parsing form")
	}
	data, fldErrs := parseSubmission(params["subject"], params["mark"])
	p.Rows = submissionRows(data)
	if len(fldErrs) > 0 {
		p.Errors = fldErrs
		return ctx.Render(http.StatusBadRequest, marksPage, p)
	}
	if err = data.Validate(ui.validate); err != nil {
		if fldErrs, ok := ui.fieldErrors(err); ok {
			p.Errors = fldErrs
			return ctx.Render(http.StatusBadRequest, marksPage, p)
		}
		return err
	}

	subjects, marks := data.Pairs()
	if _, err = ui.marks.SaveMarks(ctx.Request().Context(), p.Session.Email, subjects, marks); err != nil {
		if fldErrs, ok := ui.fieldErrors(err); ok {
			p.Errors = fldErrs
			return ctx.Render(http.StatusBadRequest, marksPage, p)
		}
		return errors.Wrap(err, "saving marks")
	}
	p.notify(noticeSuccess, "Marks saved successfully!")
	return ctx.Render(http.StatusOK, marksPage, p)
}

func (ui *webUI) report(ctx echo.Context) error {
	p := ui.newPage(ctx, "")

	gb, err := ui.marks.LoadMarks(ctx.Request().Context(), p.Session.Email)
	if err != nil && !errors.Is(err, gradebook.ErrNotFound) {
		return errors.Wrap(err, "loading marks")
	}
	p.Rows = formRows(gb.Entries)

	if gb.IsEmpty() {
		p.notify(noticeError, "No marks found. Please enter and submit your marks first.")
		return ctx.Render(http.StatusNotFound, marksPage, p)
	}
	if err = ui.attachReport(ctx, p); err != nil {
		return err
	}
	return ctx.Render(http.StatusOK, marksPage, p)
}

// attachReport adds the summary and the SVG charts of the session user to p.
// A chart that cannot be drawn for these marks is replaced by a warning.
func (ui *webUI) attachReport(ctx echo.Context, p *page) error {
	reqCtx := ctx.Request().Context()
	rep, err := ui.reports.Generate(reqCtx, p.Session.Email)
	if err != nil {
		return errors.Wrap(err, "generating report")
	}

	charts, skipped, err := ui.reports.RenderAll(reqCtx, p.Session.Email, report.SVG)
	if err != nil {
		return errors.Wrap(err, "rendering charts")
	}

	view := &reportView{Average: rep.Average, Slices: rep.Slices}
	for _, kind := range report.Kinds {
		if skipErr, ok := skipped[kind]; ok {
			fldErrs, _ := ui.fieldErrors(skipErr)
			for _, msg := range fldErrs {
				p.notify(noticeWarning, chartTitles[kind]+": "+msg)
			}
			continue
		}
		view.Charts = append(view.Charts, chartView{
			Title: chartTitles[kind],
			SVG:   template.HTML(charts[kind]), // chart labels are escaped by report.RenderChart
		})
	}
	p.Report = view
	return nil
}

// parseSubmission pairs the repeated subject and mark form fields by position.
func parseSubmission(subjects, marks []string) (gradebook.Submission, map[string]string) {
	var data gradebook.Submission
	fldErrs := make(map[string]string)
	for i, subject := range subjects {
		in := gradebook.MarkInput{Subject: subject, Mark: gradebook.DefaultMark}
		if i < len(marks) && marks[i] != "" {
			mark, err := strconv.Atoi(marks[i])
			if err != nil {
				fldErrs["mark"] = "marks must be whole numbers"
			}
			in.Mark = mark
		}
		data.Entries = append(data.Entries, in)
	}
	return data, fldErrs
}

func formRows(entries []gradebook.Entry) []markRow {
	rows := make([]markRow, 0, gradebook.MaxEntries)
	for _, e := range entries {
		if len(rows) == gradebook.MaxEntries {
			break
		}
		rows = append(rows, markRow{Subject: e.Subject, Mark: e.Mark})
	}
	for len(rows) < gradebook.MaxEntries {
		rows = append(rows, markRow{Mark: gradebook.DefaultMark})
	}
	return rows
}

func submissionRows(data gradebook.Submission) []markRow {
	entries := make([]gradebook.Entry, 0, len(data.Entries))
	for _, in := range data.Entries {
		entries = append(entries, gradebook.Entry{Subject: in.Subject, Mark: in.Mark})
	}
	return formRows(entries)
}

func displayName(sess session.Session) string {
	if sess.Name != "" {
		return sess.Name
	}
	return sess.Email
}
