package echoapi

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/alama/core/gradebook"
	filestore "github.com/trezcool/alama/storage/file"
)

func sessionCookie(t *testing.T, res *http.Response) *http.Cookie {
	for _, c := range res.Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", sessionCookieName)
	return nil
}

func TestWebUI_home(t *testing.T) {
	s, _ := setup(t)

	tests := []struct {
		name     string
		path     string
		wantText string
	}{
		{name: "default menu", path: "/", wantText: `action="/login"`},
		{name: "login menu", path: "/?menu=login", wantText: `action="/login"`},
		{name: "signup menu", path: "/?menu=signup", wantText: `action="/signup"`},
		{name: "unknown menu", path: "/?menu=lol", wantText: `action="/login"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, tt.path)
			s.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantText)
		})
	}
}

func TestWebUI_signupLoginFlow(t *testing.T) {
	s, _ := setup(t)

	signup := url.Values{
		"name":     {"Alice"},
		"phone":    {"0810000000"},
		"dob":      {"2000-01-02"},
		"email":    {"alice@test.cd"},
		"password": {"pw1"},
	}
	req, rec := newFormRequest(http.MethodPost, "/signup", signup)
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Account created successfully")

	// same email again
	req, rec = newFormRequest(http.MethodPost, "/signup", signup)
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already exists")

	// invalid form keeps the typed values
	req, rec = newFormRequest(http.MethodPost, "/signup", url.Values{"name": {"Bob"}, "email": {"bob"}})
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="Bob"`)
	assert.Contains(t, rec.Body.String(), "this field is required")

	// wrong password
	req, rec = newFormRequest(http.MethodPost, "/login", url.Values{"email": {"alice@test.cd"}, "password": {"nope"}})
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid email or password.")
	assert.Empty(t, rec.Result().Cookies(), "a failed login must not start a session")

	// login
	req, rec = newFormRequest(http.MethodPost, "/login", url.Values{"email": {"alice@test.cd"}, "password": {"pw1"}})
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/marks?welcome=1", rec.Header().Get("Location"))
	cookie := sessionCookie(t, rec.Result())
	assert.True(t, cookie.HttpOnly)

	// logged in users skip the menu
	req, rec = newFormRequest(http.MethodGet, "/", nil, cookie)
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	// empty form with default marks, no report yet
	req, rec = newFormRequest(http.MethodGet, "/marks?welcome=1", nil, cookie)
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, 7, strings.Count(body, `name="subject"`))
	assert.Equal(t, 7, strings.Count(body, `value="`+strconv.Itoa(gradebook.DefaultMark)+`"`))
	assert.Contains(t, body, "Welcome, Alice!")
	assert.NotContains(t, body, "Average mark")

	// report before any marks
	req, rec = newFormRequest(http.MethodPost, "/report", nil, cookie)
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "No marks found")

	// submit marks; blank rows are ignored
	marks := url.Values{
		"subject": {"Math", "Science", "", "", "", "", ""},
		"mark":    {"90", "70", "50", "50", "50", "50", "50"},
	}
	req, rec = newFormRequest(http.MethodPost, "/marks", marks, cookie)
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Marks saved successfully!")

	// generate the report
	req, rec = newFormRequest(http.MethodPost, "/report", nil, cookie)
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()
	assert.Contains(t, body, "Average mark: <strong>80.0</strong>")
	assert.Equal(t, 3, strings.Count(body, "<svg"))

	// a plain visit shows the saved marks only
	req, rec = newFormRequest(http.MethodGet, "/marks", nil, cookie)
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()
	assert.Contains(t, body, `value="Math"`)
	assert.NotContains(t, body, "Welcome, Alice!")
	assert.NotContains(t, body, "Average mark")

	// the visit following a login shows the report
	req, rec = newFormRequest(http.MethodGet, "/marks?welcome=1", nil, cookie)
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()
	assert.Contains(t, body, "Welcome, Alice!")
	assert.Contains(t, body, "Average mark: <strong>80.0</strong>")

	// sign out ends the session, even if the cookie is replayed
	req, rec = newFormRequest(http.MethodPost, "/signout", nil, cookie)
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/?menu=login", rec.Header().Get("Location"))

	req, rec = newFormRequest(http.MethodGet, "/marks", nil, cookie)
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/?menu=login", rec.Header().Get("Location"))
}

func TestWebUI_saveMarks_invalid(t *testing.T) {
	s, env := setup(t)
	createUser(t, env, "Alice", "alice@test.cd", "pw1")
	cookie := &http.Cookie{Name: sessionCookieName, Value: getToken(t, s, "Alice", "alice@test.cd")}

	tests := []struct {
		name  string
		marks url.Values
	}{
		{name: "not a number", marks: url.Values{"subject": {"Math"}, "mark": {"ninety"}}},
		{name: "out of range", marks: url.Values{"subject": {"Math"}, "mark": {"101"}}},
		{name: "markup", marks: url.Values{"subject": {"<i>Math</i>"}, "mark": {"10"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newFormRequest(http.MethodPost, "/marks", tt.marks, cookie)
			s.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `class="errors"`)
		})
	}

	has, err := env.marks.HasMarks(context.Background(), "alice@test.cd")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestWebUI_pieWithZeroMarks(t *testing.T) {
	s, env := setup(t)
	createUser(t, env, "Alice", "alice@test.cd", "pw1")
	cookie := &http.Cookie{Name: sessionCookieName, Value: getToken(t, s, "Alice", "alice@test.cd")}

	_, err := env.marks.SaveMarks(context.Background(), "alice@test.cd", []string{"Math"}, []int{0})
	require.NoError(t, err)

	req, rec := newFormRequest(http.MethodPost, "/report", nil, cookie)
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, 2, strings.Count(body, "<svg"), "bar and line charts only")
	assert.Contains(t, body, "Pie Chart: a pie chart needs at least one mark above zero")
}

func writeMarksFile(t *testing.T, env *testEnv, email, content string) {
	dir := filepath.Join(env.conf.DataDir, email)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, filestore.MarksFile), []byte(content), 0644))
}

func TestWebUI_report_subjectMarkup(t *testing.T) {
	s, env := setup(t)
	createUser(t, env, "Alice", "alice@test.cd", "pw1")
	cookie := &http.Cookie{Name: sessionCookieName, Value: getToken(t, s, "Alice", "alice@test.cd")}

	// written by an older tool, so the subjects never went through the form checks
	writeMarksFile(t, env, "alice@test.cd", "Subject,Marks\n<script>alert(1)</script>,60\nArt,40\n")

	for _, path := range []string{"/report", "/marks?welcome=1"} {
		method := http.MethodGet
		if path == "/report" {
			method = http.MethodPost
		}
		req, rec := newFormRequest(method, path, nil, cookie)
		s.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, path)
		body := rec.Body.String()
		assert.Equal(t, 3, strings.Count(body, "<svg"), path)
		assert.NotContains(t, body, "<script>", path)
		assert.Contains(t, body, "&lt;script&gt;", path)
	}
}

func TestWebUI_login_legacyMixedCaseEmail(t *testing.T) {
	s, env := setup(t)

	creds := `{"Alice@Test.cd": {"name": "Alice", "phone": "", "dob": "2000-01-02", "password": "pw1"}}`
	require.NoError(t, os.MkdirAll(filepath.Dir(env.conf.CredentialsPath()), 0755))
	require.NoError(t, os.WriteFile(env.conf.CredentialsPath(), []byte(creds), 0600))
	writeMarksFile(t, env, "Alice@Test.cd", "Subject,Marks\nMath,90\nArt,70\n")

	for _, email := range []string{"alice@test.cd", "Alice@Test.cd", " ALICE@TEST.CD "} {
		t.Run(email, func(t *testing.T) {
			req, rec := newFormRequest(http.MethodPost, "/login", url.Values{"email": {email}, "password": {"pw1"}})
			s.ServeHTTP(rec, req)
			require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
			cookie := sessionCookie(t, rec.Result())

			// the session is keyed by the stored email, so the existing marks are found
			req, rec = newFormRequest(http.MethodGet, rec.Header().Get("Location"), nil, cookie)
			s.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code)
			body := rec.Body.String()
			assert.Contains(t, body, "Welcome, Alice!")
			assert.Contains(t, body, `value="Math"`)
			assert.Contains(t, body, "Average mark: <strong>80.0</strong>")
		})
	}

	// signing up again with another case is a duplicate
	signup := url.Values{"name": {"Mallory"}, "dob": {"2000-01-02"}, "email": {"alice@test.cd"}, "password": {"kw7#mz"}}
	req, rec := newFormRequest(http.MethodPost, "/signup", signup)
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}
