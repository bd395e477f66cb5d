package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/gradebook"
	"github.com/trezcool/alama/core/report"
	"github.com/trezcool/alama/core/session"
	"github.com/trezcool/alama/core/user"
	emailsvc "github.com/trezcool/alama/services/email"
	filestore "github.com/trezcool/alama/storage/file"
	inmemdb "github.com/trezcool/alama/storage/inmem"
	"github.com/trezcool/alama/testutil"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testEnv struct {
	conf    *core.Config
	logger  *testutil.Logger
	usrRepo user.Repository
	usrSvc  *user.Service
	marks   *gradebook.Service
}

func setup(t *testing.T) (*Server, *testEnv) {
	conf := core.NewTestConfig(t.TempDir())
	logger := new(testutil.Logger)
	validate, translator := testutil.NewValidator()

	// set up storage & services
	usrRepo := filestore.NewUserRepository(conf.CredentialsPath())
	marks := gradebook.NewService(filestore.NewGradebookRepository(conf.DataDir))
	usrSvc := user.NewService(usrRepo, marks, emailsvc.NewConsoleServiceMock(conf, logger))

	// set up server
	s := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		UserSvc:        usrSvc,
		GradebookSvc:   marks,
		Reports:        report.NewRenderer(marks, conf.Chart.Width, conf.Chart.Height),
		Revoker:        inmemdb.NewRevocationList(),
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})
	return s, &testEnv{conf: conf, logger: logger, usrRepo: usrRepo, usrSvc: usrSvc, marks: marks}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func newFormRequest(method, path string, form url.Values, cookies ...*http.Cookie) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req, httptest.NewRecorder()
}

func getToken(t *testing.T, s *Server, name, email string) string {
	token, err := s.auth.GenerateToken(s.auth.newClaims(session.New(name, email)))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func createUser(t *testing.T, env *testEnv, name, email, pwd string) {
	testutil.CreateUser(t, env.usrRepo, name, email, pwd)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	if _, ok := j1.([]interface{}); ok {
		return assert.ElementsMatch(t, j1, j2), nil
	}
	return false, nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, s *Server, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			s.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
