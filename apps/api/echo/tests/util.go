package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/schoolconnect/apps/api/echo"
	"github.com/trezcool/schoolconnect/core"
	"github.com/trezcool/schoolconnect/core/broadcast"
	"github.com/trezcool/schoolconnect/core/feedback"
	"github.com/trezcool/schoolconnect/core/leave"
	"github.com/trezcool/schoolconnect/core/message"
	"github.com/trezcool/schoolconnect/core/school"
	emailsvc "github.com/trezcool/schoolconnect/services/email"
	inmemdb "github.com/trezcool/schoolconnect/storage/database/inmem"
	"github.com/trezcool/schoolconnect/storage/kv"
	testutil "github.com/trezcool/schoolconnect/tests"
)

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

// testApp is one API server over a fresh demo database.
type testApp struct {
	*echoapi.Server
	conf *core.Config
	db   *inmemdb.DB
}

type appOption func(*core.Config, *echoapi.ServerDeps)

func withSchool(svc *school.Service, subs school.Subscriptions) appOption {
	return func(_ *core.Config, deps *echoapi.ServerDeps) {
		deps.School = svc
		deps.Subscriptions = subs
	}
}

func withSignInBurst(burst int) appOption {
	return func(conf *core.Config, _ *echoapi.ServerDeps) {
		conf.Server.SignInBurst = burst
	}
}

func newTestApp(opts ...appOption) *testApp {
	conf := core.NewTestConfig()
	conf.Server.SignInBurst = 1000
	logger := testutil.NewLogger()
	core.ParseEmailTemplates(conf, logger)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	db := inmemdb.OpenDemo(nil)
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	dispatcher := emailsvc.NewBroadcastDispatcher(mailSvc, conf)
	deps := &echoapi.ServerDeps{
		Sessions:  kv.NewMemory(),
		Directory: inmemdb.NewAccountDirectory(db),
		Leaves:    leave.NewService(inmemdb.NewLeaveRepository(db)),
		Reports:   emailsvc.NewReportMailer(mailSvc),
		Broadcasts: broadcast.NewService(
			inmemdb.NewBroadcastRepository(db), dispatcher, logger,
			broadcast.WithDelays(conf.Delays.Broadcast, conf.Delays.ClassMessage),
		),
		Messages:   message.NewService(inmemdb.NewMessageRepository(db)),
		Feedback:   feedback.NewService(inmemdb.NewFeedbackRepository(db), conf.Delays.Feedback),
		Validate:   validate,
		Translator: translator,
	}
	for _, opt := range opts {
		opt(conf, deps)
	}
	return &testApp{
		Server: echoapi.NewServer(conf, logger, deps),
		conf:   conf,
		db:     db,
	}
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

// signIn signs a demo account in through the API and returns its token.
func signIn(t *testing.T, app http.Handler, email string) string {
	req, rec := newRequest(http.MethodPost, "/v1/auth/signin", marshalObj(t, echoapi.SignInRequest{Email: email, Password: "pwd"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("signIn(%s) failed: %d %s", email, rec.Code, rec.Body.String())
	}
	var resp echoapi.SignInResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("signIn(%s) failed: %v", email, err)
	}
	return resp.Token
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app http.Handler, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
