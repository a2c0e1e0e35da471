package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kamari/service/api/objectiveed"
	"github.com/kamari/service/config"
	"github.com/kamari/service/logic"
	"github.com/kamari/service/model"
	"github.com/kamari/service/notify"
	restfulapi "github.com/kamari/service/restful-api"
	"github.com/kamari/service/store/memstore"
	"github.com/kamari/service/token"
	"github.com/kamari/service/util/json"
)

// countingStore records every read so tests can prove a request never
// reached the store.
type countingStore struct {
	*memstore.Store
	reads int32
}

func (s *countingStore) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	atomic.AddInt32(&s.reads, 1)
	return s.Store.FindUserByEmail(ctx, email)
}

func (s *countingStore) FindUserByID(ctx context.Context, userID string) (*model.User, error) {
	atomic.AddInt32(&s.reads, 1)
	return s.Store.FindUserByID(ctx, userID)
}

func (s *countingStore) FindAlertsForUser(ctx context.Context, userID string) ([]model.Alert, error) {
	atomic.AddInt32(&s.reads, 1)
	return s.Store.FindAlertsForUser(ctx, userID)
}

func (s *countingStore) FindTasksForAssignee(ctx context.Context, email string) ([]model.Task, error) {
	atomic.AddInt32(&s.reads, 1)
	return s.Store.FindTasksForAssignee(ctx, email)
}

func (s *countingStore) FindProjectsOwnedBy(ctx context.Context, userID string) ([]model.Project, error) {
	atomic.AddInt32(&s.reads, 1)
	return s.Store.FindProjectsOwnedBy(ctx, userID)
}

type revoked struct {
	mu     sync.Mutex
	tokens map[string]bool
}

func (r *revoked) Set(_ context.Context, tokenString string, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[tokenString] = true
	return nil
}

func (r *revoked) Check(_ context.Context, tokenString string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tokens[tokenString], nil
}

type testServer struct {
	e     *echo.Echo
	store *countingStore
}

func newTestServer(t *testing.T, upstream http.HandlerFunc) *testServer {
	if upstream == nil {
		upstream = func(w http.ResponseWriter, r *http.Request) {}
	}
	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	s := &countingStore{Store: memstore.New()}
	auth := token.New("secret", token.SetStore(&revoked{tokens: map[string]bool{}}))
	account := logic.NewAccount(s, auth, notify.Discard{}, "from@x.com", logic.WithHashCost(bcrypt.MinCost))
	proxy := objectiveed.NewClient(config.Objectiveed{BaseURL: srv.URL, Token: "tok", Timeout: 5})

	e := restfulapi.NewEcho()
	New(account, logic.NewQuery(s), auth, proxy, s).Register(e)
	return &testServer{e: e, store: s}
}

func (ts *testServer) do(t *testing.T, method, path, body, tok string) (int, map[string]interface{}) {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if tok != "" {
		req.Header.Set(echo.HeaderAuthorization, tok)
	}
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)

	out := map[string]interface{}{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

const acmeSignup = `{"email":"a@x.com","password":"p","organization":"Acme","type":"client","first_name":"A","last_name":"B"}`

func (ts *testServer) signup(t *testing.T) string {
	code, body := ts.do(t, http.MethodPost, "/signup", acmeSignup, "")
	require.Equal(t, http.StatusOK, code, body)
	tok, _ := body["token"].(string)
	require.NotEmpty(t, tok)
	return tok
}

func TestSignup(t *testing.T) {
	ts := newTestServer(t, nil)

	code, body := ts.do(t, http.MethodPost, "/signup", acmeSignup, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "User Registered", body["message"])

	user := body["user"].(map[string]interface{})
	assert.Equal(t, "a@x.com", user["email"])
	assert.NotContains(t, user, "password")
	tasks := user["tasks"].([]interface{})
	require.Len(t, tasks, 1)
	task := tasks[0].(map[string]interface{})
	assert.Equal(t, "Getting Started", task["title"])
	assert.Equal(t, []interface{}{"a@x.com"}, task["assignees"])

	org := body["organization"].(map[string]interface{})
	assert.Equal(t, "Acme", org["name"])
	members := org["members"].([]interface{})
	require.Len(t, members, 1)
	assert.NotContains(t, members[0], "password")

	code, body = ts.do(t, http.MethodPost, "/signup", acmeSignup, "")
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "conflict", body["error"])
	assert.Equal(t, "Username already exists", body["message"])
	assert.Equal(t, 1, ts.store.Count(model.USER))
}

func TestSignup_Invalid(t *testing.T) {
	ts := newTestServer(t, nil)

	for _, payload := range []string{
		`{"email":"not-an-email","password":"p","organization":"Acme","type":"client","first_name":"A","last_name":"B"}`,
		`{"email":"a@x.com","password":"p","organization":"Acme","type":"admin","first_name":"A","last_name":"B"}`,
		`{"email":"a@x.com","organization":"Acme","type":"client","first_name":"A","last_name":"B"}`,
		`{"email":`,
	} {
		code, body := ts.do(t, http.MethodPost, "/signup", payload, "")
		assert.Equal(t, http.StatusBadRequest, code, payload)
		assert.Equal(t, "validation_failed", body["error"], payload)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&ts.store.reads))
	assert.Equal(t, 0, ts.store.Count(model.USER))
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.signup(t)

	code, body := ts.do(t, http.MethodPost, "/login", `{"email":"a@x.com","password":"p"}`, "")
	require.Equal(t, http.StatusOK, code)
	tok := body["token"].(string)
	code, _ = ts.do(t, http.MethodGet, "/alerts", "", tok)
	assert.Equal(t, http.StatusOK, code)

	code, body = ts.do(t, http.MethodPost, "/login", `{"email":"a@x.com","password":"nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.NotContains(t, body, "token")

	code, body = ts.do(t, http.MethodPost, "/login", `{"email":"b@x.com","password":"p"}`, "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "User not found", body["message"])
}

func TestProtectedRoutes(t *testing.T) {
	ts := newTestServer(t, nil)
	tok := ts.signup(t)

	code, body := ts.do(t, http.MethodGet, "/alerts", "", tok)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["alerts"], 1)

	code, body = ts.do(t, http.MethodGet, "/tasks", "", "Bearer "+tok)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(200), body["status"])
	assert.Len(t, body["tasks"], 1)

	code, body = ts.do(t, http.MethodGet, "/projects", "", tok)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["count"])

	before := atomic.LoadInt32(&ts.store.reads)
	for _, path := range []string{"/alerts", "/tasks", "/projects"} {
		code, body = ts.do(t, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, code, path)
		assert.Equal(t, "unauthorized", body["error"])

		code, body = ts.do(t, http.MethodGet, path, "", tok+"x")
		assert.Equal(t, http.StatusForbidden, code, path)
		assert.Equal(t, "forbidden", body["error"])
	}
	assert.Equal(t, before, atomic.LoadInt32(&ts.store.reads))
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t, nil)
	tok := ts.signup(t)

	code, body := ts.do(t, http.MethodPost, "/logout", "", tok)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["revoked"])

	code, _ = ts.do(t, http.MethodGet, "/alerts", "", tok)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestProxy(t *testing.T) {
	var gotMethod, gotPath, gotToken string
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath, gotToken = r.Method, r.URL.Path, r.Header.Get(objectiveed.HeaderAccessToken)
		if r.URL.Path == "/broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":7}`))
	})

	code, body := ts.do(t, http.MethodGet, "/objectiveed/get/players", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]interface{}{"id": float64(7)}, body["data"])
	assert.Equal(t, http.MethodGet, gotMethod)
	assert.Equal(t, "/players", gotPath)
	assert.Equal(t, "tok", gotToken)

	code, _ = ts.do(t, http.MethodPost, "/objectiveed/put/players", `{"name":"p"}`, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, http.MethodPut, gotMethod)

	code, body = ts.do(t, http.MethodPost, "/objectiveed/delete/players", `{"id":7}`, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "delete", body["data"])
	assert.Equal(t, http.MethodDelete, gotMethod)

	code, body = ts.do(t, http.MethodGet, "/objectiveed/patch/players", "", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "validation_failed", body["error"])

	code, body = ts.do(t, http.MethodGet, "/objectiveed/get/broken", "", "")
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "upstream_failure", body["error"])
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)

	code, body := ts.do(t, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "working", body["message"])

	code, _ = ts.do(t, http.MethodGet, "/check", "", "")
	assert.Equal(t, http.StatusNoContent, code)

	code, body = ts.do(t, http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestProxy_BodyTooLarge(t *testing.T) {
	var calls int32
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})
	// 2 MiB of valid JSON
	big := "[" + strings.Repeat("1,", 1<<20) + "1]"

	code, body := ts.do(t, http.MethodPost, "/objectiveed/post/players", big, "")
	assert.Equal(t, http.StatusRequestEntityTooLarge, code)
	assert.Equal(t, "validation_failed", body["error"])

	// unknown length, so the limit trips while reading
	req := httptest.NewRequest(http.MethodPost, "/objectiveed/post/players", io.MultiReader(strings.NewReader(big)))
	req.ContentLength = -1
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	assert.Zero(t, atomic.LoadInt32(&calls))
}
