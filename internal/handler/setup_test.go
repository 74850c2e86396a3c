package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/cinema-catalog/internal/config"
	"github.com/iliyamo/cinema-catalog/internal/handler"
	"github.com/iliyamo/cinema-catalog/internal/router"
	"github.com/iliyamo/cinema-catalog/internal/serializer"
	"github.com/iliyamo/cinema-catalog/internal/utils"
)

const testSecret = "handler-test-secret"

type testEnv struct {
	t      *testing.T
	e      *echo.Echo
	w      *world
	images *fakeImages
	events *fakePublisher
	ping   *fakePinger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	w := newWorld()
	env := &testEnv{t: t, e: echo.New(), w: w, images: &fakeImages{}, events: &fakePublisher{}, ping: &fakePinger{}}

	cfg := config.Config{
		JWTSecret:      testSecret,
		AccessTTLMin:   5,
		RefreshTTLDays: 1,
		BcryptCost:     bcrypt.MinCost,
	}
	views := serializer.New("/media/")
	catalog := handler.NewCatalogHandler(genreStore{w}, actorStore{w}, hallStore{w}, movieStore{w}, sessionStore{w}, env.images, views)
	orders := handler.NewOrderHandler(orderStore{w}, sessionStore{w}, env.events, views)
	auth := handler.NewAuthHandler(cfg, userStore{w}, tokenStore{w})

	env.e.Pre(echomw.RemoveTrailingSlash())
	router.RegisterRoutes(env.e, env.ping)
	router.RegisterAuth(env.e, auth, testSecret)
	router.RegisterCinema(env.e, catalog, orders, testSecret)
	return env
}

// token signs an access token for a user id.
func (env *testEnv) token(userID uint64, staff bool) string {
	env.t.Helper()
	tok, err := utils.NewAccessToken(testSecret, userID, staff, 5)
	require.NoError(env.t, err)
	return tok.Token
}

func (env *testEnv) staffToken() string { return env.token(env.w.addUser("admin@example.com", true), true) }

func (env *testEnv) userToken() string { return env.token(env.w.addUser("user@example.com", false), false) }

// do sends a request.  A non-nil body that is not a string or io.Reader is
// encoded as JSON.
func (env *testEnv) do(method, target string, body any, token string) *httptest.ResponseRecorder {
	return env.doWithType(method, target, body, echo.MIMEApplicationJSON, token)
}

func (env *testEnv) doWithType(method, target string, body any, contentType, token string) *httptest.ResponseRecorder {
	env.t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	case io.Reader:
		r = b
	default:
		raw, err := json.Marshal(b)
		require.NoError(env.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, r)
	if r != nil {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type validationBody struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields"`
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rec.Code, rec.Body.String())
}

func itoa(id uint64) string { return strconv.FormatUint(id, 10) }
