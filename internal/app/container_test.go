package app_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/nfrund/yauth/internal/app"
	"github.com/nfrund/yauth/internal/authflow"
	"github.com/nfrund/yauth/internal/config"
	"github.com/nfrund/yauth/internal/server"
	"github.com/nfrund/yauth/internal/transport"
	"github.com/samber/do/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		AppAddr:           ":0",
		AppBaseURL:        "http://yauth.test",
		SessionSecret:     "a-very-secret-key-for-testing-!",
		PostLoginRedirect: "/",
		Transport:         config.TransportLocal,
		UserStore:         config.UserStoreFile,
		UsersFile:         "users.json",
		EmailProvider:     "log",
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestContainer_ResolvesLocalTransport(t *testing.T) {
	injector := app.NewContainer(testConfig(), discardLogger(), app.WithFs(afero.NewMemMapFs()))
	t.Cleanup(func() { _ = injector.Shutdown() })

	tr, err := do.Invoke[authflow.Transport](injector)
	require.NoError(t, err)
	assert.IsType(t, &transport.Local{}, tr)
}

func TestContainer_ResolvesGraphQLTransport(t *testing.T) {
	cfg := testConfig()
	cfg.Transport = config.TransportGraphQL
	cfg.GraphQLURL = "http://auth.internal/graphql"
	injector := app.NewContainer(cfg, discardLogger())
	t.Cleanup(func() { _ = injector.Shutdown() })

	tr, err := do.Invoke[authflow.Transport](injector)
	require.NoError(t, err)
	assert.IsType(t, &transport.GraphQLClient{}, tr)
}

// browser drives the widget the way htmx does.
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func (b *browser) get(path string) *http.Response {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodGet, b.base+path, nil)
	require.NoError(b.t, err)
	return b.send(req)
}

func (b *browser) post(path string, form url.Values) *http.Response {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodPost, b.base+path, strings.NewReader(form.Encode()))
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.send(req)
}

func (b *browser) send(req *http.Request) *http.Response {
	b.t.Helper()
	req.Header.Set("HX-Request", "true")
	res, err := b.client.Do(req)
	require.NoError(b.t, err)
	b.t.Cleanup(func() { _ = res.Body.Close() })
	return res
}

func body(t *testing.T, res *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return string(data)
}

func TestAuthFlow_EndToEnd(t *testing.T) {
	injector := app.NewContainer(testConfig(), discardLogger(), app.WithFs(afero.NewMemMapFs()))
	t.Cleanup(func() { _ = injector.Shutdown() })

	srv := do.MustInvoke[*server.Server](injector)
	ts := httptest.NewServer(srv.E)
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	b := &browser{t: t, base: ts.URL, client: &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}}

	res := b.get("/auth")
	require.Equal(t, http.StatusOK, res.StatusCode)

	t.Run("sign up", func(t *testing.T) {
		res := b.post("/auth/widget/navigate/signup", url.Values{})
		require.Equal(t, http.StatusOK, res.StatusCode)

		res = b.post("/auth/widget/submit", url.Values{
			"email": {"ada@example.com"}, "password": {"hunter22"}, "confirmPassword": {"hunter22"},
		})
		require.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, body(t, res), transport.MsgAccountCreated)
	})

	t.Run("duplicate sign up reports the backend error", func(t *testing.T) {
		// A successful signup keeps its success notice until the view is replaced.
		b.post("/auth/widget/navigate/login", url.Values{})
		b.post("/auth/widget/navigate/signup", url.Values{})
		res := b.post("/auth/widget/submit", url.Values{
			"email": {"ada@example.com"}, "password": {"x"}, "confirmPassword": {"x"},
		})
		assert.Contains(t, body(t, res), string(transport.ErrAccountExists))
	})

	t.Run("wrong password", func(t *testing.T) {
		b.post("/auth/widget/navigate/login", url.Values{})
		res := b.post("/auth/widget/submit", url.Values{"email": {"ada@example.com"}, "password": {"nope"}})
		require.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, body(t, res), string(transport.ErrBadCredentials))
		assert.Empty(t, res.Header.Get("HX-Redirect"))
	})

	t.Run("log in", func(t *testing.T) {
		res := b.post("/auth/widget/submit", url.Values{"email": {"ada@example.com"}, "password": {"hunter22"}})
		require.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, "/", res.Header.Get("HX-Redirect"))

		res = b.get("/")
		assert.Contains(t, body(t, res), "You are logged in.")

		res = b.get("/account")
		require.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, body(t, res), "Signed in as ada@example.com")
	})

	t.Run("forgot password never reveals accounts", func(t *testing.T) {
		b.get("/auth")
		b.post("/auth/widget/navigate/forgot-password", url.Values{})
		res := b.post("/auth/widget/submit", url.Values{"email": {"nobody@example.com"}})
		assert.Contains(t, body(t, res), transport.MsgResetLinkSent)
	})
}

func TestRun_FailsOnBadDependencies(t *testing.T) {
	cfg := testConfig()
	cfg.UserStore = "carrier-pigeon"
	injector := app.NewContainer(cfg, discardLogger())
	t.Cleanup(func() { _ = injector.Shutdown() })

	err := app.Run(context.Background(), injector)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier-pigeon")
}
