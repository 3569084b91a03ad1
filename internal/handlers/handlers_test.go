package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/yauth/internal/authflow"
	"github.com/nfrund/yauth/internal/handlers"
	"github.com/nfrund/yauth/internal/rendering"
	"github.com/nfrund/yauth/internal/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSessionSecret = "a-very-secret-key-for-testing-!"

// client keeps cookies between requests like a browser would.
type client struct {
	t       *testing.T
	e       *echo.Echo
	cookies map[string]*http.Cookie
}

func (cl *client) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	cl.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("HX-Request", "true")
	for _, c := range cl.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	cl.e.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		cl.cookies[c.Name] = c
	}
	return rec
}

type testApp struct {
	client
	store         *widget.Store
	authenticated atomic.Int32
}

func setup(t *testing.T) *testApp {
	t.Helper()
	app := &testApp{}

	transport := authflow.TransportFunc(func(ctx context.Context, op string, params map[string]string) (*authflow.Payload, error) {
		switch op {
		case authflow.OpLogin:
			if params[authflow.FieldPassword] != "right" {
				return nil, errors.New("[GraphQL] invalid credentials")
			}
			return &authflow.Payload{Message: "Logged in successfully!"}, nil
		default:
			return &authflow.Payload{Message: "Done: " + op}, nil
		}
	})
	app.store = widget.NewStore(func(id string) *authflow.Coordinator {
		return authflow.NewCoordinator(transport, authflow.WithOnAuthenticated(func() {
			app.authenticated.Add(1)
		}))
	}, widget.WithSweepInterval(0))
	t.Cleanup(app.store.Shutdown)

	renderer := rendering.NewUniversalRenderer()
	wh := handlers.NewWidgetHandler(app.store, renderer, "/dashboard")
	hh := handlers.NewHomeHandler(app.store, renderer)

	e := echo.New()
	e.Validator = handlers.NewValidator()
	e.Use(session.Middleware(sessions.NewCookieStore([]byte(testSessionSecret))))
	e.GET("/", hh.HomeGet)
	e.GET("/logout", hh.LogoutGet)
	e.GET("/health", hh.HealthGet)
	e.GET("/account", hh.AccountGet)
	e.GET("/auth", wh.PageGet)
	e.GET("/auth/widget", wh.WidgetGet)
	e.POST("/auth/widget/navigate/:flow", wh.NavigatePost)
	e.POST("/auth/widget/change", wh.ChangePost)
	e.POST("/auth/widget/blur", wh.BlurPost)
	e.POST("/auth/widget/submit", wh.SubmitPost)
	e.POST("/auth/widget/banner/dismiss", wh.DismissBannerPost)

	app.client = client{t: t, e: e, cookies: map[string]*http.Cookie{}}
	return app
}

func TestAuthPage_MountsLogin(t *testing.T) {
	app := setup(t)
	rec := app.do(http.MethodGet, "/auth", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<!DOCTYPE html>")
	assert.Contains(t, body, `id="auth-widget"`)
	assert.Contains(t, body, "Forgot Password?")
	assert.NotContains(t, body, `name="confirmPassword"`)
	assert.Contains(t, app.cookies, "yauth-session")
}

func TestNavigate(t *testing.T) {
	app := setup(t)
	app.do(http.MethodGet, "/auth", nil)

	rec := app.do(http.MethodPost, "/auth/widget/navigate/signup", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="confirmPassword"`)
	assert.NotContains(t, rec.Body.String(), "<!DOCTYPE html>")

	rec = app.do(http.MethodPost, "/auth/widget/navigate/forgot-password", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "signup has no link to forgot password")

	rec = app.do(http.MethodPost, "/auth/widget/navigate/register", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(http.MethodGet, "/auth/widget", nil)
	assert.Contains(t, rec.Body.String(), `name="confirmPassword"`, "widget state survives between requests")
}

func TestBlurAndChange(t *testing.T) {
	app := setup(t)
	app.do(http.MethodGet, "/auth", nil)

	rec := app.do(http.MethodPost, "/auth/widget/change", url.Values{"email": {"nope"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), authflow.MsgEmailInvalid, "untouched field stays quiet")
	assert.NotContains(t, rec.Body.String(), "disabled", "edited form can be submitted")

	rec = app.do(http.MethodPost, "/auth/widget/blur", url.Values{"field": {"email"}, "email": {"nope"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), authflow.MsgEmailInvalid)
	assert.Contains(t, rec.Body.String(), `hx-swap-oob="true"`)

	rec = app.do(http.MethodPost, "/auth/widget/blur", url.Values{"field": {"username"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(http.MethodPost, "/auth/widget/blur", url.Values{"field": {"confirmPassword"}})
	assert.Equal(t, http.StatusNoContent, rec.Code, "field from a replaced view is ignored")
}

func TestSubmit_InvalidShowsAllErrors(t *testing.T) {
	app := setup(t)
	app.do(http.MethodGet, "/auth", nil)
	app.do(http.MethodPost, "/auth/widget/navigate/signup", nil)

	rec := app.do(http.MethodPost, "/auth/widget/submit", url.Values{
		"email": {"a@b.com"}, "password": {""}, "confirmPassword": {""},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), authflow.MsgPasswordRequired)
	assert.Contains(t, rec.Body.String(), authflow.MsgConfirmPasswordRequired)
}

func TestSubmit_LoginFailureAndDismiss(t *testing.T) {
	app := setup(t)
	app.do(http.MethodGet, "/auth", nil)

	rec := app.do(http.MethodPost, "/auth/widget/submit", url.Values{"email": {"a@b.com"}, "password": {"wrong"}})
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `role="alert"`)
	assert.Contains(t, body, "invalid credentials")
	assert.NotContains(t, body, "[GraphQL]")
	assert.Contains(t, body, `value="a@b.com"`)
	assert.Empty(t, rec.Header().Get("HX-Redirect"))

	rec = app.do(http.MethodPost, "/auth/widget/banner/dismiss", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `role="alert"`)
	assert.Contains(t, rec.Body.String(), `value="a@b.com"`)
}

func TestSubmit_LoginSuccessAuthenticatesSession(t *testing.T) {
	app := setup(t)
	app.do(http.MethodGet, "/auth", nil)

	rec := app.do(http.MethodPost, "/auth/widget/submit", url.Values{"email": {"a@b.com"}, "password": {"right"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("HX-Redirect"))
	assert.Equal(t, int32(1), app.authenticated.Load())

	rec = app.do(http.MethodGet, "/", nil)
	assert.Contains(t, rec.Body.String(), "You are logged in.")

	assert.Equal(t, 0, app.store.Len(), "signed-in widget is unmounted")

	t.Run("logout clears the session", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/logout", nil)
		assert.Equal(t, http.StatusSeeOther, rec.Code)

		rec = app.do(http.MethodGet, "/", nil)
		assert.Contains(t, rec.Body.String(), "You are not logged in.")
		assert.Contains(t, rec.Body.String(), handlers.MsgLoggedOut)
	})
}

func TestSubmit_SignupSuccessReplacesForm(t *testing.T) {
	app := setup(t)
	app.do(http.MethodGet, "/auth", nil)
	app.do(http.MethodPost, "/auth/widget/navigate/signup", nil)

	rec := app.do(http.MethodPost, "/auth/widget/submit", url.Values{
		"email": {"a@b.com"}, "password": {"pw"}, "confirmPassword": {"pw"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Done: signup")
	assert.NotContains(t, rec.Body.String(), "<form")
	assert.Empty(t, rec.Header().Get("HX-Redirect"))
	assert.Equal(t, int32(0), app.authenticated.Load())
}

func TestHealth(t *testing.T) {
	app := setup(t)
	app.do(http.MethodGet, "/auth", nil)

	rec := app.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Widgets)
}

func TestSubmit_SecondLoginInSameSession(t *testing.T) {
	app := setup(t)

	app.do(http.MethodGet, "/auth", nil)
	rec := app.do(http.MethodPost, "/auth/widget/submit", url.Values{"email": {"a@b.com"}, "password": {"right"}})
	require.Equal(t, "/dashboard", rec.Header().Get("HX-Redirect"))

	rec = app.do(http.MethodGet, "/auth", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="password"`)

	rec = app.do(http.MethodPost, "/auth/widget/submit", url.Values{"email": {"c@d.com"}, "password": {"right"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("HX-Redirect"))
	assert.Equal(t, int32(2), app.authenticated.Load())

	rec = app.do(http.MethodGet, "/account", nil)
	assert.Contains(t, rec.Body.String(), "c@d.com")
	assert.NotContains(t, rec.Body.String(), "a@b.com")
}

func TestWidgetRoutes_WithoutMountedWidget(t *testing.T) {
	paths := []string{
		"/auth/widget/navigate/signup",
		"/auth/widget/change",
		"/auth/widget/submit",
		"/auth/widget/banner/dismiss",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			app := setup(t)
			rec := app.do(http.MethodPost, path, url.Values{"email": {"a@b.com"}})
			assert.Equal(t, http.StatusNoContent, rec.Code)
			assert.Equal(t, "/auth", rec.Header().Get("HX-Redirect"))
			assert.Equal(t, 0, app.store.Len())
		})
	}

	t.Run("blur", func(t *testing.T) {
		app := setup(t)
		rec := app.do(http.MethodPost, "/auth/widget/blur", url.Values{"field": {"email"}})
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, 0, app.store.Len())
	})
}
