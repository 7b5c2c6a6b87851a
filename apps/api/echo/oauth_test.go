package echoapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

// login is a sign-in started by one browser: the state sent to the provider and the nonce cookie kept by the browser.
type login struct {
	state  string
	cookie *http.Cookie
}

func nonceCookieOf(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == oauthNonceCookie {
			return c
		}
	}
	return nil
}

// startLogin follows /auth/google for role.
func startLogin(t *testing.T, app *testApp, role string) login {
	rec := app.do(newRequest(http.MethodGet, "/auth/google?role="+role))
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	cookie := nonceCookieOf(rec)
	require.NotNil(t, cookie)
	return login{state: loc.Query().Get("state"), cookie: cookie}
}

func callbackRequest(lg login) (*http.Request, *httptest.ResponseRecorder) {
	v := url.Values{"state": {lg.state}, "code": {"some-code"}}
	req, rec := newRequest(http.MethodGet, "/auth/google/callback?"+v.Encode())
	if lg.cookie != nil {
		req.AddCookie(&http.Cookie{Name: lg.cookie.Name, Value: lg.cookie.Value})
	}
	return req, rec
}

// callback hits the callback endpoint and returns the query of the frontend redirect.
func callback(t *testing.T, app *testApp, lg login) url.Values {
	rec := app.do(callbackRequest(lg))
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	if c := nonceCookieOf(rec); assert.NotNil(t, c) {
		assert.True(t, c.MaxAge < 0, "nonce cookie must be cleared")
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, app.Conf.FrontendBaseURL+"/login", loc.Scheme+"://"+loc.Host+loc.Path)
	return loc.Query()
}

func Test_oauthApi_redirect(t *testing.T) {
	app := setup(t)

	tests := []httpTest{
		{name: "missing role", method: http.MethodGet, path: "/auth/google", wantCode: http.StatusBadRequest},
		{name: "admin role", method: http.MethodGet, path: "/auth/google?role=admin", wantCode: http.StatusBadRequest},
	}
	runHTTPTests(t, app, tests)

	lg := startLogin(t, app, "teacher")
	assert.True(t, lg.cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, lg.cookie.SameSite)
	assert.Equal(t, int(app.Conf.Auth.StateTimeout.Seconds()), lg.cookie.MaxAge)

	states := user.NewStateSigner(app.Conf.Auth.StateSecretKey, app.Conf.Auth.StateTimeout)
	role, err := states.Verify(lg.state, lg.cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, user.RoleTeacher, role)
}

func Test_oauthApi_callback(t *testing.T) {
	app := setup(t)
	app.oauth.prof = user.Profile{
		AuthID:  "g-1234",
		Email:   "Amani@School.test",
		Name:    "Amani",
		Picture: "https://pics.test/amani.png",
	}

	t.Run("student signup", func(t *testing.T) {
		q := callback(t, app, startLogin(t, app, "student"))
		assert.Equal(t, "student", q.Get("role"))
		assert.Equal(t, "Amani", q.Get("name"))
		assert.Equal(t, "amani@school.test", q.Get("email"))
		assert.Equal(t, "https://pics.test/amani.png", q.Get("picture"))

		// the token opens the student portal only
		rec := app.do(newAuthRequest(http.MethodGet, "/student/profile", q.Get("token")))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var p user.Person
		unmarchallObj(t, rec, &p)
		assert.Equal(t, "amani@school.test", p.Email)

		claims := new(Claims)
		_, err := jwt.ParseWithClaims(q.Get("token"), claims, func(*jwt.Token) (interface{}, error) {
			return app.tokens.keys[user.RoleStudent], nil
		})
		require.NoError(t, err)
		assert.Equal(t, p.ID, claims.Subject)
		assert.Equal(t, user.RoleStudent, claims.Role)

		rec = app.do(newAuthRequest(http.MethodGet, "/teacher/profile", q.Get("token")))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("student login", func(t *testing.T) {
		q := callback(t, app, startLogin(t, app, "student"))
		assert.NotEmpty(t, q.Get("token"))
		page, err := app.UserSvc.QueryPeople(context.Background(), user.RoleStudent, core.PageQuery{})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)
	})

	t.Run("teacher login with a student account", func(t *testing.T) {
		q := callback(t, app, startLogin(t, app, "teacher"))
		assert.Empty(t, q.Get("token"))
		assert.Equal(t, user.ErrStudentAccount.Error(), q.Get("error"))
	})

	t.Run("tampered state", func(t *testing.T) {
		lg := startLogin(t, app, "teacher")
		lg.state += "x"
		q := callback(t, app, lg)
		assert.Equal(t, user.ErrInvalidState.Error(), q.Get("error"))
	})

	t.Run("state without its browser", func(t *testing.T) {
		lg := startLogin(t, app, "student")
		lg.cookie = nil
		q := callback(t, app, lg)
		assert.Empty(t, q.Get("token"))
		assert.Equal(t, user.ErrStateBrowser.Error(), q.Get("error"))
	})

	t.Run("state of another browser", func(t *testing.T) {
		victim := startLogin(t, app, "student")
		attacker := startLogin(t, app, "student")
		q := callback(t, app, login{state: attacker.state, cookie: victim.cookie})
		assert.Empty(t, q.Get("token"))
		assert.Equal(t, user.ErrStateBrowser.Error(), q.Get("error"))
	})

	t.Run("denied consent", func(t *testing.T) {
		rec := app.do(newRequest(http.MethodGet, "/auth/google/callback?error=access_denied"))
		require.Equal(t, http.StatusFound, rec.Code)
		loc, err := url.Parse(rec.Header().Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, "access_denied", loc.Query().Get("error"))
	})

	t.Run("provider failure", func(t *testing.T) {
		app.oauth.err = errors.New("exchange failed")
		defer func() { app.oauth.err = nil }()

		rec := app.do(callbackRequest(startLogin(t, app, "student")))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
