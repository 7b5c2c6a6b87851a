package echoapi

import (
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

// oauthNonceCookie keeps the nonce of the state in the browser that started the login.
const oauthNonceCookie = "oauth_nonce"

var errRoleParam = core.NewValidationError(nil, core.FieldError{Field: "role", Error: "role must be one of: teacher, student"})

type oauthApi struct {
	tokens      *tokenIssuer
	states      *user.StateSigner
	provider    user.OAuthProvider
	userSvc     *user.Service
	frontendURL string
	secure      bool
	timeout     time.Duration
}

func registerOAuthAPI(g *echo.Group, tokens *tokenIssuer, opts *Options) {
	api := oauthApi{
		tokens:      tokens,
		states:      user.NewStateSigner(opts.Conf.Auth.StateSecretKey, opts.Conf.Auth.StateTimeout),
		provider:    opts.OAuth,
		userSvc:     opts.UserSvc,
		frontendURL: opts.Conf.FrontendBaseURL,
		secure:      !opts.Conf.Debug,
		timeout:     opts.Conf.Auth.StateTimeout,
	}

	g.GET("/google", api.redirect)
	g.GET("/google/callback", api.callback)
}

// redirect sends the browser to the provider's consent screen.
// The requested role travels in the signed state and comes back to the callback.
func (api *oauthApi) redirect(ctx echo.Context) error {
	role, ok := user.ParseRole(ctx.QueryParam("role"))
	if !ok || !role.IsPerson() {
		return errRoleParam
	}
	state, nonce := api.states.Make(role)
	ctx.SetCookie(api.nonceCookie(nonce, int(api.timeout.Seconds())))
	return ctx.Redirect(http.StatusFound, api.provider.AuthCodeURL(state))
}

func (api *oauthApi) nonceCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     oauthNonceCookie,
		Value:    value,
		Path:     "/auth/google",
		MaxAge:   maxAge,
		Secure:   api.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// callback signs the teacher or student in (signing them up on first visit)
// and hands the token over to the frontend login page.
func (api *oauthApi) callback(ctx echo.Context) error {
	var nonce string
	if c, err := ctx.Cookie(oauthNonceCookie); err == nil {
		nonce = c.Value
	}
	ctx.SetCookie(api.nonceCookie("", -1)) // one use

	if e := ctx.QueryParam("error"); e != "" {
		return api.redirectError(ctx, e)
	}
	role, err := api.states.Verify(ctx.QueryParam("state"), nonce)
	if err != nil {
		return api.redirectError(ctx, err.Error())
	}

	prof, err := api.provider.Profile(ctx.Request().Context(), ctx.QueryParam("code"))
	if err != nil {
		return errors.Wrap(err, "getting oauth profile")
	}
	p, err := api.userSvc.LoginOrSignup(ctx.Request().Context(), role, prof)
	if err != nil {
		if isClientError(err) {
			return api.redirectError(ctx, err.Error())
		}
		return errors.Wrap(err, "logging in")
	}
	token, err := api.tokens.generateToken(api.tokens.personClaims(role, p))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	v := make(url.Values)
	v.Set("token", token)
	v.Set("role", string(role))
	v.Set("name", p.Name)
	v.Set("email", p.Email)
	v.Set("picture", p.ProfilePicture.String)
	return ctx.Redirect(http.StatusFound, api.frontendURL+"/login?"+v.Encode())
}

func (api *oauthApi) redirectError(ctx echo.Context, msg string) error {
	v := make(url.Values)
	v.Set("error", msg)
	return ctx.Redirect(http.StatusFound, api.frontendURL+"/login?"+v.Encode())
}

func isClientError(err error) bool {
	if core.ErrorKindOf(err) != 0 {
		return true
	}
	_, ok := errors.Cause(err).(*core.ValidationError)
	return ok
}
