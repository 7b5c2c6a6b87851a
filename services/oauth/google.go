package oauthsvc

import (
	"context"
	"encoding/json"
	"net/http"

	googleAuthIDTokenVerifier "github.com/futurenda/google-auth-id-token-verifier"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

var (
	errNoIDToken     = errors.New("token response has no id_token")
	errSubjectChange = errors.New("id_token subject does not match the userinfo subject")

	// mockable
	verifyIDTokenFunc = verifyIDToken
)

type googleUserInfo struct {
	Sub           string `json:"sub"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Picture       string `json:"picture"`
}

type googleProvider struct {
	conf        *oauth2.Config
	userInfoURL string
}

// NewGoogleProvider returns the Google sign-in used by teachers and students.
func NewGoogleProvider(conf *core.Config) user.OAuthProvider {
	return &googleProvider{
		conf: &oauth2.Config{
			ClientID:     conf.Google.ClientID,
			ClientSecret: conf.Google.ClientSecret,
			RedirectURL:  conf.Google.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}
}

func (p *googleProvider) AuthCodeURL(state string) string {
	return p.conf.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// Profile exchanges the authorization code and returns the identity of the signed in account.
func (p *googleProvider) Profile(ctx context.Context, code string) (user.Profile, error) {
	tok, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return user.Profile{}, errors.Wrap(err, "exchanging code")
	}
	idToken, ok := tok.Extra("id_token").(string)
	if !ok || idToken == "" {
		return user.Profile{}, errNoIDToken
	}
	sub, err := verifyIDTokenFunc(idToken, p.conf.ClientID)
	if err != nil {
		return user.Profile{}, errors.Wrap(err, "verifying id_token")
	}

	info, err := p.userInfo(ctx, tok)
	if err != nil {
		return user.Profile{}, err
	}
	if info.Sub != sub {
		return user.Profile{}, errSubjectChange
	}
	if !info.EmailVerified {
		info.Email = ""
	}
	return user.Profile{
		AuthID:  info.Sub,
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	}, nil
}

func (p *googleProvider) userInfo(ctx context.Context, tok *oauth2.Token) (googleUserInfo, error) {
	var info googleUserInfo

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return info, errors.Wrap(err, "building userinfo request")
	}
	resp, err := p.conf.Client(ctx, tok).Do(req)
	if err != nil {
		return info, errors.Wrap(err, "fetching userinfo")
	}
	//goland:noinspection GoUnhandledErrorResult
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return info, errors.Errorf("fetching userinfo: unexpected status %d", resp.StatusCode)
	}
	if err = json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return info, errors.Wrap(err, "decoding userinfo")
	}
	return info, nil
}

// verifyIDToken checks the signature, audience and expiry of a Google id_token and returns its subject.
func verifyIDToken(idToken, clientID string) (string, error) {
	v := googleAuthIDTokenVerifier.Verifier{}
	if err := v.VerifyIDToken(idToken, []string{clientID}); err != nil {
		return "", err
	}
	claims, err := googleAuthIDTokenVerifier.Decode(idToken)
	if err != nil {
		return "", err
	}
	return claims.Sub, nil
}
