package echoapi

import (
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

const tokenContextKey = "userToken"

// Claims represents the authorization claims transmitted via a JWT.
// Each role gets its own signing key: a token is only accepted by the portal of its role.
type Claims struct {
	jwt.StandardClaims
	Role     user.Role `json:"role"`
	Username string    `json:"username,omitempty"` // admins
	Name     string    `json:"name,omitempty"`     // teachers & students
	Email    string    `json:"email,omitempty"`    // teachers & students
}

type tokenIssuer struct {
	appName string
	expiry  time.Duration
	keys    map[user.Role][]byte
}

func newTokenIssuer(conf *core.Config) *tokenIssuer {
	return &tokenIssuer{
		appName: conf.AppName,
		expiry:  conf.Server.JWTExpirationDelta,
		keys: map[user.Role][]byte{
			user.RoleAdmin:   []byte(conf.Auth.AdminSecretKey),
			user.RoleTeacher: []byte(conf.Auth.TeacherSecretKey),
			user.RoleStudent: []byte(conf.Auth.StudentSecretKey),
		},
	}
}

func (ti *tokenIssuer) standardClaims(subject string) jwt.StandardClaims {
	now := time.Now()
	return jwt.StandardClaims{
		Issuer:    ti.appName,
		Subject:   subject,
		ExpiresAt: now.Add(ti.expiry).Unix(),
		IssuedAt:  now.Unix(),
	}
}

func (ti *tokenIssuer) adminClaims(a user.Admin) *Claims {
	return &Claims{
		StandardClaims: ti.standardClaims(strconv.Itoa(a.ID)),
		Role:           user.RoleAdmin,
		Username:       a.Username,
	}
}

func (ti *tokenIssuer) personClaims(role user.Role, p user.Person) *Claims {
	return &Claims{
		StandardClaims: ti.standardClaims(p.ID),
		Role:           role,
		Name:           p.Name,
		Email:          p.Email,
	}
}

// generateToken signs the claims with the key of their role.
func (ti *tokenIssuer) generateToken(claims *Claims) (string, error) {
	key, ok := ti.keys[claims.Role]
	if !ok {
		return "", user.ErrInvalidRole
	}
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString(key)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// middleware only lets through requests bearing a valid token of the given role.
func (ti *tokenIssuer) middleware(role user.Role) echo.MiddlewareFunc {
	jwtMiddleware := middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey:    ti.keys[role],
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		Claims:        new(Claims),
	})
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return jwtMiddleware(func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			if claims.Role != role {
				return errInvalidToken
			}
			return next(ctx)
		})
	}
}

func getContextClaims(ctx echo.Context) (*Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return claims, nil
		}
	}
	return nil, errUnauthorized
}

// contextSubject returns the id of the authenticated teacher or student.
func contextSubject(ctx echo.Context) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}
