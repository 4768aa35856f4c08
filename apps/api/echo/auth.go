package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/account"
	"github.com/trezcool/gradebook/core/session"
)

var contextSessionKey = "session"

// Claims represents the authorization claims transmitted via a JWT.
// The token ID is the ID of the Session it was issued for.
type Claims struct {
	jwt.StandardClaims
	Username string `json:"username,omitempty"`
}

// authenticator issues JWTs for sessions & checks that the session of a request is still open.
type authenticator struct {
	conf     middleware.JWTConfig
	issuer   string
	expiry   time.Duration
	sessions *session.Store
	nowFunc  func() time.Time
}

func newAuthenticator(conf *core.Config, sessions *session.Store) *authenticator {
	return &authenticator{
		conf: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    "userToken",
			Claims:        new(Claims),
		},
		issuer:   conf.AppName,
		expiry:   conf.Server.JWTExpirationDelta,
		sessions: sessions,
		nowFunc:  time.Now,
	}
}

func (a *authenticator) sessionClaims(sess session.Session) *Claims {
	now := a.nowFunc()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        sess.ID,
			Issuer:    a.issuer,
			Subject:   sess.Username,
			ExpiresAt: now.Add(a.expiry).Unix(),
			IssuedAt:  now.Unix(),
		},
		Username: sess.Username,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func (a *authenticator) GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(a.conf.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(a.conf.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// login opens a Session for the verified account & returns its token.
func (a *authenticator) login(acc account.Account) (string, error) {
	sess := a.sessions.Create(acc)
	token, err := a.GenerateToken(a.sessionClaims(sess))
	if err != nil {
		a.sessions.Delete(sess.ID)
		return "", err
	}
	return token, nil
}

func (a *authenticator) jwt() echo.MiddlewareFunc {
	return middleware.JWTWithConfig(a.conf)
}

// session only lets requests through when the Session their token was issued for is still open.
func (a *authenticator) session() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := a.contextClaims(ctx)
			if err != nil {
				return err
			}
			sess, ok := a.sessions.Get(claims.Id)
			if !ok || sess.Username != claims.Username {
				return errSessionClosed
			}
			ctx.Set(contextSessionKey, sess)
			return next(ctx)
		}
	}
}

func (a *authenticator) contextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(a.conf.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextSession(ctx echo.Context) (session.Session, error) {
	if sess, ok := ctx.Get(contextSessionKey).(session.Session); ok {
		return sess, nil
	}
	return session.Session{}, errUnauthorized
}
