package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/session"
)

const (
	tokenContextKey   = "userToken"
	sessionContextKey = "session"
	sessionCookieName = "alama_session"
	tokenAudience     = "Students"
)

var nowFunc = time.Now // mockable

type (
	// Claims represents the authorization claims transmitted via a JWT.
	Claims struct {
		jwt.StandardClaims
		OrigIssuedAt int64  `json:"oriat,omitempty"`
		Name         string `json:"name,omitempty"`
	}

	// TokenRevoker remembers the ids of signed-out tokens.
	TokenRevoker interface {
		Revoke(jti string, expiresAt time.Time)
		IsRevoked(jti string) bool
	}

	authenticator struct {
		conf    *core.Config
		revoker TokenRevoker
	}
)

func (c Claims) Session() session.Session {
	return session.New(c.Name, c.Subject)
}

func newAuthenticator(conf *core.Config, revoker TokenRevoker) *authenticator {
	return &authenticator{conf: conf, revoker: revoker}
}

// jwtConfig reads the bearer token of API requests.
func (a *authenticator) jwtConfig() middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(a.conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		Claims:        new(Claims),
	}
}

// newClaims starts a session. A refreshed token keeps the original issue time.
func (a *authenticator) newClaims(sess session.Session, origIat ...int64) *Claims {
	now := nowFunc()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.New().String(),
			Issuer:    a.conf.AppName,
			Subject:   sess.Email,
			Audience:  tokenAudience,
			ExpiresAt: now.Add(a.conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Name:         sess.Name,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func (a *authenticator) GenerateToken(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(a.conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// parseToken validates a raw token string; used for the session cookie.
func (a *authenticator) parseToken(raw string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != middleware.AlgorithmHS256 {
			return nil, errors.Errorf("unexpected jwt signing method=%v", t.Header["alg"])
		}
		return []byte(a.conf.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errUnauthorized
	}
	return claims, nil
}

func (a *authenticator) isRevoked(claims *Claims) bool {
	return a.revoker != nil && a.revoker.IsRevoked(claims.Id)
}

func (a *authenticator) revoke(claims *Claims) {
	if a.revoker != nil {
		a.revoker.Revoke(claims.Id, time.Unix(claims.ExpiresAt, 0))
	}
}

// sessionMiddleware rejects revoked API tokens and stores the Session of the request.
func (a *authenticator) sessionMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			if a.isRevoked(claims) {
				return errTokenRevoked
			}
			ctx.Set(sessionContextKey, claims.Session())
			return next(ctx)
		}
	}
}

// cookieSessionMiddleware loads the Session from the session cookie.
// Requests without a valid cookie get an anonymous Session.
func (a *authenticator) cookieSessionMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess := session.Anonymous()
			if cookie, err := ctx.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
				if claims, err := a.parseToken(cookie.Value); err == nil && !a.isRevoked(claims) {
					ctx.Set(tokenContextKey, &jwt.Token{Claims: claims, Valid: true})
					sess = claims.Session()
				}
			}
			ctx.Set(sessionContextKey, sess)
			return next(ctx)
		}
	}
}

func (a *authenticator) setSessionCookie(ctx echo.Context, token string) {
	ctx.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  nowFunc().Add(a.conf.Server.JWTExpirationDelta),
		HttpOnly: true,
		Secure:   !(a.conf.Debug || a.conf.TestMode),
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *authenticator) clearSessionCookie(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// refreshToken issues a new token while the refresh window of the original login is open.
func (a *authenticator) refreshToken(ctx echo.Context) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(a.conf.Server.JWTRefreshExpirationDelta)
	if nowFunc().After(expTime) {
		return "", errRefreshExpired
	}

	token, err := a.GenerateToken(a.newClaims(claims.Session(), claims.OrigIssuedAt))
	return token, errors.Wrap(err, "generating token")
}

func getContextClaims(ctx echo.Context) (*Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return claims, nil
		}
	}
	return nil, errUnauthorized
}

// getContextSession returns the Session of the request, anonymous if none was set.
func getContextSession(ctx echo.Context) session.Session {
	if sess, ok := ctx.Get(sessionContextKey).(session.Session); ok {
		return sess
	}
	return session.Anonymous()
}
