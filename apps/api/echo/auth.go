package echoapi

import (
	"context"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolconnect/core"
	"github.com/trezcool/schoolconnect/core/session"
	"github.com/trezcool/schoolconnect/storage/kv"
)

const (
	tokenContextKey = "userToken"
	userContextKey  = "user"
	storeContextKey = "session"

	sessionNamespace = "session"
)

// Claims represents the authorization claims transmitted via a JWT.
// The token id (jti) names the server-side session namespace.
type Claims struct {
	jwt.StandardClaims
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		Claims:        new(Claims),
	}
}

func newUserClaims(conf *core.Config, usr session.User, sessionID string) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        sessionID,
			Issuer:    conf.AppName,
			Subject:   usr.ID,
			Audience:  "SchoolConnect",
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name:  usr.Name,
		Email: usr.Email,
		Role:  usr.Role.String(),
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	jwtConf := newJWTConfig(conf)
	token := jwt.NewWithClaims(jwt.GetSigningMethod(jwtConf.SigningMethod), claims)

	ss, err := token.SignedString(jwtConf.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextUser(ctx echo.Context) (session.User, error) {
	if usr, ok := ctx.Get(userContextKey).(session.User); ok {
		return usr, nil
	}
	return session.User{}, errUnauthorized
}

func getContextStore(ctx echo.Context) (*session.Store, error) {
	if store, ok := ctx.Get(storeContextKey).(*session.Store); ok {
		return store, nil
	}
	return nil, errUnauthorized
}

// sessionStorage returns the storage namespace of one signed-in device.
func sessionStorage(backend kv.Backend, sessionID string) session.Storage {
	return backend.Namespace(sessionNamespace).Namespace(sessionID)
}

// loadSession restores the session a token was issued for.
func loadSession(ctx context.Context, backend kv.Backend, logger core.Logger, sessionID string) (*session.Store, error) {
	if sessionID == "" {
		return nil, errSessionExpired
	}
	store := session.NewStore(sessionStorage(backend, sessionID), logger)
	if err := store.Load(ctx); err != nil {
		return nil, errors.Wrap(err, "loading session")
	}
	if !store.IsSignedIn() {
		return nil, errSessionExpired
	}
	return store, nil
}
