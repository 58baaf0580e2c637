package validate

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jonwraymond/weft/middleware"
	"github.com/jonwraymond/weft/weave"
)

// Validation errors.
var (
	// ErrMissingToken indicates no token was supplied for the call.
	ErrMissingToken = errors.New("validate: token is missing")

	// ErrTokenExpired indicates the token is past its expiry.
	ErrTokenExpired = errors.New("validate: token expired")

	// ErrTokenInvalid indicates the token failed signature or claim
	// validation.
	ErrTokenInvalid = errors.New("validate: token invalid")
)

type contextKey int

const tokenKey contextKey = iota

// WithToken returns a context carrying the raw token for the call.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFromContext retrieves the raw token from the context. Returns
// empty string if none is present.
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

// TokenFunc extracts the raw token for the current call.
type TokenFunc func(ctx context.Context) string

// KeyProvider retrieves signing keys for JWT validation.
type KeyProvider interface {
	// GetKey returns the key for the given key ID.
	GetKey(ctx context.Context, keyID string) (any, error)
}

// StaticKeyProvider provides a static signing key.
type StaticKeyProvider struct {
	key []byte
}

// NewStaticKeyProvider creates a static key provider.
func NewStaticKeyProvider(key []byte) *StaticKeyProvider {
	return &StaticKeyProvider{key: key}
}

// GetKey returns the static key.
func (p *StaticKeyProvider) GetKey(_ context.Context, _ string) (any, error) {
	return p.key, nil
}

// JWTConfig configures the JWT middleware.
type JWTConfig struct {
	// Issuer is the expected token issuer (iss claim).
	Issuer string

	// Audience is the expected token audience (aud claim).
	Audience string

	// PrincipalClaim is the claim containing the caller principal.
	// Default: "sub"
	PrincipalClaim string
}

// Claims is the middleware's per-call section value: the verified
// principal plus the raw claim set, populated by the before advice.
type Claims struct {
	Principal string
	Set       jwt.MapClaims
}

// JWT builds a middleware that validates a bearer token before the
// target runs. tokenFrom defaults to TokenFromContext; keys must not
// be nil.
func JWT(name string, cfg JWTConfig, keys KeyProvider, tokenFrom TokenFunc) (*weave.Aspect, error) {
	if keys == nil {
		return nil, errors.New("validate: key provider is required")
	}
	if cfg.PrincipalClaim == "" {
		cfg.PrincipalClaim = "sub"
	}
	if tokenFrom == nil {
		tokenFrom = TokenFromContext
	}

	return middleware.New(middleware.Options[Claims]{
		Name:       name,
		NewContext: func() *Claims { return &Claims{} },
		Before: func(ctx context.Context, state *Claims) error {
			tokenString := tokenFrom(ctx)
			if tokenString == "" {
				return ErrMissingToken
			}

			opts := []jwt.ParserOption{}
			if cfg.Issuer != "" {
				opts = append(opts, jwt.WithIssuer(cfg.Issuer))
			}
			if cfg.Audience != "" {
				opts = append(opts, jwt.WithAudience(cfg.Audience))
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
				kid := ""
				if kidVal, ok := token.Header["kid"].(string); ok {
					kid = kidVal
				}
				return keys.GetKey(ctx, kid)
			}, opts...)
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					return fmt.Errorf("%w: %v", ErrTokenExpired, err)
				}
				return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
			}
			if !token.Valid {
				return ErrTokenInvalid
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return ErrTokenInvalid
			}

			state.Set = claims
			if principal, ok := claims[cfg.PrincipalClaim].(string); ok {
				state.Principal = principal
			}
			return nil
		},
	})
}
