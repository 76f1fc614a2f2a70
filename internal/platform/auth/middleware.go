package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type contextKey string

const userKey contextKey = "auth_user"

// Claims are the JWT claims this service understands. The scope claim is
// the OAuth 2.0 space-separated string; patient, encounter and fhirUser
// are SMART launch context claims.
type Claims struct {
	jwt.RegisteredClaims
	Scope       string `json:"scope"`
	Email       string `json:"email,omitempty"`
	Name        string `json:"name,omitempty"`
	FHIRUser    string `json:"fhirUser,omitempty"`
	PatientID   string `json:"patient,omitempty"`
	EncounterID string `json:"encounter,omitempty"`
}

// Config holds what the validator needs to know about the identity
// provider. JWKSURL may be left empty when Issuer is set, in which case the
// conventional <issuer>/.well-known/jwks.json location is used.
type Config struct {
	Issuer   string
	Audience string
	JWKSURL  string
}

// clockSkewLeeway tolerates small clock drift between this server and the
// identity provider when checking exp/nbf.
const clockSkewLeeway = 30 * time.Second

// jwksCacheTTL bounds how long fetched provider keys are reused before a
// refresh.
const jwksCacheTTL = 5 * time.Minute

type jwksKey struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwksDocument struct {
	Keys []jwksKey `json:"keys"`
}

// JWKSCache fetches and caches the identity provider's RSA public keys,
// refreshing on TTL expiry or on an unknown kid (key rotation).
type JWKSCache struct {
	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time

	url    string
	client *http.Client
}

// NewJWKSCache creates a cache for the given JWKS endpoint.
func NewJWKSCache(url string) *JWKSCache {
	return &JWKSCache{
		keys:   make(map[string]*rsa.PublicKey),
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Key returns the public key for kid, fetching fresh keys when the cache
// is stale or the kid is unknown.
func (c *JWKSCache) Key(kid string) (*rsa.PublicKey, error) {
	c.mu.RLock()
	key, ok := c.keys[kid]
	stale := time.Since(c.fetchedAt) > jwksCacheTTL
	c.mu.RUnlock()

	if ok && !stale {
		return key, nil
	}

	if err := c.refresh(); err != nil {
		return nil, fmt.Errorf("fetching JWKS: %w", err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	key, ok = c.keys[kid]
	if !ok {
		return nil, fmt.Errorf("no key with kid %q in JWKS", kid)
	}
	return key, nil
}

func (c *JWKSCache) refresh() error {
	resp, err := c.client.Get(c.url)
	if err != nil {
		return fmt.Errorf("GET %s: %w", c.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("decoding JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" {
			continue
		}
		pub, err := rsaKeyFromJWK(k)
		if err != nil {
			continue // skip malformed keys
		}
		keys[k.Kid] = pub
	}

	c.mu.Lock()
	c.keys = keys
	c.fetchedAt = time.Now()
	c.mu.Unlock()
	return nil
}

func rsaKeyFromJWK(k jwksKey) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decoding modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decoding exponent: %w", err)
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(new(big.Int).SetBytes(eBytes).Int64()),
	}, nil
}

// Validator validates bearer tokens against the configured provider.
type Validator struct {
	cfg  Config
	jwks *JWKSCache
}

// NewValidator builds a token validator. The JWKS endpoint is derived from
// the issuer when not configured explicitly.
func NewValidator(cfg Config) *Validator {
	url := cfg.JWKSURL
	if url == "" && cfg.Issuer != "" {
		url = strings.TrimRight(cfg.Issuer, "/") + "/.well-known/jwks.json"
	}
	return &Validator{cfg: cfg, jwks: NewJWKSCache(url)}
}

// ValidateToken verifies the signature and the standard claims of a bearer
// token and returns its parsed claims. The returned error message is safe
// to surface to the client.
func (v *Validator) ValidateToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithLeeway(clockSkewLeeway),
		jwt.WithExpirationRequired(),
	}
	if v.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.cfg.Issuer))
	}
	if v.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.cfg.Audience))
	}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		kid, ok := t.Header["kid"].(string)
		if !ok || kid == "" {
			return nil, errors.New("token has no kid header")
		}
		return v.jwks.Key(kid)
	}, opts...)

	switch {
	case err == nil && token.Valid:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, errors.New("token has expired")
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return nil, errors.New("token audience mismatch")
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return nil, errors.New("token issuer mismatch")
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return nil, errors.New("invalid token signature")
	case errors.Is(err, jwt.ErrTokenMalformed):
		return nil, errors.New("malformed token")
	default:
		return nil, errors.New("token validation failed")
	}
}

// Middleware returns the echo middleware enforcing bearer authentication.
// On success the authenticated User is placed on the request context.
func Middleware(v *Validator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenStr, err := bearerToken(c.Request())
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			claims, err := v.ValidateToken(tokenStr)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			setUser(c, NewUserFromClaims(claims))
			return next(c)
		}
	}
}

// DevMiddleware grants every request a clinician identity with broad read
// scopes. Only wired up when the server runs in development mode.
func DevMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := &Claims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: "dev-user"},
				Scope:            "openid profile user/*.read",
				Name:             "Development User",
			}
			setUser(c, NewUserFromClaims(claims))
			return next(c)
		}
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.New("missing authorization header with bearer token")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", errors.New("invalid authorization format")
	}
	return parts[1], nil
}

func setUser(c echo.Context, u *User) {
	c.SetRequest(c.Request().WithContext(WithUser(c.Request().Context(), u)))
}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the authenticated user, or nil when the request
// was not authenticated.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userKey).(*User)
	return u
}
