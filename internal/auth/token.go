package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/login-service/internal/config"
)

// Domain selects one of the independent signing contexts.
type Domain string

const (
	DomainSession Domain = "session"
	DomainReset   Domain = "reset"
)

// Fixed token lifetimes.
const (
	SessionTokenTTL = 5 * time.Hour
	ResetTokenTTL   = 5 * time.Minute
)

// ErrTokenInvalid is returned when a token is malformed or not signed by the domain key.
var ErrTokenInvalid = errors.New("token invalid")

// SigningKeys holds one HMAC key per domain. It is built once at startup and never mutated.
type SigningKeys struct {
	session []byte
	reset   []byte
}

// NewSigningKeys derives the domain keys from their configured secrets. Each
// secret must be at least config.MinSecretBytes long.
func NewSigningKeys(sessionSecret, resetSecret string) (SigningKeys, error) {
	if sessionSecret == "" || resetSecret == "" {
		return SigningKeys{}, errors.New("session and reset secrets are required")
	}
	if len(sessionSecret) < config.MinSecretBytes || len(resetSecret) < config.MinSecretBytes {
		return SigningKeys{}, fmt.Errorf("signing secrets must be at least %d bytes", config.MinSecretBytes)
	}
	if sessionSecret == resetSecret {
		return SigningKeys{}, errors.New("session and reset secrets must differ")
	}
	return SigningKeys{session: []byte(sessionSecret), reset: []byte(resetSecret)}, nil
}

func (k SigningKeys) key(domain Domain) ([]byte, bool) {
	switch domain {
	case DomainSession:
		return k.session, len(k.session) > 0
	case DomainReset:
		return k.reset, len(k.reset) > 0
	default:
		return nil, false
	}
}

// IssueCounter observes token issuance per domain.
type IssueCounter interface {
	TokenIssued(domain string)
}

// TokenService issues and validates signed, expiring bearer tokens.
type TokenService struct {
	keys    SigningKeys
	now     func() time.Time
	counter IssueCounter
}

// TokenOption customizes a TokenService.
type TokenOption func(*TokenService)

// WithClock overrides the time source used for issuing and validating.
func WithClock(now func() time.Time) TokenOption {
	return func(ts *TokenService) {
		if now != nil {
			ts.now = now
		}
	}
}

// WithIssueCounter records every successfully issued token.
func WithIssueCounter(counter IssueCounter) TokenOption {
	return func(ts *TokenService) {
		ts.counter = counter
	}
}

// NewTokenService builds a token service over the given keys.
func NewTokenService(keys SigningKeys, opts ...TokenOption) *TokenService {
	ts := &TokenService{keys: keys, now: time.Now}
	for _, opt := range opts {
		opt(ts)
	}
	return ts
}

// Issue signs a token for subject that expires ttl from now.
func (ts *TokenService) Issue(subject string, ttl time.Duration, domain Domain) (string, error) {
	key, ok := ts.keys.key(domain)
	if !ok {
		return "", fmt.Errorf("unknown token domain %q", domain)
	}

	issuedAt := ts.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiryCeil(issuedAt.Add(ttl))),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		return "", err
	}
	if ts.counter != nil {
		ts.counter.TokenIssued(string(domain))
	}
	return signed, nil
}

// expiryCeil rounds t up to whole seconds, the precision of a NumericDate, so
// a token stays valid for its whole ttl; it may outlive it by under a second.
func expiryCeil(t time.Time) time.Time {
	if whole := t.Truncate(time.Second); whole.Before(t) {
		return whole.Add(time.Second)
	}
	return t
}

// Validate reports whether the token carries a valid signature for domain and is unexpired.
func (ts *TokenService) Validate(tokenStr string, domain Domain) bool {
	_, err := ts.parse(tokenStr, domain, jwt.WithExpirationRequired(), jwt.WithTimeFunc(ts.now))
	return err == nil
}

// ExtractSubject returns the subject of a token signed under domain.
// Expiry is not checked here; callers that need it must call Validate.
func (ts *TokenService) ExtractSubject(tokenStr string, domain Domain) (string, error) {
	claims, err := ts.parse(tokenStr, domain, jwt.WithoutClaimsValidation())
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (ts *TokenService) parse(tokenStr string, domain Domain, opts ...jwt.ParserOption) (*jwt.RegisteredClaims, error) {
	key, ok := ts.keys.key(domain)
	if !ok {
		return nil, ErrTokenInvalid
	}

	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
