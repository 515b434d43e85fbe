package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Lefthander07/UserAPI/internal/model"
	"github.com/Lefthander07/UserAPI/internal/store"
)

// ErrInvalidCredentials is returned for any failed authentication: unknown
// login, wrong password, revoked account, or a bad token. The cases are
// deliberately indistinguishable to avoid leaking account existence.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Principal is the authenticated identity extracted from a bearer token.
type Principal struct {
	UserID  uuid.UUID
	Login   string
	IsAdmin bool
}

// TokenConfig controls JWT issuance and verification.
type TokenConfig struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// AuthService verifies credentials against the account store and mints and
// validates signed bearer tokens.
type AuthService struct {
	store    Store
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
}

// NewAuthService creates an AuthService backed by the given store.
func NewAuthService(store Store, cfg TokenConfig) *AuthService {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		store:    store,
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      ttl,
	}
}

type tokenClaims struct {
	Login string `json:"name"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticate verifies a login/password pair against active accounts only.
// Revoked accounts never authenticate, even with correct credentials.
func (s *AuthService) Authenticate(ctx context.Context, login, password string) (*model.User, error) {
	u, err := s.store.GetActiveByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// IssueToken mints a signed JWT asserting the user's id, login, and role.
func (s *AuthService) IssueToken(u *model.User) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Login: u.Login,
		Role:  u.Role(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// TokenTTL returns the configured token validity window.
func (s *AuthService) TokenTTL() time.Duration {
	return s.ttl
}

// ValidateToken parses and verifies a bearer token and returns the caller
// identity it asserts. Expired or malformed tokens are simply rejected.
func (s *AuthService) ValidateToken(tokenStr string) (*Principal, error) {
	claims := &tokenClaims{}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	if s.audience != "" {
		opts = append(opts, jwt.WithAudience(s.audience))
	}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	return &Principal{
		UserID:  id,
		Login:   claims.Login,
		IsAdmin: claims.Role == model.RoleAdmin,
	}, nil
}
