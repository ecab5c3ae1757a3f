package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pharmos/backend/internal/infrastructure/config"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingTenantID  = errors.New("missing tenant_id in claims")
	ErrTokenBlacklisted = errors.New("token has been revoked")
)

// Claims are the access-token claims. The tenant_id claim is the sole
// source of tenant scope for a request; refresh tokens are opaque random
// strings stored server-side and carry no claims at all.
type Claims struct {
	jwt.RegisteredClaims
	TenantID string  `json:"tenant_id"`
	Email    string  `json:"email"`
	Role     string  `json:"role"`
	BranchID *string `json:"branch_id,omitempty"`
}

// AccessToken is a signed access token together with its expiry
type AccessToken struct {
	Token     string
	JTI       string
	ExpiresAt time.Time
}

// IssueInput contains the identity to embed in an access token
type IssueInput struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	Email    string
	Role     string
	BranchID *uuid.UUID
}

// JWTService issues and validates signed access tokens
type JWTService struct {
	secret           []byte
	accessExpiration time.Duration
	issuer           string
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret:           []byte(cfg.Secret),
		accessExpiration: cfg.AccessTokenExpiration,
		issuer:           cfg.Issuer,
	}
}

// AccessExpiration returns the configured access token lifetime
func (s *JWTService) AccessExpiration() time.Duration {
	return s.accessExpiration
}

// GenerateAccessToken generates a signed access token for the given identity
func (s *JWTService) GenerateAccessToken(input IssueInput) (*AccessToken, error) {
	now := time.Now()
	jti := uuid.New().String()

	var branchID *string
	if input.BranchID != nil {
		v := input.BranchID.String()
		branchID = &v
	}

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.issuer,
			Subject:   input.UserID.String(),
			Audience:  jwt.ClaimStrings{s.issuer},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessExpiration)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		TenantID: input.TenantID.String(),
		Email:    input.Email,
		Role:     input.Role,
		BranchID: branchID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, err
	}

	return &AccessToken{
		Token:     signed,
		JTI:       jti,
		ExpiresAt: now.Add(s.accessExpiration),
	}, nil
}

// ValidateAccessToken validates an access token and returns its claims
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}

	if claims.TenantID == "" {
		return nil, ErrMissingTenantID
	}
	if claims.Subject == "" {
		return nil, ErrInvalidClaims
	}

	return claims, nil
}
