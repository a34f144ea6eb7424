package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/lattice-backend/internal/platform/ctxutil"
	"github.com/yungbote/lattice-backend/internal/platform/logger"
)

// IdentityResolver turns a bearer token into the acting learner. Tokens are
// issued elsewhere; this side only verifies them.
type IdentityResolver interface {
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type JWTClaims struct {
	// Optional session id; not required for any study operation.
	SessionID string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

type jwtIdentityResolver struct {
	log       *logger.Logger
	secret    []byte
	issuer    string
	clockSkew time.Duration
}

type JWTIdentityConfig struct {
	SecretKey string
	// Issuer, when set, must match the token's iss claim.
	Issuer    string
	ClockSkew time.Duration
}

func NewJWTIdentityResolver(log *logger.Logger, cfg JWTIdentityConfig) (IdentityResolver, error) {
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, fmt.Errorf("missing JWT_SECRET_KEY")
	}
	return &jwtIdentityResolver{
		log:       log.With("service", "IdentityResolver"),
		secret:    []byte(cfg.SecretKey),
		issuer:    strings.TrimSpace(cfg.Issuer),
		clockSkew: cfg.ClockSkew,
	}, nil
}

func (r *jwtIdentityResolver) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, fmt.Errorf("missing token")
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(r.clockSkew),
	}
	if r.issuer != "" {
		opts = append(opts, jwt.WithIssuer(r.issuer))
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return r.secret, nil
	}, opts...)
	if err != nil {
		return ctx, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, fmt.Errorf("invalid or expired token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return ctx, fmt.Errorf("invalid user id in token")
	}
	rd := &ctxutil.RequestData{UserID: userID}
	if sid, err := uuid.Parse(claims.SessionID); err == nil {
		rd.SessionID = sid
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

// SignTestToken issues an HS256 token for userID. Used by tooling and tests
// that need a valid bearer token.
func SignTestToken(secret string, userID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
