package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"messagesearch/internal/domain"
	"messagesearch/internal/domain/models"
)

// HMACJWTVerifier implements JWTVerifier for HS256 tokens signed with a
// shared secret. This is the default mode; tokens are issued out-of-band.
type HMACJWTVerifier struct {
	secret   []byte
	issuer   string
	audience string
	logger   *slog.Logger
}

// NewHMACVerifier creates an HS256 verifier with issuer/audience checks.
func NewHMACVerifier(secret, issuer, audience string, logger *slog.Logger) (JWTVerifier, error) {
	if secret == "" {
		return nil, errors.New("JWT secret cannot be empty")
	}
	return &HMACJWTVerifier{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		logger:   logger,
	}, nil
}

// VerifyToken validates an HS256 token and extracts the claims.
func (v *HMACJWTVerifier) VerifyToken(tokenString string) (*models.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.Claims{},
		func(t *jwt.Token) (interface{}, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		v.logger.Debug("token parse failed", "error", err)
		return nil, domain.ErrUnauthorized
	}

	return extractClaims(token, v.logger)
}

// Close is a no-op for the HMAC verifier.
func (v *HMACJWTVerifier) Close() error {
	return nil
}

// JWKSJWTVerifier implements JWTVerifier using a JWKS endpoint for
// asymmetric (RS256/ES256) verification. Keys are cached and refreshed by
// keyfunc based on HTTP cache headers.
type JWKSJWTVerifier struct {
	jwks     keyfunc.Keyfunc
	issuer   string
	audience string
	logger   *slog.Logger
}

// NewJWKSVerifier creates a verifier that fetches public keys from the given
// JWKS endpoint.
func NewJWKSVerifier(jwksURL, issuer, audience string, logger *slog.Logger) (JWTVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}

	jwks, err := keyfunc.NewDefaultCtx(context.Background(), []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS client: %w", err)
	}

	logger.Info("JWKS verifier initialized", "jwks_url", jwksURL)

	return &JWKSJWTVerifier{
		jwks:     jwks,
		issuer:   issuer,
		audience: audience,
		logger:   logger,
	}, nil
}

// VerifyToken validates an RS256/ES256 token against the JWKS keys.
func (v *JWKSJWTVerifier) VerifyToken(tokenString string) (*models.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.Claims{}, v.jwks.Keyfunc,
		jwt.WithValidMethods([]string{"RS256", "ES256"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		v.logger.Debug("token parse failed", "error", err)
		return nil, domain.ErrUnauthorized
	}

	return extractClaims(token, v.logger)
}

// Close releases resources held by the verifier. keyfunc v3 manages its own
// refresh lifecycle, so this is a no-op kept for shutdown symmetry.
func (v *JWKSJWTVerifier) Close() error {
	return nil
}

func extractClaims(token *jwt.Token, logger *slog.Logger) (*models.Claims, error) {
	if !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*models.Claims)
	if !ok {
		logger.Error("failed to extract claims from token")
		return nil, domain.ErrUnauthorized
	}

	if claims.Subject == "" {
		logger.Debug("token missing subject claim")
		return nil, domain.ErrUnauthorized
	}
	if len(claims.Roles) == 0 {
		logger.Debug("token missing roles claim", "user_id", claims.Subject)
		return nil, domain.ErrUnauthorized
	}

	return claims, nil
}

// NewVerifier picks the JWKS mode when a URL is configured, otherwise HS256.
func NewVerifier(jwksURL, secret, issuer, audience string, logger *slog.Logger) (JWTVerifier, error) {
	if jwksURL != "" {
		return NewJWKSVerifier(jwksURL, issuer, audience, logger)
	}
	return NewHMACVerifier(secret, issuer, audience, logger)
}
