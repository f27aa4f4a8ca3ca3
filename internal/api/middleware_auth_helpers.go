package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/terraincognita07/duet/internal/security"
	"github.com/terraincognita07/duet/internal/services"
)

var (
	errMissingToken = errors.New("missing bearer token")
	errInvalidToken = errors.New("invalid token")
)

const tokenIssuer = "duet"

type authClaims struct {
	UserID     string `json:"uid"`
	Role       string `json:"role"`
	Tier       string `json:"tier,omitempty"`
	CoupleCode string `json:"couple,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs a bearer token for viewer. Identity is owned by an
// external provider; this exists for tooling and tests.
func IssueToken(secret []byte, viewer Viewer, ttl time.Duration, now time.Time) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("secret key is required")
	}
	if strings.TrimSpace(viewer.UserID) == "" {
		return "", errors.New("user id is required")
	}
	if _, ok := services.ParseRole(string(viewer.Role)); !ok {
		return "", fmt.Errorf("unknown role %q", viewer.Role)
	}

	claims := authClaims{
		UserID:     strings.TrimSpace(viewer.UserID),
		Role:       string(viewer.Role),
		Tier:       string(services.ParseEntitlement(string(viewer.Entitlement))),
		CoupleCode: security.NormalizeCoupleCode(viewer.CoupleCode),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   strings.TrimSpace(viewer.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (handler *Handler) authenticateRequest(c *fiber.Ctx) (Viewer, error) {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return Viewer{}, errMissingToken
	}
	tokenValue := strings.TrimSpace(header[len(bearerPrefix):])

	claims := &authClaims{}
	token, err := jwt.ParseWithClaims(tokenValue, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return handler.secretKey, nil
	}, jwt.WithTimeFunc(handler.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return Viewer{}, errInvalidToken
	}

	role, ok := services.ParseRole(claims.Role)
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		return Viewer{}, errInvalidToken
	}

	return Viewer{
		UserID:      strings.TrimSpace(claims.UserID),
		Role:        role,
		Entitlement: services.ParseEntitlement(claims.Tier),
		CoupleCode:  security.NormalizeCoupleCode(claims.CoupleCode),
	}, nil
}
