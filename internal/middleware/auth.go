package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mediconsult/mediconsult-api/internal/handler"
	"github.com/mediconsult/mediconsult-api/internal/model"
	"github.com/mediconsult/mediconsult-api/pkg/httputil"
)

type AuthMiddleware struct {
	secret []byte
}

func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret)}
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticate verifies the bearer token and sets the caller's id and role in
// context. Token issuance happens elsewhere; this side only validates.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "invalid authorization format")
			return
		}

		caller, err := m.parseToken(parts[1])
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		handler.SetCaller(c, caller)
		c.Next()
	}
}

func (m *AuthMiddleware) parseToken(raw string) (model.Caller, error) {
	var parsed claims
	token, err := jwt.ParseWithClaims(raw, &parsed, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return model.Caller{}, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return model.Caller{}, fmt.Errorf("token is not valid")
	}

	id, err := uuid.Parse(parsed.Subject)
	if err != nil {
		return model.Caller{}, fmt.Errorf("invalid subject claim: %w", err)
	}

	role := model.Role(parsed.Role)
	switch role {
	case model.RoleAdmin, model.RoleDoctor, model.RolePatient:
	default:
		return model.Caller{}, fmt.Errorf("unknown role claim: %q", parsed.Role)
	}

	return model.Caller{ID: id, Role: role}, nil
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, httputil.Response{
		Success: false,
		Error: &httputil.Error{
			Code:    http.StatusUnauthorized,
			Message: message,
		},
	})
}
