package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const claimsContextKey = "session_claims"

var (
	errInvalidToken = errors.New("invalid or expired token")
	errMissingToken = errors.New("authorization token required")
)

// SessionManager issues and validates the signed session tokens that scope
// every API call to one budget.
type SessionManager struct {
	signingKey []byte
	issuer     string
	tokenTTL   time.Duration
}

// SessionClaims carries the budget a session token grants access to.
type SessionClaims struct {
	BudgetID string `json:"budget_id"`
	jwt.RegisteredClaims
}

// NewSessionManager builds a SessionManager from the validated config.
func NewSessionManager(cfg Config) (*SessionManager, error) {
	if strings.TrimSpace(cfg.SessionSigningKey) == "" {
		return nil, fmt.Errorf("session signing key is required")
	}
	return &SessionManager{
		signingKey: []byte(cfg.SessionSigningKey),
		issuer:     cfg.SessionIssuer,
		tokenTTL:   cfg.TokenTTL,
	}, nil
}

// Issue signs a session token for the given budget.
func (manager *SessionManager) Issue(budgetID string) (string, error) {
	now := time.Now()
	claims := &SessionClaims{
		BudgetID: budgetID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    manager.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(manager.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(manager.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Validate parses a session token and returns its claims.
func (manager *SessionManager) Validate(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&SessionClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return manager.signingKey, nil
		},
		jwt.WithIssuer(manager.issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidToken, err)
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, errInvalidToken
	}
	if strings.TrimSpace(claims.BudgetID) == "" {
		return nil, errInvalidToken
	}
	return claims, nil
}

// GinMiddleware rejects requests without a valid Bearer session token and
// stores the claims on the request context for handlers.
func (manager *SessionManager) GinMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		if header == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("unauthorized", errMissingToken.Error()))
			return
		}
		parts := strings.Split(header, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("unauthorized", errInvalidToken.Error()))
			return
		}
		claims, err := manager.Validate(parts[1])
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("unauthorized", errInvalidToken.Error()))
			return
		}
		ctx.Set(claimsContextKey, claims)
		ctx.Next()
	}
}

func getClaims(ctx *gin.Context) *SessionClaims {
	claimsValue, ok := ctx.Get(claimsContextKey)
	if !ok {
		return nil
	}
	claims, _ := claimsValue.(*SessionClaims)
	return claims
}
