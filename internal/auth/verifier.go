package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"storydive/internal/models"
)

// Token verification errors.
var (
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenMalformed = errors.New("token is malformed")
)

// Claims is the verified identity carried by an access token.
type Claims struct {
	UserID uuid.UUID
}

// TokenVerifier checks a raw token string and returns its claims.
type TokenVerifier func(ctx context.Context, tokenString string) (*Claims, error)

// NewJWTVerifier returns a TokenVerifier for HS256-signed tokens. The
// user id is taken from the `sub` claim.
func NewJWTVerifier(secret string) TokenVerifier {
	key := []byte(secret)
	return func(ctx context.Context, tokenString string) (*Claims, error) {
		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return key, nil
		})
		if err != nil {
			switch {
			case errors.Is(err, jwt.ErrTokenExpired):
				return nil, ErrTokenExpired
			case errors.Is(err, jwt.ErrTokenMalformed):
				return nil, ErrTokenMalformed
			default:
				return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
			}
		}
		if !token.Valid {
			return nil, ErrTokenInvalid
		}

		mapClaims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return nil, ErrTokenInvalid
		}
		sub, err := mapClaims.GetSubject()
		if err != nil || sub == "" {
			return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
		}
		userID, err := uuid.Parse(sub)
		if err != nil {
			return nil, fmt.Errorf("%w: subject is not a UUID", ErrTokenInvalid)
		}
		return &Claims{UserID: userID}, nil
	}
}

// UserIDFromContext extracts the authenticated user id placed into the
// context by the auth middleware.
func UserIDFromContext(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctx.Value(userContextKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, models.ErrUnauthorized
	}
	return id, nil
}

type contextKey string

const userContextKey contextKey = "userID"

// ContextWithUserID returns a context carrying the verified user id.
func ContextWithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userContextKey, id)
}
