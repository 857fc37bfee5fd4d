package auth

import (
	"context"
	"fmt"

	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/domain"
	"github.com/Shockvaluemedia/directfanz-project-sub008/internal/core/ports"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload issued by the account system.
type Claims struct {
	UserID       domain.UserID `json:"user_id"`
	Username     string        `json:"username"`
	CanBroadcast bool          `json:"can_broadcast"`
	Tier         string        `json:"tier,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier resolves bearer tokens into identities. It implements
// ports.IdentityVerifier.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

func (v *JWTVerifier) VerifyIdentity(ctx context.Context, tokenString string) (*ports.Identity, error) {
	if tokenString == "" {
		return nil, domain.ErrUnauthenticated
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrUnauthenticated
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, domain.ErrUnauthenticated
	}

	return &ports.Identity{
		UserID:   claims.UserID,
		Username: claims.Username,
	}, nil
}

// ParseClaims returns the full claim set for callers that need broadcast
// capability or tier information.
func (v *JWTVerifier) ParseClaims(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrUnauthenticated
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, domain.ErrUnauthenticated
	}
	return claims, nil
}
