package utils

import (
	"fmt"
	"os"
	"time"

	"github.com/phongpt2005/my-task-manager-web/models"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Claims su tvrdnje koje upstream auth servis upisuje u token. Ovaj servis
// ih samo čita - verifikacija identiteta je posao auth sloja.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func jwtSecret() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}

func ValidateToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return jwtSecret(), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return nil, fmt.Errorf("token has expired")
	}
	return claims, nil
}

// ActorFromClaims pretvara tvrdnje u aktera; role "admin" nosi globalni
// admin flag.
func ActorFromClaims(claims *Claims) (models.Actor, error) {
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return models.Actor{}, fmt.Errorf("invalid user id in token: %v", err)
	}
	return models.Actor{
		ID:      userID,
		Email:   claims.Email,
		IsAdmin: claims.Role == "admin",
	}, nil
}
