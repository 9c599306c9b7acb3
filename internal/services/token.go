package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/markjakearzadon/projectpay-gobackend/internal/models"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID   string
	Role     string
	ClientID *primitive.ObjectID
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == models.RoleAdmin
}

// CanAccess reports whether the caller may see or pay for the project.
func (p *Principal) CanAccess(project *models.Project) bool {
	if p == nil {
		return false
	}
	if p.IsAdmin() {
		return true
	}
	return p.ClientID != nil && *p.ClientID == project.ClientID
}

type Claims struct {
	Role     string `json:"role"`
	ClientID string `json:"client_id,omitempty"`
	jwt.RegisteredClaims
}

type TokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

func (s *TokenService) Issue(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			Issuer:    "projectpay",
		},
	}
	if user.ClientID != nil {
		claims.ClientID = user.ClientID.Hex()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *TokenService) Parse(tokenString string) (*Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrUnauthorized
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrUnauthorized
	}

	principal := &Principal{UserID: claims.Subject, Role: claims.Role}
	if claims.ClientID != "" {
		id, err := primitive.ObjectIDFromHex(claims.ClientID)
		if err != nil {
			return nil, ErrUnauthorized
		}
		principal.ClientID = &id
	}
	return principal, nil
}
