package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenPair holds the access and refresh tokens issued to an admin
// at registration. The refresh token is persisted server-side so it
// can be revoked.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

// AdminClaims is the payload carried by admin tokens. AdminID doubles
// as the registered subject; every profile and attendance query is
// scoped to it.
type AdminClaims struct {
	AdminID string `json:"adm"`
	jwt.RegisteredClaims
}

// Issue signs an HS256 access/refresh pair for the given admin.
func Issue(adminID, issuer, key string, accessTTL, refreshTTL time.Duration) (TokenPair, error) {
	now := time.Now()
	accessExp := now.Add(accessTTL)
	refreshExp := now.Add(refreshTTL)

	access, err := signed(adminID, issuer, key, now, accessExp)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := signed(adminID, issuer, key, now, refreshExp)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}

func signed(adminID, issuer, key string, issued, expires time.Time) (string, error) {
	claims := AdminClaims{
		AdminID: adminID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   adminID,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(issued),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
}

// Parse validates an admin token and returns its claims. Tokens signed
// with another method or by another issuer are rejected.
func Parse(tokenStr, key, issuer string) (AdminClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(key), nil
	})
	if err != nil {
		return AdminClaims{}, err
	}
	claims, ok := parsed.Claims.(*AdminClaims)
	if !ok || !parsed.Valid {
		return AdminClaims{}, errors.New("invalid token")
	}
	if issuer != "" && claims.Issuer != issuer {
		return AdminClaims{}, errors.New("issuer mismatch")
	}
	return *claims, nil
}
