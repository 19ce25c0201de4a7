package session

import (
	"errors"
	"time"

	"github.com/Ryan-Har/gymsync/pkg/models"
	"github.com/golang-jwt/jwt/v5"
)

// tokenClaims is what the backend puts in its tokens: sub is the username.
type tokenClaims struct {
	UserID int64 `json:"id"`
	jwt.RegisteredClaims
}

// decodeToken reads identity and expiry from a token without verifying the
// signature; the client never holds the signing key. expires is zero when
// the token has no exp claim.
func decodeToken(token string) (identity models.Identity, expires time.Time, err error) {
	var claims tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return models.Identity{}, time.Time{}, err
	}
	if claims.Subject == "" {
		return models.Identity{}, time.Time{}, errors.New("token has no subject")
	}
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	return models.Identity{Username: claims.Subject, UserID: claims.UserID}, expires, nil
}
