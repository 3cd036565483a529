package local

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates identity tokens minted by the local provider.
// The dev backend uses it to authenticate bearer tokens the same way
// the hosted backend verifies provider-issued ones.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify checks the token signature and expiry and returns the
// subject uid and email claims.
func (v *Verifier) Verify(tokenString string) (uid string, email string, err error) {
	token, err := jwt.Parse(
		tokenString,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return v.secret, nil
		},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", errors.New("invalid token claims")
	}

	uid, _ = claims["sub"].(string)
	email, _ = claims["email"].(string)
	if uid == "" {
		return "", "", errors.New("token missing subject")
	}
	return uid, email, nil
}
