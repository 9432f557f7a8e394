package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rakshit0960/PeerTalk/domain"
	"github.com/rakshit0960/PeerTalk/errors"
)

// Claims is the data stored inside the bearer token presented at handshake
// time. The JSON field names are shared with the HTTP login path.
type Claims struct {
	UserID domain.UserID `json:"userId"`
	Name   string        `json:"name"`
	Email  string        `json:"email"`
	jwt.RegisteredClaims
}

// Verifier validates and mints HS256 tokens against the server-held secret.
type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(secret string) Verifier {
	return Verifier{secret: []byte(secret), issuer: "peertalk"}
}

// Generate creates a signed token for a user. Kept next to Verify so the
// claims layout has a single owner; tests and the login collaborator both
// go through it.
func (v Verifier) Generate(userID domain.UserID, name, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Name:   name,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    v.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

// Verify parses and validates the signature and expiration of a token
// string. Any failure maps to ErrInvalidToken: the attempt is terminal and
// the client must reconnect with a fresh credential.
func (v Verifier) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.ErrMissingCredential
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, errors.ErrInvalidToken
	}
	return claims, nil
}
