// Package auth mints and verifies the HS256 access tokens that carry an
// actor's identity.  Issuing tokens to end users belongs to the identity
// provider; NewAccessToken exists for development and tests.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/buildtrack/internal/model"
)

// ErrInvalidToken is returned for any token that fails verification or
// does not describe a usable actor.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken is a signed JWT together with its expiry.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// Claims is the token payload: the standard registered claims with the
// user id in sub, plus role and sub_role.
type Claims struct {
	Role    string `json:"role"`
	SubRole string `json:"sub_role,omitempty"`
	jwt.RegisteredClaims
}

// NewAccessToken signs a token for actor that expires after ttl.
func NewAccessToken(secret string, actor model.Actor, ttl time.Duration) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		Role:    string(actor.Role),
		SubRole: string(actor.SubRole),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(actor.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies raw and returns the actor it names.  Only
// HS256 is accepted and an expiry is required.
func ParseAccessToken(secret, raw string) (model.Actor, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return model.Actor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return model.Actor{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	actor := model.Actor{ID: id, Role: model.Role(claims.Role), SubRole: model.SubRole(claims.SubRole)}
	if !actor.Role.Valid() {
		return model.Actor{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	if actor.SubRole != "" && (actor.Role != model.RoleWorker || !actor.SubRole.Valid()) {
		return model.Actor{}, fmt.Errorf("%w: unexpected sub_role %q", ErrInvalidToken, claims.SubRole)
	}
	return actor, nil
}
