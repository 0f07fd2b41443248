// Package identity reads the signed-in user from the identity provider's ID token.
//
// The console never verifies the token signature: the push server does that on every request.
// It only needs the display claims.
package identity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoToken      = errors.New("identity: no token")
	ErrMissingClaim = errors.New("identity: missing claim")
)

// Identity is what the console knows about the signed-in user.
type Identity struct {
	RawToken          string
	PreferredUsername string
	Subject           string
	Email             string
	AuthServerURL     string
}

// Parse extracts the display claims from an ID token.
func Parse(rawToken, authServerURL string) (Identity, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return Identity{}, ErrNoToken
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(rawToken, claims); err != nil {
		return Identity{}, fmt.Errorf("identity: parse token: %w", err)
	}
	username, _ := claims["preferred_username"].(string)
	if username == "" {
		return Identity{}, fmt.Errorf("%w: preferred_username", ErrMissingClaim)
	}
	id := Identity{
		RawToken:          rawToken,
		PreferredUsername: username,
		AuthServerURL:     strings.TrimRight(authServerURL, "/"),
	}
	id.Subject, _ = claims.GetSubject()
	id.Email, _ = claims["email"].(string)
	return id, nil
}

// Anonymous is used when no token is configured; requests go out unauthenticated.
func Anonymous(authServerURL string) Identity {
	return Identity{PreferredUsername: "anonymous", AuthServerURL: strings.TrimRight(authServerURL, "/")}
}

// AccountURL builds the account-management page of the given realm.
func (i Identity) AccountURL(realm, referrer string) string {
	return i.AuthServerURL + "/realms/" + realm + "/account?referrer=" + referrer
}
