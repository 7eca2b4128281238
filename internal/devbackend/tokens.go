package devbackend

import (
	"fmt"
	"sync"
	"time"

	"github.com/agencydesk/console/internal/models"
	"github.com/golang-jwt/jwt/v4"
)

const tokenIssuer string = "adminconsole-devbackend"

var errInvalidAccessToken = fmt.Errorf("the access token is invalid or expired")
var errInvalidRefreshToken = fmt.Errorf("the refresh token is invalid or expired")

type refreshGrant struct {
	adminID   string
	expiresAt time.Time
}

// tokenAuthority signs access tokens and keeps track of the refresh tokens it handed out.
type tokenAuthority struct {
	lock            *sync.Mutex
	secret          []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	grants          map[string]refreshGrant
	tokenIDs        models.IDGenerator
	refreshTokens   models.IDGenerator
	now             func() time.Time
}

func (a *tokenAuthority) issue(adminID string) (models.TokenPair, error) {
	now := a.now().UTC()
	jti, err := a.tokenIDs.ID()
	if err != nil {
		return models.TokenPair{}, err
	}
	accessExpiry := now.Add(a.accessTokenTTL)
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   adminID,
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(accessExpiry),
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return models.TokenPair{}, err
	}
	refreshToken, err := a.refreshTokens.ID()
	if err != nil {
		return models.TokenPair{}, err
	}
	refreshExpiry := now.Add(a.refreshTokenTTL)
	a.lock.Lock()
	a.grants[refreshToken] = refreshGrant{adminID: adminID, expiresAt: refreshExpiry}
	a.lock.Unlock()
	return models.TokenPair{
		Access:  models.AuthToken{Value: accessToken, ExpiresAt: accessExpiry.Truncate(time.Second)},
		Refresh: models.AuthToken{Value: refreshToken, ExpiresAt: refreshExpiry.Truncate(time.Second)},
	}, nil
}

// verify returns the admin ID the access token was issued to.
func (a *tokenAuthority) verify(accessToken string) (string, error) {
	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	_, err := parser.ParseWithClaims(accessToken, &claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s", errInvalidAccessToken, err.Error())
	}
	if !claims.VerifyExpiresAt(a.now(), true) || !claims.VerifyIssuer(tokenIssuer, true) || claims.Subject == "" {
		return "", errInvalidAccessToken
	}
	return claims.Subject, nil
}

// rotate consumes the refresh token and issues a new pair for the same admin.
func (a *tokenAuthority) rotate(refreshToken string) (string, models.TokenPair, error) {
	a.lock.Lock()
	grant, found := a.grants[refreshToken]
	delete(a.grants, refreshToken)
	a.lock.Unlock()
	if !found || !a.now().Before(grant.expiresAt) {
		return "", models.TokenPair{}, errInvalidRefreshToken
	}
	tokens, err := a.issue(grant.adminID)
	return grant.adminID, tokens, err
}

// purgeExpired drops the refresh tokens that can no longer be used and returns how many there were.
func (a *tokenAuthority) purgeExpired() int {
	a.lock.Lock()
	defer a.lock.Unlock()
	now := a.now()
	purged := 0
	for token, grant := range a.grants {
		if !now.Before(grant.expiresAt) {
			delete(a.grants, token)
			purged++
		}
	}
	return purged
}

func (a *tokenAuthority) activeGrants() int {
	a.lock.Lock()
	defer a.lock.Unlock()
	return len(a.grants)
}
