package db

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/agencydesk/console/internal/apierrors"
	"github.com/agencydesk/console/internal/models"
)

const (
	tokensPrefix string = "tokens"
	adminPrefix  string = "admin"
)

const tokenExpiresAtLeeway time.Duration = 10 * time.Second

// storedTokens is the flat redis hash layout of a token pair
type storedTokens struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

type storedAdmin struct {
	ID           string
	EmailAddress string
	Role         string
	Status       string
}

// GetTokens reads the token pair of a session from Redis, decrypting the values if necessary.
func (r RedisAdapter) GetTokens(ctx context.Context, sessionName string) (models.TokenPair, error) {
	raw, err := r.rdb.HGetAll(ctx, r.tokensKey(sessionName)).Result()
	if err != nil {
		return models.TokenPair{}, err
	}
	stored := storedTokens{}
	err = r.deserializeToStruct(raw, &stored)
	if err != nil {
		if errors.Is(err, apierrors.ErrMissingDBResource) {
			err = apierrors.ErrTokensNotFound
		}
		return models.TokenPair{}, err
	}
	tokens := models.TokenPair{
		Access:  models.AuthToken{Value: stored.AccessToken, ExpiresAt: stored.AccessExpiresAt},
		Refresh: models.AuthToken{Value: stored.RefreshToken, ExpiresAt: stored.RefreshExpiresAt},
	}
	if r.encryptor == nil {
		return tokens, nil
	}
	decTokens, err := tokens.SetEncryptor(r.encryptor).Decrypt()
	if err != nil {
		return models.TokenPair{}, err
	}
	return decTokens.SetEncryptor(nil), nil
}

// SetTokens replaces the token pair of a session. The hash expires together with the refresh token.
func (r RedisAdapter) SetTokens(ctx context.Context, sessionName string, tokens models.TokenPair) error {
	encTokens, err := tokens.SetEncryptor(r.encryptor).Encrypt()
	if err != nil {
		return err
	}
	slog.Debug("SESSION REPOSITORY", "message", "saving tokens", "session", sessionName, "tokens", tokens)
	key := r.tokensKey(sessionName)
	stored := storedTokens{
		AccessToken:      encTokens.Access.Value,
		AccessExpiresAt:  encTokens.Access.ExpiresAt,
		RefreshToken:     encTokens.Refresh.Value,
		RefreshExpiresAt: encTokens.Refresh.ExpiresAt,
	}
	err = r.rdb.HSet(ctx, key, r.serializeStruct(stored)...).Err()
	if err != nil {
		return err
	}
	if tokens.Refresh.ExpiresAt.IsZero() {
		return r.rdb.Persist(ctx, key).Err()
	}
	return r.rdb.ExpireAt(ctx, key, tokens.Refresh.ExpiresAt.Add(tokenExpiresAtLeeway)).Err()
}

func (r RedisAdapter) RemoveTokens(ctx context.Context, sessionName string) error {
	return r.rdb.Del(ctx, r.tokensKey(sessionName)).Err()
}

func (r RedisAdapter) GetAdmin(ctx context.Context, sessionName string) (models.Admin, error) {
	raw, err := r.rdb.HGetAll(ctx, r.adminKey(sessionName)).Result()
	if err != nil {
		return models.Admin{}, err
	}
	stored := storedAdmin{}
	err = r.deserializeToStruct(raw, &stored)
	if err != nil {
		if errors.Is(err, apierrors.ErrMissingDBResource) {
			err = apierrors.ErrAdminNotFound
		}
		return models.Admin{}, err
	}
	return models.Admin{
		ID:           stored.ID,
		EmailAddress: stored.EmailAddress,
		Role:         models.AdminRole(stored.Role),
		Status:       models.AdminStatus(stored.Status),
	}, nil
}

func (r RedisAdapter) SetAdmin(ctx context.Context, sessionName string, admin models.Admin) error {
	stored := storedAdmin{
		ID:           admin.ID,
		EmailAddress: admin.EmailAddress,
		Role:         string(admin.Role),
		Status:       string(admin.Status),
	}
	return r.rdb.HSet(ctx, r.adminKey(sessionName), r.serializeStruct(stored)...).Err()
}

func (r RedisAdapter) RemoveAdmin(ctx context.Context, sessionName string) error {
	return r.rdb.Del(ctx, r.adminKey(sessionName)).Err()
}

func (r RedisAdapter) tokensKey(sessionName string) string {
	return r.keyPrefix + ":" + tokensPrefix + ":" + sessionName
}

func (r RedisAdapter) adminKey(sessionName string) string {
	return r.keyPrefix + ":" + adminPrefix + ":" + sessionName
}
