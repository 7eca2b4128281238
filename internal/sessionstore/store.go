// Package sessionstore keeps the token pair and admin profile of the console session between runs.
package sessionstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/agencydesk/console/internal/apierrors"
	"github.com/agencydesk/console/internal/config"
	"github.com/agencydesk/console/internal/db"
	"github.com/agencydesk/console/internal/models"
)

// Store is the persisted session state of one named admin session.
type Store struct {
	name string
	repo models.SessionRepository
}

func (s *Store) Name() string {
	return s.name
}

// Tokens returns the persisted token pair or apierrors.ErrTokensNotFound.
func (s *Store) Tokens(ctx context.Context) (models.TokenPair, error) {
	return s.repo.GetTokens(ctx, s.name)
}

// SetTokens replaces the persisted token pair as a whole.
func (s *Store) SetTokens(ctx context.Context, tokens models.TokenPair) error {
	if tokens.Access.Value == "" {
		return fmt.Errorf("cannot persist a token pair without an access token")
	}
	return s.repo.SetTokens(ctx, s.name, tokens)
}

func (s *Store) Admin(ctx context.Context) (models.Admin, error) {
	return s.repo.GetAdmin(ctx, s.name)
}

func (s *Store) SetAdmin(ctx context.Context, admin models.Admin) error {
	return s.repo.SetAdmin(ctx, s.name, admin)
}

// Clear removes the tokens and the admin profile. Missing entries are not an error.
func (s *Store) Clear(ctx context.Context) error {
	err := s.repo.RemoveTokens(ctx, s.name)
	if err != nil && !errors.Is(err, apierrors.ErrTokensNotFound) {
		return err
	}
	err = s.repo.RemoveAdmin(ctx, s.name)
	if err != nil && !errors.Is(err, apierrors.ErrAdminNotFound) {
		return err
	}
	slog.Debug("SESSION STORE", "message", "session cleared", "session", s.name)
	return nil
}

type StoreOption func(*Store) error

func WithSessionName(name string) StoreOption {
	return func(s *Store) error {
		if name == "" {
			return fmt.Errorf("the session name cannot be empty")
		}
		s.name = name
		return nil
	}
}

func WithRepository(repo models.SessionRepository) StoreOption {
	return func(s *Store) error {
		s.repo = repo
		return nil
	}
}

// WithConfig selects and initializes the repository named in the session configuration.
func WithConfig(sessionConfig config.SessionConfig, redisConfig config.RedisConfig) StoreOption {
	return func(s *Store) error {
		s.name = sessionConfig.Name
		secretKey := ""
		if sessionConfig.TokenEncryption.Enabled {
			secretKey = string(sessionConfig.TokenEncryption.SecretKey)
		}
		switch sessionConfig.Store {
		case config.SessionStoreMemory:
			s.repo = NewInMemoryRepository()
			return nil
		case config.SessionStoreFile:
			fileOptions := []FileRepositoryOption{}
			if sessionConfig.FilePath != "" {
				fileOptions = append(fileOptions, WithFilePath(sessionConfig.FilePath))
			}
			if secretKey != "" {
				fileOptions = append(fileOptions, WithFileEncryption(secretKey))
			}
			repo, err := NewFileRepository(fileOptions...)
			if err != nil {
				return err
			}
			s.repo = repo
			return nil
		case config.SessionStoreRedis:
			dbOptions := []db.RedisAdapterOption{db.WithRedisConfig(redisConfig)}
			if secretKey != "" {
				slog.Info("redis encryption is enabled")
				dbOptions = append(dbOptions, db.WithEncryption(secretKey))
			}
			repo, err := db.NewRedisAdapter(dbOptions...)
			if err != nil {
				return err
			}
			s.repo = repo
			return nil
		default:
			return fmt.Errorf("unrecognized session store %v", sessionConfig.Store)
		}
	}
}

func NewStore(options ...StoreOption) (*Store, error) {
	s := Store{name: "default"}
	for _, opt := range options {
		err := opt(&s)
		if err != nil {
			return &Store{}, err
		}
	}
	if s.repo == nil {
		return &Store{}, fmt.Errorf("session repository not initialized")
	}
	if s.name == "" {
		return &Store{}, fmt.Errorf("the session name cannot be empty")
	}
	return &s, nil
}
