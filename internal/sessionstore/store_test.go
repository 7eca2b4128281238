package sessionstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/agencydesk/console/internal/apierrors"
	"github.com/agencydesk/console/internal/config"
	"github.com/agencydesk/console/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var compareOptions []cmp.Option = []cmp.Option{cmpopts.IgnoreUnexported(models.AuthToken{})}

func testTokens() models.TokenPair {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return models.TokenPair{
		Access:  models.AuthToken{Value: "access-token-value", ExpiresAt: now.Add(15 * time.Minute)},
		Refresh: models.AuthToken{Value: "refresh-token-value", ExpiresAt: now.Add(24 * time.Hour)},
	}
}

func testAdmin() models.Admin {
	return models.Admin{
		ID:           "0f8fad5b-d9cb-469f-a165-70867728950e",
		EmailAddress: "admin@example.com",
		Role:         models.RoleDefaultUser,
		Status:       models.AdminActive,
	}
}

type repositoryFactory func(t *testing.T) models.SessionRepository

var repositories map[string]repositoryFactory = map[string]repositoryFactory{
	"in memory": func(t *testing.T) models.SessionRepository {
		return NewInMemoryRepository()
	},
	"file": func(t *testing.T) models.SessionRepository {
		repo, err := NewFileRepository(WithFilePath(filepath.Join(t.TempDir(), "session.json")))
		require.NoError(t, err)
		return repo
	},
	"encrypted file": func(t *testing.T) models.SessionRepository {
		repo, err := NewFileRepository(
			WithFilePath(filepath.Join(t.TempDir(), "nested", "session.json")),
			WithFileEncryption("token-encryption-key-12345678910"),
		)
		require.NoError(t, err)
		return repo
	},
}

func TestStoreRoundTrip(t *testing.T) {
	for name, factory := range repositories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store, err := NewStore(WithRepository(factory(t)))
			require.NoError(t, err)
			tokens := testTokens()
			admin := testAdmin()

			require.NoError(t, store.SetTokens(ctx, tokens))
			require.NoError(t, store.SetAdmin(ctx, admin))

			storedTokens, err := store.Tokens(ctx)
			require.NoError(t, err)
			assert.Truef(
				t,
				cmp.Equal(tokens, storedTokens, compareOptions...),
				"The two values are not equal, diff is: %s\n",
				cmp.Diff(tokens, storedTokens, compareOptions...),
			)
			storedAdmin, err := store.Admin(ctx)
			require.NoError(t, err)
			assert.Equal(t, admin, storedAdmin)
		})
	}
}

func TestStoreReplacesTokensAsAWhole(t *testing.T) {
	for name, factory := range repositories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store, err := NewStore(WithRepository(factory(t)))
			require.NoError(t, err)
			require.NoError(t, store.SetTokens(ctx, testTokens()))
			replacement := models.TokenPair{Access: models.AuthToken{Value: "T2"}, Refresh: models.AuthToken{Value: "R2"}}
			require.NoError(t, store.SetTokens(ctx, replacement))

			stored, err := store.Tokens(ctx)
			require.NoError(t, err)
			assert.Equal(t, "T2", stored.Access.Value)
			assert.Equal(t, "R2", stored.Refresh.Value)
			assert.True(t, stored.Access.ExpiresAt.IsZero())
		})
	}
}

func TestStoreClear(t *testing.T) {
	for name, factory := range repositories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store, err := NewStore(WithRepository(factory(t)))
			require.NoError(t, err)
			require.NoError(t, store.SetTokens(ctx, testTokens()))
			require.NoError(t, store.SetAdmin(ctx, testAdmin()))

			require.NoError(t, store.Clear(ctx))
			_, err = store.Tokens(ctx)
			assert.ErrorIs(t, err, apierrors.ErrTokensNotFound)
			_, err = store.Admin(ctx)
			assert.ErrorIs(t, err, apierrors.ErrAdminNotFound)

			// clearing an empty session is fine
			require.NoError(t, store.Clear(ctx))
		})
	}
}

func TestStoreSessionsAreIsolated(t *testing.T) {
	for name, factory := range repositories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := factory(t)
			first, err := NewStore(WithRepository(repo), WithSessionName("first"))
			require.NoError(t, err)
			second, err := NewStore(WithRepository(repo), WithSessionName("second"))
			require.NoError(t, err)
			require.NoError(t, first.SetTokens(ctx, testTokens()))

			_, err = second.Tokens(ctx)
			assert.ErrorIs(t, err, apierrors.ErrTokensNotFound)
			require.NoError(t, second.Clear(ctx))
			_, err = first.Tokens(ctx)
			assert.NoError(t, err)
		})
	}
}

func TestStoreRejectsEmptyAccessToken(t *testing.T) {
	store, err := NewStore(WithRepository(NewInMemoryRepository()))
	require.NoError(t, err)
	err = store.SetTokens(context.Background(), models.TokenPair{Refresh: models.AuthToken{Value: "R1"}})
	assert.Error(t, err)
}

func TestNewStoreValidation(t *testing.T) {
	_, err := NewStore()
	assert.Error(t, err)
	_, err = NewStore(WithRepository(NewInMemoryRepository()), WithSessionName(""))
	assert.Error(t, err)
	store, err := NewStore(WithRepository(NewInMemoryRepository()))
	require.NoError(t, err)
	assert.Equal(t, "default", store.Name())
}

func TestFileRepositoryPersistsBetweenInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	repo, err := NewFileRepository(WithFilePath(path))
	require.NoError(t, err)
	tokens := testTokens()
	require.NoError(t, repo.SetTokens(ctx, "default", tokens))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened, err := NewFileRepository(WithFilePath(path))
	require.NoError(t, err)
	stored, err := reopened.GetTokens(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, tokens.Access.Value, stored.Access.Value)
	assert.True(t, tokens.Access.ExpiresAt.Equal(stored.Access.ExpiresAt))
}

func TestFileRepositoryEncryptsTokens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	repo, err := NewFileRepository(WithFilePath(path), WithFileEncryption("token-encryption-key-12345678910"))
	require.NoError(t, err)
	require.NoError(t, repo.SetTokens(ctx, "default", testTokens()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "access-token-value")
	assert.NotContains(t, string(raw), "refresh-token-value")

	plain, err := NewFileRepository(WithFilePath(path))
	require.NoError(t, err)
	stored, err := plain.GetTokens(ctx, "default")
	require.NoError(t, err)
	assert.NotEqual(t, "access-token-value", stored.Access.Value)
}

func TestFileRepositoryCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))
	repo, err := NewFileRepository(WithFilePath(path))
	require.NoError(t, err)
	_, err = repo.GetTokens(context.Background(), "default")
	assert.Error(t, err)
}

func TestFileRepositoryBadEncryptionKey(t *testing.T) {
	_, err := NewFileRepository(WithFileEncryption("short"))
	assert.Error(t, err)
}

func TestStoreWithConfig(t *testing.T) {
	tests := []struct {
		name          string
		sessionConfig config.SessionConfig
		redisConfig   config.RedisConfig
		expectedRepo  any
		expectErr     bool
	}{
		{
			name:          "memory",
			sessionConfig: config.SessionConfig{Store: config.SessionStoreMemory, Name: "default"},
			expectedRepo:  &InMemoryRepository{},
		},
		{
			name: "file",
			sessionConfig: config.SessionConfig{
				Store:    config.SessionStoreFile,
				Name:     "default",
				FilePath: filepath.Join(os.TempDir(), "adminconsole-test-session.json"),
				TokenEncryption: config.TokenEncryptionConfig{
					Enabled:   true,
					SecretKey: "token-encryption-key-12345678910",
				},
			},
			expectedRepo: &FileRepository{},
		},
		{
			name:          "redis mock",
			sessionConfig: config.SessionConfig{Store: config.SessionStoreRedis, Name: "ops"},
			redisConfig:   config.RedisConfig{Type: config.DBTypeRedisMock},
		},
		{
			name:          "unknown store",
			sessionConfig: config.SessionConfig{Store: "cookie", Name: "default"},
			expectErr:     true,
		},
		{
			name:          "redis without addresses",
			sessionConfig: config.SessionConfig{Store: config.SessionStoreRedis, Name: "default"},
			redisConfig:   config.RedisConfig{Type: config.DBTypeRedis},
			expectErr:     true,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			store, err := NewStore(WithConfig(test.sessionConfig, test.redisConfig))
			if test.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.sessionConfig.Name, store.Name())
			if test.expectedRepo != nil {
				assert.IsType(t, test.expectedRepo, store.repo)
			}
			ctx := context.Background()
			require.NoError(t, store.SetTokens(ctx, testTokens()))
			stored, err := store.Tokens(ctx)
			require.NoError(t, err)
			assert.Equal(t, "access-token-value", stored.Access.Value)
			require.NoError(t, store.Clear(ctx))
		})
	}
}
