package sessionstore

import (
	"context"
	"sync"

	"github.com/agencydesk/console/internal/apierrors"
	"github.com/agencydesk/console/internal/models"
)

type InMemoryRepository struct {
	lock   *sync.RWMutex
	tokens map[string]models.TokenPair
	admins map[string]models.Admin
}

func (db *InMemoryRepository) GetTokens(ctx context.Context, sessionName string) (models.TokenPair, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()
	tokens, found := db.tokens[sessionName]
	if !found {
		return models.TokenPair{}, apierrors.ErrTokensNotFound
	}
	return tokens, nil
}

func (db *InMemoryRepository) SetTokens(ctx context.Context, sessionName string, tokens models.TokenPair) error {
	db.lock.Lock()
	defer db.lock.Unlock()
	db.tokens[sessionName] = tokens
	return nil
}

func (db *InMemoryRepository) RemoveTokens(ctx context.Context, sessionName string) error {
	db.lock.Lock()
	defer db.lock.Unlock()
	delete(db.tokens, sessionName)
	return nil
}

func (db *InMemoryRepository) GetAdmin(ctx context.Context, sessionName string) (models.Admin, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()
	admin, found := db.admins[sessionName]
	if !found {
		return models.Admin{}, apierrors.ErrAdminNotFound
	}
	return admin, nil
}

func (db *InMemoryRepository) SetAdmin(ctx context.Context, sessionName string, admin models.Admin) error {
	db.lock.Lock()
	defer db.lock.Unlock()
	db.admins[sessionName] = admin
	return nil
}

func (db *InMemoryRepository) RemoveAdmin(ctx context.Context, sessionName string) error {
	db.lock.Lock()
	defer db.lock.Unlock()
	delete(db.admins, sessionName)
	return nil
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		lock:   &sync.RWMutex{},
		tokens: map[string]models.TokenPair{},
		admins: map[string]models.Admin{},
	}
}
