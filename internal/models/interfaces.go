package models

import (
	"context"
)

type IDGenerator interface {
	ID() (string, error)
}

type TokensGetter interface {
	GetTokens(ctx context.Context, sessionName string) (TokenPair, error)
}

type TokensSetter interface {
	SetTokens(ctx context.Context, sessionName string, tokens TokenPair) error
}

type TokensRemover interface {
	RemoveTokens(ctx context.Context, sessionName string) error
}

type AdminGetter interface {
	GetAdmin(ctx context.Context, sessionName string) (Admin, error)
}

type AdminSetter interface {
	SetAdmin(ctx context.Context, sessionName string, admin Admin) error
}

type AdminRemover interface {
	RemoveAdmin(ctx context.Context, sessionName string) error
}

// SessionRepository persists the state of admin sessions.
type SessionRepository interface {
	TokensGetter
	TokensSetter
	TokensRemover
	AdminGetter
	AdminSetter
	AdminRemover
}
