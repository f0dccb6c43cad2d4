package service

import (
	"context"
	"time"

	"github.com/iliyamo/identity-service/internal/model"
	"github.com/iliyamo/identity-service/internal/utils"
)

// CredentialStore persists principals. Lookups return repository.ErrNotFound
// when nothing matches; Create returns repository.ErrEmailExists on a
// duplicate email or social id.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (model.Principal, error)
	FindByID(ctx context.Context, id string) (model.Principal, error)
	FindByResetToken(ctx context.Context, tokenHash string) (model.Principal, error)
	Create(ctx context.Context, p model.Principal) (model.Principal, error)
	SetResetToken(ctx context.Context, id, tokenHash string, expires time.Time) error
	ConsumeResetToken(ctx context.Context, id, tokenHash, passwordHash string, now time.Time) (bool, error)
	PurgeExpiredResets(ctx context.Context, now time.Time) (int64, error)
}

// Notifier delivers a rendered email.
type Notifier interface {
	Send(ctx context.Context, to, subject, textBody, htmlBody string) error
}

// ResetLocker claims a reset token hash for the duration of a confirm.
type ResetLocker interface {
	Acquire(ctx context.Context, tokenHash string) (bool, error)
	Release(ctx context.Context, tokenHash string) error
}

// Translator resolves a message key for the language carried by ctx.
type Translator interface {
	Translate(ctx context.Context, key string, args map[string]string) string
}

// Recorder counts operation outcomes.
type Recorder interface {
	Observe(operation, outcome string)
}

// TokenCodec signs and verifies one kind of token.
type TokenCodec interface {
	Issue(claims utils.Claims) (utils.Token, error)
	Verify(raw string) (*utils.Claims, error)
}
