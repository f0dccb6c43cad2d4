package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/identity-service/internal/model"
)

// MemoryUserRepo is an in-process credential store used with DB_DRIVER=memory
// and in tests. It honours the same uniqueness and conditional-update rules as
// UserRepo.
type MemoryUserRepo struct {
	mu    sync.RWMutex
	users map[string]model.Principal
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{users: make(map[string]model.Principal)}
}

func (r *MemoryUserRepo) FindByEmail(_ context.Context, email string) (model.Principal, error) {
	email = NormalizeEmail(email)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.users {
		if p.Email != nil && *p.Email == email {
			return clonePrincipal(p), nil
		}
	}
	return model.Principal{}, ErrNotFound
}

func (r *MemoryUserRepo) FindByID(_ context.Context, id string) (model.Principal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.users[id]
	if !ok {
		return model.Principal{}, ErrNotFound
	}
	return clonePrincipal(p), nil
}

func (r *MemoryUserRepo) FindByResetToken(_ context.Context, tokenHash string) (model.Principal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.users {
		if p.ResetTokenHash != nil && *p.ResetTokenHash == tokenHash {
			return clonePrincipal(p), nil
		}
	}
	return model.Principal{}, ErrNotFound
}

func (r *MemoryUserRepo) Create(_ context.Context, p model.Principal) (model.Principal, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	if p.Email != nil {
		e := NormalizeEmail(*p.Email)
		p.Email = &e
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[p.ID]; ok {
		return model.Principal{}, ErrEmailExists
	}
	for _, existing := range r.users {
		if sameValue(existing.Email, p.Email) || sameValue(existing.SocialID, p.SocialID) {
			return model.Principal{}, ErrEmailExists
		}
	}
	p.ResetTokenHash, p.ResetExpires = nil, nil
	r.users[p.ID] = clonePrincipal(p)
	return clonePrincipal(p), nil
}

func (r *MemoryUserRepo) SetResetToken(_ context.Context, id, tokenHash string, expires time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	exp := expires.UTC()
	p.ResetTokenHash = &tokenHash
	p.ResetExpires = &exp
	r.users[id] = p
	return nil
}

func (r *MemoryUserRepo) ConsumeResetToken(_ context.Context, id, tokenHash, passwordHash string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.users[id]
	if !ok || p.ResetTokenHash == nil || *p.ResetTokenHash != tokenHash || !p.HasPendingReset(now) {
		return false, nil
	}
	p.PasswordHash = &passwordHash
	p.ResetTokenHash, p.ResetExpires = nil, nil
	r.users[id] = p
	return true, nil
}

func (r *MemoryUserRepo) PurgeExpiredResets(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, p := range r.users {
		if p.ResetExpires != nil && !p.ResetExpires.After(now) {
			p.ResetTokenHash, p.ResetExpires = nil, nil
			r.users[id] = p
			n++
		}
	}
	return n, nil
}

func sameValue(a, b *string) bool {
	return a != nil && b != nil && *a == *b
}

// clonePrincipal copies the pointer fields so callers cannot mutate the
// stored record.
func clonePrincipal(p model.Principal) model.Principal {
	cp := p
	cp.Email = cloneStr(p.Email)
	cp.Name = cloneStr(p.Name)
	cp.PasswordHash = cloneStr(p.PasswordHash)
	cp.ResetTokenHash = cloneStr(p.ResetTokenHash)
	cp.Provider = cloneStr(p.Provider)
	cp.SocialID = cloneStr(p.SocialID)
	if p.ResetExpires != nil {
		t := *p.ResetExpires
		cp.ResetExpires = &t
	}
	return cp
}

func cloneStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
