package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/identity-service/internal/database"
	"github.com/iliyamo/identity-service/internal/model"
)

const userColumns = "id,email,name,password_hash,password_reset_token,password_reset_expires,provider,social_id,is_active,created_at"

// UserRepo is the SQL credential store. Queries are written with '?'
// placeholders and rebound for the configured driver.
type UserRepo struct {
	DB     *sql.DB
	driver string
}

func NewUserRepo(db *sql.DB, driver string) *UserRepo { return &UserRepo{DB: db, driver: driver} }

func (r *UserRepo) q(query string) string { return database.Rebind(r.driver, query) }

// FindByEmail fetches a principal by normalized email.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (model.Principal, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		r.q("SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1"),
		NormalizeEmail(email)))
}

// FindByID fetches a principal by id.
func (r *UserRepo) FindByID(ctx context.Context, id string) (model.Principal, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		r.q("SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1"),
		id))
}

// FindByResetToken fetches the principal holding the given reset token hash.
// Expiry is not checked here.
func (r *UserRepo) FindByResetToken(ctx context.Context, tokenHash string) (model.Principal, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		r.q("SELECT "+userColumns+" FROM users WHERE password_reset_token=? LIMIT 1"),
		tokenHash))
}

// Create inserts p. An empty ID is replaced with a new UUID and a zero
// CreatedAt with the current time. The stored principal is returned.
func (r *UserRepo) Create(ctx context.Context, p model.Principal) (model.Principal, error) {
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
	_, err := r.DB.ExecContext(ctx,
		r.q("INSERT INTO users (id,email,name,password_hash,provider,social_id,is_active,created_at) VALUES (?,?,?,?,?,?,?,?)"),
		p.ID, p.Email, p.Name, p.PasswordHash, p.Provider, p.SocialID, p.IsActive, p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Principal{}, ErrEmailExists
		}
		return model.Principal{}, err
	}
	return p, nil
}

// SetResetToken stores a reset token hash and its expiry in one write,
// replacing any pending token.
func (r *UserRepo) SetResetToken(ctx context.Context, id, tokenHash string, expires time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		r.q("UPDATE users SET password_reset_token=?, password_reset_expires=? WHERE id=?"),
		tokenHash, expires.UTC(), id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// ConsumeResetToken replaces the password hash and clears the reset pair,
// but only while the token is still the pending one and unexpired at now.
// It reports false when another request got there first or the token
// expired in between.
func (r *UserRepo) ConsumeResetToken(ctx context.Context, id, tokenHash, passwordHash string, now time.Time) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		r.q(`UPDATE users SET password_hash=?, password_reset_token=NULL, password_reset_expires=NULL
			WHERE id=? AND password_reset_token=? AND password_reset_expires > ?`),
		passwordHash, id, tokenHash, now.UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// PurgeExpiredResets clears every reset pair whose expiry is at or before now
// and returns how many principals were touched.
func (r *UserRepo) PurgeExpiredResets(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		r.q(`UPDATE users SET password_reset_token=NULL, password_reset_expires=NULL
			WHERE password_reset_expires IS NOT NULL AND password_reset_expires <= ?`),
		now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *UserRepo) scanOne(row *sql.Row) (model.Principal, error) {
	var (
		p                                            model.Principal
		email, name, hash, token, provider, socialID sql.NullString
		expires                                      sql.NullTime
	)
	err := row.Scan(&p.ID, &email, &name, &hash, &token, &expires, &provider, &socialID, &p.IsActive, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Principal{}, ErrNotFound
	}
	if err != nil {
		return model.Principal{}, err
	}
	p.Email = nullString(email)
	p.Name = nullString(name)
	p.PasswordHash = nullString(hash)
	p.ResetTokenHash = nullString(token)
	p.Provider = nullString(provider)
	p.SocialID = nullString(socialID)
	if expires.Valid {
		t := expires.Time.UTC()
		p.ResetExpires = &t
	}
	return p, nil
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// NormalizeEmail lowercases and trims an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
