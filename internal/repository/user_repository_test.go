package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/identity-service/internal/config"
	"github.com/iliyamo/identity-service/internal/model"
)

var principalCols = []string{
	"id", "email", "name", "password_hash", "password_reset_token",
	"password_reset_expires", "provider", "social_id", "is_active", "created_at",
}

func newMockRepo(t *testing.T, driver string) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewUserRepo(db, driver), mock
}

func TestUserRepo_FindByEmail(t *testing.T) {
	repo, mock := newMockRepo(t, config.DriverMySQL)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	exp := created.Add(time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email=? LIMIT 1")).
		WithArgs("ana@example.com").
		WillReturnRows(sqlmock.NewRows(principalCols).
			AddRow("id-1", "ana@example.com", "Ana", "hash", "tok", exp, nil, nil, true, created))

	p, err := repo.FindByEmail(context.Background(), "  Ana@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "id-1", p.ID)
	assert.Equal(t, "ana@example.com", p.EmailValue())
	require.NotNil(t, p.PasswordHash)
	assert.Equal(t, "hash", *p.PasswordHash)
	require.NotNil(t, p.ResetExpires)
	assert.True(t, exp.Equal(*p.ResetExpires))
	assert.Nil(t, p.Provider)
	assert.True(t, p.IsActive)
}

func TestUserRepo_FindByID_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t, config.DriverMySQL)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id=? LIMIT 1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepo_FindByResetToken_Postgres(t *testing.T) {
	repo, mock := newMockRepo(t, config.DriverPostgres)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE password_reset_token=$1 LIMIT 1")).
		WithArgs("hash").
		WillReturnRows(sqlmock.NewRows(principalCols).
			AddRow("id-2", nil, nil, nil, "hash", nil, "google", "g-1", true, time.Now()))

	p, err := repo.FindByResetToken(context.Background(), "hash")
	require.NoError(t, err)
	assert.Equal(t, "id-2", p.ID)
	assert.Nil(t, p.Email)
	assert.Nil(t, p.PasswordHash)
	require.NotNil(t, p.SocialID)
	assert.Equal(t, "g-1", *p.SocialID)
}

func TestUserRepo_Create(t *testing.T) {
	repo, mock := newMockRepo(t, config.DriverMySQL)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs(sqlmock.AnyArg(), "ana@example.com", "Ana", "hash", nil, nil, true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	p, err := repo.Create(context.Background(), model.Principal{
		Email:        model.StrPtr("ANA@example.com"),
		Name:         model.StrPtr("Ana"),
		PasswordHash: model.StrPtr("hash"),
		IsActive:     true,
	})
	require.NoError(t, err)
	assert.Len(t, p.ID, 36)
	assert.Equal(t, "ana@example.com", p.EmailValue())
	assert.False(t, p.CreatedAt.IsZero())
}

func TestUserRepo_Create_Duplicate(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		err    error
	}{
		{name: "mysql", driver: config.DriverMySQL, err: &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}},
		{name: "postgres", driver: config.DriverPostgres, err: &pgconn.PgError{Code: pgerrcode.UniqueViolation}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t, tt.driver)
			mock.ExpectExec("INSERT INTO users").WillReturnError(tt.err)

			_, err := repo.Create(context.Background(), model.Principal{Email: model.StrPtr("a@b.c")})
			assert.ErrorIs(t, err, ErrEmailExists)
		})
	}
}

func TestUserRepo_Create_OtherError(t *testing.T) {
	repo, mock := newMockRepo(t, config.DriverMySQL)
	boom := errors.New("connection reset")
	mock.ExpectExec("INSERT INTO users").WillReturnError(boom)

	_, err := repo.Create(context.Background(), model.Principal{})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrEmailExists)
}

func TestUserRepo_SetResetToken(t *testing.T) {
	repo, mock := newMockRepo(t, config.DriverPostgres)
	exp := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET password_reset_token=$1, password_reset_expires=$2 WHERE id=$3")).
		WithArgs("hash", exp, "id-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetResetToken(context.Background(), "id-1", "hash", exp))

	mock.ExpectExec("UPDATE users SET password_reset_token").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.SetResetToken(context.Background(), "gone", "hash", exp), ErrNotFound)
}

func TestUserRepo_ConsumeResetToken(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 30, 0, 0, time.UTC)

	repo, mock := newMockRepo(t, config.DriverMySQL)
	mock.ExpectExec(`UPDATE users SET password_hash=\?, password_reset_token=NULL, password_reset_expires=NULL\s+WHERE id=\? AND password_reset_token=\? AND password_reset_expires > \?`).
		WithArgs("newhash", "id-1", "tok", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.ConsumeResetToken(context.Background(), "id-1", "tok", "newhash", now)
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectExec("UPDATE users SET password_hash").
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = repo.ConsumeResetToken(context.Background(), "id-1", "tok", "newhash", now)
	require.NoError(t, err)
	assert.False(t, ok, "second consumer must lose")
}

func TestUserRepo_PurgeExpiredResets(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo, mock := newMockRepo(t, config.DriverMySQL)
	mock.ExpectExec(`password_reset_expires IS NOT NULL AND password_reset_expires <= \?`).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.PurgeExpiredResets(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
