package account

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourorg/paper-broker/internal/domain"
	pgRepo "github.com/yourorg/paper-broker/internal/repository/postgres"
	"golang.org/x/crypto/bcrypt"
)

func newService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		raw.Close()
	})
	svc, err := NewService(pgRepo.NewUserRepo(sqlx.NewDb(raw, "sqlmock")), bcrypt.MinCost)
	require.NoError(t, err)
	return svc, mock
}

func userRow(id uuid.UUID, username, password string) *sqlmock.Rows {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return sqlmock.NewRows([]string{"id", "username", "password_hash", "cash", "created_at"}).
		AddRow(id.String(), username, string(hash), "10000.00", time.Now())
}

func TestRegister_GrantsStartingCash(t *testing.T) {
	svc, mock := newService(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(sqlmock.AnyArg(), "alice", sqlmock.AnyArg(), domain.StartingCash).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	u, err := svc.Register(context.Background(), "alice", "pw", "pw")
	require.NoError(t, err)
	assert.Equal(t, "10000.00", u.Cash.StringFixed(2))
	assert.NotEqual(t, "pw", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("pw")))
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name                string
		user, pass, confirm string
		want                error
	}{
		{"no username", "", "pw", "pw", domain.ErrUsernameRequired},
		{"no password", "alice", "", "pw", domain.ErrPasswordRequired},
		{"no confirmation", "alice", "pw", "", domain.ErrPasswordRequired},
		{"mismatch", "alice", "pw", "wp", domain.ErrPasswordMismatch},
		{"password too long", "alice", strings.Repeat("a", 73), strings.Repeat("a", 73), domain.ErrPasswordTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService(t)
			_, err := svc.Register(context.Background(), tt.user, tt.pass, tt.confirm)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, mock := newService(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := svc.Register(context.Background(), "alice", "pw", "pw")
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), "alice", "pw2", "pw2")
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)
}

func TestAuthenticate(t *testing.T) {
	id := uuid.New()

	t.Run("ok", func(t *testing.T) {
		svc, mock := newService(t)
		mock.ExpectQuery(`WHERE username = \$1`).WithArgs("alice").WillReturnRows(userRow(id, "alice", "secret"))

		u, err := svc.Authenticate(context.Background(), "alice", "secret")
		require.NoError(t, err)
		assert.Equal(t, id, u.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, mock := newService(t)
		mock.ExpectQuery(`WHERE username = \$1`).WithArgs("alice").WillReturnRows(userRow(id, "alice", "secret"))

		_, err := svc.Authenticate(context.Background(), "alice", "guess")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc, mock := newService(t)
		mock.ExpectQuery(`WHERE username = \$1`).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

		_, err := svc.Authenticate(context.Background(), "ghost", "x")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("store error", func(t *testing.T) {
		svc, mock := newService(t)
		mock.ExpectQuery(`WHERE username = \$1`).WithArgs("alice").WillReturnError(errors.New("db down"))

		_, err := svc.Authenticate(context.Background(), "alice", "x")
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("missing fields", func(t *testing.T) {
		svc, _ := newService(t)
		_, err := svc.Authenticate(context.Background(), "", "x")
		assert.ErrorIs(t, err, domain.ErrUsernameRequired)
		_, err = svc.Authenticate(context.Background(), "alice", "")
		assert.ErrorIs(t, err, domain.ErrPasswordRequired)
	})
}
