package services

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/isdelr/todolist-web/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_DriverErrorsAreNotNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	s := NewUserService(db)
	boom := errors.New("disk I/O error")

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = ?")).
		WithArgs("ada@x").
		WillReturnError(boom)
	_, err = s.FindByEmail(context.Background(), "Ada@x")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNotFound)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).WillReturnError(boom)
	_, err = s.Create(context.Background(), models.User{Email: "ada@x"})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrDuplicateEmail)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users")).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewErrorResult(boom))
	err = s.Remove(context.Background(), "u1")
	assert.ErrorIs(t, err, boom)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTodoService_ScanErrorPropagates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows := sqlmock.NewRows([]string{"id", "user_id", "title", "status", "created_at"}).
		AddRow("t1", "u1", "x", "TODO", "not a time")
	mock.ExpectQuery(regexp.QuoteMeta("FROM todos WHERE user_id = ?")).WillReturnRows(rows)

	_, err = NewTodoService(db).ListByUser(context.Background(), "u1")
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
