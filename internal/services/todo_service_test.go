package services

import (
	"context"
	"testing"

	"github.com/isdelr/todolist-web/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTodoService_ListByUserAndStatus(t *testing.T) {
	db := setupDB(t)
	users := NewUserService(db)
	s := NewTodoService(db)
	ctx := context.Background()

	ada, err := users.Create(ctx, models.User{Email: "ada@x", PasswordHash: "h"})
	require.NoError(t, err)
	bob, err := users.Create(ctx, models.User{Email: "bob@x", PasswordHash: "h"})
	require.NoError(t, err)

	for _, todo := range []models.Todo{
		{UserID: ada.ID, Title: "a1", Status: models.StatusTodo},
		{UserID: ada.ID, Title: "a2", Status: models.StatusDone},
		{UserID: ada.ID, Title: "a3", Status: models.StatusTodo},
		{UserID: bob.ID, Title: "b1", Status: models.StatusDone},
	} {
		_, err := s.Create(ctx, todo)
		require.NoError(t, err)
	}

	all, err := s.ListByUser(ctx, ada.ID)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	for _, todo := range all {
		assert.Equal(t, ada.ID, todo.UserID)
	}

	open, err := s.ListByUserAndStatus(ctx, ada.ID, models.StatusTodo)
	require.NoError(t, err)
	assert.Len(t, open, 2)

	done, err := s.ListByUserAndStatus(ctx, ada.ID, models.StatusDone)
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, "a2", done[0].Title)
	assert.Equal(t, models.StatusDone, done[0].Status)

	none, err := s.ListByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestTodoService_CreateRejectsUnknownStatus(t *testing.T) {
	s := NewTodoService(setupDB(t))
	_, err := s.Create(context.Background(), models.Todo{UserID: "u", Title: "x", Status: "LATER"})
	assert.Error(t, err)
}
