package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rbreg/entity"
	"rbreg/impl/registry"
	"rbreg/internal/database"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAuth() (*Auth, *registry.Registry, database.Store) {
	db := database.NewMemory()
	reg := registry.New(db, discard())
	a := New(db, reg, discard())
	a.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }
	return a, reg, db
}

func TestUserByToken(t *testing.T) {
	a, _, db := testAuth()
	ctx := context.Background()

	require.NoError(t, db.Set(ctx, "users/u1", entity.User{Uid: "u1", Token: "tok-1", Email: "a@example.com"}))
	require.NoError(t, db.Set(ctx, "users/u2", entity.User{Uid: "u2", Token: "tok-2"}))

	user, err := a.UserByToken(ctx, "tok-2")
	require.NoError(t, err)
	assert.Equal(t, "u2", user.Uid)

	_, err = a.UserByToken(ctx, "tok-unknown")
	assert.Error(t, err)

	_, err = a.UserByToken(ctx, "")
	assert.Error(t, err)
}

func TestCompleteProfile(t *testing.T) {
	a, _, db := testAuth()
	ctx := context.Background()

	user := &entity.User{Uid: "u1", Token: "tok-1", Email: "a@example.com"}
	require.NoError(t, db.Set(ctx, "users/u1", user))

	updated, err := a.CompleteProfile(ctx, user, &entity.ProfileForm{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Role:      entity.RoleMentor,
	})
	require.NoError(t, err)
	assert.True(t, updated.ProfileComplete())
	assert.Equal(t, "a@example.com", updated.Email)

	var stored entity.User
	found, err := db.Get(ctx, "users/u1", &stored)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Ada", stored.FirstName)
	assert.Equal(t, entity.RoleMentor, stored.Role)
	assert.NotZero(t, stored.CreatedAt)
	// The credential survives the merge untouched.
	assert.Equal(t, "tok-1", stored.Token)
}

func TestDeleteAccountCascades(t *testing.T) {
	a, reg, db := testAuth()
	ctx := context.Background()

	user := &entity.User{Uid: "u1", Token: "tok-1", Email: "a@example.com"}
	require.NoError(t, db.Set(ctx, "users/u1", user))
	event, status, err := reg.Create(ctx, user, &entity.EventForm{
		Name:      "Scrimmage",
		Date:      "2030-06-01",
		StartTime: "10:00",
		EndTime:   "16:00",
		Timezone:  "UTC",
	})
	require.NoError(t, err)
	require.Nil(t, status)

	require.NoError(t, a.DeleteAccount(ctx, "u1"))

	var stored entity.User
	found, err := db.Get(ctx, "users/u1", &stored)
	require.NoError(t, err)
	assert.False(t, found)

	loaded, err := reg.Load(ctx, event.Uid)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}
