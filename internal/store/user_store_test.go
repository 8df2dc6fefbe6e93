package store

import (
	"testing"

	"github.com/planwise/calendar-server/internal/models"
	"github.com/planwise/calendar-server/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUserStore(t *testing.T) *UserStore {
	t.Helper()
	s := NewUserStore(t.TempDir(), utils.NewLogger())
	require.NoError(t, s.Initialize())
	return s
}

func TestUserAppendAssignsIDs(t *testing.T) {
	s := newTestUserStore(t)

	alice := &models.AppUser{Name: "Alice", Email: "alice@example.com", Password: "pw"}
	bob := &models.AppUser{Name: "Bob", Email: "bob@example.com", Password: "pw"}
	require.NoError(t, s.Append(alice))
	require.NoError(t, s.Append(bob))

	assert.Equal(t, 1, alice.ID)
	assert.Equal(t, 2, bob.ID)
	assert.Equal(t, 3, s.NextID())
}

func TestFindByEmailIsCaseSensitive(t *testing.T) {
	s := newTestUserStore(t)
	require.NoError(t, s.Append(&models.AppUser{Email: "alice@example.com", Password: "pw"}))

	assert.NotNil(t, s.FindByEmail("alice@example.com"))
	assert.Nil(t, s.FindByEmail("Alice@Example.com"))
}

func TestUserUpdateByID(t *testing.T) {
	s := newTestUserStore(t)
	alice := &models.AppUser{Name: "Alice", Email: "alice@example.com", Password: "pw"}
	require.NoError(t, s.Append(alice))

	found, err := s.UpdateByID(alice.ID, models.AppUser{Name: "Alicia", Email: "alicia@example.com", Password: "pw2"})
	require.NoError(t, err)
	require.True(t, found)

	loaded := s.FindByID(alice.ID)
	require.NotNil(t, loaded)
	assert.Equal(t, "Alicia", loaded.Name)
	assert.Equal(t, "alicia@example.com", loaded.Email)

	found, err = s.UpdateByID(99, models.AppUser{Email: "x@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestUserDeleteByID(t *testing.T) {
	s := newTestUserStore(t)
	alice := &models.AppUser{Email: "alice@example.com", Password: "pw"}
	require.NoError(t, s.Append(alice))

	removed, err := s.DeleteByID(alice.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Empty(t, s.LoadAll())

	removed, err = s.DeleteByID(alice.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestDeletedUserIDIsNeverReused(t *testing.T) {
	s := newTestUserStore(t)
	alice := &models.AppUser{Email: "alice@example.com", Password: "pw"}
	bob := &models.AppUser{Email: "bob@example.com", Password: "pw"}
	require.NoError(t, s.Append(alice))
	require.NoError(t, s.Append(bob))

	_, err := s.DeleteByID(alice.ID)
	require.NoError(t, err)

	carol := &models.AppUser{Email: "carol@example.com", Password: "pw"}
	require.NoError(t, s.Append(carol))
	assert.Equal(t, 3, carol.ID)
}
