package service

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/planwise/calendar-server/internal/models"
	"github.com/planwise/calendar-server/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackupService(t *testing.T) (*BackupService, *EventService, *UserService, testStores) {
	t.Helper()
	s := newTestStores(t)
	logger := utils.NewLogger()
	backups := NewBackupService(s.events, s.rules, s.users, t.TempDir(), logger)
	events := NewEventService(s.events, s.rules, logger)
	users := NewUserService(s.users, s.events, s.rules, PlaintextVerifier{}, "test-secret-key", logger)
	return backups, events, users, s
}

func seedDataset(t *testing.T, events *EventService, users *UserService) {
	t.Helper()
	alice := &models.AppUser{Name: "Alice", Email: "alice@example.com", Password: "pw"}
	require.NoError(t, users.SaveUser(alice))

	recurring := singleEvent("daily, with commas")
	recurring.UserID = alice.ID
	recurring.RecurrentInterval = "1d"
	recurring.RecurrentTimes = "3"
	_, err := events.SaveEvent(recurring)
	require.NoError(t, err)
}

func sortedCopy(lines []string) []string {
	out := append([]string(nil), lines...)
	sort.Strings(out)
	return out
}

func TestBackupDefaultNameAndSuffix(t *testing.T) {
	backups, _, _, _ := newTestBackupService(t)

	path, err := backups.BackupAll("")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "backup_"))
	assert.True(t, strings.HasSuffix(path, ".csv"))

	path, err = backups.BackupAll("nightly")
	require.NoError(t, err)
	assert.Equal(t, "nightly.csv", filepath.Base(path))
}

func TestBackupRestoreReplaceRoundTrip(t *testing.T) {
	backups, events, users, stores := newTestBackupService(t)
	seedDataset(t, events, users)

	wantEvents := sortedCopy(stores.events.RawLines())
	wantRules := sortedCopy(stores.rules.RawLines())
	wantUsers := sortedCopy(stores.users.RawLines())
	require.NotEmpty(t, wantEvents)

	_, err := backups.BackupAll("snapshot")
	require.NoError(t, err)

	// Mangle the live tables, then restore over them.
	require.NoError(t, os.WriteFile(stores.events.Path(), []byte("id,userId,title,description,startDateTime,endDateTime,category\n"), 0o644))
	require.NoError(t, os.Remove(stores.users.Path()))

	require.NoError(t, backups.RestoreAll("snapshot", false))

	assert.Equal(t, wantEvents, sortedCopy(stores.events.RawLines()))
	assert.Equal(t, wantRules, sortedCopy(stores.rules.RawLines()))
	assert.Equal(t, wantUsers, sortedCopy(stores.users.RawLines()))
}

func TestRestoreAppendKeepsExistingRows(t *testing.T) {
	backups, events, users, stores := newTestBackupService(t)
	seedDataset(t, events, users)

	_, err := backups.BackupAll("snapshot")
	require.NoError(t, err)

	before := len(stores.events.RawLines())
	require.NoError(t, backups.RestoreAll("snapshot", true))

	// Rows are doubled, none overwritten, and the header appears once.
	assert.Len(t, stores.events.RawLines(), before*2)
	data, err := os.ReadFile(stores.events.Path())
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "id,userId,title"))
}

func TestRestoreMissingBackup(t *testing.T) {
	backups, _, _, _ := newTestBackupService(t)
	assert.ErrorIs(t, backups.RestoreAll("nope", false), ErrNotFound)
}

func TestRestoreSkipsUnknownMarkers(t *testing.T) {
	backups, events, users, stores := newTestBackupService(t)
	seedDataset(t, events, users)

	path, err := backups.BackupAll("snapshot")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	tampered := "#FUTURE_MARKER=xyz\n" + string(data)
	require.NoError(t, os.WriteFile(path, []byte(tampered), 0o644))

	rowsBefore := len(stores.events.RawLines())
	require.NoError(t, backups.RestoreAll("snapshot", false))
	assert.Len(t, stores.events.RawLines(), rowsBefore)
}

func TestListBackups(t *testing.T) {
	backups, _, _, _ := newTestBackupService(t)

	list, err := backups.ListBackups()
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = backups.BackupAll("first")
	require.NoError(t, err)
	_, err = backups.BackupAll("second")
	require.NoError(t, err)

	list, err = backups.ListBackups()
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, info := range list {
		assert.True(t, strings.HasSuffix(info.Name, ".csv"))
		assert.Greater(t, info.Size, int64(0))
		assert.True(t, filepath.IsAbs(info.Path))
		assert.False(t, info.LastModified.IsZero())
	}
}

func TestDeleteBackupSanitizesName(t *testing.T) {
	backups, _, _, _ := newTestBackupService(t)

	_, err := backups.BackupAll("victim")
	require.NoError(t, err)

	// Traversal components are stripped down to the base filename.
	require.NoError(t, backups.DeleteBackup("../../victim.csv"))

	list, err := backups.ListBackups()
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.ErrorIs(t, backups.DeleteBackup("victim.csv"), ErrNotFound)
}
