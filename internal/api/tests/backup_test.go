package api_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/planwise/calendar-server/internal/api/testutils"
	"github.com/planwise/calendar-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupLifecycle(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/events",
		saveEventReq("backed up"),
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	require.Equal(t, http.StatusCreated, w.Code)

	// Create a named backup
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/backups",
		models.BackupRequest{Name: "pre-upgrade"},
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.BackupResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.Path)

	// List backups
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/backups",
		nil,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	require.Equal(t, http.StatusOK, w.Code)

	var list models.BackupListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Backups, 1)
	assert.Equal(t, "pre-upgrade.csv", list.Backups[0].Name)

	// Restore in replace mode
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/backups/pre-upgrade.csv/restore",
		models.RestoreRequest{Append: false},
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, testCtx.Events.LoadEvents(), 1)

	// Delete the backup
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodDelete,
		"/api/backups/pre-upgrade.csv",
		nil,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodDelete,
		"/api/backups/pre-upgrade.csv",
		nil,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRestoreMissingBackupEndpoint(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/backups/never-made.csv/restore",
		models.RestoreRequest{},
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
