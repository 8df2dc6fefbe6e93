package api_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/planwise/calendar-server/internal/api/testutils"
	"github.com/planwise/calendar-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saveEventReq(title string) models.SaveEventRequest {
	return models.SaveEventRequest{
		Title:         title,
		Description:   "created by test",
		StartDateTime: "2026-01-05T09:00:00",
		EndDateTime:   "2026-01-05T10:00:00",
		Category:      "WORK",
	}
}

func TestCreateAndListEvents(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/events",
		saveEventReq("planning"),
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.EventResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotNil(t, created.Event)
	assert.Equal(t, 1, created.Event.ID)
	assert.Equal(t, testCtx.TestUserID, created.Event.UserID)

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/events",
		nil,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	require.Equal(t, http.StatusOK, w.Code)

	var listed models.EventsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed.Events, 1)
	assert.Equal(t, "planning", listed.Events[0].Title)
	assert.Equal(t, "2026-01-05T09:00:00", listed.Events[0].StartDateTime.String())
}

func TestCreateRecurringEvent(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	req := saveEventReq("standup")
	req.RecurrentInterval = "1d"
	req.RecurrentTimes = "3"

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/events",
		req,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.EventResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Len(t, created.Instances, 3)
}

func TestCreateEventValidation(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	bad := saveEventReq("bad times")
	bad.StartDateTime = "05/01/2026 09:00"

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/events",
		bad,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateEvent(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/events",
		saveEventReq("original"),
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.EventResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPut,
		fmt.Sprintf("/api/events/%d", created.Event.ID),
		saveEventReq("renamed"),
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	require.Equal(t, http.StatusOK, w.Code)

	events := testCtx.Events.LoadEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "renamed", events[0].Title)

	// Updating a missing id is strictly a not-found, never an insert.
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPut,
		"/api/events/999",
		saveEventReq("ghost"),
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Len(t, testCtx.Events.LoadEvents(), 1)
}

func TestDeleteEvent(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/events",
		saveEventReq("doomed"),
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.EventResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	path := fmt.Sprintf("/api/events/%d", created.Event.ID)
	w = testutils.PerformRequest(testCtx.Router, http.MethodDelete, path, nil, testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusOK, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodDelete, path, nil, testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEventMutationRequiresOwnership(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/events",
		saveEventReq("private"),
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.EventResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	// A second user signs up and logs in.
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/signup",
		models.SignUpRequest{Email: "other@example.com", Password: "otherpassword", Name: "Other"},
		nil,
	)
	require.Equal(t, http.StatusCreated, w.Code)

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/auth/login",
		models.LoginRequest{Email: "other@example.com", Password: "otherpassword"},
		nil,
	)
	require.Equal(t, http.StatusOK, w.Code)

	var auth models.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &auth))
	require.NotEmpty(t, auth.Token)

	// They can neither rewrite nor delete the first user's event.
	path := fmt.Sprintf("/api/events/%d", created.Event.ID)
	w = testutils.PerformRequest(testCtx.Router, http.MethodPut, path, saveEventReq("taken over"), testutils.AuthHeaders(auth.Token))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodDelete, path, nil, testutils.AuthHeaders(auth.Token))
	assert.Equal(t, http.StatusForbidden, w.Code)

	events := testCtx.Events.LoadEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "private", events[0].Title)
	assert.Equal(t, testCtx.TestUserID, events[0].UserID)
}

func TestEventStats(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/events",
		saveEventReq("counted"),
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	require.Equal(t, http.StatusCreated, w.Code)

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/events/stats",
		nil,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	require.Equal(t, http.StatusOK, w.Code)

	var stats models.StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.ByCategory["WORK"])
	assert.Equal(t, 1, stats.ByMonth["2026-01"])
}

func TestExportICSEndpoint(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/events",
		saveEventReq("exported"),
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	require.Equal(t, http.StatusCreated, w.Code)

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/events/export.ics",
		nil,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/calendar")
	assert.Contains(t, w.Body.String(), "BEGIN:VCALENDAR")
	assert.Contains(t, w.Body.String(), "SUMMARY:exported")
}

func TestDeleteCurrentUserCascades(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	req := saveEventReq("recurring")
	req.RecurrentInterval = "1w"
	req.RecurrentTimes = "4"
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/events",
		req,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	require.Equal(t, http.StatusCreated, w.Code)

	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodDelete,
		"/api/users/me",
		nil,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Empty(t, testCtx.Events.LoadEvents())
	assert.Empty(t, testCtx.Events.LoadRecurrentRules())
	assert.Nil(t, testCtx.Users.GetUserByID(testCtx.TestUserID))
}
