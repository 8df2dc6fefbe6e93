package testutils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/planwise/calendar-server/internal/api"
	"github.com/planwise/calendar-server/internal/models"
	"github.com/planwise/calendar-server/internal/service"
	"github.com/planwise/calendar-server/internal/store"
	"github.com/planwise/calendar-server/internal/utils"
	"github.com/stretchr/testify/require"
)

// TestContext holds all dependencies for tests
type TestContext struct {
	Router      *gin.Engine
	Events      *service.EventService
	Users       *service.UserService
	Backups     *service.BackupService
	JWTSecret   []byte
	TestUserID  int
	TestUserJWT string
}

// SetupTestContext creates a new test context with temp-dir backed stores
func SetupTestContext(t *testing.T) *TestContext {
	logger := utils.NewLogger()
	dataDir := t.TempDir()
	backupDir := t.TempDir()

	events := store.NewEventStore(dataDir, logger)
	rules := store.NewRuleStore(dataDir, logger)
	users := store.NewUserStore(dataDir, logger)
	require.NoError(t, events.Initialize(), "Failed to initialize event store")
	require.NoError(t, rules.Initialize(), "Failed to initialize rule store")
	require.NoError(t, users.Initialize(), "Failed to initialize user store")

	jwtSecret := "test-secret-key"
	eventSvc := service.NewEventService(events, rules, logger)
	userSvc := service.NewUserService(users, events, rules, service.PlaintextVerifier{}, jwtSecret, logger)
	backupSvc := service.NewBackupService(events, rules, users, backupDir, logger)

	// Create API handler
	handler := api.NewHandler(eventSvc, userSvc, backupSvc)

	// Set up Gin router
	gin.SetMode(gin.TestMode)
	router := gin.New()

	// Add middleware for JWT secret
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(jwtSecret))
		c.Next()
	})

	// Set up routes
	handler.SetupRoutes(router)

	testUserID, token := createTestUser(t, userSvc, jwtSecret)

	return &TestContext{
		Router:      router,
		Events:      eventSvc,
		Users:       userSvc,
		Backups:     backupSvc,
		JWTSecret:   []byte(jwtSecret),
		TestUserID:  testUserID,
		TestUserJWT: token,
	}
}

// Helper functions
func createTestUser(t *testing.T, users *service.UserService, jwtSecret string) (int, string) {
	user := &models.AppUser{
		Email:    "testuser@example.com",
		Name:     "Test User",
		Password: "testpassword",
	}
	require.NoError(t, users.SaveUser(user), "Failed to create test user")

	// Generate JWT token with the provided secret key
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": strconv.Itoa(user.ID),
		"exp": time.Now().Add(24 * time.Hour).Unix(),
		"iat": time.Now().Unix(),
	})

	tokenString, err := token.SignedString([]byte(jwtSecret))
	require.NoError(t, err, "Failed to generate JWT token")

	return user.ID, tokenString
}

// PerformRequest executes an HTTP request against the router
func PerformRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer

	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// AuthHeaders returns headers with Authorization token
func AuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	}
}
