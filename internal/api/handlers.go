package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/planwise/calendar-server/internal/models"
	"github.com/planwise/calendar-server/internal/service"
)

// Handler wires the HTTP routes to the services
type Handler struct {
	events  *service.EventService
	users   *service.UserService
	backups *service.BackupService
}

// NewHandler creates a new API handler
func NewHandler(events *service.EventService, users *service.UserService, backups *service.BackupService) *Handler {
	return &Handler{events: events, users: users, backups: backups}
}

// SetupRoutes registers all API routes on the router
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(RequestIDMiddleware())

	auth := router.Group("/api/auth")
	{
		auth.POST("/signup", h.signUp)
		auth.POST("/login", h.login)
	}

	protected := router.Group("/api", AuthMiddleware())
	{
		protected.GET("/events", h.listEvents)
		protected.POST("/events", h.saveEvent)
		protected.PUT("/events/:id", h.updateEvent)
		protected.DELETE("/events/:id", h.deleteEvent)
		protected.GET("/events/stats", h.eventStats)
		protected.GET("/events/export.ics", h.exportICS)

		protected.GET("/users/me", h.currentUser)
		protected.PUT("/users/me", h.updateCurrentUser)
		protected.DELETE("/users/me", h.deleteCurrentUser)

		protected.POST("/backups", h.createBackup)
		protected.GET("/backups", h.listBackups)
		protected.POST("/backups/:name/restore", h.restoreBackup)
		protected.DELETE("/backups/:name", h.deleteBackup)
	}
}

// Authentication handlers

func (h *Handler) signUp(c *gin.Context) {
	var req models.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	user := models.AppUser{Name: req.Name, Email: req.Email, Password: req.Password}
	if err := h.users.SaveUser(&user); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.AuthResponse{
		Status: "success",
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	})
}

func (h *Handler) login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	user, token, err := h.users.Login(req.Email, req.Password)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.AuthResponse{
		Status:    "success",
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Token:     token,
		ExpiresIn: int(h.users.TokenDuration().Seconds()),
	})
}

// Event handlers

func (h *Handler) listEvents(c *gin.Context) {
	userID := c.GetInt("userId")
	includeHolidays := c.Query("includeHolidays") == "true"
	year := time.Now().Year()
	if y, err := strconv.Atoi(c.Query("year")); err == nil {
		year = y
	}

	events := h.events.EventsByUserID(userID, includeHolidays, year)
	if events == nil {
		events = []models.Event{}
	}
	c.JSON(http.StatusOK, models.EventsResponse{Status: "success", Events: events})
}

func (h *Handler) saveEvent(c *gin.Context) {
	userID := c.GetInt("userId")
	ev, ok := h.bindEvent(c, userID)
	if !ok {
		return
	}

	saved, err := h.events.SaveEvent(ev)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	resp := models.EventResponse{Status: "success", Event: &saved[0]}
	if len(saved) > 1 {
		resp.Instances = saved
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) updateEvent(c *gin.Context) {
	userID := c.GetInt("userId")
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid event id")
		return
	}
	ev, ok := h.bindEvent(c, userID)
	if !ok {
		return
	}

	if err := h.events.UpdateEvent(id, *ev); err != nil {
		writeServiceError(c, err)
		return
	}
	ev.ID = id
	c.JSON(http.StatusOK, models.EventResponse{Status: "success", Event: ev})
}

func (h *Handler) deleteEvent(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid event id")
		return
	}
	if err := h.events.DeleteEvent(id, c.GetInt("userId")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Status: "success", Message: "Event deleted"})
}

func (h *Handler) eventStats(c *gin.Context) {
	stats := h.events.Stats(c.GetInt("userId"))
	c.JSON(http.StatusOK, models.StatsResponse{
		Status:     "success",
		Total:      stats.Total,
		ByCategory: stats.ByCategory,
		ByMonth:    stats.ByMonth,
	})
}

func (h *Handler) exportICS(c *gin.Context) {
	payload, err := h.events.ExportICS(c.GetInt("userId"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="calendar.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(payload))
}

func (h *Handler) bindEvent(c *gin.Context, userID int) (*models.Event, bool) {
	var req models.SaveEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return nil, false
	}
	start, err := models.ParseLocalDateTime(req.StartDateTime)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid startDateTime")
		return nil, false
	}
	end, err := models.ParseLocalDateTime(req.EndDateTime)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid endDateTime")
		return nil, false
	}
	return &models.Event{
		UserID:            userID,
		Title:             req.Title,
		Description:       req.Description,
		StartDateTime:     start,
		EndDateTime:       end,
		Category:          req.Category,
		RecurrentInterval: req.RecurrentInterval,
		RecurrentTimes:    req.RecurrentTimes,
		RecurrentEndDate:  req.RecurrentEndDate,
	}, true
}

// User handlers

func (h *Handler) currentUser(c *gin.Context) {
	user := h.users.GetUserByID(c.GetInt("userId"))
	if user == nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "user not found")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) updateCurrentUser(c *gin.Context) {
	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	user := models.AppUser{
		ID:       c.GetInt("userId"),
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}
	if err := h.users.UpdateUser(user); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Status: "success", Message: "User updated"})
}

func (h *Handler) deleteCurrentUser(c *gin.Context) {
	if err := h.users.DeleteUserCascade(c.GetInt("userId")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Status: "success", Message: "User and owned data deleted"})
}

// Backup handlers

func (h *Handler) createBackup(c *gin.Context) {
	var req models.BackupRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
	}
	path, err := h.backups.BackupAll(req.Name)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.BackupResponse{Status: "success", Path: path})
}

func (h *Handler) listBackups(c *gin.Context) {
	backups, err := h.backups.ListBackups()
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.BackupListResponse{Status: "success", Backups: backups})
}

func (h *Handler) restoreBackup(c *gin.Context) {
	var req models.RestoreRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
	}
	if err := h.backups.RestoreAll(c.Param("name"), req.Append); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Status: "success", Message: "Backup restored"})
}

func (h *Handler) deleteBackup(c *gin.Context) {
	if err := h.backups.DeleteBackup(c.Param("name")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Status: "success", Message: "Backup deleted"})
}

// Error mapping

func writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.ErrorResponse{Status: "error", Code: code, Message: message})
}

func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(c, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, service.ErrForbidden):
		writeError(c, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, service.ErrDuplicateEmail):
		writeError(c, http.StatusConflict, "DUPLICATE_EMAIL", err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(c, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}
