package models

// Request models
type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SaveEventRequest struct {
	Title             string `json:"title" binding:"required"`
	Description       string `json:"description"`
	StartDateTime     string `json:"startDateTime" binding:"required"`
	EndDateTime       string `json:"endDateTime" binding:"required"`
	Category          string `json:"category"`
	RecurrentInterval string `json:"recurrentInterval"`
	RecurrentTimes    string `json:"recurrentTimes"`
	RecurrentEndDate  string `json:"recurrentEndDate"`
}

type UpdateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type BackupRequest struct {
	Name string `json:"name"`
}

type RestoreRequest struct {
	Append bool `json:"append"`
}

// Response models
type AuthResponse struct {
	Status    string `json:"status"`
	UserID    int    `json:"userId,omitempty"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Token     string `json:"token,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"`
}

type EventsResponse struct {
	Status string  `json:"status"`
	Events []Event `json:"events"`
}

type EventResponse struct {
	Status string `json:"status"`
	Event  *Event `json:"event,omitempty"`
	// Instances is populated when a recurring save expanded the base
	// event into multiple rows.
	Instances []Event `json:"instances,omitempty"`
}

type StatsResponse struct {
	Status     string         `json:"status"`
	Total      int            `json:"total"`
	ByCategory map[string]int `json:"byCategory"`
	ByMonth    map[string]int `json:"byMonth"`
}

type BackupResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

type BackupListResponse struct {
	Status  string       `json:"status"`
	Backups []BackupInfo `json:"backups"`
}

type MessageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
