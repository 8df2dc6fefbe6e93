package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/planwise/calendar-server/internal/models"
	"github.com/planwise/calendar-server/internal/store"
	"github.com/planwise/calendar-server/internal/utils"
)

// UserService owns the users table, credential checks and the cascade that
// runs when a user is removed.
type UserService struct {
	users         *store.UserStore
	events        *store.EventStore
	rules         *store.RuleStore
	verifier      CredentialVerifier
	jwtSecret     []byte
	tokenDuration time.Duration
	logger        *utils.Logger
}

// NewUserService creates a UserService over the given stores.
func NewUserService(
	users *store.UserStore,
	events *store.EventStore,
	rules *store.RuleStore,
	verifier CredentialVerifier,
	jwtSecret string,
	logger *utils.Logger,
) *UserService {
	return &UserService{
		users:         users,
		events:        events,
		rules:         rules,
		verifier:      verifier,
		jwtSecret:     []byte(jwtSecret),
		tokenDuration: 24 * time.Hour,
		logger:        logger,
	}
}

// LoadUsers returns all persisted users in file order.
func (s *UserService) LoadUsers() []models.AppUser {
	return s.users.LoadAll()
}

// SaveUser registers a new user. Email and password are required and the
// email must not already be registered (exact-match scan). The assigned id
// is written back into the user.
func (s *UserService) SaveUser(user *models.AppUser) error {
	if user.Email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if user.Password == "" {
		return fmt.Errorf("%w: password is required", ErrValidation)
	}
	if s.EmailExists(user.Email) {
		return fmt.Errorf("%w: %s", ErrDuplicateEmail, user.Email)
	}
	stored, err := s.verifier.Hash(user.Password)
	if err != nil {
		return fmt.Errorf("error preparing credentials: %w", err)
	}
	user.Password = stored
	if err := s.users.Append(user); err != nil {
		return fmt.Errorf("error saving user: %w", err)
	}
	return nil
}

// UpdateUser fully replaces the row identified by user.ID. The new email
// must not belong to any other user.
func (s *UserService) UpdateUser(user models.AppUser) error {
	if user.Email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if user.Password == "" {
		return fmt.Errorf("%w: password is required", ErrValidation)
	}
	if existing := s.users.FindByEmail(user.Email); existing != nil && existing.ID != user.ID {
		return fmt.Errorf("%w: %s", ErrDuplicateEmail, user.Email)
	}
	stored, err := s.verifier.Hash(user.Password)
	if err != nil {
		return fmt.Errorf("error preparing credentials: %w", err)
	}
	user.Password = stored
	found, err := s.users.UpdateByID(user.ID, user)
	if err != nil {
		return fmt.Errorf("error updating user: %w", err)
	}
	if !found {
		return fmt.Errorf("%w: user %d", ErrNotFound, user.ID)
	}
	return nil
}

// DeleteUserCascade removes the user together with their events and those
// events' recurrence rules. Rules are cleaned before events; there is no
// referential-integrity enforcement, so an interruption between steps can
// leave orphaned rows. Steps already performed are not rolled back when
// the user row itself turns out to be absent.
func (s *UserService) DeleteUserCascade(userID int) error {
	eventIDs := s.events.IDsByUserID(userID)
	if len(eventIDs) > 0 {
		if _, err := s.rules.DeleteByEventIDs(eventIDs); err != nil {
			return fmt.Errorf("error deleting recurrence rules: %w", err)
		}
	}
	if _, err := s.events.DeleteByUserID(userID); err != nil {
		return fmt.Errorf("error deleting events: %w", err)
	}
	removed, err := s.users.DeleteByID(userID)
	if err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}
	if !removed {
		return fmt.Errorf("%w: user %d", ErrNotFound, userID)
	}
	return nil
}

// EmailExists reports whether any user row carries exactly this email.
// Case-sensitive, matching login behavior.
func (s *UserService) EmailExists(email string) bool {
	return s.users.FindByEmail(email) != nil
}

// ValidateUser returns the user whose email and password both match
// exactly, or nil when there is no match.
func (s *UserService) ValidateUser(email, password string) *models.AppUser {
	user := s.users.FindByEmail(email)
	if user == nil {
		return nil
	}
	if !s.verifier.Verify(user.Password, password) {
		return nil
	}
	return user
}

// GetUserByID returns the user with the given id, or nil.
func (s *UserService) GetUserByID(id int) *models.AppUser {
	return s.users.FindByID(id)
}

// Login validates credentials and issues a signed token for the user.
func (s *UserService) Login(email, password string) (*models.AppUser, string, error) {
	user := s.ValidateUser(email, password)
	if user == nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.generateJWT(user)
	if err != nil {
		return nil, "", fmt.Errorf("error generating token: %w", err)
	}
	return user, token, nil
}

// TokenDuration is the lifetime of issued tokens.
func (s *UserService) TokenDuration() time.Duration {
	return s.tokenDuration
}

func (s *UserService) generateJWT(user *models.AppUser) (string, error) {
	expirationTime := time.Now().Add(s.tokenDuration)

	claims := jwt.MapClaims{
		"sub": strconv.Itoa(user.ID),
		"exp": expirationTime.Unix(),
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
