package store

import (
	"path/filepath"
	"strconv"

	"github.com/planwise/calendar-server/internal/models"
	"github.com/planwise/calendar-server/internal/utils"
)

// UserHeader is the canonical header of the users table.
const UserHeader = "id,name,email,password"

const userFieldCount = 4

// UserStore owns users.csv.
type UserStore struct {
	table
}

// NewUserStore creates a user store backed by users.csv under dataDir.
func NewUserStore(dataDir string, logger *utils.Logger) *UserStore {
	return &UserStore{table: newTable(filepath.Join(dataDir, "users.csv"), UserHeader, logger)}
}

// Initialize ensures the backing file exists with its header.
func (s *UserStore) Initialize() error {
	return s.initialize()
}

// LoadAll returns every decodable user row in file order.
func (s *UserStore) LoadAll() []models.AppUser {
	return s.decodeAll(s.dataLines())
}

func (s *UserStore) decodeAll(lines []string) []models.AppUser {
	users := make([]models.AppUser, 0, len(lines))
	for _, line := range lines {
		user, ok := decodeUser(line)
		if !ok {
			s.logger.Warn("skipping malformed user row: %q", line)
			continue
		}
		users = append(users, user)
	}
	return users
}

func decodeUser(line string) (models.AppUser, bool) {
	fields, err := decodeRow(line)
	if err != nil || len(fields) < userFieldCount {
		return models.AppUser{}, false
	}
	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return models.AppUser{}, false
	}
	return models.AppUser{
		ID:       id,
		Name:     fields[1],
		Email:    fields[2],
		Password: fields[3],
	}, true
}

func encodeUser(user models.AppUser) string {
	return encodeRow([]string{
		strconv.Itoa(user.ID),
		user.Name,
		user.Email,
		user.Password,
	})
}

// NextID returns max(id)+1 over the current rows, or 1 for an empty or
// unreadable table.
func (s *UserStore) NextID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextIDLocked()
}

func (s *UserStore) nextIDLocked() int {
	maxID := 0
	for _, line := range s.dataLines() {
		fields, err := decodeRow(line)
		if err != nil || len(fields) == 0 {
			continue
		}
		if id, err := strconv.Atoi(fields[0]); err == nil && id > maxID {
			maxID = id
		}
	}
	return maxID + 1
}

// Append assigns the user a fresh id and writes it as one new line.
func (s *UserStore) Append(user *models.AppUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.ID = s.nextIDLocked()
	return s.appendLine(encodeUser(*user))
}

// UpdateByID replaces the row whose id matches, preserving the id.
// Returns false without touching the file when no row matches.
func (s *UserStore) UpdateByID(id int, user models.AppUser) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.decodeAll(s.dataLines())
	found := false
	for i := range users {
		if users[i].ID == id {
			user.ID = id
			users[i] = user
			found = true
			break
		}
	}
	if !found {
		return false, nil
	}
	return true, s.rewriteUsers(users)
}

// DeleteByID removes the row with the given id; rewrites only on a match.
func (s *UserStore) DeleteByID(id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.decodeAll(s.dataLines())
	kept := make([]models.AppUser, 0, len(users))
	for _, user := range users {
		if user.ID != id {
			kept = append(kept, user)
		}
	}
	if len(kept) == len(users) {
		return false, nil
	}
	return true, s.rewriteUsers(kept)
}

// FindByID returns the user with the given id, or nil.
func (s *UserStore) FindByID(id int) *models.AppUser {
	for _, user := range s.LoadAll() {
		if user.ID == id {
			u := user
			return &u
		}
	}
	return nil
}

// FindByEmail returns the first user with an exactly matching email, or
// nil. The comparison is case-sensitive.
func (s *UserStore) FindByEmail(email string) *models.AppUser {
	for _, user := range s.LoadAll() {
		if user.Email == email {
			u := user
			return &u
		}
	}
	return nil
}

func (s *UserStore) rewriteUsers(users []models.AppUser) error {
	lines := make([]string, 0, len(users))
	for _, user := range users {
		lines = append(lines, encodeUser(user))
	}
	return s.rewrite(lines)
}

// RawLines exposes the table's data lines verbatim for the backup codec.
func (s *UserStore) RawLines() []string {
	return s.dataLines()
}

// Restore overwrites or extends the table with raw backup lines.
func (s *UserStore) Restore(lines []string, appendMode bool) error {
	return s.restore(lines, appendMode)
}
