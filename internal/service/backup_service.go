package service

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/planwise/calendar-server/internal/models"
	"github.com/planwise/calendar-server/internal/store"
	"github.com/planwise/calendar-server/internal/utils"
)

// Backup file grammar: an optional version marker, then the three tables
// in fixed order, each introduced by its section marker and canonical
// header, followed by its raw data lines.
const (
	backupVersionMarker = "#BACKUP_VERSION=1"
	sectionEvents       = "#EVENTS"
	sectionRules        = "#RECURRENTS"
	sectionUsers        = "#USERS"
)

// BackupService serializes the union of the three tables into one
// sectioned file and restores it in replace or append mode. Rows travel as
// raw lines, not decoded records, so a backup faithfully carries even rows
// the stores would skip.
type BackupService struct {
	events    *store.EventStore
	rules     *store.RuleStore
	users     *store.UserStore
	backupDir string
	logger    *utils.Logger
}

// NewBackupService creates a BackupService writing under backupDir.
func NewBackupService(
	events *store.EventStore,
	rules *store.RuleStore,
	users *store.UserStore,
	backupDir string,
	logger *utils.Logger,
) *BackupService {
	return &BackupService{
		events:    events,
		rules:     rules,
		users:     users,
		backupDir: backupDir,
		logger:    logger,
	}
}

// BackupAll writes a backup of all three tables and returns its absolute
// path. An empty name defaults to backup_<epoch-millis>.csv; any name is
// reduced to its base filename and given a .csv suffix.
func (s *BackupService) BackupAll(name string) (string, error) {
	if name == "" {
		name = fmt.Sprintf("backup_%d.csv", time.Now().UnixMilli())
	}
	name = sanitizeBackupName(name)

	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return "", fmt.Errorf("error creating backup directory: %w", err)
	}

	var b strings.Builder
	b.WriteString(backupVersionMarker + "\n")
	writeSection(&b, sectionEvents, store.EventHeader, s.events.RawLines())
	writeSection(&b, sectionRules, store.RuleHeader, s.rules.RawLines())
	writeSection(&b, sectionUsers, store.UserHeader, s.users.RawLines())

	path := filepath.Join(s.backupDir, name)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("error writing backup: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	s.logger.Info("wrote backup %s", abs)
	return abs, nil
}

func writeSection(b *strings.Builder, marker, header string, lines []string) {
	b.WriteString(marker + "\n")
	b.WriteString(header + "\n")
	for _, line := range lines {
		b.WriteString(line + "\n")
	}
}

// RestoreAll reads a backup file back into the three table files. Replace
// mode truncates each target; append mode extends it, which can introduce
// duplicate ids across the merged table. That risk is logged, not
// remediated.
func (s *BackupService) RestoreAll(name string, appendMode bool) error {
	path := filepath.Join(s.backupDir, sanitizeBackupName(name))
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: backup %s", ErrNotFound, name)
		}
		return fmt.Errorf("error opening backup: %w", err)
	}
	defer f.Close()

	sections := map[string][]string{}
	current := ""
	expectHeader := false
	headers := map[string]string{
		sectionEvents: store.EventHeader,
		sectionRules:  store.RuleHeader,
		sectionUsers:  store.UserHeader,
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\uFEFF"))
		if line == "" {
			continue
		}
		switch line {
		case sectionEvents, sectionRules, sectionUsers:
			current = line
			expectHeader = true
			continue
		case backupVersionMarker:
			continue
		}
		if strings.HasPrefix(line, "#") {
			s.logger.Warn("skipping unknown backup marker: %q", line)
			continue
		}
		if current == "" {
			continue
		}
		if expectHeader {
			expectHeader = false
			if line == headers[current] {
				continue
			}
		}
		sections[current] = append(sections[current], line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading backup: %w", err)
	}

	if appendMode {
		s.logger.Warn("restoring %s in append mode; duplicate ids are possible and are not remapped", name)
	}

	if err := s.events.Restore(sections[sectionEvents], appendMode); err != nil {
		return fmt.Errorf("error restoring events: %w", err)
	}
	if err := s.rules.Restore(sections[sectionRules], appendMode); err != nil {
		return fmt.Errorf("error restoring recurrence rules: %w", err)
	}
	if err := s.users.Restore(sections[sectionUsers], appendMode); err != nil {
		return fmt.Errorf("error restoring users: %w", err)
	}
	return nil
}

// ListBackups enumerates the .csv files in the backup directory, newest
// first.
func (s *BackupService) ListBackups() ([]models.BackupInfo, error) {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.BackupInfo{}, nil
		}
		return nil, fmt.Errorf("error listing backups: %w", err)
	}

	backups := make([]models.BackupInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(s.backupDir, entry.Name())
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		backups = append(backups, models.BackupInfo{
			Name:         entry.Name(),
			Size:         info.Size(),
			LastModified: info.ModTime(),
			Path:         path,
		})
	}
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].LastModified.After(backups[j].LastModified)
	})
	return backups, nil
}

// DeleteBackup removes one backup file. The name is reduced to its base
// filename before use so a crafted name cannot escape the backup
// directory.
func (s *BackupService) DeleteBackup(name string) error {
	path := filepath.Join(s.backupDir, sanitizeBackupName(name))
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: backup %s", ErrNotFound, name)
		}
		return fmt.Errorf("error checking backup: %w", err)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("error deleting backup: %w", err)
	}
	return nil
}

// sanitizeBackupName strips any directory components and enforces the
// .csv suffix.
func sanitizeBackupName(name string) string {
	name = filepath.Base(name)
	if !strings.HasSuffix(name, ".csv") {
		name += ".csv"
	}
	return name
}
