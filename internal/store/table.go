package store

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/planwise/calendar-server/internal/utils"
)

// table owns one CSV file on disk. Each entity store embeds a table and
// serializes its read-modify-write sequences with the table's mutex, so
// writes against different tables never block each other.
type table struct {
	path   string
	header string
	mu     sync.Mutex
	logger *utils.Logger
}

func newTable(path, header string, logger *utils.Logger) table {
	return table{path: path, header: header, logger: logger}
}

// Path returns the absolute location of the backing file.
func (t *table) Path() string {
	return t.path
}

// initialize ensures the backing file and its parent directory exist,
// creating the file with only the header row when absent. Idempotent.
func (t *table) initialize() error {
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return fmt.Errorf("error creating data directory: %w", err)
	}
	if _, err := os.Stat(t.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("error checking table file: %w", err)
	}
	if err := os.WriteFile(t.path, []byte(t.header+"\n"), 0o644); err != nil {
		return fmt.Errorf("error creating table file: %w", err)
	}
	return nil
}

// dataLines reads the file and returns its logical records in file order:
// the header is dropped, blank lines and a leading byte-order-mark are
// skipped. A record whose quoted field contains a newline spans physical
// lines; those are joined back into one record by tracking quote balance.
// An unreadable file yields nil rather than an error so reads fail soft.
func (t *table) dataLines() []string {
	f, err := os.Open(t.path)
	if err != nil {
		if !os.IsNotExist(err) {
			t.logger.Warn("could not read %s: %v", t.path, err)
		}
		return nil
	}
	defer f.Close()

	var lines []string
	first := true
	keep := func(record string) {
		if first {
			first = false
			if record == t.header {
				return
			}
			// Header missing: treat the first record as data.
		}
		lines = append(lines, record)
	}

	var pending string
	open := false
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if open {
			pending += "\n" + scanner.Text()
			if strings.Count(pending, `"`)%2 == 0 {
				open = false
				keep(pending)
				pending = ""
			}
			continue
		}
		line := cleanLine(scanner.Text())
		if line == "" {
			continue
		}
		if strings.Count(line, `"`)%2 == 1 {
			open = true
			pending = line
			continue
		}
		keep(line)
	}
	if open {
		// Unterminated quote at end of file; the decoder rejects it and
		// the record is skipped like any other damaged row.
		keep(pending)
	}
	if err := scanner.Err(); err != nil {
		t.logger.Warn("error while scanning %s: %v", t.path, err)
	}
	return lines
}

// rewrite truncates the file and writes the header followed by every line
// in the given order.
func (t *table) rewrite(lines []string) error {
	var b strings.Builder
	b.WriteString(t.header)
	b.WriteByte('\n')
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(t.path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("error rewriting %s: %w", t.path, err)
	}
	return nil
}

// appendLine writes one encoded line at the end of the file, first making
// sure the file ends with a newline so the new row cannot merge into a
// truncated last line.
func (t *table) appendLine(line string) error {
	if err := t.ensureTrailingNewline(); err != nil {
		return err
	}
	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("error opening %s for append: %w", t.path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("error appending to %s: %w", t.path, err)
	}
	return nil
}

func (t *table) ensureTrailingNewline() error {
	f, err := os.OpenFile(t.path, os.O_RDWR, 0o644)
	if err != nil {
		if os.IsNotExist(err) {
			return t.initialize()
		}
		return fmt.Errorf("error opening %s: %w", t.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("error inspecting %s: %w", t.path, err)
	}
	if info.Size() == 0 {
		_, err = f.WriteString(t.header + "\n")
		return err
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return fmt.Errorf("error reading tail of %s: %w", t.path, err)
	}
	if last[0] != '\n' {
		if _, err := f.WriteString("\n"); err != nil {
			return fmt.Errorf("error repairing tail of %s: %w", t.path, err)
		}
	}
	return nil
}

// restore replaces or extends the table file with raw lines from a backup.
// In replace mode the file becomes header + lines. In append mode the
// lines are added after the existing content and the header is written
// only when the target file is absent or empty.
func (t *table) restore(lines []string, appendMode bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !appendMode {
		return t.rewrite(lines)
	}

	info, err := os.Stat(t.path)
	if os.IsNotExist(err) || (err == nil && info.Size() == 0) {
		return t.rewrite(lines)
	}
	if err != nil {
		return fmt.Errorf("error inspecting %s: %w", t.path, err)
	}
	if err := t.ensureTrailingNewline(); err != nil {
		return err
	}
	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("error opening %s for append: %w", t.path, err)
	}
	defer f.Close()
	for _, line := range lines {
		if _, err := f.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("error appending restored line to %s: %w", t.path, err)
		}
	}
	return nil
}
