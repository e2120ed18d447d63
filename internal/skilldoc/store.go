package skilldoc

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// skillFileName is the document file inside each skill directory.
const skillFileName = "SKILL.md"

// TargetNotFoundError indicates the named skill has no document on disk.
// Creating one is a human decision, so callers surface this rather than
// creating files.
type TargetNotFoundError struct {
	// Name is the skill that was requested.
	Name string
}

// Error implements the error interface.
func (e *TargetNotFoundError) Error() string {
	return fmt.Sprintf("skill %q not found", e.Name)
}

// DefaultSkillsDir returns the Claude Code skills directory,
// ~/.claude/skills.
func DefaultSkillsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}

	return filepath.Join(home, ".claude", "skills"), nil
}

// Store reads and writes skill documents under a single skills
// directory, one sub-directory per skill.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the skills directory the store is rooted at.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the SKILL.md path for a skill name.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name, skillFileName)
}

// Exists reports whether the named skill has a document on disk.
func (s *Store) Exists(name string) bool {
	info, err := os.Stat(s.Path(name))
	return err == nil && info.Mode().IsRegular()
}

// List returns the names of all skills that have a document, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read skills dir %s: %w", s.dir, err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if s.Exists(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	return names, nil
}

// Load reads and parses the named skill document. A missing document
// yields a TargetNotFoundError.
func (s *Store) Load(name string) (*Document, error) {
	path := s.Path(name)

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &TargetNotFoundError{Name: name}
	}
	if err != nil {
		return nil, fmt.Errorf("read skill %s: %w", name, err)
	}

	return Parse(name, path, raw)
}

// Save writes the document back to disk atomically: encode to a temp
// file in the skill directory, then rename over the original.
func (s *Store) Save(doc *Document) error {
	encoded, err := doc.Encode()
	if err != nil {
		return err
	}

	dir := filepath.Dir(doc.Path)
	tmp, err := os.CreateTemp(dir, skillFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w",
			doc.Name, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write skill %s: %w", doc.Name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close skill %s: %w", doc.Name, err)
	}

	if err := os.Rename(tmpPath, doc.Path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace skill %s: %w", doc.Name, err)
	}

	return nil
}
