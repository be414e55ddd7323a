package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
)

const defaultSessionPath = "~/.config/journey/session.toml"

type sessionFile struct {
	AuthToken string `toml:"authToken"`
}

// File stores the token in a small TOML document.
type File struct {
	path string
	mu   sync.Mutex
}

// NewFile returns a File store at path; empty uses ~/.config/journey/session.toml.
func NewFile(path string) *File {
	return &File{path: path}
}

// DefaultPath returns the default session file path.
func DefaultPath() string {
	return defaultSessionPath
}

// Get returns the stored token. A missing or unreadable file reads as logged out.
func (f *File) Get(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	resolved, err := resolvePath(f.path)
	if err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	bytes, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read session: %w", err)
	}

	var doc sessionFile
	if err := toml.Unmarshal(bytes, &doc); err != nil {
		return "", nil // Graceful degradation
	}
	return strings.TrimSpace(doc.AuthToken), nil
}

// Set writes the token to a temp file and renames it into place.
func (f *File) Set(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	resolved, err := resolvePath(f.path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	bytes, err := toml.Marshal(sessionFile{AuthToken: token})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.toml")
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(bytes); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp.Name(), resolved); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Clear removes the session file.
func (f *File) Clear(context.Context) error {
	resolved, err := resolvePath(f.path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(resolved); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultSessionPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
