package tokenstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFile_MissingFileIsLoggedOut(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	token, err := NewFile("").Get(context.Background())
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if token != "" {
		t.Fatalf("token = %q, want empty", token)
	}
}

func TestFile_SetCreatesDirsAndRoundTrips(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "subdir", "session.toml")
	store := NewFile(path)

	if err := store.Set(ctx, "abc123"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %v, want 0600", info.Mode().Perm())
	}

	got, err := NewFile(path).Get(ctx)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got != "abc123" {
		t.Fatalf("token = %q, want abc123", got)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("dir has %d entries, want only the session file", len(entries))
	}
}

func TestFile_DefaultPathUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	if err := NewFile("").Set(context.Background(), "tok"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, ".config", "journey", "session.toml")); err != nil {
		t.Fatalf("session file not at default path: %v", err)
	}
}

func TestFile_ClearRemovesToken(t *testing.T) {
	ctx := context.Background()
	store := NewFile(filepath.Join(t.TempDir(), "session.toml"))

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear on missing file returned error: %v", err)
	}
	if err := store.Set(ctx, "tok"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	got, err := store.Get(ctx)
	if err != nil || got != "" {
		t.Fatalf("Get after Clear = %q, %v; want empty, nil", got, err)
	}
}

func TestFile_InvalidTOMLReadsAsLoggedOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.toml")
	if err := os.WriteFile(path, []byte("not valid toml {{{\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := NewFile(path).Get(context.Background())
	if err != nil || got != "" {
		t.Fatalf("Get = %q, %v; want empty, nil", got, err)
	}
}

func TestFile_CancelledSetKeepsPreviousToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.toml")
	store := NewFile(path)
	if err := store.Set(context.Background(), "first"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := store.Set(ctx, "second"); err == nil {
		t.Fatalf("Set with cancelled context returned nil error")
	}

	got, err := store.Get(context.Background())
	if err != nil || got != "first" {
		t.Fatalf("Get = %q, %v; want first, nil", got, err)
	}
}

func TestFile_UsesWellKnownKey(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.toml")

	if err := os.WriteFile(path, []byte(Key+" = \"hand-written\"\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	store := NewFile(path)
	got, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got != "hand-written" {
		t.Fatalf("token = %q, want %q", got, "hand-written")
	}

	if err := store.Set(ctx, "abc123"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(string(data)), Key+" = ") {
		t.Fatalf("session file = %q, want a %s key", data, Key)
	}
}
