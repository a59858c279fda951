package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTypedGetters(t *testing.T) {
	t.Setenv("PT_INT", "42")
	t.Setenv("PT_BAD_INT", "forty")
	t.Setenv("PT_FLOAT", "0.25")
	t.Setenv("PT_DUR", "40ms")
	t.Setenv("PT_BOOL", "true")
	t.Setenv("PT_STR", "cam0")

	if got := Int("PT_INT", 1); got != 42 {
		t.Errorf("Int: got %d, want 42", got)
	}
	if got := Int("PT_BAD_INT", 7); got != 7 {
		t.Errorf("Int malformed: got %d, want default 7", got)
	}
	if got := Int("PT_UNSET_INT", 3); got != 3 {
		t.Errorf("Int unset: got %d, want 3", got)
	}
	if got := Float("PT_FLOAT", 1); got != 0.25 {
		t.Errorf("Float: got %v, want 0.25", got)
	}
	if got := Duration("PT_DUR", time.Second); got != 40*time.Millisecond {
		t.Errorf("Duration: got %v, want 40ms", got)
	}
	if got := Bool("PT_BOOL", false); !got {
		t.Error("Bool: expected true")
	}
	if got := String("PT_STR", "x"); got != "cam0" {
		t.Errorf("String: got %q", got)
	}
}

func TestLoadDotEnv(t *testing.T) {
	t.Setenv("RUN_TIME_ENV", "dev")
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("PT_FROM_DOTENV=hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("PT_FROM_DOTENV") })

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("PT_FROM_DOTENV"); got != "hello" {
		t.Errorf("expected PT_FROM_DOTENV=hello, got %q", got)
	}
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	t.Setenv("RUN_TIME_ENV", "dev")
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Errorf("missing file should not error, got %v", err)
	}
}

func TestLoadDotEnv_SkippedOutsideDev(t *testing.T) {
	t.Setenv("RUN_TIME_ENV", "prod")
	if IsDev() {
		t.Fatal("expected IsDev false")
	}
	if err := LoadDotEnv("/definitely/not/here"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
