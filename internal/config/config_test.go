package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestInitAndFindRepository(t *testing.T) {
	root := t.TempDir()
	if err := Init(root); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if !IsRepository(root) {
		t.Fatal("IsRepository() = false after Init")
	}
	if _, err := os.Stat(PublicationsPath(root)); err != nil {
		t.Errorf("publications file not created: %v", err)
	}
	if _, err := os.Stat(CachePath(root)); err != nil {
		t.Errorf("cache dir not created: %v", err)
	}

	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	found, err := FindRepository(nested)
	if err != nil {
		t.Fatalf("FindRepository() error = %v", err)
	}
	want, _ := filepath.Abs(root)
	if found != want {
		t.Errorf("FindRepository() = %q, want %q", found, want)
	}

	if err := Init(root); err == nil {
		t.Error("Init() on an existing repository should fail")
	}
}

func TestFindRepository_NotFound(t *testing.T) {
	_, err := FindRepository(t.TempDir())
	if !errors.Is(err, ErrNotRepository) {
		t.Errorf("FindRepository() error = %v, want ErrNotRepository", err)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	root := t.TempDir()
	if err := Init(root); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	cfg := &Config{Researcher: "A. Researcher", ReferenceYear: 2024}
	if err := cfg.Save(root); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(root)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("Load() = %+v, want %+v", loaded, cfg)
	}
}

func TestValidateReferenceYear(t *testing.T) {
	tests := []struct {
		year    int
		wantErr bool
	}{
		{0, false},
		{2024, false},
		{1899, true},
		{3000, true},
	}
	for _, tt := range tests {
		err := ValidateReferenceYear(tt.year)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateReferenceYear(%d) error = %v, wantErr %v", tt.year, err, tt.wantErr)
		}
	}
}

func TestExpandPath(t *testing.T) {
	if got := ExpandPath("/abs/path"); got != "/abs/path" {
		t.Errorf("ExpandPath(/abs/path) = %q", got)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	if got := ExpandPath("~/pubs"); got != filepath.Join(home, "pubs") {
		t.Errorf("ExpandPath(~/pubs) = %q", got)
	}
}
