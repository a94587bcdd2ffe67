package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMigrationFilenamePattern(t *testing.T) {
	tests := []struct {
		filename string
		valid    bool
		version  int
		name     string
	}{
		{"0001_create_reference_tables.sql", true, 1, "create_reference_tables"},
		{"0042_add_index.sql", true, 42, "add_index"},
		{"001_invalid.sql", false, 0, ""},
		{"0001_test", false, 0, ""},
		{"0001.sql", false, 0, ""},
		{"invalid_0001_test.sql", false, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			m, ok := parseMigration(tt.filename, []byte("SELECT 1"), "p", "d")
			if ok != tt.valid {
				t.Fatalf("parseMigration(%q) ok = %v, want %v", tt.filename, ok, tt.valid)
			}
			if !ok {
				return
			}
			if m.Version != tt.version || m.Name != tt.name {
				t.Errorf("got version %d name %q, want %d %q", m.Version, m.Name, tt.version, tt.name)
			}
		})
	}
}

func TestParseMigration_PlaceholdersAndChecksum(t *testing.T) {
	content := []byte("CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.reports` (id STRING);")

	a, _ := parseMigration("0001_a.sql", content, "proj-a", "finance")
	b, _ := parseMigration("0001_a.sql", content, "proj-b", "other")
	c, _ := parseMigration("0001_a.sql", []byte("CREATE TABLE x (id INT64);"), "proj-a", "finance")

	if !strings.Contains(a.SQL, "`proj-a.finance.reports`") {
		t.Errorf("placeholders not replaced: %s", a.SQL)
	}
	if a.Checksum != b.Checksum {
		t.Error("checksum should not depend on the target project")
	}
	if a.Checksum == c.Checksum {
		t.Error("different content should produce different checksums")
	}
}

func TestReadMigrations(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"0002_second.sql": "SELECT 2",
		"0001_first.sql":  "SELECT 1",
		"README.md":       "notes",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "0003_dir.sql"), 0o700); err != nil {
		t.Fatal(err)
	}

	got, err := readMigrations(dir, "p", "d")
	if err != nil {
		t.Fatalf("readMigrations() error = %v", err)
	}
	if len(got) != 2 || got[0].Name != "first" || got[1].Name != "second" {
		t.Errorf("readMigrations() = %+v", got)
	}
}

func TestReadMigrations_DuplicateVersion(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0001_a.sql", "0001_b.sql"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := readMigrations(dir, "p", "d"); err == nil {
		t.Error("readMigrations() expected error for duplicate versions")
	}
}

func TestRepositoryMigrationsParse(t *testing.T) {
	got, err := readMigrations(filepath.Join("..", "..", "migrations", "bigquery"), "p", "d")
	if err != nil {
		t.Fatalf("readMigrations() error = %v", err)
	}
	if len(got) == 0 {
		t.Fatal("no migrations found in the repository")
	}
	for i, m := range got {
		if m.Version != i+1 {
			t.Errorf("migration %s has version %d, want %d (no gaps)", m.Filename, m.Version, i+1)
		}
		if strings.Contains(m.SQL, "{{") {
			t.Errorf("migration %s has unreplaced placeholders", m.Filename)
		}
	}
}

func TestPendingAndMismatches(t *testing.T) {
	all := []Migration{
		{Version: 1, Name: "a", Checksum: "x"},
		{Version: 2, Name: "b", Checksum: "y"},
		{Version: 3, Name: "c", Checksum: "z"},
	}
	applied := []AppliedMigration{
		{Version: 1, Checksum: "x"},
		{Version: 2, Checksum: "changed"},
	}

	pending := pendingMigrations(all, applied)
	if len(pending) != 1 || pending[0].Version != 3 {
		t.Errorf("pendingMigrations() = %+v, want only version 3", pending)
	}

	warnings := checksumMismatches(all, applied)
	if len(warnings) != 1 || !strings.Contains(warnings[0], "0002_b") {
		t.Errorf("checksumMismatches() = %v", warnings)
	}
}
