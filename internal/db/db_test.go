package db

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T, path string) *DB {
	t.Helper()
	database, err := New(path, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return database
}

func TestNew_CreatesSchema(t *testing.T) {
	database := openTestDB(t, filepath.Join(t.TempDir(), "nested", "coclip.db"))
	defer database.Close()

	for _, table := range []string{"media_files", "jobs", "config", "_migrations"} {
		var name string
		err := database.Conn().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestNew_WALEnabled(t *testing.T) {
	database := openTestDB(t, filepath.Join(t.TempDir(), "coclip.db"))
	defer database.Close()

	var mode string
	if err := database.Conn().QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("PRAGMA journal_mode error = %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %s, want wal", mode)
	}
}

func TestNew_MigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coclip.db")
	openTestDB(t, path).Close()

	database := openTestDB(t, path)
	defer database.Close()

	names, err := migrationNames()
	if err != nil {
		t.Fatalf("migrationNames() error = %v", err)
	}

	var count int
	if err := database.Conn().QueryRow("SELECT COUNT(*) FROM _migrations").Scan(&count); err != nil {
		t.Fatalf("count migrations error = %v", err)
	}
	if count != len(names) || count != 2 {
		t.Errorf("migration count = %d, want %d", count, len(names))
	}
}

func TestNew_FailsInterruptedJobs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coclip.db")
	first := openTestDB(t, path)

	_, err := first.Conn().Exec(`
		INSERT INTO jobs (id, type, status, path, progress, created_at, updated_at)
		VALUES ('running-job', 'import', 'running', '/media/a.mp4', 50, datetime('now'), datetime('now')),
		       ('pending-job', 'import', 'pending', '/media/b.mp4', 0, datetime('now'), datetime('now'))
	`)
	if err != nil {
		t.Fatalf("insert jobs error = %v", err)
	}
	first.Close()

	second := openTestDB(t, path)
	defer second.Close()

	tests := []struct {
		id         string
		wantStatus string
		wantError  string
	}{
		{"running-job", "failed", "interrupted by restart"},
		{"pending-job", "pending", ""},
	}
	for _, tt := range tests {
		var status string
		var errMsg *string
		err := second.Conn().QueryRow("SELECT status, error FROM jobs WHERE id = ?", tt.id).Scan(&status, &errMsg)
		if err != nil {
			t.Fatalf("query %s error = %v", tt.id, err)
		}
		got := ""
		if errMsg != nil {
			got = *errMsg
		}
		if status != tt.wantStatus || got != tt.wantError {
			t.Errorf("%s = %s/%q, want %s/%q", tt.id, status, got, tt.wantStatus, tt.wantError)
		}
	}
}
