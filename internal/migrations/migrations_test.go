package migrations

import (
	"io/fs"
	"sort"
	"strings"
	"testing"
)

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(FS, ".")
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("no migrations embedded")
	}

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if !sort.StringsAreSorted(names) {
		t.Errorf("migrations not in version order: %v", names)
	}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			data, err := fs.ReadFile(FS, name)
			if err != nil {
				t.Fatal(err)
			}
			body := string(data)
			if !strings.Contains(body, "-- +goose Up") || !strings.Contains(body, "-- +goose Down") {
				t.Error("migration must have goose Up and Down sections")
			}
			if strings.Contains(strings.ToUpper(body), "ADD COLUMN IF NOT EXISTS") {
				t.Error("schema changes must be new versions, not column probing")
			}
		})
	}
}
