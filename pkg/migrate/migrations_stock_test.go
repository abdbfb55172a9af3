package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/khoatrankai/autoparts-backoffice/pkg/migrate"
)

func TestStockMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_stock.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no stock migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS stock_records",
		"PRIMARY KEY (product_id, warehouse_id)",
		"CHECK (quantity >= 0)",
		"CREATE TABLE IF NOT EXISTS movement_entries",
		"id BIGSERIAL PRIMARY KEY",
		"CHECK (balance_after >= 0)",
		"idx_movement_pair",
		"DROP TABLE IF EXISTS movement_entries",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}
