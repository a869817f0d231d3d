package database

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"marketplace/internal/config"
)

const migrationsDir = "../../migrations"

func readMigration(t *testing.T, name string) string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join(migrationsDir, name))
	if err != nil {
		t.Fatalf("Failed to read migration %s: %v", name, err)
	}
	return string(content)
}

func TestMigrationFilesExist(t *testing.T) {
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		t.Fatal("Migrations directory does not exist")
	}

	expectedMigrations := []string{
		"00001_create_profiles_table.sql",
		"00002_create_products_table.sql",
		"00003_create_favourites_table.sql",
		"00004_create_reviews_table.sql",
		"00005_create_increment_views_function.sql",
		"00006_create_updated_at_trigger.sql",
	}

	for _, migration := range expectedMigrations {
		path := filepath.Join(migrationsDir, migration)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			t.Errorf("Migration file %s does not exist", migration)
		}
	}
}

func TestMigrationFilesHaveUpAndDown(t *testing.T) {
	files, err := os.ReadDir(migrationsDir)
	if err != nil {
		t.Fatalf("Failed to read migrations directory: %v", err)
	}

	sqlFileCount := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		sqlFileCount++
		contentStr := readMigration(t, file.Name())

		for _, directive := range []string{
			"-- +goose Up",
			"-- +goose Down",
			"-- +goose StatementBegin",
			"-- +goose StatementEnd",
		} {
			if !strings.Contains(contentStr, directive) {
				t.Errorf("Migration file %s missing '%s' directive", file.Name(), directive)
			}
		}
	}

	if sqlFileCount == 0 {
		t.Error("No SQL migration files found")
	}
}

func TestMigrationFilesCreateExpectedTables(t *testing.T) {
	expectedTables := map[string]string{
		"profiles":   "00001_create_profiles_table.sql",
		"products":   "00002_create_products_table.sql",
		"favourites": "00003_create_favourites_table.sql",
		"reviews":    "00004_create_reviews_table.sql",
	}

	for tableName, migrationFile := range expectedTables {
		contentStr := readMigration(t, migrationFile)

		if !strings.Contains(contentStr, "CREATE TABLE IF NOT EXISTS "+tableName) {
			t.Errorf("Migration file %s does not create table %s", migrationFile, tableName)
		}
		if !strings.Contains(contentStr, "DROP TABLE IF EXISTS "+tableName) {
			t.Errorf("Migration file %s does not drop table %s in down section", migrationFile, tableName)
		}
	}
}

func TestProductsTableHasRequiredColumns(t *testing.T) {
	contentStr := readMigration(t, "00002_create_products_table.sql")

	requiredColumns := []string{
		"id UUID PRIMARY KEY",
		"owner_id UUID NOT NULL",
		"name VARCHAR(40)",
		"description VARCHAR(1000)",
		"price DECIMAL",
		"tags TEXT[]",
		"thumbnail_url VARCHAR(500) NOT NULL",
		"reference_images TEXT[]",
		"visibility VARCHAR",
		"shares INTEGER",
		"views INTEGER",
		"created_at TIMESTAMP",
	}

	for _, column := range requiredColumns {
		if !strings.Contains(contentStr, column) {
			t.Errorf("Products table missing required column definition: %s", column)
		}
	}

	if !strings.Contains(contentStr, "CHECK (price >= 0)") {
		t.Error("Products table missing non-negative price check")
	}
	if !strings.Contains(contentStr, "DEFAULT 'public'") {
		t.Error("Products visibility should default to public")
	}
}

func TestFavouritesTableHasUniqueConstraintAndNoProductForeignKey(t *testing.T) {
	contentStr := readMigration(t, "00003_create_favourites_table.sql")

	if !strings.Contains(contentStr, "UNIQUE (user_id, product_id)") {
		t.Error("Favourites table missing unique constraint on (user_id, product_id)")
	}
	if strings.Contains(contentStr, "FOREIGN KEY (product_id)") {
		t.Error("Favourites must not cascade with products; orphans are handled on read")
	}
	if !strings.Contains(contentStr, "DEFAULT 'low'") {
		t.Error("Favourites priority should default to low")
	}
}

func TestReviewsTableKeepsReplyFieldsPaired(t *testing.T) {
	contentStr := readMigration(t, "00004_create_reviews_table.sql")

	if !strings.Contains(contentStr, "(reply_text IS NULL) = (replied_at IS NULL)") {
		t.Error("Reviews table missing reply pairing constraint")
	}
	if !strings.Contains(contentStr, "rating BETWEEN 1 AND 5") {
		t.Error("Reviews table missing rating range check")
	}
}

func TestDSNIncludesSchemaAndSSLMode(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:     "db.internal",
		Port:     "5433",
		User:     "market",
		Password: "p@ss word",
		Database: "marketplace",
		Schema:   "public",
		SSLMode:  "disable",
	})

	for _, want := range []string{
		"postgres://market:",
		"@db.internal:5433/marketplace",
		"sslmode=disable",
		"search_path=public",
	} {
		if !strings.Contains(dsn, want) {
			t.Errorf("DSN %q missing %q", dsn, want)
		}
	}
	if strings.Contains(dsn, "p@ss word") {
		t.Errorf("DSN should escape the password, got %q", dsn)
	}
}
