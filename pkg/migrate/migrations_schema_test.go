package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/chatstore-backend/pkg/migrate"
)

func TestInitSchemaCoversAllTables(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_init_schema.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no init schema migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE users",
		"CREATE TABLE categories",
		"CREATE TABLE products",
		"CREATE TABLE cart_items",
		"CREATE TABLE orders",
		"CREATE TABLE coupons",
		"CREATE TABLE payment_methods",
		"CREATE TABLE payment_proofs",
		"CREATE TABLE topups",
		"CREATE TABLE tickets",
		"CREATE TABLE ticket_replies",
		"CREATE TABLE wallet_transactions",
		"CREATE TABLE settings",
		"CREATE TABLE outbox_events",
		"platform_id        BIGINT NOT NULL UNIQUE",
		"PRIMARY KEY (user_id, product_id)",
		"DROP TABLE IF EXISTS users",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestValidateMigrationsDir(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations dir failed validation: %v", err)
	}
}
