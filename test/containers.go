package test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// StartPostgres runs a migrated Postgres container for the duration of the
// test and returns a connection to it.
func StartPostgres(ctx context.Context, t *testing.T) *sql.DB {
	t.Helper()

	container, err := postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("marketplace"),
		postgres.WithUsername("marketplace"),
		postgres.WithPassword("marketplace"),
		postgres.BasicWaitStrategies(),
	)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	if err := migrateUp(dsn); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func migrateUp(dsn string) error {
	_, file, _, _ := runtime.Caller(0)
	source := "file://" + filepath.Join(filepath.Dir(file), "..", "migrations")

	m, err := migrate.New(source, dsn)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// StartKafka runs a single-node broker and returns its bootstrap addresses.
func StartKafka(ctx context.Context, t *testing.T) []string {
	t.Helper()

	container, err := kafka.Run(ctx, "confluentinc/confluent-local:7.8.0", kafka.WithClusterID("marketplace-test"))
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("failed to start kafka container: %v", err)
	}

	brokers, err := container.Brokers(ctx)
	if err != nil {
		t.Fatalf("failed to get kafka brokers: %v", err)
	}
	return brokers
}

func SeedUser(t *testing.T, db *sql.DB, authID, name string) int64 {
	t.Helper()

	var id int64
	err := db.QueryRow(`
		INSERT INTO users (auth_user_id, name, email, is_seller)
		VALUES ($1, $2, $3, TRUE)
		RETURNING id
	`, authID, name, authID+"@example.com").Scan(&id)
	if err != nil {
		t.Fatalf("failed to seed user %s: %v", authID, err)
	}
	return id
}

// SeedProduct inserts a product in the first seeded category. A nil stock
// means unlimited.
func SeedProduct(t *testing.T, db *sql.DB, ownerID int64, price string, stock *int) int64 {
	t.Helper()

	var id int64
	err := db.QueryRow(`
		INSERT INTO products (user_id, category_id, name, price, stock, images)
		VALUES ($1, (SELECT MIN(id) FROM categories), $2, $3, $4, '{cover.jpg}')
		RETURNING id
	`, ownerID, fmt.Sprintf("product of %d", ownerID), price, stock).Scan(&id)
	if err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	return id
}
