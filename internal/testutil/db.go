// Package testutil provides a migrated PostgreSQL database for tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/mtlprog/bitacora/internal/database"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresImage    = "postgres:16-alpine"
	postgresUser     = "bitacora"
	postgresPassword = "bitacora"
	postgresDB       = "bitacora"
)

// TestDB holds the test database pool and, when one was started, its container.
type TestDB struct {
	Pool      *pgxpool.Pool
	db        *database.DB
	container testcontainers.Container
}

// SetupTestDB connects to DATABASE_URL, or starts a disposable PostgreSQL
// container when it is unset, and applies all migrations.
func SetupTestDB(t testing.TB) *TestDB {
	t.Helper()
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		t.Logf("No .env file loaded: %v. Proceeding with environment variables.", err)
	}

	td := &TestDB{}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		databaseURL = td.startContainer(ctx, t)
	}

	var (
		db  *database.DB
		err error
	)
	for i := 0; i < 10; i++ {
		db, err = database.New(ctx, databaseURL, database.DefaultOptions())
		if err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if err != nil {
		td.terminate(t)
		t.Fatalf("Failed to connect to test DB: %v", err)
	}
	td.db = db
	td.Pool = db.Pool()

	if err := database.RunMigrations(ctx, td.Pool); err != nil {
		td.Teardown(t)
		t.Fatalf("Failed to apply migrations: %v", err)
	}

	return td
}

func (td *TestDB) startContainer(ctx context.Context, t testing.TB) string {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        postgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     postgresUser,
			"POSTGRES_PASSWORD": postgresPassword,
			"POSTGRES_DB":       postgresDB,
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	td.container = container

	host, err := container.Host(ctx)
	if err != nil {
		td.terminate(t)
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		td.terminate(t)
		t.Fatalf("Failed to get container port: %v", err)
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		postgresUser, postgresPassword, host, port.Port(), postgresDB)
}

func (td *TestDB) terminate(t testing.TB) {
	if td.container == nil {
		return
	}
	if err := td.container.Terminate(context.Background()); err != nil {
		t.Errorf("Failed to terminate container: %v", err)
	}
}

// Reset removes all task requests and restores the seeded categories, with
// General as the default.
func (td *TestDB) Reset(t testing.TB) {
	t.Helper()
	ctx := context.Background()

	_, err := td.Pool.Exec(ctx, "TRUNCATE task_request_categories, task_requests RESTART IDENTITY CASCADE")
	if err != nil {
		t.Fatalf("Failed to truncate tables: %v", err)
	}

	_, err = td.Pool.Exec(ctx, `
		INSERT INTO task_request_categories (name, description, is_default)
		VALUES ('General', 'Requests without a more specific category', TRUE),
		       ('Maintenance', 'Facilities and equipment maintenance', FALSE),
		       ('IT Support', 'Hardware, software and access requests', FALSE)
	`)
	if err != nil {
		t.Fatalf("Failed to seed categories: %v", err)
	}
}

// Teardown closes the pool and stops the container, if any.
func (td *TestDB) Teardown(t testing.TB) {
	if td.db != nil {
		td.db.Close()
	}
	td.terminate(t)
}
