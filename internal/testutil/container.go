package testutil

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/bissquit/quotedesk/internal/pkg/postgres"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// defaultPostgresImage matches the version used in deployment.
// QUOTEDESK_TEST_POSTGRES_IMAGE overrides it.
const defaultPostgresImage = "postgres:16-alpine"

// Database is a throwaway PostgreSQL instance with the schema applied.
type Database struct {
	container *tcpostgres.PostgresContainer
	URL       string
}

// StartDatabase runs PostgreSQL in a container and applies the migrations
// found in fsys.
func StartDatabase(ctx context.Context, fsys fs.FS) (*Database, error) {
	image := os.Getenv("QUOTEDESK_TEST_POSTGRES_IMAGE")
	if image == "" {
		image = defaultPostgresImage
	}

	container, err := tcpostgres.Run(ctx, image,
		tcpostgres.WithDatabase("quotedesk"),
		tcpostgres.WithUsername("quotedesk"),
		tcpostgres.WithPassword("quotedesk"),
		testcontainers.WithWaitStrategy(
			// the server restarts once after initdb, hence two occurrences
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres container: %w", err)
	}

	db := &Database{container: container}

	db.URL, err = container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = db.Close(ctx)
		return nil, fmt.Errorf("get connection string: %w", err)
	}

	if err := postgres.Migrate(fsys, db.URL, postgres.Up); err != nil {
		_ = db.Close(ctx)
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return db, nil
}

// Close terminates the container.
func (d *Database) Close(ctx context.Context) error {
	return d.container.Terminate(ctx)
}
