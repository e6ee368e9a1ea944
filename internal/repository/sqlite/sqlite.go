package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/msomdec/taskdesk/internal/domain"
	"github.com/msomdec/taskdesk/internal/repository/sqlite/migrations"

	_ "modernc.org/sqlite"
)

// DB is the SQLite implementation of domain.Database.
type DB struct {
	SqlDB *sql.DB
	users *UserRepository
	files *fileStore
}

// New opens a SQLite database at the given path and configures it for use.
// It enables WAL mode and foreign keys.
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Enable foreign key enforcement.
	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	// A single connection serializes writers, which also makes the
	// email uniqueness check race-free.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	d := &DB{SqlDB: db}
	d.users = &UserRepository{db: db}
	d.files = &fileStore{db: db}
	return d, nil
}

// Migrate applies the embedded schema migrations.
func (d *DB) Migrate(ctx context.Context) error {
	return migrations.Run(ctx, d.SqlDB)
}

// Ping checks that the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.SqlDB.PingContext(ctx)
}

func (d *DB) Users() domain.UserRepository { return d.users }
func (d *DB) Files() domain.FileStore      { return d.files }

func (d *DB) Close() error {
	return d.SqlDB.Close()
}
