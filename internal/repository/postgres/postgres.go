package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/msomdec/taskdesk/internal/domain"
	"github.com/msomdec/taskdesk/internal/repository/postgres/migrations"
)

// DB is the PostgreSQL implementation of domain.Database.
type DB struct {
	SqlDB *sql.DB
	users *UserRepository
	files *fileStore
}

// New opens a PostgreSQL connection pool for dsn through the pgx driver.
func New(ctx context.Context, dsn string) (*DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return Wrap(db), nil
}

// Wrap builds a DB around an already opened connection pool.
func Wrap(db *sql.DB) *DB {
	return &DB{
		SqlDB: db,
		users: NewUserRepository(db),
		files: &fileStore{db: db},
	}
}

// Migrate applies the embedded goose migrations.
func (d *DB) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("configure goose: %w", err)
	}
	if err := goose.UpContext(ctx, d.SqlDB, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (d *DB) Ping(ctx context.Context) error {
	return d.SqlDB.PingContext(ctx)
}

func (d *DB) Users() domain.UserRepository { return d.users }
func (d *DB) Files() domain.FileStore      { return d.files }

func (d *DB) Close() error {
	return d.SqlDB.Close()
}
