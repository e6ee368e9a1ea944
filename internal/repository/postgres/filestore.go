package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/msomdec/taskdesk/internal/domain"
)

// FilesPath is the route prefix under which stored blobs are served.
const FilesPath = "/files/"

// fileStore keeps uploaded bytes in a BYTEA column.
type fileStore struct {
	db *sql.DB
}

func (s *fileStore) Save(ctx context.Context, key, contentType string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO file_blobs (storage_key, content_type, data) VALUES ($1, $2, $3)
		 ON CONFLICT (storage_key) DO UPDATE SET content_type = EXCLUDED.content_type, data = EXCLUDED.data`,
		key, contentType, data,
	)
	if err != nil {
		return fmt.Errorf("save file blob: %w", err)
	}
	return nil
}

func (s *fileStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	var (
		data        []byte
		contentType string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT data, content_type FROM file_blobs WHERE storage_key = $1`, key,
	).Scan(&data, &contentType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", domain.ErrNotFound
		}
		return nil, "", fmt.Errorf("get file blob: %w", err)
	}
	return data, contentType, nil
}

func (s *fileStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM file_blobs WHERE storage_key = $1`, key); err != nil {
		return fmt.Errorf("delete file blob: %w", err)
	}
	return nil
}

func (s *fileStore) URL(key string) string {
	return FilesPath + key
}
