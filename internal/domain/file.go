package domain

import "context"

// FileStore abstracts raw file byte storage.
// The database implementations store BLOBs next to the users table;
// the S3 implementation targets any S3-compatible bucket.
type FileStore interface {
	Save(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) (data []byte, contentType string, err error)
	Delete(ctx context.Context, key string) error
	// URL returns the address clients use to fetch the stored object.
	URL(key string) string
}
