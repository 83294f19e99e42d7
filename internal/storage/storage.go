package storage

import "io"

// Storage persists detection snapshots outside the database.
type Storage interface {
	SaveSnapshot(data []byte) (string, error)
	OpenSnapshot(name string) (io.ReadSeekCloser, error)
	DeleteSnapshot(name string) error
}
