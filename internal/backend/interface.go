// Package backend opens the configured transaction store and wraps it with
// change publishing and metrics.
package backend

import (
	"context"
	"time"

	"kharcha/internal/store"
)

// CleanupFunc releases whatever the backend opened.
type CleanupFunc func() error

type BackendResult struct {
	Store   store.Store
	Cleanup CleanupFunc
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	// Location translates stored timestamps into calendar dates.
	Location *time.Location

	// SQLite
	SQLiteDBPath string

	// Firestore
	FirestoreProjectID    string
	GoogleCredentialsFile string

	// Memory
	DataDirectory string

	// Change events; empty URL disables publishing.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

type BackendType string

const (
	MemoryBackend    BackendType = "memory"
	SQLiteBackend    BackendType = "sqlite"
	FirestoreBackend BackendType = "firestore"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, FirestoreBackend:
		return true
	default:
		return false
	}
}
