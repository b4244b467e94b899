// Package storage keeps data files under generated IDs, so the CLI and the
// query API can refer to experiments without file paths.
//
// Two backends exist: [BoltStore], a single local database file and the
// default, and [MongoStore] for a shared deployment.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/celltrack/pkg/cache"
	"github.com/matzehuels/celltrack/pkg/errors"
)

// Entry describes a stored data file.
type Entry struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Size      int       `json:"size" bson:"size"`
	DataHash  string    `json:"data_hash" bson:"data_hash"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Store persists data files.
type Store interface {
	// Put stores data under a new ID.
	Put(ctx context.Context, name string, data []byte) (Entry, error)
	// Get returns a stored file. Unknown IDs fail with errors.ErrCodeNotFound.
	Get(ctx context.Context, id string) (Entry, []byte, error)
	// List returns all entries, oldest first.
	List(ctx context.Context) ([]Entry, error)
	// Delete removes a stored file. Unknown IDs fail with errors.ErrCodeNotFound.
	Delete(ctx context.Context, id string) error
	Close() error
}

var (
	_ Store = (*BoltStore)(nil)
	_ Store = (*MongoStore)(nil)
)

func newEntry(name string, data []byte) (Entry, error) {
	if err := errors.ValidateExperimentName(name); err != nil {
		return Entry{}, err
	}
	return Entry{
		ID:        uuid.NewString(),
		Name:      name,
		Size:      len(data),
		DataHash:  cache.Hash(data),
		CreatedAt: time.Now().UTC(),
	}, nil
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeNotFound, "experiment %s not found", id)
}

// Backend names accepted by [Open].
const (
	BackendBolt  = "bolt"
	BackendMongo = "mongo"
)

// Config selects and configures a backend.
type Config struct {
	Backend       string `toml:"backend"`
	Path          string `toml:"path"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// Open opens the configured store. An empty backend means bolt.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendBolt:
		if cfg.Path == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "bolt store needs a path")
		}
		return NewBoltStore(cfg.Path)
	case BackendMongo:
		if cfg.MongoURI == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "mongo store needs a URI")
		}
		return NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unknown store backend %q (must be bolt or mongo)", cfg.Backend)
	}
}
