// Package storage selects the persistence engine configured by storage.engine.
package storage

import (
	"context"
	"io"

	"github.com/pkg/errors"

	"github.com/trezcool/alama/core"
	"github.com/trezcool/alama/core/gradebook"
	"github.com/trezcool/alama/core/user"
	"github.com/trezcool/alama/storage/database"
	filestore "github.com/trezcool/alama/storage/file"
	inmemdb "github.com/trezcool/alama/storage/inmem"
)

const (
	EngineFile     = "file"
	EnginePostgres = "postgres"
	EngineMemory   = "memory"
)

// Repositories groups the repositories of one engine.
type Repositories struct {
	Users      user.Repository
	Gradebooks gradebook.Repository
	closer     io.Closer
}

// Close releases the engine's resources, if any.
func (r *Repositories) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

func Open(ctx context.Context, conf *core.Config) (*Repositories, error) {
	switch conf.StorageEngine {
	case "", EngineFile:
		return &Repositories{
			Users:      filestore.NewUserRepository(conf.CredentialsPath()),
			Gradebooks: filestore.NewGradebookRepository(conf.DataDir),
		}, nil

	case EngineMemory:
		db := inmemdb.Open()
		return &Repositories{
			Users:      inmemdb.NewUserRepository(db),
			Gradebooks: inmemdb.NewGradebookRepository(db),
		}, nil

	case EnginePostgres:
		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}
		if err = database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &Repositories{
			Users:      database.NewUserRepository(db),
			Gradebooks: database.NewGradebookRepository(db),
			closer:     db,
		}, nil
	}
	return nil, errors.Errorf("unknown storage engine %q", conf.StorageEngine)
}
