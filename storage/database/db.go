package database

import (
	"context"
	"io"

	"github.com/pkg/errors"

	"github.com/trezcool/ptemanager/core"
	"github.com/trezcool/ptemanager/core/material"
	"github.com/trezcool/ptemanager/core/submission"
	"github.com/trezcool/ptemanager/core/task"
	"github.com/trezcool/ptemanager/core/user"
	inmemdb "github.com/trezcool/ptemanager/storage/database/inmem"
	mongodb "github.com/trezcool/ptemanager/storage/database/mongo"
	pgdb "github.com/trezcool/ptemanager/storage/database/postgres"
)

// storage engines
const (
	EngineMongo    = "mongo"
	EnginePostgres = "postgres"
	EngineMemory   = "memory"
)

var ErrUnknownEngine = errors.New("unsupported DATABASE_URL scheme")

// Repositories groups the repositories of one storage engine.
type Repositories struct {
	Users       user.Repository
	Tasks       task.Repository
	Submissions submission.Repository
	Materials   material.Repository

	closer io.Closer
}

func (r *Repositories) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Open connects to the database named by DATABASE_URL. Postgres schemas are migrated up.
func Open(ctx context.Context, conf *core.Config) (*Repositories, error) {
	switch engine := conf.Database.Engine(); engine {
	case EngineMongo:
		db, err := mongodb.Open(ctx, conf)
		if err != nil {
			return nil, err
		}
		return &Repositories{
			Users:       mongodb.NewUserRepository(db),
			Tasks:       mongodb.NewTaskRepository(db),
			Submissions: mongodb.NewSubmissionRepository(db),
			Materials:   mongodb.NewMaterialRepository(db),
			closer:      db,
		}, nil

	case EnginePostgres:
		db, err := pgdb.Open(ctx, conf)
		if err != nil {
			return nil, err
		}
		if err = pgdb.Migrate(db.DB, "up"); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &Repositories{
			Users:       pgdb.NewUserRepository(db),
			Tasks:       pgdb.NewTaskRepository(db),
			Submissions: pgdb.NewSubmissionRepository(db),
			Materials:   pgdb.NewMaterialRepository(db),
			closer:      db,
		}, nil

	case EngineMemory:
		return NewInMemory(inmemdb.Open()), nil

	default:
		return nil, errors.Wrapf(ErrUnknownEngine, "%q", engine)
	}
}

// NewInMemory returns repositories backed by db.
func NewInMemory(db *inmemdb.DB) *Repositories {
	return &Repositories{
		Users:       inmemdb.NewUserRepository(db),
		Tasks:       inmemdb.NewTaskRepository(db),
		Submissions: inmemdb.NewSubmissionRepository(db),
		Materials:   inmemdb.NewMaterialRepository(db),
		closer:      db,
	}
}
