package providers

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/samber/do/v2"

	"github.com/bookmate/bookmate-server/internal/awscfg"
	"github.com/bookmate/bookmate-server/internal/config"
	"github.com/bookmate/bookmate-server/internal/logger"
	"github.com/bookmate/bookmate-server/internal/store"
	"github.com/bookmate/bookmate-server/internal/store/dynamo"
	"github.com/bookmate/bookmate-server/internal/store/sqlite"
)

// StoreHandle wraps the selected backend with shutdown capability.
type StoreHandle struct {
	store.RecordStore
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the backend named by the configuration.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	st, err := openStore(cfg, log)
	if err != nil {
		return nil, err
	}
	return &StoreHandle{RecordStore: st}, nil
}

func openStore(cfg *config.Config, log *logger.Logger) (store.RecordStore, error) {
	switch cfg.Data.Backend {
	case config.BackendSQLite:
		path := filepath.Join(cfg.Data.BasePath, "bookmate.db")
		st, err := sqlite.Open(path, log.Logger)
		if err != nil {
			return nil, err
		}
		log.Info("Database initialized", "backend", "sqlite", "path", path)
		return st, nil

	case config.BackendDynamoDB:
		awsCfg, err := awscfg.Load(context.Background(), cfg.AWS)
		if err != nil {
			return nil, err
		}
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			o.BaseEndpoint = awscfg.Endpoint(cfg.AWS)
		})
		log.Info("Database initialized",
			"backend", "dynamodb",
			"region", cfg.AWS.Region,
			"users_table", cfg.AWS.UsersTable,
			"books_table", cfg.AWS.BooksTable,
		)
		return dynamo.New(client, dynamo.Tables{
			Users:    cfg.AWS.UsersTable,
			Books:    cfg.AWS.BooksTable,
			Counters: cfg.AWS.CountersTable,
			Sessions: cfg.AWS.SessionsTable,
		}, log.Logger), nil

	case config.BackendBadger, "":
		path := filepath.Join(cfg.Data.BasePath, "db")
		st, err := store.New(path, log.Logger)
		if err != nil {
			return nil, err
		}
		log.Info("Database initialized", "backend", "badger", "path", path)
		return st, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Data.Backend)
	}
}
