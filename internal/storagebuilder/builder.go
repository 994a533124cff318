package storagebuilder

import (
	"context"
	"fmt"
	"time"

	"github.com/rmonteiro-pa/ciap-agenda/internal/storage"
	memorystorage "github.com/rmonteiro-pa/ciap-agenda/internal/storage/memory"
	sqlstorage "github.com/rmonteiro-pa/ciap-agenda/internal/storage/sql"
)

type Config struct {
	StorageType  string
	SnapshotPath string
	Database     sqlstorage.Config
}

func New(config Config) (storage.Storage, error) {
	switch config.StorageType {
	case "memory":
		s := memorystorage.New(memorystorage.Config{SnapshotPath: config.SnapshotPath})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Connect(ctx); err != nil {
			return nil, fmt.Errorf("failed to load snapshot %s: %w", config.SnapshotPath, err)
		}
		return s, nil
	case "sql":
		s := sqlstorage.New(config.Database)
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		err := s.Connect(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database %s %d: %w", config.Database.Host, config.Database.Port, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage type %s", config.StorageType)
	}
}
