package api

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"asdm/internal/app/config"
	"asdm/internal/app/dsn"
	"asdm/internal/app/handler"
	"asdm/internal/app/redis"
	"asdm/internal/app/repository"
	"asdm/internal/app/storage"
	"asdm/internal/pkg"
)

// StartServer wires configuration, storage backends and the HTTP handler, then
// serves until the router stops.
func StartServer() error {
	logrus.Info("Starting server")
	ctx := context.Background()

	cfg, err := config.NewConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logrus.SetLevel(cfg.Level())

	repo, err := openRepository(cfg.DB)
	if err != nil {
		return fmt.Errorf("repository: %w", err)
	}
	defer repo.Close()

	sessions, err := redis.New(ctx, cfg.Redis, cfg.Session.TTL)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer sessions.Close()

	files, err := openFileStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("file store: %w", err)
	}

	h := handler.NewHandler(repo, sessions, files, cfg)
	handler.RegisterValidatorTags()

	application := pkg.NewApp(cfg, gin.Default(), h)
	application.RunApp()
	return nil
}

func openRepository(cfg config.DBConfig) (*repository.Repository, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.Path)
	case "postgres":
		dsnStr := dsn.FromEnv()
		if dsnStr == "" {
			return nil, fmt.Errorf("DB_HOST is not set")
		}
		dialector = postgres.Open(dsnStr)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
	logrus.Infof("Connecting to %s database", cfg.Driver)
	return repository.Open(dialector)
}

func openFileStore(ctx context.Context, cfg *config.Config) (storage.FileStore, error) {
	switch cfg.Storage.Backend {
	case "local":
		logrus.Infof("Storing documents under %s", cfg.Storage.UploadDir)
		return storage.NewLocalStore(afero.NewOsFs(), cfg.Storage.UploadDir)
	case "minio":
		return storage.NewMinIOStore(ctx, cfg.MinIO)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
