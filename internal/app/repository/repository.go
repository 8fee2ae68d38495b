package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"asdm/internal/app/apperr"
	"asdm/internal/app/ds"
)

type Repository struct {
	db *gorm.DB
}

// New connects to Postgres and migrates the schema.
func New(dsn string) (*Repository, error) {
	return Open(postgres.Open(dsn))
}

// Open connects through any gorm dialector and migrates the schema.
func Open(dialector gorm.Dialector) (*Repository, error) {
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}

	r := NewWithDB(db)
	if err := r.Migrate(); err != nil {
		return nil, err
	}
	return r, nil
}

// NewWithDB wraps an already opened connection without migrating.
func NewWithDB(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Migrate() error {
	if err := r.db.AutoMigrate(ds.Models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// write returns a session that never touches associations, so saving a row
// with a preloaded relation does not upsert the related rows.
func (r *Repository) write(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Omit(clause.Associations)
}

func notFound(err error, entity string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(entity, id)
	}
	return err
}

// orderBy applies a "field" or "-field" ordering when field is whitelisted in
// columns; anything else falls back to def.
func orderBy(q *gorm.DB, ordering string, columns map[string]string, def string) *gorm.DB {
	ordering = strings.TrimSpace(ordering)
	desc := strings.HasPrefix(ordering, "-")
	col, ok := columns[strings.TrimPrefix(ordering, "-")]
	if !ok {
		return q.Order(def)
	}
	if desc {
		col += " DESC"
	}
	return q.Order(col + ", id")
}

// like builds a case-insensitive LIKE pattern usable on Postgres and SQLite.
func like(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}
