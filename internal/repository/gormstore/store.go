// Package gormstore implements the repository contracts on PostgreSQL
// through gorm.
package gormstore

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/scpnet/scp-backend/internal/repository"
)

const uniqueViolation = "23505"

type backend struct {
	db *gorm.DB
}

// New builds a Store bound to db.
func New(db *gorm.DB) *repository.Store {
	return newStore(db, &backend{db: db})
}

func newStore(db *gorm.DB, b repository.Backend) *repository.Store {
	return repository.NewStore(repository.Store{
		Users:      &userRepo{db: db},
		Suppliers:  &supplierRepo{db: db},
		Staff:      &staffRepo{db: db},
		Links:      &linkRepo{db: db},
		Products:   &productRepo{db: db},
		Orders:     &orderRepo{db: db},
		Complaints: &complaintRepo{db: db},
		Messages:   &messageRepo{db: db},
		AuditLogs:  &auditLogRepo{db: db},
	}, b)
}

func (b *backend) Transaction(ctx context.Context, fn func(tx *repository.Store) error) error {
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// nested calls reuse the open transaction
		return fn(newStore(tx, &backend{db: tx}))
	})
}

func (b *backend) Ping(ctx context.Context) error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return repository.ErrDuplicate
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return repository.ErrDuplicate
	}
	return err
}

// first loads one row into dest, mapping a missing row to (nil, nil).
func first[T any](q *gorm.DB, dest *T) (*T, error) {
	err := q.First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return dest, nil
}

func page(q *gorm.DB, p repository.Page) *gorm.DB {
	if p.Offset > 0 {
		q = q.Offset(p.Offset)
	}
	if p.Limit > 0 {
		q = q.Limit(p.Limit)
	}
	return q
}
