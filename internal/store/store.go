package store

import (
	"context"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"appliance-alarm-backend/internal/apperr"
)

// Store defines the interface for all database operations.
type Store interface {
	DeviceStore
	UserStore
	AlarmStore
	Ping(ctx context.Context) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

// Option customizes a gormStore.
type Option func(*gormStore)

// WithClock overrides the time source used to stamp alarms.
func WithClock(now func() time.Time) Option {
	return func(s *gormStore) {
		s.now = now
	}
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB, logger *zap.Logger, opts ...Option) Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &gormStore{db: db, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping checks the underlying connection.
func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// ParseID validates an entity identifier before it reaches the database.
func ParseID(op, entity, id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", apperr.Wrap(apperr.ErrMalformedID, op, entity, id)
	}
	return parsed.String(), nil
}

// storageErr logs a persistence failure with its context and returns the opaque form.
func (s *gormStore) storageErr(op, entity, id string, err error) error {
	s.logger.Error("storage operation failed",
		zap.String("op", op),
		zap.String("entity", entity),
		zap.String("id", id),
		zap.Error(err),
	)
	return apperr.Storage(op, entity, id, err)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
