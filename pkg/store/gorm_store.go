package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
	"msgboard/pkg/domain"
)

const migrateLockID int64 = 51873401

const (
	defaultMaxOpenConns    = 10
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 30 * time.Minute
)

var timestampColumn = clause.Column{Name: "timestamp"}

// GormStoreOptions tunes the connection pool shared by all requests.
type GormStoreOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	SkipMigrate     bool
}

type GormStoreOption func(*GormStoreOptions)

// WithPool bounds the shared connection pool. Non-positive values keep defaults.
func WithPool(maxOpen, maxIdle int, lifetime time.Duration) GormStoreOption {
	return func(opts *GormStoreOptions) {
		if maxOpen > 0 {
			opts.MaxOpenConns = maxOpen
		}
		if maxIdle > 0 {
			opts.MaxIdleConns = maxIdle
		}
		if lifetime > 0 {
			opts.ConnMaxLifetime = lifetime
		}
	}
}

// WithoutMigrate skips schema migration at startup.
func WithoutMigrate() GormStoreOption {
	return func(opts *GormStoreOptions) {
		opts.SkipMigrate = true
	}
}

// GormStore implements MessageStore using GORM + Postgres.
type GormStore struct {
	db    *gorm.DB
	sqlDB *sql.DB
}

// NewGormStore opens the DB, bounds its pool and runs auto-migrations.
func NewGormStore(dsn string, options ...GormStoreOption) (*GormStore, error) {
	opts := GormStoreOptions{
		MaxOpenConns:    defaultMaxOpenConns,
		MaxIdleConns:    defaultMaxIdleConns,
		ConnMaxLifetime: defaultConnMaxLifetime,
	}
	for _, option := range options {
		if option != nil {
			option(&opts)
		}
	}
	if opts.MaxIdleConns > opts.MaxOpenConns {
		opts.MaxIdleConns = opts.MaxOpenConns
	}

	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)

	if !opts.SkipMigrate {
		if err := withMigrationLock(db, func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&MessageModel{}); err != nil {
				return fmt.Errorf("auto migrate: %w", err)
			}
			return nil
		}); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}
	return &GormStore{db: db, sqlDB: sqlDB}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// InsertMessage stores a message and returns the timestamp generated by Postgres.
func (s *GormStore) InsertMessage(ctx context.Context, msg domain.PendingMessage) (int64, error) {
	model := MessageModel{Username: msg.Username, Message: msg.Message}
	if err := insertMessage(s.db.WithContext(ctx), &model).Error; err != nil {
		return 0, fmt.Errorf("insert message: %w", err)
	}
	if model.Timestamp == 0 {
		return 0, errors.New("insert message: store returned no timestamp")
	}
	return model.Timestamp, nil
}

// QueryMessages returns messages within r ordered by timestamp ascending.
func (s *GormStore) QueryMessages(ctx context.Context, r domain.TimeRange) ([]domain.Message, error) {
	var models []MessageModel
	if err := queryMessages(s.db.WithContext(ctx), r).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	res := make([]domain.Message, 0, len(models))
	for _, m := range models {
		res = append(res, messageFromModel(m))
	}
	return res, nil
}

// Ping checks that a pooled connection can reach the database.
func (s *GormStore) Ping(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}

// Close releases every pooled connection.
func (s *GormStore) Close() error {
	return s.sqlDB.Close()
}

func insertMessage(tx *gorm.DB, model *MessageModel) *gorm.DB {
	return tx.Clauses(clause.Returning{Columns: []clause.Column{{Name: "id"}, timestampColumn}}).Create(model)
}

func queryMessages(tx *gorm.DB, r domain.TimeRange) *gorm.DB {
	tx = tx.Model(&MessageModel{})
	if r.Before != nil {
		tx = tx.Where(clause.Lt{Column: timestampColumn, Value: *r.Before})
	}
	if r.After != nil {
		tx = tx.Where(clause.Gt{Column: timestampColumn, Value: *r.After})
	}
	return tx.Order(clause.OrderByColumn{Column: timestampColumn})
}

func messageFromModel(m MessageModel) domain.Message {
	return domain.Message{
		Username:  m.Username,
		Message:   m.Message,
		Timestamp: m.Timestamp,
	}
}
