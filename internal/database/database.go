package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"apparel-backoffice/internal/logging"
	"apparel-backoffice/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DBManager holds the writer connection and optional read replicas.
type DBManager struct {
	WriteDB *gorm.DB
	ReadDBs []*gorm.DB

	next   int
	mu     sync.Mutex
	logger *zap.Logger
}

// NewDBManager connects to a MySQL writer and any read replicas, then migrates the ledger table.
// A replica that fails to connect is skipped; reads fall back to the writer.
func NewDBManager(dsn string, readDSNs []string, log *zap.Logger) (*DBManager, error) {
	readers := make([]gorm.Dialector, 0, len(readDSNs))
	for _, r := range readDSNs {
		readers = append(readers, mysql.Open(r))
	}
	return Open(mysql.Open(dsn), readers, log)
}

// Open is NewDBManager for arbitrary gorm dialectors.
func Open(writer gorm.Dialector, readers []gorm.Dialector, log *zap.Logger) (*DBManager, error) {
	m := &DBManager{
		ReadDBs: make([]*gorm.DB, 0, len(readers)),
		logger:  logging.OrNop(log),
	}

	writeDB, err := gorm.Open(writer, gormConfig())
	if err != nil {
		return nil, fmt.Errorf("connect to write database: %w", err)
	}
	m.WriteDB = writeDB

	if err := m.WriteDB.AutoMigrate(&models.LedgerRecord{}); err != nil {
		return nil, fmt.Errorf("auto-migrate ledger: %w", err)
	}
	configurePool(m.WriteDB)

	for i, r := range readers {
		readDB, err := gorm.Open(r, gormConfig())
		if err != nil {
			m.logger.Warn("read replica unavailable", zap.Int("replica", i), zap.Error(err))
			continue
		}
		configurePool(readDB)
		m.ReadDBs = append(m.ReadDBs, readDB)
	}

	m.logger.Info("database connection established", zap.Int("read_replicas", len(m.ReadDBs)))
	return m, nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}
}

func configurePool(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)
}

// GetReadDB returns a read replica using round-robin
func (m *DBManager) GetReadDB() *gorm.DB {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.ReadDBs) == 0 {
		return m.WriteDB
	}

	db := m.ReadDBs[m.next]
	m.next = (m.next + 1) % len(m.ReadDBs)
	return db
}

// Ping checks the writer connection.
func (m *DBManager) Ping(ctx context.Context) error {
	sqlDB, err := m.WriteDB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases every connection pool.
func (m *DBManager) Close() error {
	var errs []error
	for _, db := range append([]*gorm.DB{m.WriteDB}, m.ReadDBs...) {
		if db == nil {
			continue
		}
		if sqlDB, err := db.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
