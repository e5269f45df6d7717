// Package repository 保存快照任务的执行记录
package repository

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite" // 纯 Go SQLite 驱动，不需要 CGO

	"github.com/jimyag/vdisnap/internal/vdisnap/repository/model"
)

// Repository 快照任务数据库
type Repository struct {
	db *gorm.DB
}

// sqliteDSN 打开 WAL，并在写锁冲突时等待而不是直接报 SQLITE_BUSY
func sqliteDSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	return "file:" + path + "?" + q.Encode()
}

// New 打开 dbPath 上的数据库并迁移表结构，目录不存在时创建
func New(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := sqliteDSN(dbPath)
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", dbPath, err)
	}
	// SQLite 同一时间只允许一个写者
	sqlDB.SetMaxOpenConns(1)

	db, err := gorm.Open(sqlite.Dialector{DriverName: "sqlite", DSN: dsn, Conn: sqlDB}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("open gorm database: %w", err)
	}

	r := &Repository{db: db}
	if err := r.migrate(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repository) migrate() error {
	if err := r.db.AutoMigrate(&model.SnapshotJob{}); err != nil {
		return fmt.Errorf("migrate snapshot jobs: %w", err)
	}
	return nil
}

func (r *Repository) DB() *gorm.DB {
	return r.db
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	r.db = nil
	return sqlDB.Close()
}
