package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// 数据库类型
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// Config 数据库配置
type Config struct {
	Type         string        `yaml:"type" env:"DB_TYPE" env-default:"sqlite"`
	Path         string        `yaml:"path" env:"DB_PATH" env-default:"data/familytree.db"`
	Host         string        `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port         int           `yaml:"port" env:"DB_PORT" env-default:"5432"`
	Username     string        `yaml:"username" env:"DB_USER"`
	Password     string        `yaml:"password" env:"DB_PASSWORD"`
	Database     string        `yaml:"database" env:"DB_NAME" env-default:"familytree"`
	MaxIdleConns int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	MaxOpenConns int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"20"`
	MaxLifetime  time.Duration `yaml:"max_lifetime" env:"DB_MAX_LIFETIME" env-default:"1h"`
	LogLevel     string        `yaml:"log_level" env:"DB_LOG_LEVEL" env-default:"warn"`
}

// DB 数据库连接实例
type DB struct {
	*gorm.DB
	driver string
	path   string
	log    *zap.Logger
}

// InitDB 初始化数据库连接并执行迁移
func InitDB(ctx context.Context, cfg Config, log *zap.Logger) (*DB, error) {
	db, err := Open(cfg, log)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info("database connected", zap.String("driver", db.driver))
	return db, nil
}

// Open 连接数据库，不执行迁移
func Open(cfg Config, log *zap.Logger) (*DB, error) {
	if log == nil {
		log = zap.NewNop()
	}

	// 配置GORM日志
	config := &gorm.Config{
		Logger: logger.New(zap.NewStdLog(log.Named("gorm")), logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogLevel(cfg.LogLevel),
			IgnoreRecordNotFoundError: true,
		}),
	}

	var (
		dialector gorm.Dialector
		err       error
	)
	switch cfg.Type {
	case DriverMySQL:
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)
		dialector = mysql.Open(dsn)
	case DriverPostgres:
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database)
		dialector = postgres.Open(dsn)
	case DriverSQLite, "":
		cfg.Type = DriverSQLite
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err = os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		dialector = sqlite.Dialector{DriverName: "sqlite", DSN: sqliteDSN(cfg.Path)}
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	gormDB, err := gorm.Open(dialector, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// 配置连接池
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	if cfg.Type == DriverSQLite {
		// SQLite 单连接，写操作在进程内串行
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetConnMaxLifetime(cfg.MaxLifetime)
	}

	return &DB{DB: gormDB, driver: cfg.Type, path: cfg.Path, log: log}, nil
}

// Driver 数据库类型
func (db *DB) Driver() string {
	return db.driver
}

// Path SQLite 数据库文件路径
func (db *DB) Path() string {
	return db.path
}

// Close 关闭数据库连接
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}

// sqliteDSN 每个连接都需要开启外键约束
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info", "debug":
		return logger.Info
	default:
		return logger.Warn
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
