package database

import (
	"fmt"
	"time"

	"github.com/yukikurage/pandora-pm/internal/config"
	"github.com/yukikurage/pandora-pm/internal/utils"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"k8s.io/klog/v2"
)

// Connect opens the SQL database selected by cfg.DBDriver.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newLogger(klogWriter{}, cfg.IsProduction()),
		TranslateError: true,
		NowFunc:        utils.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.DBDriver == config.DriverSQLite {
		// SQLite allows a single writer, and each :memory: connection is a
		// separate database.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	klog.InfoS("Database connection established", "driver", cfg.DBDriver)
	return db, nil
}

// klogWriter routes GORM's log lines through klog.
type klogWriter struct{}

func (klogWriter) Printf(format string, args ...interface{}) {
	klog.InfofDepth(1, format, args...)
}

// newLogger logs every statement in debug mode and only slow or failed ones
// in release mode. Lookups that find nothing are expected and not logged.
func newLogger(w logger.Writer, production bool) logger.Interface {
	logLevel := logger.Info
	if production {
		logLevel = logger.Warn
	}
	return logger.New(w, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logLevel,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

func dialectorFor(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case config.DriverMySQL:
		// clientFoundRows makes RowsAffected count matched rows, so an update
		// that writes identical values is not mistaken for a missing row.
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC&clientFoundRows=true",
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBHost,
			cfg.DBPort,
			cfg.DBName,
		)
		return mysql.Open(dsn), nil
	case config.DriverPostgres:
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			cfg.DBHost,
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBName,
			cfg.DBPort,
		)
		return postgres.Open(dsn), nil
	case config.DriverSQLite:
		return sqlite.Open(cfg.SQLitePath), nil
	default:
		return nil, fmt.Errorf("unsupported SQL driver %q", cfg.DBDriver)
	}
}
