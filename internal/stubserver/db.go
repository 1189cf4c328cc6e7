package stubserver

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/consent-management/internal"
	consentmodel "github.com/frahmantamala/consent-management/internal/core/datamodel/consent"
	"github.com/frahmantamala/consent-management/internal/core/datamodel/directory"
	feedbackmodel "github.com/frahmantamala/consent-management/internal/core/datamodel/feedback"
	"github.com/frahmantamala/consent-management/internal/core/datamodel/integration"
)

// OpenDB opens the stub's database. The ORM handles the record CRUD;
// the returned sqlx handle shares the same connection pool and serves
// the raw-SQL event feed and counts queries.
func OpenDB(cfg internal.DatabaseConfig) (*gorm.DB, *sqlx.DB, error) {
	gormCfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	}

	switch cfg.Driver {
	case "postgres":
		sqlDB, err := sql.Open("pgx", cfg.Source)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres connection: %w", err)
		}
		configurePool(sqlDB, cfg)
		if err := sqlDB.Ping(); err != nil {
			_ = sqlDB.Close()
			return nil, nil, fmt.Errorf("ping database: %w", err)
		}

		gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gormCfg)
		if err != nil {
			_ = sqlDB.Close()
			return nil, nil, fmt.Errorf("open gorm over postgres: %w", err)
		}
		return gdb, sqlx.NewDb(sqlDB, "pgx"), nil

	case "sqlite":
		gdb, err := gorm.Open(sqlite.Open(cfg.Source), gormCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite database: %w", err)
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("unwrap sqlite connection: %w", err)
		}
		configurePool(sqlDB, cfg)
		return gdb, sqlx.NewDb(sqlDB, "sqlite3"), nil

	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Migrate creates or updates the schema in place. Postgres deployments
// can use the goose migrations instead; this keeps the sqlite dev loop
// zero-setup.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&directory.User{},
		&directory.UserRole{},
		&directory.Fiduciary{},
		&directory.DPO{},
		&consentmodel.Consent{},
		&integration.APIKey{},
		&integration.Webhook{},
		&integration.PurposeCode{},
		&integration.FiduciaryEvent{},
		&feedbackmodel.Feedback{},
	)
}

func configurePool(db *sql.DB, cfg internal.DatabaseConfig) {
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
}
