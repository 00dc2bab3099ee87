package config

import (
	"fmt"
	"time"

	"festival-chat-api/config/common"
	"festival-chat-api/config/logger"
	"festival-chat-api/repository"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type DBConfig struct {
	*gorm.DB
	*logger.AppLogger
}

func NewDB(config *common.Config, log *logger.AppLogger) (*DBConfig, error) {
	db, err := initDatabase(config, log)
	if err != nil {
		return nil, err
	}
	return &DBConfig{DB: db, AppLogger: log}, nil
}

func (db *DBConfig) GetDB() *gorm.DB {
	return db.DB
}

func (db *DBConfig) Close() error {
	conn, err := db.DB.DB()
	if err != nil {
		return err
	}
	return conn.Close()
}

func dialector(cfg *common.Config) (gorm.Dialector, error) {
	switch cfg.GetDatabaseDriver() {
	case "postgres", "":
		dbHost, dbUser, dbPassword, dbName, dbPort := cfg.GetDatabaseConfig()
		dsn := fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			dbHost, dbUser, dbPassword, dbName, dbPort,
		)
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(cfg.GetDatabasePath()), nil
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.GetDatabaseDriver())
}

func initDatabase(cfg *common.Config, log *logger.AppLogger) (*gorm.DB, error) {
	dial, err := dialector(cfg)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dial, repository.GormConfig())
	if err != nil {
		log.Http.Error.Error().Err(err).Msg("failed to connect to database")
		return nil, err
	}
	log.Http.Info.Info().Str("driver", cfg.GetDatabaseDriver()).Msg("Connection Opened to Database")

	conn, err := db.DB()
	if err != nil {
		return nil, err
	}

	if err := repository.Migrate(db); err != nil {
		log.Http.Error.Error().Err(err).Msg("failed run migration")
		return nil, err
	}

	if cfg.GetDatabaseDriver() == "sqlite" {
		// one writer at a time
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxIdleConns(10)
		conn.SetMaxOpenConns(100)
	}
	conn.SetConnMaxLifetime(time.Second * time.Duration(300))
	return db, nil
}
