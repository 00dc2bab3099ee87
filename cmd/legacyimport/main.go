// Command legacyimport copies users, chats and messages of the legacy MongoDB deployment
// into the configured relational store.
package main

import (
	"context"
	"os"
	"time"

	"festival-chat-api/access"
	"festival-chat-api/config"
	"festival-chat-api/config/common"
	"festival-chat-api/config/logger"
	"festival-chat-api/migration"
)

func main() {
	cfg := common.NewViper()
	log := config.NewLogger(cfg)
	appLog := logger.NewLogger(cfg.GetLogDir())

	uri, database := cfg.GetLegacyMongoConfig()
	if uri == "" {
		log.Error("LEGACY_MONGO_URI is required")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()

	db, err := config.NewDB(cfg, appLog)
	if err != nil {
		log.WithError(err).Fatal("Failed to open database")
	}
	defer db.Close()

	source, disconnect, err := migration.NewMongoSource(ctx, uri, database)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to legacy MongoDB")
	}
	defer disconnect(context.Background())

	policy := access.NewPolicy(cfg.GetBootstrapAdminEmail(), access.ListingPolicy(cfg.GetChatListingPolicy()))
	report, err := migration.NewImporter(source, db.GetDB(), policy, appLog).Run(ctx)
	if err != nil {
		log.WithError(err).Error("Legacy import failed")
		os.Exit(1)
	}
	log.Infof("Imported %d users, %d chats, %d messages (%d skipped)", report.Users, report.Chats, report.Messages, report.Skipped)
}
