package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/senyabanana/negotiation-service/internal/db"
	"github.com/senyabanana/negotiation-service/internal/handlers"
	"github.com/senyabanana/negotiation-service/internal/notify"
	"github.com/senyabanana/negotiation-service/internal/repository"
	"github.com/senyabanana/negotiation-service/internal/router"
	"github.com/senyabanana/negotiation-service/internal/router/config"
	"github.com/senyabanana/negotiation-service/internal/services"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	runDBMigration(cfg.MigrationURL, cfg.PostgresConn)

	dbPool, err := db.InitDb(cfg)
	if err != nil {
		log.Fatalf("error initializing database: %v", err)
	}
	defer dbPool.Close()

	logger := log.New(os.Stdout, "INFO: ", log.LstdFlags)

	proposalRepo := repository.NewPostgresProposalRepository(dbPool)
	versionRepo := repository.NewPostgresVersionRepository(dbPool)
	sessionRepo := repository.NewPostgresSessionRepository(dbPool)
	inviteRepo := repository.NewPostgresInviteRepository(dbPool)

	notifier := notify.NewLogNotifier(logger)

	proposalService := services.NewProposalService(proposalRepo, versionRepo, inviteRepo)
	negotiationService := services.NewNegotiationService(sessionRepo, versionRepo, proposalRepo, notifier, logger)
	bulkService := services.NewBulkService(negotiationService)
	timelineService := services.NewTimelineService(sessionRepo, versionRepo)

	proposalHandler := handlers.NewProposalHandler(proposalService, logger, 5*time.Second)
	negotiationHandler := handlers.NewNegotiationHandler(negotiationService, bulkService, timelineService, logger, 5*time.Second)

	routes := router.InitRoutes(proposalHandler, negotiationHandler)

	log.Printf("server is listening on %s...", cfg.ServerAddress)
	if err := http.ListenAndServe(cfg.ServerAddress, routes); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func runDBMigration(migrationURL string, dbSource string) {
	migration, err := migrate.New(migrationURL, dbSource)
	if err != nil {
		log.Fatal("cannot create a new migrate instance", err)
	}

	if err = migration.Up(); err != nil && err != migrate.ErrNoChange {
		log.Fatal("failed to run migrate up:", err)
	}
	log.Println("db migrated successfully")
}
