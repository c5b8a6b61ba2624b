package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/customeros/mailgate/config"
	"github.com/customeros/mailgate/internal/database"
	"github.com/customeros/mailgate/internal/logger"
	"github.com/customeros/mailgate/internal/repository"
	"github.com/customeros/mailgate/server"
	"github.com/customeros/mailgate/services/audit"
	"github.com/customeros/mailgate/services/storage"
)

func main() {
	app := &cli.App{
		Name:  "mailgate",
		Usage: "multi-tenant inbound mail ingestion and routing",
		Commands: []*cli.Command{
			{
				Name:   "server",
				Usage:  "Start the application server",
				Action: runServer,
			},
			{
				Name:   "migrate",
				Usage:  "Run database migrations",
				Action: runMigrate,
			},
			{
				Name:   "audit",
				Usage:  "Check once that every recent message still has its raw artifact",
				Action: runAudit,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setup() (*config.Config, logger.Logger, error) {
	cfg, err := config.InitConfig()
	if err != nil {
		return nil, nil, err
	}
	appLogger := logger.NewAppLogger(cfg.Logger)
	appLogger.InitLogger()
	return cfg, appLogger, nil
}

func runServer(c *cli.Context) error {
	cfg, appLogger, err := setup()
	if err != nil {
		return err
	}
	defer appLogger.Sync()

	db, err := database.NewConnection(cfg.DatabaseConfig)
	if err != nil {
		return err
	}

	appLogger.Info("Mailgate starting up...")
	srv, err := server.NewServer(c.Context, cfg, db, appLogger)
	if err != nil {
		return err
	}
	if err := srv.Run(); err != nil {
		return err
	}
	appLogger.Info("Shutdown complete")
	return nil
}

func runMigrate(c *cli.Context) error {
	cfg, appLogger, err := setup()
	if err != nil {
		return err
	}
	defer appLogger.Sync()

	db, err := database.NewConnection(cfg.DatabaseConfig)
	if err != nil {
		return err
	}
	if err := repository.MigrateDB(cfg.DatabaseConfig, db); err != nil {
		return err
	}
	appLogger.Info("Database migration completed successfully")
	return nil
}

func runAudit(c *cli.Context) error {
	cfg, appLogger, err := setup()
	if err != nil {
		return err
	}
	defer appLogger.Sync()

	db, err := database.NewConnection(cfg.DatabaseConfig)
	if err != nil {
		return err
	}
	store, err := storage.NewFromConfig(cfg.StorageConfig)
	if err != nil {
		return err
	}

	repos := repository.InitRepositories(db)
	auditor := audit.NewAuditor(cfg.AuditConfig, appLogger, repos.InboundMessageRepository, store)
	report, err := auditor.Run(c.Context)
	if err != nil {
		return err
	}
	if len(report.Missing) > 0 {
		return cli.Exit("broken raw artifact references found", 2)
	}
	return nil
}
