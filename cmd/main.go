package main

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/sahana-h/job-parser/internal/api"
	"github.com/sahana-h/job-parser/internal/cli"
	"github.com/sahana-h/job-parser/internal/config"
	"github.com/sahana-h/job-parser/internal/database"
	"github.com/sahana-h/job-parser/internal/functions"
	"github.com/sahana-h/job-parser/internal/functions/ai"
	"github.com/sahana-h/job-parser/internal/services"
	"github.com/sahana-h/job-parser/internal/vault"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := ensureDataDir(cfg); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	db, err := database.Initialize(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// CLI mode when invoked with arguments
	if len(os.Args) > 1 {
		cli.Execute(db, cfg)
		return
	}

	logService := services.NewLogService(db)
	credentialVault := vault.New(cfg.EncryptionKey)
	userService := services.NewUserService(db)
	credentialService := services.NewCredentialService(db, credentialVault, logService)
	reconcileService := services.NewReconcileService(db, logService)

	oracle := ai.NewClient(cfg.AIProvider, cfg.AIAPIKey, cfg.AIModel, cfg.AIBaseURL)
	if !oracle.IsConfigured() {
		log.Println("[Main] WARNING: no AI API key configured, scans will classify nothing")
	}

	pipelineService := services.NewPipelineService(
		cfg,
		credentialService,
		reconcileService,
		logService,
		functions.NewClassifier(oracle),
		functions.NewExtractor(oracle),
	)

	interval := time.Duration(cfg.CheckIntervalMinutes) * time.Minute
	scheduler := services.NewSyncScheduler(pipelineService, credentialService, interval, cfg.MaxConcurrentAccounts)
	scheduler.Start()
	defer scheduler.Stop()

	tokenScheduler := services.NewTokenScheduler(credentialService, cfg, 5*time.Minute)
	tokenScheduler.Start()
	defer tokenScheduler.Stop()

	router := api.SetupRouter(cfg, api.Deps{
		UserService:       userService,
		CredentialService: credentialService,
		ReconcileService:  reconcileService,
		PipelineService:   pipelineService,
		LogService:        logService,
		Scheduler:         scheduler,
	})

	log.Printf("Starting job-parser server on port %s", cfg.APIPort)
	log.Printf("Database path: %s", cfg.DatabasePath)
	log.Printf("Scan interval: %v, lookback: %d day(s)", interval, cfg.LookbackDays)
	if err := router.Run(":" + cfg.APIPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// ensureDataDir creates the data directory and the database's parent
// directory if they don't exist
func ensureDataDir(cfg *config.Config) error {
	dirs := []string{
		cfg.DataDir,
		filepath.Dir(cfg.DatabasePath),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
