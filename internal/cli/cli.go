package cli

import (
	"os"

	"github.com/sahana-h/job-parser/internal/config"
	"github.com/sahana-h/job-parser/internal/database/models"
	"github.com/sahana-h/job-parser/internal/functions"
	"github.com/sahana-h/job-parser/internal/functions/ai"
	"github.com/sahana-h/job-parser/internal/services"
	"github.com/sahana-h/job-parser/internal/vault"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	db                *gorm.DB
	cfg               *config.Config
	userService       *services.UserService
	credentialService *services.CredentialService
	reconcileService  *services.ReconcileService
	pipelineService   *services.PipelineService
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "job-parser",
	Short: "Job application tracker backend",
	Long: `job-parser watches a mailbox for job application emails, classifies
and extracts them with an AI oracle, and keeps one deduplicated record per
application.

Examples:
  job-parser user create          # create a user interactively
  job-parser user list            # list users
  job-parser scan --user 1        # scan a user's mailbox now
  job-parser list --user 1        # show tracked applications
  job-parser stats --user 1       # per-status counts`,
}

// Execute runs the CLI with the provided database and config
func Execute(database *gorm.DB, config *config.Config) {
	db = database
	cfg = config

	logService := services.NewLogService(db)
	userService = services.NewUserService(db)
	credentialService = services.NewCredentialService(db, vault.New(cfg.EncryptionKey), logService)
	reconcileService = services.NewReconcileService(db, logService)

	oracle := ai.NewClient(cfg.AIProvider, cfg.AIAPIKey, cfg.AIModel, cfg.AIBaseURL)
	pipelineService = services.NewPipelineService(
		cfg,
		credentialService,
		reconcileService,
		logService,
		functions.NewClassifier(oracle),
		functions.NewExtractor(oracle),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// statusSymbol renders a short marker per lifecycle stage for table output
func statusSymbol(status string) string {
	switch models.ApplicationStatus(status) {
	case models.StatusOffer:
		return "+"
	case models.StatusRejected, models.StatusWithdrawn:
		return "-"
	case models.StatusInterview:
		return "*"
	}
	return " "
}

func init() {
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statsCmd)
}
