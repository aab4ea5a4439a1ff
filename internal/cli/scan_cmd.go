package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/sahana-h/job-parser/internal/services"
	"github.com/spf13/cobra"
)

var (
	scanUserID uint
	scanDays   int
	listUserID uint
	listLimit  int
	listStatus string
	statsUser  uint
)

// scanCmd runs the pipeline once for one user
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a user's mailbox for job application emails now",
	Run: func(cmd *cobra.Command, args []string) {
		if scanUserID == 0 {
			fmt.Fprintln(os.Stderr, "Error: --user is required")
			os.Exit(1)
		}

		summary, err := pipelineService.Run(context.Background(), scanUserID, scanDays)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: scan failed: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Scan finished: %d candidates, %d new, %d updated, %d skipped\n",
			summary.Found, summary.New, summary.Updated, summary.Skipped)
	},
}

// listCmd prints a user's tracked applications
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked applications",
	Run: func(cmd *cobra.Command, args []string) {
		if listUserID == 0 {
			fmt.Fprintln(os.Stderr, "Error: --user is required")
			os.Exit(1)
		}

		applications, err := reconcileService.ListApplications(services.ApplicationQuery{
			UserID: listUserID,
			Status: listStatus,
			Limit:  listLimit,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to list applications: %v\n", err)
			os.Exit(1)
		}

		if len(applications) == 0 {
			fmt.Println("No applications tracked yet.")
			return
		}

		fmt.Printf("%-6s %-1s %-25s %-30s %-12s %s\n", "ID", "", "Company", "Title", "Status", "Received")
		for _, app := range applications {
			fmt.Printf("%-6d %-1s %-25.25s %-30.30s %-12s %s\n",
				app.ID, statusSymbol(app.Status), app.CompanyName, app.JobTitle,
				app.Status, app.EmailReceivedAt.Format("2006-01-02"))
		}
		fmt.Printf("\n%d application(s)\n", len(applications))
	},
}

// statsCmd prints per-status counts for one user
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-status application counts",
	Run: func(cmd *cobra.Command, args []string) {
		if statsUser == 0 {
			fmt.Fprintln(os.Stderr, "Error: --user is required")
			os.Exit(1)
		}

		stats, err := reconcileService.GetStats(statsUser)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to compute stats: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Total: %d\n", stats.Total)
		for _, status := range []string{"applied", "interview", "offer", "rejected", "withdrawn"} {
			if count, ok := stats.ByStatus[status]; ok {
				fmt.Printf("  %-10s %d\n", status, count)
			}
		}
	},
}

func init() {
	scanCmd.Flags().UintVar(&scanUserID, "user", 0, "user id to scan for")
	scanCmd.Flags().IntVar(&scanDays, "days", 0, "lookback window in days (default from config)")

	listCmd.Flags().UintVar(&listUserID, "user", 0, "user id")
	listCmd.Flags().IntVar(&listLimit, "limit", 50, "maximum rows to show")
	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by status")

	statsCmd.Flags().UintVar(&statsUser, "user", 0, "user id")
}
