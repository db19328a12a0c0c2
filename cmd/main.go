// ats: applicant tracking service.
//
// Tracks candidates through the hiring pipeline for a job opening:
//   - worklist, stage counts and the per-candidate journey view
//   - stage confirmation with the transition engine, drops and manual moves
//   - moving a candidate between job openings with re-leveling
//   - hand-off summary and employment contract documents
//
// Publishes EVENT_STAGE_CHANGED, EVENT_CANDIDATE_MOVED and
// EVENT_FOLLOW_UP_DUE to Redis when REDIS_URL is set.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:           "ats",
	Short:         "Applicant tracking service",
	Long:          "ats serves the candidate pipeline over HTTP and gRPC and renders candidate documents.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
