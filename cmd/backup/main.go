package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"focusquest/internal/config"
	"focusquest/internal/database"
	"focusquest/internal/logger"
	"focusquest/internal/service"
)

func main() {
	// Define subcommands
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)

	// Export flags
	exportChild := exportCmd.String("child", "", "Child id to export (required)")
	exportOutput := exportCmd.String("output", "", "Output file path (default: focusquest_<child>_YYYYMMDD_HHMMSS.json, - for stdout)")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to load configuration")
	}
	logger.Init(cfg.LogLevel, "text")
	logger.Log.SetOutput(os.Stderr)

	switch os.Args[1] {
	case "export":
		if err := exportCmd.Parse(os.Args[2:]); err != nil {
			os.Exit(1)
		}
		if *exportChild == "" {
			fmt.Fprintln(os.Stderr, "Error: -child flag is required")
			exportCmd.PrintDefaults()
			os.Exit(1)
		}
		handleExport(cfg, *exportChild, *exportOutput)

	default:
		printUsage()
		os.Exit(1)
	}
}

func handleExport(cfg *config.Config, childID, outputPath string) {
	ctx := context.Background()

	// Initialize database
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations to ensure schema is up to date
	if err := db.RunMigrations(ctx); err != nil {
		logger.Log.WithError(err).Fatal("Failed to run migrations")
	}

	backupService := service.NewBackupService(db)

	if outputPath == "-" {
		if err := backupService.Export(ctx, childID, os.Stdout); err != nil {
			logger.Log.WithError(err).Fatal("Export failed")
		}
		return
	}

	// Generate default filename if not provided
	if outputPath == "" {
		timestamp := time.Now().Format("20060102_150405")
		outputPath = fmt.Sprintf("focusquest_%s_%s.json", childID, timestamp)
	}

	// Ensure directory exists
	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Log.WithError(err).Fatal("Failed to create output directory")
		}
	}

	logger.Log.WithField("output", outputPath).Info("Exporting child data")
	if err := backupService.ExportToFile(ctx, childID, outputPath); err != nil {
		logger.Log.WithError(err).Fatal("Export failed")
	}

	if fileInfo, err := os.Stat(outputPath); err == nil {
		logger.Log.WithField("bytes", fileInfo.Size()).Info("Export complete")
	}
}

func printUsage() {
	fmt.Println("FocusQuest Data Export Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  backup export -child <id> [options]    Export a child's ledger and adherence data to JSON")
	fmt.Println()
	fmt.Println("Export Options:")
	fmt.Println("  -child <id>       Child id (required)")
	fmt.Println("  -output <file>    Output file path, - for stdout")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DB_TYPE          Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH          SQLite database path (default: ./focusquest.db)")
	fmt.Println("  DATABASE_URL     PostgreSQL or MySQL connection URL")
}
