package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alimgiray/starscope/internal/handlers"
	"github.com/alimgiray/starscope/internal/models"
	"github.com/alimgiray/starscope/internal/repositories"
	"github.com/alimgiray/starscope/internal/services"
	"github.com/alimgiray/starscope/pkg/config"
	"github.com/alimgiray/starscope/pkg/database"
	"github.com/alimgiray/starscope/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	if len(os.Args) > 1 && os.Args[1] == "serve" {
		runServer(cfg)
		return
	}

	flags := flag.NewFlagSet("starscope", flag.ExitOnError)
	limit := flags.Int("limit", 0, "maximum number of stargazers to fetch (0 fetches all)")
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), "Usage:\n  starscope [flags] <owner/repo | repository URL>\n  starscope serve\n\nFlags:\n")
		flags.PrintDefaults()
	}
	flags.Parse(os.Args[1:])

	if flags.NArg() != 1 {
		flags.Usage()
		os.Exit(2)
	}

	owner, repo, err := parseRepoArg(flags.Arg(0))
	if err != nil {
		logger.Fatalf("Invalid repository argument: %v", err)
	}

	if err := runAudit(cfg, owner, repo, *limit); err != nil {
		logger.Fatalf("Audit failed for %s/%s: %v", owner, repo, err)
	}
}

// runAudit runs the full pipeline: collect, analyze, render, archive
func runAudit(cfg *config.Config, owner, repo string, limit int) error {
	settings := cfg.SuspicionSettings()
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid suspicion settings: %w", err)
	}

	client, err := services.NewGitHubClient(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	collector := services.NewCollectorService(client, cfg)
	collection, err := collector.Collect(ctx, owner, repo, limit)
	if err != nil {
		return err
	}

	analyzer := services.NewAnalyzerService(settings)
	report := analyzer.Analyze(collection)

	prefix := services.RunPrefix(owner, repo, time.Now())
	reporter := services.NewReporterService()
	paths, err := reporter.Render(report, collection, cfg.Output.Dir, prefix)
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	archiveRun(cfg, report, prefix)

	for _, p := range paths {
		fmt.Println(p)
	}
	return nil
}

// archiveRun stores the run summary in the local archive. Archive failures
// are logged but do not fail the audit: the artifacts are already on disk.
func archiveRun(cfg *config.Config, report *models.Report, prefix string) {
	db, err := database.Init(cfg.Database.Path)
	if err != nil {
		logger.WithError(err).Warnf("Could not open run archive, skipping")
		return
	}
	defer db.Close()

	run := models.NewRun(report.Owner, report.Repo, prefix)
	run.Stargazers = report.TotalStargazers
	run.Suspicious = report.FlaggedCount
	run.TopScore = report.TopScore()
	run.MeanScore = report.MeanScore

	runRepo := repositories.NewRunRepository(db)
	if err := runRepo.Create(run, report.Scores); err != nil {
		logger.WithError(err).Warnf("Could not archive run")
		return
	}

	logger.WithFields(logrus.Fields{
		"run_id":     run.ID,
		"stargazers": run.Stargazers,
		"suspicious": run.Suspicious,
	}).Infof("Run archived")
}

// runServer exposes the run archive over HTTP
func runServer(cfg *config.Config) {
	gin.SetMode(cfg.Server.Mode)

	db, err := database.Init(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("Failed to open run archive: %v", err)
	}
	defer db.Close()

	runRepo := repositories.NewRunRepository(db)
	runsHandler := handlers.NewRunsHandler(runRepo)
	healthHandler := handlers.NewHealthHandler()

	router := gin.Default()
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/api/runs", runsHandler.List)
	router.GET("/api/runs/:id", runsHandler.Get)

	logger.Infof("Archive server starting on :%s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatalf("Server failed: %v", err)
	}
}

// parseRepoArg accepts "owner/repo" or a full GitHub URL, with or without a
// trailing .git suffix.
func parseRepoArg(arg string) (string, string, error) {
	trimmed := strings.TrimSuffix(strings.Trim(arg, "/"), ".git")

	if idx := strings.Index(trimmed, "github.com/"); idx >= 0 {
		trimmed = trimmed[idx+len("github.com/"):]
	} else if strings.Contains(trimmed, "://") || strings.Contains(trimmed, "github.com") {
		return "", "", fmt.Errorf("unsupported repository URL %q", arg)
	}

	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("expected owner/repo, got %q", arg)
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}
