package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/owlin/docintake/internal/classify"
	"github.com/owlin/docintake/internal/common"
	"github.com/owlin/docintake/internal/export"
	"github.com/owlin/docintake/internal/intake"
	"github.com/owlin/docintake/internal/metrics"
	"github.com/owlin/docintake/internal/parser"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

// applyEnvOverrides lets deployment environments point the batch at a parser
// service without editing the config file.
func applyEnvOverrides(cfg *common.Config) {
	if v := os.Getenv("PARSER_URL"); v != "" {
		cfg.Parser.BaseURL = v
	}
	if v := os.Getenv("PARSER_API_KEY"); v != "" {
		cfg.Parser.APIKey = v
	}
	if v := os.Getenv("PARSER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Parser.Timeout = d
		}
	}
}

func main() {
	// Parse CLI flags
	var (
		dir        = flag.String("dir", "", "directory with per-page OCR artifacts (required)")
		out        = flag.String("out", "", "output JSON result path (optional, defaults to parent directory)")
		xlsxOut    = flag.String("xlsx", "", "optional XLSX export path for canonical invoices")
		configPath = flag.String("config", "", "optional YAML threshold configuration file")
		timeout    = flag.Duration("timeout", 10*time.Minute, "overall batch timeout")
	)
	flag.Parse()

	// Validate required flags
	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}

	// If output file not specified, use parent directory with default filename
	if *out == "" {
		parentDir := filepath.Dir(*dir)
		*out = filepath.Join(parentDir, "intake_result.json")
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	// Load threshold configuration
	var cfg *common.Config
	if *configPath != "" {
		loaded, err := common.LoadConfig(*configPath)
		if err != nil {
			logger.Error("failed to load config", "path", *configPath, "error", err)
			os.Exit(1)
		}
		cfg = loaded
		logger.Info("config loaded", "path", *configPath)
	} else {
		cfg = common.DefaultConfig()
		logger.Info("using default config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}
	applyEnvOverrides(cfg)

	metrics.RegisterPipelineMetrics()

	// Setup parser service client (graceful if missing)
	var invParser parser.InvoiceParser
	httpParser := parser.NewHTTPParser(cfg.Parser, logger)
	if httpParser.Available() {
		invParser = httpParser
		logger.Info("parser service configured", "base_url", cfg.Parser.BaseURL)
	} else {
		invParser = parser.NullParser{}
		logger.Warn("parser service not configured, rule-based extraction only")
	}

	// Load batch files from disk
	files, err := loadBatch(*dir, logger)
	if err != nil {
		logger.Error("failed to load batch", "dir", *dir, "error", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		printError("Error: no page artifacts found in %s\n", *dir)
		os.Exit(1)
	}
	logger.Info("batch loaded", "dir", *dir, "files", len(files))

	// Run the pipeline
	router := intake.NewRouter(cfg, classify.NullModel{}, invParser, logger)
	result := router.ProcessBatch(ctx, files)

	// Write JSON result
	resultJSON, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Error("failed to encode result", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, resultJSON, 0644); err != nil {
		logger.Error("failed to write output file", "path", *out, "error", err)
		os.Exit(1)
	}

	// Optional XLSX export
	if *xlsxOut != "" && result.Success {
		exportService := export.NewService(logger)
		xlsxBytes, err := exportService.ExportInvoicesXLSX(result)
		if err != nil {
			logger.Error("failed to export invoices", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*xlsxOut, xlsxBytes, 0644); err != nil {
			logger.Error("failed to write xlsx file", "path", *xlsxOut, "error", err)
			os.Exit(1)
		}
		logger.Info("xlsx written", "path", *xlsxOut)
	}

	// Log summary
	logger.Info("batch complete",
		"success", result.Success,
		"files_processed", result.Metadata.FilesProcessed,
		"pages_processed", result.Metadata.PagesProcessed,
		"duplicates_found", result.Metadata.DuplicatesFound,
		"stitch_groups", result.Metadata.StitchGroupsCreated,
		"canonical_entities", result.Metadata.CanonicalEntitiesCreated,
		"warnings", len(result.Warnings),
		"output_file", *out,
	)

	if !result.Success {
		printError("Batch processing failed:\n")
		for _, e := range result.Errors {
			printError("- %s\n", e)
		}
		os.Exit(1)
	}

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Files processed: %d\n", result.Metadata.FilesProcessed)
	fmt.Printf("- Pages processed: %d\n", result.Metadata.PagesProcessed)
	fmt.Printf("- Duplicates found: %d\n", result.Metadata.DuplicatesFound)
	fmt.Printf("- Canonical entities: %d\n", result.Metadata.CanonicalEntitiesCreated)
	fmt.Printf("- Output: %s\n", *out)
}
