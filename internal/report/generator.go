package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"

	"mcscanner/internal/database"
)

// Generator creates static charts and summaries of scan progress
type Generator struct {
	db  *database.DB
	log hclog.Logger
}

// NewGenerator creates a new report generator
func NewGenerator(db *database.DB, logger hclog.Logger) *Generator {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Generator{db: db, log: logger.Named("report")}
}

// GenerateReport writes a discovery chart and a text summary covering
// the last hours of scanning
func (g *Generator) GenerateReport(ctx context.Context, outputDir string, hours int) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	reportDir := filepath.Join(outputDir, fmt.Sprintf("scan_report_%s", timestamp))
	if err := os.MkdirAll(reportDir, 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	if err := g.generateDiscoveryChart(ctx, reportDir, hours); err != nil {
		g.log.Warn("failed to generate discovery chart", "error", err)
	}

	if err := g.generateTextReport(ctx, reportDir, hours); err != nil {
		g.log.Warn("failed to generate text report", "error", err)
	}

	g.log.Info("report generated", "dir", reportDir)
	return nil
}
