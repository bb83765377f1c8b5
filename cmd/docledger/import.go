package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/nateechai/docledger/internal/model"
	"github.com/nateechai/docledger/internal/risk"
)

// importItem is one document in an extraction export file.
type importItem struct {
	ID            string                   `json:"id"`
	ClientID      string                   `json:"client_id"`
	AssignedStaff string                   `json:"assigned_staff,omitempty"`
	Document      *model.ExtractedDocument `json:"document"`
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import extracted documents from JSON files",
		Long: `Import extraction results into the review queue.

Each file is a JSON array of documents as produced by the extraction
pipeline. Documents enter the queue as pending_review; run "docledger
process" afterwards to auto-approve the routine ones.

Examples:
  docledger import extractions/2024-01.json
  docledger import extractions/*.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().BoolP("dry-run", "d", false, "Preview import without saving")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	ctx := cmd.Context()

	var allFiles []string
	for _, pattern := range args {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, statErr := os.Stat(pattern); statErr == nil {
				allFiles = append(allFiles, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
		} else {
			allFiles = append(allFiles, matches...)
		}
	}

	if len(allFiles) == 0 {
		return fmt.Errorf("no files found to import")
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	engine := risk.NewEngine()
	imported := 0
	flagged := 0

	for _, filePath := range allFiles {
		data, err := os.ReadFile(filePath)
		if err != nil {
			slog.Error("Failed to read file", "file", filePath, "error", err)
			continue
		}

		var items []importItem
		if err := json.Unmarshal(data, &items); err != nil {
			slog.Error("Failed to parse extraction file", "file", filePath, "error", err)
			continue
		}

		for i := range items {
			item := &items[i]
			if item.ID == "" || item.Document == nil {
				slog.Warn("Skipping malformed item", "file", filepath.Base(filePath), "index", i)
				continue
			}

			rec := model.DocumentRecord{
				ID:            item.ID,
				ClientID:      item.ClientID,
				AssignedStaff: item.AssignedStaff,
				Status:        model.StatusPendingReview,
				Extracted:     item.Document,
				CreatedAt:     time.Now(),
				UpdatedAt:     time.Now(),
			}

			findings := engine.Evaluate(&rec, nil)
			if len(findings) > 0 {
				flagged++
			}

			if dryRun {
				imported++
				continue
			}

			if err := store.SaveDocument(ctx, &rec); err != nil {
				slog.Error("Failed to save document", "document_id", rec.ID, "error", err)
				continue
			}
			imported++
		}

		slog.Info("Processed file", "file", filepath.Base(filePath), "documents", len(items))
	}

	if dryRun {
		slog.Info("Dry run complete, no data saved", "documents", imported, "with_findings", flagged)
		return nil
	}

	slog.Info("Import complete", "documents", imported, "with_findings", flagged)
	return nil
}
