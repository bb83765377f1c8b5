package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/nateechai/docledger/internal/approval"
	"github.com/nateechai/docledger/internal/batch"
	"github.com/nateechai/docledger/internal/ledger"
	"github.com/nateechai/docledger/internal/model"
	"github.com/nateechai/docledger/internal/risk"
	"github.com/nateechai/docledger/internal/vendor"
)

func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Run the auto-approval pipeline over pending documents",
		Long: `Classify every pending document against the approval settings,
finalize journals for the ones that qualify and post their GL entries.
Documents that fail a gate stay in the review queue with their reasons
logged.`,
		RunE: runProcess,
	}

	cmd.Flags().Int("workers", batch.DefaultConfig().Workers, "Number of concurrent workers")
	cmd.Flags().Bool("dry-run", false, "Classify without approving or posting")

	return cmd
}

func runProcess(cmd *cobra.Command, _ []string) error {
	workers, _ := cmd.Flags().GetInt("workers")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	docs, err := store.GetPendingDocuments(ctx)
	if err != nil {
		return fmt.Errorf("failed to load pending documents: %w", err)
	}
	if len(docs) == 0 {
		slog.Info("No pending documents")
		return nil
	}

	cfg, err := store.GetApprovalConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load approval settings: %w", err)
	}
	if !cfg.Enabled {
		slog.Warn("Auto-approval is disabled; documents will be classified but none will be approved")
	}

	rules, err := store.GetAutomationRules(ctx)
	if err != nil {
		return fmt.Errorf("failed to load automation rules: %w", err)
	}

	if dryRun {
		return classifyOnly(cmd, docs, *cfg)
	}

	bar := progressbar.NewOptions(len(docs),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Processing documents..."),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)

	classifier := approval.NewClassifier(risk.NewEngine())
	vendors := vendor.NewStore(store)
	processor := batch.NewProcessor(store, classifier, ledger.NewSynchronizer(), vendors, batch.Config{
		Workers: workers,
		OnDocument: func(_ string) {
			_ = bar.Add(1)
		},
	})

	result, err := processor.Process(ctx, docs, *cfg, rules)
	_ = bar.Finish()
	if result != nil {
		printBatchResult(result)
	}
	if err != nil {
		return err
	}

	return nil
}

// classifyOnly evaluates each document without touching the database.
func classifyOnly(cmd *cobra.Command, docs []model.DocumentRecord, cfg model.AutoApprovalConfig) error {
	classifier := approval.NewClassifier(risk.NewEngine())

	wouldApprove := 0
	for i := range docs {
		decision := classifier.Evaluate(&docs[i], docs, cfg)
		if decision.Approved {
			wouldApprove++
			fmt.Fprintf(cmd.OutOrStdout(), "%s: would approve\n", docs[i].ID)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: held for review\n", docs[i].ID)
		for _, reason := range decision.Reasons {
			fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", reason)
		}
	}

	slog.Info("Dry run complete", "documents", len(docs), "would_approve", wouldApprove)
	return nil
}

func printBatchResult(result *model.BatchProcessResult) {
	fmt.Printf("\nBatch run summary:\n")
	fmt.Printf("  Processed:     %d\n", result.TotalProcessed)
	fmt.Printf("  Auto-approved: %d\n", result.AutoApproved)
	fmt.Printf("  Auto-posted:   %d\n", result.AutoPosted)
	fmt.Printf("  Errors:        %d\n", len(result.Errors))

	for _, failure := range result.Errors {
		fmt.Printf("    %s: %s\n", failure.DocID, failure.Error)
	}
}
