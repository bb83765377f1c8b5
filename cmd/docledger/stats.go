package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nateechai/docledger/internal/batch"
	"github.com/nateechai/docledger/internal/service"
)

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show automation statistics for a date range",
		Long: `Summarize how much of the document volume the pipeline handled
without a human over a date range.`,
		RunE: runStats,
	}

	cmd.Flags().String("from", "", "Start date (YYYY-MM-DD), default 30 days ago")
	cmd.Flags().String("to", "", "End date (YYYY-MM-DD), default today")

	return cmd
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	start, end, err := dateRangeFlags(cmd)
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	docs, err := store.GetDocuments(ctx, service.DocumentFilter{})
	if err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}

	stats := batch.CalculateAutomationStats(docs, start, end)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Automation %s to %s\n", start.Format("2006-01-02"), end.Format("2006-01-02"))
	fmt.Fprintf(out, "  Documents:            %d\n", stats.TotalDocuments)
	fmt.Fprintf(out, "  Auto-processed:       %d\n", stats.AutoProcessed)
	fmt.Fprintf(out, "  Manually processed:   %d\n", stats.ManuallyProcessed)
	fmt.Fprintf(out, "  Auto-approved amount: %.2f\n", stats.AutoApprovedAmount)
	fmt.Fprintf(out, "  Automation rate:      %.1f%%\n", stats.AutomationRate)
	return nil
}
