package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nateechai/docledger/internal/recon"
)

func reconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile bank transactions against posted GL entries",
		Long: `Pair imported bank transactions with posted general-ledger entries
over a date range. Matching runs highest confidence first: exact amount
and date, then exact amount within the date window, then near amounts
attributable to bank fees. Whatever remains on either side is reported
unmatched.`,
		RunE: runReconcile,
	}

	cmd.Flags().String("from", "", "Start date (YYYY-MM-DD), default 30 days ago")
	cmd.Flags().String("to", "", "End date (YYYY-MM-DD), default today")
	cmd.Flags().Float64("fee-allowance", recon.DefaultConfig().FeeAllowance, "Largest difference attributable to bank fees")
	cmd.Flags().Int("date-window", recon.DefaultConfig().DateWindowDays, "Date window in calendar days")
	cmd.Flags().Bool("json", false, "Emit the full report as JSON")

	return cmd
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	feeAllowance, _ := cmd.Flags().GetFloat64("fee-allowance")
	dateWindow, _ := cmd.Flags().GetInt("date-window")
	asJSON, _ := cmd.Flags().GetBool("json")
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

	bank, err := store.GetBankTransactions(ctx, start, end)
	if err != nil {
		return fmt.Errorf("failed to load bank transactions: %w", err)
	}

	entries, err := store.GetPostedEntries(ctx, start, end)
	if err != nil {
		return fmt.Errorf("failed to load posted entries: %w", err)
	}

	matcher := recon.NewMatcher(recon.Config{
		FeeAllowance:   feeAllowance,
		DateWindowDays: dateWindow,
	})
	result := matcher.Match(bank, entries)

	if asJSON {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Reconciliation %s to %s\n", start.Format("2006-01-02"), end.Format("2006-01-02"))
	fmt.Fprintf(out, "  Matched:        %d\n", len(result.Matched))
	fmt.Fprintf(out, "  Unmatched bank: %d\n", len(result.UnmatchedBank))
	fmt.Fprintf(out, "  Unmatched GL:   %d\n", len(result.UnmatchedGL))
	fmt.Fprintf(out, "  Discrepancies:  %d\n", len(result.Discrepancies))

	for _, m := range result.Matched {
		fmt.Fprintf(out, "  [%s] %s %10.2f <-> doc %s (%d day(s), delta %.2f)\n",
			m.Tier, m.Bank.Date.Format("2006-01-02"), m.Bank.Amount,
			m.Entry.DocumentID, m.DateDelta, m.AmountDelta)
	}
	for _, tx := range result.UnmatchedBank {
		fmt.Fprintf(out, "  bank only: %s %10.2f %s\n",
			tx.Date.Format("2006-01-02"), tx.Amount, tx.Description)
	}
	for _, entry := range result.UnmatchedGL {
		fmt.Fprintf(out, "  ledger only: %s %10.2f doc %s\n",
			entry.Date.Format("2006-01-02"), entry.Amount, entry.DocumentID)
	}
	for _, d := range result.Discrepancies {
		fmt.Fprintf(out, "  discrepancy [%s] %.2f: %s\n", d.Type, d.Amount, d.Description)
	}

	slog.Info("Reconciliation complete",
		"matched", len(result.Matched),
		"unmatched_bank", len(result.UnmatchedBank),
		"unmatched_gl", len(result.UnmatchedGL))
	return nil
}
