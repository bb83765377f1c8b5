package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nateechai/docledger/internal/common"
	"github.com/nateechai/docledger/internal/ledger"
	"github.com/nateechai/docledger/internal/model"
)

func whtCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wht <document-id>",
		Short: "Toggle withholding tax on a document",
		Long: `Set or clear the withholding tax flag on a pending document. The
journal entry is rewritten to stay in sync: enabling adds a WHT payable
credit line for subtotal × rate, disabling removes it.

A journal whose withholding line was hand-edited is left alone; use
--clear-override to drop the manual override and re-sync.`,
		Args: cobra.ExactArgs(1),
		RunE: runWHT,
	}

	cmd.Flags().Bool("enable", false, "Enable withholding tax")
	cmd.Flags().Bool("disable", false, "Disable withholding tax")
	cmd.Flags().Float64("rate", 3.0, "Withholding rate percent (with --enable)")
	cmd.Flags().Bool("clear-override", false, "Clear a manual override and re-sync")

	return cmd
}

func runWHT(cmd *cobra.Command, args []string) error {
	enable, _ := cmd.Flags().GetBool("enable")
	disable, _ := cmd.Flags().GetBool("disable")
	rate, _ := cmd.Flags().GetFloat64("rate")
	clearOverride, _ := cmd.Flags().GetBool("clear-override")
	ctx := cmd.Context()

	if enable == disable && !clearOverride {
		return fmt.Errorf("specify exactly one of --enable or --disable")
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	rec, err := store.GetDocumentByID(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to load document %s: %w", args[0], err)
	}
	if rec.Status != model.StatusPendingReview {
		return common.NewUserError(
			fmt.Sprintf("document %s is %s, only pending documents can be edited", rec.ID, rec.Status), nil)
	}

	doc := rec.Extracted
	synchronizer := ledger.NewSynchronizer()

	if clearOverride {
		if _, err := synchronizer.ClearManualOverride(doc); err != nil {
			return err
		}
	}

	if enable || disable {
		if _, err := synchronizer.ApplyWithholdingChange(doc, enable, rate); err != nil {
			return err
		}
	}

	if err := store.UpdateExtractedDocument(ctx, rec.ID, doc); err != nil {
		return fmt.Errorf("failed to persist document: %w", err)
	}

	slog.Info("Withholding updated",
		"document_id", rec.ID,
		"wht_flag", doc.WHTFlag,
		"wht_rate", doc.WHTRate)

	for _, line := range doc.Journal {
		fmt.Fprintf(cmd.OutOrStdout(), "  %-6s %s %-40s %10.2f\n",
			line.Side, line.AccountCode, line.AccountName, line.Amount)
	}

	return nil
}
