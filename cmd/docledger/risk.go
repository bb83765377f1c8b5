package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nateechai/docledger/internal/risk"
	"github.com/nateechai/docledger/internal/service"
)

func riskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "risk <document-id>",
		Short: "Show audit risk findings for a document",
		Long: `Evaluate a document against the audit risk checks: duplicate
invoices, VAT arithmetic, missing withholding tax and non-deductible VAT.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			rec, err := store.GetDocumentByID(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to load document %s: %w", args[0], err)
			}

			existing, err := store.GetDocuments(ctx, service.DocumentFilter{})
			if err != nil {
				return fmt.Errorf("failed to load documents: %w", err)
			}

			findings := risk.NewEngine().Evaluate(rec, existing)
			if len(findings) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: no findings\n", rec.ID)
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d finding(s)\n", rec.ID, len(findings))
			for _, f := range findings {
				fmt.Fprintf(cmd.OutOrStdout(), "  [%s] %s: %s\n", f.Severity, f.Code, f.Message)
			}
			return nil
		},
	}
}
