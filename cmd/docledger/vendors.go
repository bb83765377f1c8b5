package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nateechai/docledger/internal/model"
	"github.com/nateechai/docledger/internal/vendor"
)

func vendorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vendors",
		Short: "Manage vendor classification rules",
		Long:  `View, add and delete the keyword rules that map vendors to expense accounts.`,
	}

	cmd.AddCommand(vendorsListCmd())
	cmd.AddCommand(vendorsLearnCmd())
	cmd.AddCommand(vendorsDeleteCmd())

	return cmd
}

func vendorsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all vendor rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			rules, err := vendor.NewStore(store).All(ctx)
			if err != nil {
				return fmt.Errorf("failed to load vendor rules: %w", err)
			}

			if len(rules) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No vendor rules yet. Approve a document with --learn to create one.")
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%-30s %-10s %-30s %-14s %-7s %5s\n",
				"KEYWORD", "ACCOUNT", "NAME", "VAT", "SOURCE", "USED")
			for _, rule := range rules {
				fmt.Fprintf(cmd.OutOrStdout(), "%-30s %-10s %-30s %-14s %-7s %5d\n",
					rule.Keyword, rule.AccountCode, rule.AccountName,
					rule.VATTreatment, rule.Source, rule.UseCount)
			}
			return nil
		},
	}
}

func vendorsLearnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "learn <keyword> <account-code> <account-name>",
		Short: "Add or update a vendor rule",
		Long: `Save a rule mapping a vendor keyword to an expense account. The
keyword matches case-insensitively as a substring of vendor names.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			nonClaimable, _ := cmd.Flags().GetBool("non-claimable")
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			treatment := model.VATClaimable
			if nonClaimable {
				treatment = model.VATNonClaimable
			}

			rule, err := vendor.NewStore(store).Learn(ctx, args[0], args[1], args[2], treatment)
			if err != nil {
				return fmt.Errorf("failed to save vendor rule: %w", err)
			}

			slog.Info("Saved vendor rule",
				"keyword", rule.Keyword,
				"account", rule.AccountCode,
				"vat_treatment", rule.VATTreatment)
			return nil
		},
	}

	cmd.Flags().Bool("non-claimable", false, "Mark this vendor's VAT as non-claimable")

	return cmd
}

func vendorsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <keyword>",
		Short: "Delete a vendor rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			if err := vendor.NewStore(store).Forget(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete vendor rule: %w", err)
			}

			slog.Info("Deleted vendor rule", "keyword", args[0])
			return nil
		},
	}
}
