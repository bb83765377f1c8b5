package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
)

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage auto-approval settings",
		Long: `View and change the thresholds that gate auto-approval. These
settings are the single gating mechanism for the processing pipeline.`,
	}

	cmd.AddCommand(settingsShowCmd())
	cmd.AddCommand(settingsSetCmd())

	return cmd
}

func settingsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current auto-approval settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			cfg, err := store.GetApprovalConfig(ctx)
			if err != nil {
				return fmt.Errorf("failed to load approval settings: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Auto-approval:            %t\n", cfg.Enabled)
			fmt.Fprintf(out, "Max amount:               %.2f\n", cfg.MaxAmount)
			fmt.Fprintf(out, "Min confidence:           %.2f\n", cfg.MinConfidence)
			fmt.Fprintf(out, "Require full tax invoice: %t\n", cfg.RequireFullTaxInvoice)
			fmt.Fprintf(out, "Require no audit flags:   %t\n", cfg.RequireNoAuditFlags)
			fmt.Fprintf(out, "Allowed doc types:        %s\n", strings.Join(cfg.AllowedDocTypes, ", "))
			return nil
		},
	}
}

func settingsSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change auto-approval settings",
		Long: `Change one or more settings. Only the flags you pass are changed.

Examples:
  docledger settings set --enabled=true --max-amount 10000
  docledger settings set --allowed-doc-types invoice,receipt`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			cfg, err := store.GetApprovalConfig(ctx)
			if err != nil {
				return fmt.Errorf("failed to load approval settings: %w", err)
			}

			if cmd.Flags().Changed("enabled") {
				cfg.Enabled, _ = cmd.Flags().GetBool("enabled")
			}
			if cmd.Flags().Changed("max-amount") {
				cfg.MaxAmount, _ = cmd.Flags().GetFloat64("max-amount")
			}
			if cmd.Flags().Changed("min-confidence") {
				cfg.MinConfidence, _ = cmd.Flags().GetFloat64("min-confidence")
			}
			if cmd.Flags().Changed("require-full-tax-invoice") {
				cfg.RequireFullTaxInvoice, _ = cmd.Flags().GetBool("require-full-tax-invoice")
			}
			if cmd.Flags().Changed("require-no-audit-flags") {
				cfg.RequireNoAuditFlags, _ = cmd.Flags().GetBool("require-no-audit-flags")
			}
			if cmd.Flags().Changed("allowed-doc-types") {
				cfg.AllowedDocTypes, _ = cmd.Flags().GetStringSlice("allowed-doc-types")
			}

			if cfg.MaxAmount < 0 {
				return fmt.Errorf("max amount must not be negative")
			}
			if cfg.MinConfidence < 0 || cfg.MinConfidence > 1 {
				return fmt.Errorf("min confidence must be between 0 and 1")
			}

			if err := store.SaveApprovalConfig(ctx, cfg); err != nil {
				return fmt.Errorf("failed to save approval settings: %w", err)
			}

			slog.Info("Saved approval settings",
				"enabled", cfg.Enabled,
				"max_amount", cfg.MaxAmount,
				"min_confidence", cfg.MinConfidence)
			return nil
		},
	}

	cmd.Flags().Bool("enabled", false, "Enable or disable auto-approval")
	cmd.Flags().Float64("max-amount", 0, "Largest grand total eligible for auto-approval")
	cmd.Flags().Float64("min-confidence", 0, "Minimum extraction confidence (0-1)")
	cmd.Flags().Bool("require-full-tax-invoice", false, "Require a full tax invoice")
	cmd.Flags().Bool("require-no-audit-flags", false, "Require a clean risk evaluation")
	cmd.Flags().StringSlice("allowed-doc-types", nil, "Document types eligible for auto-approval")

	return cmd
}
