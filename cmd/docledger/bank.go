package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nateechai/docledger/internal/model"
	"github.com/nateechai/docledger/internal/ofx"
	"github.com/nateechai/docledger/internal/plaid"
)

func bankCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bank",
		Short: "Import bank transactions for reconciliation",
	}

	cmd.AddCommand(bankImportCmd())
	cmd.AddCommand(bankFetchCmd())

	return cmd
}

func bankImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import transactions from OFX/QFX statements",
		Long: `Import bank transactions from OFX or QFX statements exported from
your bank. Re-importing the same statement is harmless: transactions are
deduplicated by content hash.

Examples:
  docledger bank import ~/Downloads/statement_jan.ofx
  docledger bank import ~/Downloads/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runBankImport,
	}

	cmd.Flags().BoolP("dry-run", "d", false, "Preview import without saving")

	return cmd
}

func runBankImport(cmd *cobra.Command, args []string) error {
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

	parser := ofx.NewParser()
	seen := make(map[string]bool)
	var allTransactions []model.BankTransaction

	for _, filePath := range allFiles {
		f, err := os.Open(filePath)
		if err != nil {
			slog.Error("Failed to open file", "file", filePath, "error", err)
			continue
		}

		transactions, err := parser.ParseFile(f)
		_ = f.Close()
		if err != nil {
			slog.Error("Failed to parse OFX file", "file", filePath, "error", err)
			continue
		}

		added := 0
		for _, tx := range transactions {
			if !seen[tx.Hash] {
				seen[tx.Hash] = true
				allTransactions = append(allTransactions, tx)
				added++
			}
		}

		slog.Info("Processed statement",
			"file", filepath.Base(filePath),
			"transactions", len(transactions),
			"added", added,
			"duplicates", len(transactions)-added)
	}

	if len(allTransactions) == 0 {
		slog.Warn("No transactions found in any file")
		return nil
	}

	if dryRun {
		slog.Info("Dry run complete, no data saved", "transactions", len(allTransactions))
		return nil
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.SaveBankTransactions(ctx, allTransactions); err != nil {
		return fmt.Errorf("failed to save bank transactions: %w", err)
	}

	slog.Info("Import complete", "transactions", len(allTransactions))
	return nil
}

func bankFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch transactions from a connected Plaid account",
		Long: `Fetch bank transactions through Plaid for the configured access
token. Credentials come from the config file or DOCLEDGER_* environment
variables (plaid.client_id, plaid.secret, plaid.environment,
plaid.access_token).`,
		RunE: runBankFetch,
	}

	cmd.Flags().String("from", "", "Start date (YYYY-MM-DD), default 30 days ago")
	cmd.Flags().String("to", "", "End date (YYYY-MM-DD), default today")

	return cmd
}

func runBankFetch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	start, end, err := dateRangeFlags(cmd)
	if err != nil {
		return err
	}

	client, err := plaid.NewClient(plaid.Config{
		ClientID:    viper.GetString("plaid.client_id"),
		Secret:      viper.GetString("plaid.secret"),
		Environment: viper.GetString("plaid.environment"),
		AccessToken: viper.GetString("plaid.access_token"),
	})
	if err != nil {
		return fmt.Errorf("failed to create Plaid client: %w", err)
	}

	transactions, err := client.GetTransactions(ctx, start, end)
	if err != nil {
		return fmt.Errorf("failed to fetch transactions: %w", err)
	}
	if len(transactions) == 0 {
		slog.Info("No transactions in range")
		return nil
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.SaveBankTransactions(ctx, transactions); err != nil {
		return fmt.Errorf("failed to save bank transactions: %w", err)
	}

	slog.Info("Fetch complete", "transactions", len(transactions))
	return nil
}

// dateRangeFlags parses the shared --from/--to flags, defaulting to the last
// 30 days.
func dateRangeFlags(cmd *cobra.Command) (time.Time, time.Time, error) {
	fromStr, _ := cmd.Flags().GetString("from")
	toStr, _ := cmd.Flags().GetString("to")

	end := time.Now()
	start := end.AddDate(0, 0, -30)

	var err error
	if fromStr != "" {
		if start, err = time.Parse("2006-01-02", fromStr); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from date %q", fromStr)
		}
	}
	if toStr != "" {
		if end, err = time.Parse("2006-01-02", toStr); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to date %q", toStr)
		}
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to must not be before --from")
	}

	return start, end, nil
}
