package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nateechai/docledger/internal/model"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage automation rules",
		Long: `View and manage declarative automation rules. Rules are advisory:
a match increments the rule's trigger counter so you can see which
conditions fire in practice, while the approval settings stay the single
gate for auto-approval.`,
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesAddCmd())
	cmd.AddCommand(rulesEnableCmd(true))
	cmd.AddCommand(rulesEnableCmd(false))
	cmd.AddCommand(rulesDeleteCmd())

	return cmd
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List automation rules with trigger counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			rules, err := store.GetAutomationRules(ctx)
			if err != nil {
				return fmt.Errorf("failed to load automation rules: %w", err)
			}

			if len(rules) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No automation rules defined.")
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%-4s %-30s %-8s %-9s %s\n",
				"ID", "NAME", "ENABLED", "TRIGGERED", "CONDITIONS")
			for _, rule := range rules {
				conds := make([]string, 0, len(rule.Conditions))
				for _, c := range rule.Conditions {
					conds = append(conds, fmt.Sprintf("%s %s %s", c.Field, c.Operator, c.Value))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-4d %-30s %-8t %-9d %s\n",
					rule.ID, rule.Name, rule.Enabled, rule.TriggerCount, strings.Join(conds, " AND "))
			}
			return nil
		},
	}
}

func rulesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an automation rule",
		Long: `Add a rule with conditions given as JSON, for example:

  docledger rules add "large invoices" --conditions \
    '[{"field":"grand_total","operator":"gt","value":"10000"}]'

Fields: grand_total, subtotal, vat_amount, confidence, vendor_name,
doc_type, description, is_full_tax_invoice, wht_flag.
Operators: eq, neq, gt, gte, lt, lte, contains.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conditionsJSON, _ := cmd.Flags().GetString("conditions")
			ctx := cmd.Context()

			var conditions []model.RuleCondition
			if err := json.Unmarshal([]byte(conditionsJSON), &conditions); err != nil {
				return fmt.Errorf("invalid conditions: %w", err)
			}

			rule := model.AutomationRule{
				Name:       args[0],
				Enabled:    true,
				Conditions: conditions,
			}
			if err := rule.Validate(); err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			if err := store.SaveAutomationRule(ctx, &rule); err != nil {
				return fmt.Errorf("failed to save automation rule: %w", err)
			}

			slog.Info("Saved automation rule", "id", rule.ID, "name", rule.Name)
			return nil
		},
	}

	cmd.Flags().String("conditions", "[]", "Rule conditions as a JSON array")
	_ = cmd.MarkFlagRequired("conditions")

	return cmd
}

func rulesEnableCmd(enable bool) *cobra.Command {
	use, short := "enable <id>", "Enable an automation rule"
	if !enable {
		use, short = "disable <id>", "Disable an automation rule"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid rule id %q", args[0])
			}
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			if err := store.SetAutomationRuleEnabled(ctx, id, enable); err != nil {
				return fmt.Errorf("failed to update automation rule: %w", err)
			}

			slog.Info("Updated automation rule", "id", id, "enabled", enable)
			return nil
		},
	}
}

func rulesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an automation rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid rule id %q", args[0])
			}
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteAutomationRule(ctx, id); err != nil {
				return fmt.Errorf("failed to delete automation rule: %w", err)
			}

			slog.Info("Deleted automation rule", "id", id)
			return nil
		},
	}
}
