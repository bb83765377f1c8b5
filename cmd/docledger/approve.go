package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nateechai/docledger/internal/common"
	"github.com/nateechai/docledger/internal/ledger"
	"github.com/nateechai/docledger/internal/model"
	"github.com/nateechai/docledger/internal/vendor"
)

func approveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approve <document-id>",
		Short: "Manually approve a document and post its journal",
		Long: `Approve a document from the review queue. The withholding
invariant is re-applied and the journal must balance before the document
is approved and its GL entries are posted.

Use --learn to also save a vendor rule from the document's expense line,
so future documents from the same vendor classify automatically.`,
		Args: cobra.ExactArgs(1),
		RunE: runApprove,
	}

	cmd.Flags().Bool("learn", false, "Learn a vendor rule from this document")

	return cmd
}

func runApprove(cmd *cobra.Command, args []string) error {
	learn, _ := cmd.Flags().GetBool("learn")
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
	if rec.Status != model.StatusPendingReview {
		return common.NewUserError(
			fmt.Sprintf("document %s is %s, only pending documents can be approved", rec.ID, rec.Status), nil)
	}

	doc := rec.Extracted
	vendors := vendor.NewStore(store)

	if len(doc.Journal) == 0 {
		matched, lookupErr := vendors.Lookup(ctx, doc.VendorName, rec.ClientID)
		if lookupErr != nil {
			slog.Warn("Vendor rule lookup failed", "document_id", rec.ID, "error", lookupErr)
		}
		generated, buildErr := ledger.BuildJournal(doc, matched)
		if buildErr != nil {
			return buildErr
		}
		doc.Journal = generated
	}

	synchronizer := ledger.NewSynchronizer()
	if _, err := synchronizer.ApplyWithholdingChange(doc, doc.WHTFlag, doc.WHTRate); err != nil {
		return err
	}

	if !doc.Journal.Balanced() {
		return &common.ConsistencyError{
			DebitTotal:  doc.Journal.DebitTotal(),
			CreditTotal: doc.Journal.CreditTotal(),
		}
	}

	if err := store.UpdateExtractedDocument(ctx, rec.ID, doc); err != nil {
		return fmt.Errorf("failed to persist document: %w", err)
	}
	if err := store.UpdateDocumentStatus(ctx, rec.ID, model.StatusApproved, model.ApprovedManually, rec.Version); err != nil {
		return fmt.Errorf("failed to approve document: %w", err)
	}

	entries := ledger.PostedEntries(rec)
	if err := store.SavePostedEntries(ctx, entries); err != nil {
		return fmt.Errorf("failed to post GL entries: %w", err)
	}

	if learn {
		if line := vendor.InferExpenseLine(doc.Journal); line != nil {
			treatment := model.VATClaimable
			if !doc.VATClaimable {
				treatment = model.VATNonClaimable
			}
			rule, learnErr := vendors.Learn(ctx, doc.VendorName, line.AccountCode, line.AccountName, treatment)
			if learnErr != nil {
				slog.Warn("Failed to learn vendor rule", "vendor", doc.VendorName, "error", learnErr)
			} else {
				slog.Info("Learned vendor rule", "keyword", rule.Keyword, "account", rule.AccountCode)
			}
		} else {
			slog.Warn("No expense line to learn from", "document_id", rec.ID)
		}
	}

	slog.Info("Document approved", "document_id", rec.ID, "entries_posted", len(entries))
	return nil
}

func rejectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reject <document-id>",
		Short: "Reject a document",
		Long: `Move a document out of the review queue without posting. The
record is kept; rejection is a status transition, not a deletion.`,
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
			if rec.Status != model.StatusPendingReview {
				return common.NewUserError(
					fmt.Sprintf("document %s is %s, only pending documents can be rejected", rec.ID, rec.Status), nil)
			}

			if err := store.UpdateDocumentStatus(ctx, rec.ID, model.StatusRejected, model.ApprovedManually, rec.Version); err != nil {
				return fmt.Errorf("failed to reject document: %w", err)
			}

			slog.Info("Document rejected", "document_id", rec.ID)
			return nil
		},
	}
}
