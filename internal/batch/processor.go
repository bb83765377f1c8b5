// Package batch orchestrates classification, ledger synchronization and
// vendor rules over a collection of pending documents.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nateechai/docledger/internal/approval"
	"github.com/nateechai/docledger/internal/common"
	"github.com/nateechai/docledger/internal/ledger"
	"github.com/nateechai/docledger/internal/model"
	"github.com/nateechai/docledger/internal/service"
	"github.com/nateechai/docledger/internal/vendor"
)

// Config holds configuration options for the batch processor.
type Config struct {
	// OnDocument, when set, is called after each document finishes,
	// approved or not. Used for progress reporting.
	OnDocument func(docID string)
	Workers    int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{Workers: 4}
}

// Processor runs the auto-approval pipeline over pending documents. Each
// document is processed independently: one document's failure is captured in
// the result and never aborts the batch.
type Processor struct {
	storage    service.Storage
	classifier *approval.Classifier
	sync       *ledger.Synchronizer
	vendors    *vendor.Store
	onDocument func(docID string)
	docLocks   map[string]*sync.Mutex
	locksMu    sync.Mutex
	workers    int
}

// NewProcessor creates a batch processor with the given dependencies.
func NewProcessor(storage service.Storage, classifier *approval.Classifier, synchronizer *ledger.Synchronizer, vendors *vendor.Store, config Config) *Processor {
	workers := config.Workers
	if workers <= 0 {
		workers = DefaultConfig().Workers
	}
	return &Processor{
		storage:    storage,
		classifier: classifier,
		sync:       synchronizer,
		vendors:    vendors,
		onDocument: config.OnDocument,
		docLocks:   make(map[string]*sync.Mutex),
		workers:    workers,
	}
}

// Process classifies every document, finalizes journals for approved ones
// and records the outcome. Documents run on a bounded worker pool; status
// transitions for a given document are serialized and applied exactly once
// via a per-document lock plus an optimistic version check.
//
// Cancellation is cooperative between documents: documents already committed
// stay committed, and the partial result is returned with ctx.Err().
func (p *Processor) Process(ctx context.Context, docs []model.DocumentRecord, cfg model.AutoApprovalConfig, rules []model.AutomationRule) (*model.BatchProcessResult, error) {
	slog.Info("Starting batch run", "documents", len(docs), "workers", p.workers)

	existing, err := p.storage.GetDocuments(ctx, service.DocumentFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load existing documents: %w", err)
	}

	result := &model.BatchProcessResult{}
	var resultMu sync.Mutex

	// The errgroup cancels its derived context once Wait returns, so the
	// caller's context must stay in its own variable for the final check.
	g, workCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i := range docs {
		rec := docs[i]

		// Cooperative cancellation between documents: stop handing out
		// work, keep what already committed.
		if ctx.Err() != nil {
			break
		}

		g.Go(func() error {
			outcome, itemErr := p.processOne(workCtx, &rec, existing, cfg, rules)

			if p.onDocument != nil {
				p.onDocument(rec.ID)
			}

			resultMu.Lock()
			defer resultMu.Unlock()
			result.TotalProcessed++
			if itemErr != nil {
				batchErr := &common.BatchItemError{DocID: rec.ID, Err: itemErr}
				result.Errors = append(result.Errors, model.BatchItemFailure{
					DocID: rec.ID,
					Error: batchErr.Error(),
				})
				slog.Warn("Document failed during batch run", "document_id", rec.ID, "error", itemErr)
				return nil
			}
			if outcome != nil {
				result.AutoApproved++
				if len(outcome) > 0 {
					result.AutoPosted++
					result.Entries = append(result.Entries, outcome...)
				}
			}
			return nil
		})
	}

	// Worker funcs never return errors; failures are captured per item.
	_ = g.Wait()

	sort.Slice(result.Errors, func(i, j int) bool {
		return result.Errors[i].DocID < result.Errors[j].DocID
	})

	slog.Info("Batch run complete",
		"total_processed", result.TotalProcessed,
		"auto_approved", result.AutoApproved,
		"auto_posted", result.AutoPosted,
		"errors", len(result.Errors))

	if ctx.Err() != nil {
		return result, ctx.Err()
	}
	return result, nil
}

// processOne handles a single document. It returns the posted GL entries for
// an approved document, nil entries for a document left in review, or an
// error to be captured as a batch item failure. Panics from rule evaluation
// over malformed extraction data are converted to item errors so they never
// escape the batch.
func (p *Processor) processOne(ctx context.Context, rec *model.DocumentRecord, existing []model.DocumentRecord, cfg model.AutoApprovalConfig, rules []model.AutomationRule) (entries []model.PostedGLEntry, err error) {
	defer func() {
		if r := recover(); r != nil {
			entries = nil
			err = fmt.Errorf("panic while processing document: %v", r)
		}
	}()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	p.recordRuleTriggers(ctx, rec, rules)

	decision := p.classifier.Evaluate(rec, existing, cfg)
	if !decision.Approved {
		slog.Debug("Document not auto-approved",
			"document_id", rec.ID,
			"reasons", decision.Reasons)
		return nil, nil
	}

	lock := p.lockFor(rec.ID)
	lock.Lock()
	defer lock.Unlock()

	return p.approveAndPost(ctx, rec)
}

// approveAndPost finalizes the journal and transitions the document to
// approved. The optimistic version check makes the transition exactly-once:
// a concurrent batch that already posted this document loses the version
// race and reports a conflict instead of double-posting.
func (p *Processor) approveAndPost(ctx context.Context, rec *model.DocumentRecord) ([]model.PostedGLEntry, error) {
	doc := rec.Extracted

	var matched *model.VendorRule
	if p.vendors != nil {
		var err error
		matched, err = p.vendors.Lookup(ctx, doc.VendorName, rec.ClientID)
		if err != nil {
			slog.Warn("Vendor rule lookup failed", "document_id", rec.ID, "error", err)
		}
	}

	if len(doc.Journal) == 0 {
		generated, err := ledger.BuildJournal(doc, matched)
		if err != nil {
			return nil, err
		}
		doc.Journal = generated
	}

	// Re-apply the withholding invariant before posting.
	if _, err := p.sync.ApplyWithholdingChange(doc, doc.WHTFlag, doc.WHTRate); err != nil {
		return nil, err
	}

	if !doc.Journal.Balanced() {
		return nil, &common.ConsistencyError{
			DebitTotal:  doc.Journal.DebitTotal(),
			CreditTotal: doc.Journal.CreditTotal(),
		}
	}

	if err := p.storage.UpdateExtractedDocument(ctx, rec.ID, doc); err != nil {
		return nil, fmt.Errorf("failed to persist synchronized document: %w", err)
	}

	if err := p.storage.UpdateDocumentStatus(ctx, rec.ID, model.StatusApproved, model.ApprovedAutomatically, rec.Version); err != nil {
		return nil, fmt.Errorf("failed to approve document: %w", err)
	}
	rec.Status = model.StatusApproved
	rec.ApprovalSource = model.ApprovedAutomatically
	rec.Version++

	if matched != nil && p.vendors != nil {
		if err := p.vendors.RecordUse(ctx, matched.Keyword); err != nil {
			slog.Warn("Failed to record vendor rule use", "keyword", matched.Keyword, "error", err)
		}
	}

	entries := ledger.PostedEntries(rec)
	if err := p.storage.SavePostedEntries(ctx, entries); err != nil {
		return nil, fmt.Errorf("failed to post GL entries: %w", err)
	}

	return entries, nil
}

// recordRuleTriggers evaluates the declarative automation rules purely for
// trigger-count telemetry. The approval config is the single gating
// mechanism; rule matches never decide approval.
func (p *Processor) recordRuleTriggers(ctx context.Context, rec *model.DocumentRecord, rules []model.AutomationRule) {
	for i := range rules {
		rule := &rules[i]
		if !rule.Matches(rec.Extracted) {
			continue
		}
		if err := p.storage.IncrementRuleTriggerCount(ctx, rule.ID); err != nil {
			slog.Warn("Failed to increment rule trigger count",
				"rule_id", rule.ID,
				"error", err)
		}
	}
}

func (p *Processor) lockFor(docID string) *sync.Mutex {
	p.locksMu.Lock()
	defer p.locksMu.Unlock()

	lock, ok := p.docLocks[docID]
	if !ok {
		lock = &sync.Mutex{}
		p.docLocks[docID] = lock
	}
	return lock
}
