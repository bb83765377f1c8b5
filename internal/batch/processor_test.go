package batch_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nateechai/docledger/internal/approval"
	"github.com/nateechai/docledger/internal/batch"
	"github.com/nateechai/docledger/internal/common"
	"github.com/nateechai/docledger/internal/ledger"
	"github.com/nateechai/docledger/internal/model"
	"github.com/nateechai/docledger/internal/risk"
	"github.com/nateechai/docledger/internal/service"
	"github.com/nateechai/docledger/internal/testutil"
	"github.com/nateechai/docledger/internal/vendor"
)

func newProcessor(store service.Storage, cfg batch.Config) *batch.Processor {
	classifier := approval.NewClassifier(risk.NewEngine())
	return batch.NewProcessor(store, classifier, ledger.NewSynchronizer(), vendor.NewStore(store), cfg)
}

func enabledConfig() model.AutoApprovalConfig {
	return model.AutoApprovalConfig{
		Enabled:               true,
		MaxAmount:             5000,
		MinConfidence:         0.85,
		RequireFullTaxInvoice: true,
		RequireNoAuditFlags:   true,
		AllowedDocTypes:       []string{"invoice", "receipt"},
	}
}

func saveAll(t *testing.T, store service.Storage, docs []model.DocumentRecord) {
	t.Helper()
	ctx := context.Background()
	for i := range docs {
		require.NoError(t, store.SaveDocument(ctx, &docs[i]))
	}
}

func TestProcessApprovesAndPosts(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	docs := []model.DocumentRecord{
		testutil.NewDocument("doc-1"),
		testutil.NewDocument("doc-2"),
	}
	saveAll(t, store, docs)

	result, err := newProcessor(store, batch.DefaultConfig()).Process(ctx, docs, enabledConfig(), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalProcessed)
	assert.Equal(t, 2, result.AutoApproved)
	assert.Equal(t, 2, result.AutoPosted)
	assert.Empty(t, result.Errors)

	for _, id := range []string{"doc-1", "doc-2"} {
		rec, getErr := store.GetDocumentByID(ctx, id)
		require.NoError(t, getErr)
		assert.Equal(t, model.StatusApproved, rec.Status)
		assert.Equal(t, model.ApprovedAutomatically, rec.ApprovalSource)
		assert.True(t, rec.Extracted.Journal.Balanced())
	}
}

func TestProcessIsolatesItemFailures(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	docs := make([]model.DocumentRecord, 0, 5)
	for _, id := range []string{"doc-1", "doc-2", "doc-3", "doc-4", "doc-5"} {
		doc := testutil.NewDocument(id)
		if id == "doc-3" {
			// Classifies fine but journal generation fails on the missing
			// subtotal.
			doc.Extracted.Subtotal = nil
		}
		docs = append(docs, doc)
	}
	saveAll(t, store, docs)

	result, err := newProcessor(store, batch.DefaultConfig()).Process(ctx, docs, enabledConfig(), nil)
	require.NoError(t, err)

	assert.Equal(t, 5, result.TotalProcessed)
	assert.Equal(t, 4, result.AutoApproved)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "doc-3", result.Errors[0].DocID)
	assert.Contains(t, result.Errors[0].Error, "subtotal")

	// The failed document is untouched.
	rec, err := store.GetDocumentByID(ctx, "doc-3")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingReview, rec.Status)
}

func TestProcessLeavesBlockedDocumentsPending(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	docs := []model.DocumentRecord{
		testutil.NewDocument("doc-1", testutil.WithConfidence(0.2)),
	}
	saveAll(t, store, docs)

	result, err := newProcessor(store, batch.DefaultConfig()).Process(ctx, docs, enabledConfig(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalProcessed)
	assert.Zero(t, result.AutoApproved)
	assert.Empty(t, result.Errors)

	rec, err := store.GetDocumentByID(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingReview, rec.Status)
}

func TestProcessVersionConflictIsItemError(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	docs := []model.DocumentRecord{testutil.NewDocument("doc-1")}
	saveAll(t, store, docs)

	// Another actor approves the document first; the batch holds a stale
	// version and must not double-post.
	require.NoError(t, store.UpdateDocumentStatus(ctx, "doc-1", model.StatusApproved, model.ApprovedManually, docs[0].Version))

	stale := docs
	result, err := newProcessor(store, batch.DefaultConfig()).Process(ctx, stale, enabledConfig(), nil)
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	assert.True(t, strings.Contains(result.Errors[0].Error, common.ErrVersionConflict.Error()))
	assert.Zero(t, result.AutoPosted)
}

func TestProcessCancellationKeepsPartialResult(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	docs := make([]model.DocumentRecord, 0, 20)
	for i := 0; i < 20; i++ {
		docs = append(docs, testutil.NewDocument("doc-"+string(rune('a'+i))))
	}
	saveAll(t, store, docs)

	processor := newProcessor(store, batch.Config{
		Workers: 1,
		OnDocument: func(_ string) {
			cancel()
		},
	})

	result, err := processor.Process(ctx, docs, enabledConfig(), nil)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Less(t, result.TotalProcessed, 20)
}

func TestProcessErrorsSortedByDocID(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	docs := []model.DocumentRecord{
		testutil.NewDocument("doc-z"),
		testutil.NewDocument("doc-a"),
		testutil.NewDocument("doc-m"),
	}
	for i := range docs {
		docs[i].Extracted.Subtotal = nil
	}
	saveAll(t, store, docs)

	result, err := newProcessor(store, batch.Config{Workers: 3}).Process(ctx, docs, enabledConfig(), nil)
	require.NoError(t, err)

	require.Len(t, result.Errors, 3)
	assert.Equal(t, "doc-a", result.Errors[0].DocID)
	assert.Equal(t, "doc-m", result.Errors[1].DocID)
	assert.Equal(t, "doc-z", result.Errors[2].DocID)
}

func TestProcessRecordsVendorRuleUse(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	vendors := vendor.NewStore(store)
	_, err := vendors.Learn(ctx, "test vendor", "5220-00", "Internet", model.VATClaimable)
	require.NoError(t, err)

	docs := []model.DocumentRecord{testutil.NewDocument("doc-1")}
	saveAll(t, store, docs)

	result, err := newProcessor(store, batch.DefaultConfig()).Process(ctx, docs, enabledConfig(), nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.AutoApproved)

	rule, err := store.GetVendorRule(ctx, "test vendor")
	require.NoError(t, err)
	assert.Equal(t, 1, rule.UseCount)

	// The learned account flowed into the generated journal.
	rec, err := store.GetDocumentByID(ctx, "doc-1")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, rec.Extracted.Journal.FindAccount("5220-00"), 0)
}

func TestProcessIncrementsRuleTriggerCounts(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	rule := model.AutomationRule{
		Name:    "large invoices",
		Enabled: true,
		Conditions: []model.RuleCondition{
			{Field: "grand_total", Operator: model.OpAtLeast, Value: "1000"},
		},
	}
	require.NoError(t, store.SaveAutomationRule(ctx, &rule))

	docs := []model.DocumentRecord{
		testutil.NewDocument("doc-1"),
		testutil.NewDocument("doc-2", testutil.WithAmounts(100, 7, 107)),
	}
	saveAll(t, store, docs)

	_, err := newProcessor(store, batch.DefaultConfig()).Process(ctx, docs, enabledConfig(), []model.AutomationRule{rule})
	require.NoError(t, err)

	rules, err := store.GetAutomationRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, 1, rules[0].TriggerCount)
}
