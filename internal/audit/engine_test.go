package audit

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akolanti/ContractIntelAPI/internal/config"
	"github.com/akolanti/ContractIntelAPI/internal/data/sqlStore"
	"github.com/akolanti/ContractIntelAPI/internal/domain/apperr"
	"github.com/akolanti/ContractIntelAPI/internal/domain/contractModel"
	"github.com/akolanti/ContractIntelAPI/internal/domain/documentModel"
	"github.com/akolanti/ContractIntelAPI/internal/rag/llm"
	"github.com/akolanti/ContractIntelAPI/internal/rag/rag_test"
)

const riskyContract = "This Agreement shall automatically renew for successive one-year terms unless either party gives notice at least ten (10) days before renewal. " +
	"Supplier accepts unlimited liability for any breach of this Agreement."

func setupAudit(t *testing.T, model llm.Provider) (*Engine, contractModel.Repository) {
	t.Helper()
	db, err := sqlStore.NewStore(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	docs := db.Documents()
	for _, id := range []string{"done", "pending"} {
		_, _, err := docs.CreateIfAbsent(ctx, documentModel.Document{
			Id: id, ContentHash: "h-" + id, Filename: id + ".pdf",
			Status: documentModel.StatusPending, UploadedAt: time.Now(),
		})
		require.NoError(t, err)
	}
	require.NoError(t, docs.UpdateStatus(ctx, "done", documentModel.StatusProcessing, ""))
	require.NoError(t, docs.SavePages(ctx, "done", []documentModel.Page{
		{DocumentId: "done", PageNumber: 1, Text: riskyContract, CharCount: len(riskyContract)},
	}))
	require.NoError(t, docs.CompleteDocument(ctx, "done", 1, len(riskyContract)))

	return NewEngine(Config{Documents: docs, Contracts: db.Contracts(), LLM: model}), db.Contracts()
}

func modelReply(reply string, err error) *rag_test.MockLLM {
	return &rag_test.MockLLM{OnComplete: func(ctx context.Context, req llm.Request) (string, error) {
		return reply, err
	}}
}

func TestAudit_HybridMergesDuplicates(t *testing.T) {
	model := &rag_test.MockLLM{OnComplete: func(ctx context.Context, req llm.Request) (string, error) {
		assert.Equal(t, config.AuditTemperature, req.Temperature)
		assert.True(t, req.JSON)
		return `{"findings":[
			{"risk_type":"auto_renewal","severity":"high","title":"Short renewal notice",
			 "description":"The agreement renews automatically and only ten days of notice are required to stop it.",
			 "evidence":"unless either party gives notice at least ten (10) days before renewal","recommendation":"Ask for 60 days."},
			{"risk_type":"termination_imbalance","severity":"severe","title":"Vague exit",
			 "description":"No termination for convenience.","evidence":"text that is not in the contract"},
			{"risk_type":"price_escalation","severity":"low","title":"Other risk",
			 "description":"Something else.","evidence":"Supplier accepts"}
		]}`, nil
	}}
	engine, contracts := setupAudit(t, model)

	res, err := engine.Audit(context.Background(), "done", "")
	require.NoError(t, err)
	assert.Equal(t, contractModel.ModeHybrid, res.Mode)
	assert.False(t, res.Partial)

	byCategory := map[contractModel.Category]contractModel.Finding{}
	for _, f := range res.Findings {
		byCategory[f.Category] = f
	}
	require.Len(t, res.Findings, 4)
	assert.Equal(t, contractModel.DetectedByBoth, byCategory[contractModel.CategoryAutoRenewal].DetectionMethod)
	assert.Equal(t, contractModel.DetectedByRule, byCategory[contractModel.CategoryUnlimitedLiability].DetectionMethod)
	assert.Equal(t, contractModel.SeverityMedium, byCategory[contractModel.CategoryTerminationImbalance].Severity, "unknown severity maps to medium")
	assert.Nil(t, byCategory[contractModel.CategoryTerminationImbalance].Evidence.CharStart, "unlocatable evidence has no offsets")
	assert.Equal(t, contractModel.SeverityLow, byCategory[contractModel.CategoryOther].Severity)
	require.NotNil(t, byCategory[contractModel.CategoryOther].Evidence.CharStart)

	assert.Equal(t, contractModel.CategoryUnlimitedLiability, res.Findings[0].Category, "critical first")

	stored, err := contracts.GetFindings(context.Background(), "done")
	require.NoError(t, err)
	assert.Len(t, stored, 4)
}

func TestAudit_ModelFailureIsPartial(t *testing.T) {
	engine, _ := setupAudit(t, modelReply("", errors.New("provider down")))

	res, err := engine.Audit(context.Background(), "done", "hybrid")
	require.NoError(t, err)
	assert.True(t, res.Partial)
	assert.NotEmpty(t, res.Warnings)
	assert.Len(t, res.Findings, 2, "rule findings survive")

	res, err = engine.Audit(context.Background(), "done", "model_only")
	require.NoError(t, err)
	assert.True(t, res.Partial)
	assert.Empty(t, res.Findings)
}

func TestAudit_ModelOnlyFailureKeepsStoredFindings(t *testing.T) {
	modelDown := false
	model := &rag_test.MockLLM{OnComplete: func(ctx context.Context, req llm.Request) (string, error) {
		if modelDown {
			return "", errors.New("provider down")
		}
		return `{"findings":[]}`, nil
	}}
	engine, contracts := setupAudit(t, model)
	ctx := context.Background()

	first, err := engine.Audit(ctx, "done", "rules_only")
	require.NoError(t, err)
	require.Len(t, first.Findings, 2)

	modelDown = true
	res, err := engine.Audit(ctx, "done", "model_only")
	require.NoError(t, err)
	assert.True(t, res.Partial)
	assert.Empty(t, res.Findings)

	stored, err := contracts.GetFindings(ctx, "done")
	require.NoError(t, err)
	assert.Len(t, stored, 2, "an outage must not wipe the previous audit")
}

func TestAudit_InvalidModelOutputIsPartial(t *testing.T) {
	engine, _ := setupAudit(t, modelReply(`{"findings":[{"risk_type":"auto_renewal"}]}`, nil))

	res, err := engine.Audit(context.Background(), "done", "hybrid")
	require.NoError(t, err)
	assert.True(t, res.Partial)
}

func TestAudit_RulesOnlySkipsModel(t *testing.T) {
	model := modelReply(`{"findings":[]}`, nil)
	engine, _ := setupAudit(t, model)

	res, err := engine.Audit(context.Background(), "done", "rules_only")
	require.NoError(t, err)
	assert.Zero(t, model.CallCount())
	for _, f := range res.Findings {
		assert.Equal(t, contractModel.DetectedByRule, f.DetectionMethod)
	}
}

func TestAudit_ReplacesPreviousRun(t *testing.T) {
	engine, contracts := setupAudit(t, modelReply(`{"findings":[]}`, nil))
	ctx := context.Background()

	_, err := engine.Audit(ctx, "done", "rules_only")
	require.NoError(t, err)
	_, err = engine.Audit(ctx, "done", "model_only")
	require.NoError(t, err)

	stored, err := contracts.GetFindings(ctx, "done")
	require.NoError(t, err)
	assert.Empty(t, stored)

	got, err := engine.Findings(ctx, "done")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAudit_Guards(t *testing.T) {
	engine, _ := setupAudit(t, modelReply(`{"findings":[]}`, nil))
	ctx := context.Background()

	_, err := engine.Audit(ctx, "done", "llm_everything")
	assert.True(t, apperr.Is(err, apperr.KindInputValidation))

	_, err = engine.Audit(ctx, "pending", "")
	assert.True(t, apperr.Is(err, apperr.KindDocumentState))

	_, err = engine.Audit(ctx, "missing", "")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
