package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akolanti/ContractIntelAPI/internal/data/fileStore"
	"github.com/akolanti/ContractIntelAPI/internal/data/sqlStore"
	"github.com/akolanti/ContractIntelAPI/internal/domain/apperr"
	"github.com/akolanti/ContractIntelAPI/internal/domain/documentModel"
	"github.com/akolanti/ContractIntelAPI/internal/domain/jobModel"
	"github.com/akolanti/ContractIntelAPI/internal/rag/chunker"
	"github.com/akolanti/ContractIntelAPI/internal/rag/rag_test"
	"github.com/akolanti/ContractIntelAPI/internal/retry"
)

type fixture struct {
	pipeline *Pipeline
	docs     documentModel.Repository
	queue    *rag_test.MockQueue
	embedder *rag_test.MockEmbedder
	index    *rag_test.MockIndex
}

func newFixture(t *testing.T, pages []string) *fixture {
	t.Helper()
	dir := t.TempDir()
	db, err := sqlStore.NewStore(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	files, err := fileStore.New(dir)
	require.NoError(t, err)

	f := &fixture{
		docs:     db.Documents(),
		queue:    &rag_test.MockQueue{},
		embedder: &rag_test.MockEmbedder{},
		index:    &rag_test.MockIndex{},
	}
	f.pipeline = NewPipeline(Config{
		Documents: f.docs,
		Files:     files,
		Queue:     f.queue,
		Embedder:  f.embedder,
		Index:     f.index,
		Chunker:   chunker.New(100, 20),
		Pages: func(ctx context.Context, data []byte) ([]string, error) {
			return pages, nil
		},
		BatchSize: 2,
	})
	// the fake page extractor never parses, so only the header is checked
	f.pipeline.validate = func(data []byte, maxBytes int64) error {
		if !strings.HasPrefix(string(data), pdfMagic) {
			return apperr.InputValidation("file is not a PDF")
		}
		return nil
	}
	return f
}

func contractPages() []string {
	return []string{
		strings.Repeat("This Agreement is governed by the laws of Delaware. ", 6),
		strings.Repeat("Either party may terminate with thirty days notice. ", 6),
	}
}

func TestValidatePDF(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		max  int64
	}{
		{"empty", nil, 100},
		{"too large", []byte("%PDF-1.4 0123456789"), 5},
		{"not a pdf", []byte("PK\x03\x04 zip file"), 100},
		{"truncated pdf", []byte("%PDF-1.4\n1 0 obj\n<<>>\n"), 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePDF(tt.data, tt.max)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindInputValidation), "got %v", err)
		})
	}
}

func TestIngest_CreatesAndQueues(t *testing.T) {
	f := newFixture(t, contractPages())
	ctx := context.Background()

	h, err := f.pipeline.Ingest(ctx, []byte("%PDF-1.4 contract one"), "msa.pdf")
	require.NoError(t, err)
	assert.False(t, h.Duplicate)
	assert.Equal(t, documentModel.StatusPending, h.Status)
	assert.Equal(t, "job-"+h.Id, h.JobId)
	assert.Equal(t, []string{h.Id}, f.queue.Enqueued)

	doc, err := f.docs.GetDocument(ctx, h.Id)
	require.NoError(t, err)
	assert.Equal(t, "msa.pdf", doc.Filename)
	assert.Equal(t, documentModel.ContentHash([]byte("%PDF-1.4 contract one")), doc.ContentHash)
}

func TestIngest_DuplicateReturnsOriginal(t *testing.T) {
	f := newFixture(t, contractPages())
	ctx := context.Background()
	data := []byte("%PDF-1.4 same bytes")

	first, err := f.pipeline.Ingest(ctx, data, "a.pdf")
	require.NoError(t, err)
	second, err := f.pipeline.Ingest(ctx, data, "renamed.pdf")
	require.NoError(t, err)

	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Id, second.Id)
	assert.Equal(t, "a.pdf", second.Filename)
	assert.Len(t, f.queue.Enqueued, 1, "a duplicate is never processed twice")
}

func TestIngest_ConcurrentDuplicates(t *testing.T) {
	f := newFixture(t, contractPages())
	ctx := context.Background()
	data := []byte("%PDF-1.4 raced upload")

	var wg sync.WaitGroup
	var mu sync.Mutex
	ids := map[string]bool{}
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := f.pipeline.Ingest(ctx, data, "race.pdf")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			ids[h.Id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, ids, 1)
	assert.Len(t, f.queue.Enqueued, 1)
}

func TestIngest_RejectsBeforeCreating(t *testing.T) {
	f := newFixture(t, contractPages())
	_, err := f.pipeline.Ingest(context.Background(), []byte("plain text"), "notes.txt")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInputValidation))

	counts, err := f.docs.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestIngest_QueueFailureMarksFailed(t *testing.T) {
	f := newFixture(t, contractPages())
	f.queue.OnEnqueue = func(ctx context.Context, documentId string) (jobModel.Job, error) {
		return jobModel.Job{}, errors.New("queue full")
	}
	_, err := f.pipeline.Ingest(context.Background(), []byte("%PDF-1.4 lost"), "lost.pdf")
	require.Error(t, err)

	counts, err := f.docs.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, counts[documentModel.StatusFailed])
}

func TestProcess_CompletesDocument(t *testing.T) {
	f := newFixture(t, contractPages())
	ctx := context.Background()

	var mu sync.Mutex
	var upserted []documentModel.Chunk
	f.index.OnUpsert = func(ctx context.Context, filename string, chunks []documentModel.Chunk, vectors [][]float32) error {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, "msa.pdf", filename)
		assert.Len(t, vectors, len(chunks))
		assert.LessOrEqual(t, len(chunks), 2, "batches respect the configured size")
		upserted = append(upserted, chunks...)
		return nil
	}

	h, err := f.pipeline.Ingest(ctx, []byte("%PDF-1.4 msa"), "msa.pdf")
	require.NoError(t, err)
	require.NoError(t, f.pipeline.Process(ctx, h.Id))

	doc, err := f.docs.GetDocument(ctx, h.Id)
	require.NoError(t, err)
	assert.Equal(t, documentModel.StatusCompleted, doc.Status)
	assert.Equal(t, 2, doc.PageCount)
	assert.Equal(t, len(contractPages()[0])+len(contractPages()[1]), doc.TotalCharacters)
	require.NotNil(t, doc.ProcessedAt)

	pages, err := f.docs.GetPages(ctx, h.Id)
	require.NoError(t, err)
	assert.Len(t, pages, 2)

	require.NotEmpty(t, upserted)
	for i, c := range upserted {
		assert.Equal(t, i, c.ChunkIndex, "chunk indexes run across pages")
		assert.Equal(t, VectorId(h.Id, i), c.VectorId)
	}
	assert.Equal(t, 1, upserted[0].PageNumber)
	assert.Equal(t, 2, upserted[len(upserted)-1].PageNumber)

	// a completed document is left untouched
	before := len(upserted)
	require.NoError(t, f.pipeline.Process(ctx, h.Id))
	assert.Len(t, upserted, before)
}

func TestProcess_EmbeddingFailureCleansUp(t *testing.T) {
	f := newFixture(t, contractPages())
	ctx := context.Background()
	f.embedder.OnBatchEmbedding = func(ctx context.Context, chunks []string) ([][]float32, error) {
		return nil, retry.WithStatus(errors.New("upstream unavailable"), 503)
	}

	h, err := f.pipeline.Ingest(ctx, []byte("%PDF-1.4 flaky"), "flaky.pdf")
	require.NoError(t, err)

	job := f.pipeline.ProcessJob(ctx, jobModel.Job{Id: h.JobId, DocumentId: h.Id, Attempt: 1})
	assert.Equal(t, jobModel.JobStatusError, job.Status)
	assert.True(t, job.Error.Retry, "a 503 is worth another attempt")
	assert.Equal(t, "embedding batch failed", job.Error.Message)

	doc, err := f.docs.GetDocument(ctx, h.Id)
	require.NoError(t, err)
	assert.Equal(t, documentModel.StatusFailed, doc.Status)
	assert.Equal(t, "embedding batch failed", doc.ErrorMessage)
	assert.Equal(t, []string{h.Id}, f.index.Deleted)

	// a redelivery picks the failed document back up
	f.embedder.OnBatchEmbedding = nil
	job = f.pipeline.ProcessJob(ctx, job)
	assert.Equal(t, jobModel.JobStatusComplete, job.Status)

	doc, err = f.docs.GetDocument(ctx, h.Id)
	require.NoError(t, err)
	assert.Equal(t, documentModel.StatusCompleted, doc.Status)
}

func TestProcess_NoTextIsPermanent(t *testing.T) {
	f := newFixture(t, []string{"", ""})
	ctx := context.Background()

	h, err := f.pipeline.Ingest(ctx, []byte("%PDF-1.4 scanned"), "scan.pdf")
	require.NoError(t, err)

	job := f.pipeline.ProcessJob(ctx, jobModel.Job{DocumentId: h.Id, Attempt: 1})
	assert.Equal(t, jobModel.JobStatusError, job.Status)
	assert.False(t, job.Error.Retry)

	doc, err := f.docs.GetDocument(ctx, h.Id)
	require.NoError(t, err)
	assert.Equal(t, documentModel.StatusFailed, doc.Status)
	assert.Equal(t, "document contains no extractable text", doc.ErrorMessage)
}

func TestProcess_UnknownDocument(t *testing.T) {
	f := newFixture(t, contractPages())
	err := f.pipeline.Process(context.Background(), "missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestReprocess(t *testing.T) {
	f := newFixture(t, []string{""})
	ctx := context.Background()

	h, err := f.pipeline.Ingest(ctx, []byte("%PDF-1.4 blank"), "blank.pdf")
	require.NoError(t, err)

	_, err = f.pipeline.Reprocess(ctx, h.Id)
	assert.True(t, apperr.Is(err, apperr.KindDocumentState), "pending documents cannot be reprocessed")

	require.Error(t, f.pipeline.Process(ctx, h.Id))
	again, err := f.pipeline.Reprocess(ctx, h.Id)
	require.NoError(t, err)
	assert.NotEmpty(t, again.JobId)
	assert.Len(t, f.queue.Enqueued, 2)

	_, err = f.pipeline.Reprocess(ctx, "missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestReprocess_CompletedIsNoop(t *testing.T) {
	f := newFixture(t, contractPages())
	ctx := context.Background()

	h, err := f.pipeline.Ingest(ctx, []byte("%PDF-1.4 done"), "done.pdf")
	require.NoError(t, err)
	require.NoError(t, f.pipeline.Process(ctx, h.Id))

	again, err := f.pipeline.Reprocess(ctx, h.Id)
	require.NoError(t, err)
	assert.Equal(t, documentModel.StatusCompleted, again.Status)
	assert.Empty(t, again.JobId)
	assert.Len(t, f.queue.Enqueued, 1)
}

func TestVectorIdIsDeterministic(t *testing.T) {
	assert.Equal(t, VectorId("doc", 3), VectorId("doc", 3))
	assert.NotEqual(t, VectorId("doc", 3), VectorId("doc", 4))
	assert.NotEqual(t, VectorId("doc", 3), VectorId("other", 3))
}
