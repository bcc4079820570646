package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/akolanti/ContractIntelAPI/internal/config"
	"github.com/akolanti/ContractIntelAPI/internal/domain/apperr"
	"github.com/akolanti/ContractIntelAPI/internal/domain/contractModel"
	"github.com/akolanti/ContractIntelAPI/internal/domain/documentModel"
	"github.com/akolanti/ContractIntelAPI/internal/domain/jobModel"
	"github.com/akolanti/ContractIntelAPI/internal/metrics"
	"github.com/akolanti/ContractIntelAPI/internal/rag/chunker"
	"github.com/akolanti/ContractIntelAPI/internal/rag/embedding"
	"github.com/akolanti/ContractIntelAPI/internal/rag/vectorDB"
	"github.com/akolanti/ContractIntelAPI/internal/retry"
	"github.com/akolanti/ContractIntelAPI/pkg/logger_i"
	"github.com/google/uuid"
)

var logger = logger_i.NewLogger("ingest")

type Queue interface {
	Enqueue(ctx context.Context, documentId string) (jobModel.Job, error)
}

type FileStore interface {
	Save(contentHash string, data []byte) (string, error)
	Read(path string) ([]byte, error)
}

// Extractor is run after a document completes. It is optional.
type Extractor interface {
	Extract(ctx context.Context, documentId string, force bool) (contractModel.Extraction, error)
}

// Handle is what a caller gets back from Ingest or Reprocess.
type Handle struct {
	Id        string               `json:"document_id"`
	Filename  string               `json:"filename"`
	Status    documentModel.Status `json:"status"`
	Duplicate bool                 `json:"duplicate"`
	JobId     string               `json:"job_id,omitempty"`
}

type Config struct {
	Documents      documentModel.Repository
	Files          FileStore
	Queue          Queue
	Embedder       embedding.Embedder
	Index          vectorDB.Index
	Chunker        chunker.Chunker
	Pages          PageExtractor
	Jobs           jobModel.JobStore
	Extractor      Extractor
	Metrics        *metrics.Recorder
	BatchSize      int
	MaxUploadBytes int64
}

type Pipeline struct {
	docs           documentModel.Repository
	files          FileStore
	queue          Queue
	embedder       embedding.Embedder
	index          vectorDB.Index
	chunker        chunker.Chunker
	pages          PageExtractor
	jobs           jobModel.JobStore
	extractor      Extractor
	metrics        *metrics.Recorder
	batchSize      int
	maxUploadBytes int64
	validate       func(data []byte, maxBytes int64) error
}

func NewPipeline(cfg Config) *Pipeline {
	p := &Pipeline{
		docs:           cfg.Documents,
		files:          cfg.Files,
		queue:          cfg.Queue,
		embedder:       cfg.Embedder,
		index:          cfg.Index,
		chunker:        cfg.Chunker,
		pages:          cfg.Pages,
		jobs:           cfg.Jobs,
		extractor:      cfg.Extractor,
		metrics:        cfg.Metrics,
		batchSize:      cfg.BatchSize,
		maxUploadBytes: cfg.MaxUploadBytes,
		validate:       validatePDF,
	}
	if p.pages == nil {
		p.pages = PDFPages(config.PageTextTimeout)
	}
	if p.batchSize <= 0 {
		p.batchSize = config.EmbeddingBatchSize
	}
	if p.maxUploadBytes <= 0 {
		p.maxUploadBytes = config.MaxUploadBytes
	}
	if p.chunker.Size() == 0 {
		p.chunker = chunker.New(config.ChunkSize, config.ChunkOverlap)
	}
	return p
}

// SetQueue wires the task queue after construction; the queue's worker pool
// needs the pipeline first.
func (p *Pipeline) SetQueue(q Queue) {
	p.queue = q
}

// Ingest validates and stores the upload, then queues it for processing.
// Identical bytes always resolve to the first Document.
func (p *Pipeline) Ingest(ctx context.Context, data []byte, filename string) (Handle, error) {
	log := logger.WithTrace(ctx).With("filename", filename)

	if err := p.validate(data, p.maxUploadBytes); err != nil {
		log.Warn("Rejected upload", "error", err)
		return Handle{}, err
	}
	hash := documentModel.ContentHash(data)

	if existing, found, err := p.docs.FindByHash(ctx, hash); err != nil {
		return Handle{}, apperr.Internal("could not check for duplicates", err)
	} else if found {
		p.metrics.DocumentIngested(ctx, true)
		log.Info("Duplicate upload", "documentId", existing.Id)
		return Handle{Id: existing.Id, Filename: existing.Filename, Status: existing.Status, Duplicate: true}, nil
	}

	path, err := p.files.Save(hash, data)
	if err != nil {
		return Handle{}, apperr.Internal("could not store file", err)
	}

	doc, created, err := p.docs.CreateIfAbsent(ctx, documentModel.Document{
		Id:          uuid.New().String(),
		ContentHash: hash,
		Filename:    filename,
		FileSize:    int64(len(data)),
		FilePath:    path,
		Status:      documentModel.StatusPending,
		UploadedAt:  time.Now().UTC(),
	})
	if err != nil {
		return Handle{}, apperr.Internal("could not create document", err)
	}
	if !created {
		p.metrics.DocumentIngested(ctx, true)
		return Handle{Id: doc.Id, Filename: doc.Filename, Status: doc.Status, Duplicate: true}, nil
	}
	p.metrics.DocumentIngested(ctx, false)

	job, err := p.queue.Enqueue(ctx, doc.Id)
	if err != nil {
		log.Error("Could not queue document", "documentId", doc.Id, "error", err)
		p.markUnqueued(ctx, doc.Id)
		return Handle{}, apperr.Internal("could not queue document for processing", err)
	}

	log.Info("Document accepted", "documentId", doc.Id, "jobId", job.Id, "bytes", len(data))
	return Handle{Id: doc.Id, Filename: doc.Filename, Status: doc.Status, JobId: job.Id}, nil
}

// markUnqueued moves a document nobody will process to failed so it can be reprocessed.
func (p *Pipeline) markUnqueued(ctx context.Context, id string) {
	if err := p.docs.UpdateStatus(ctx, id, documentModel.StatusProcessing, ""); err != nil {
		return
	}
	_ = p.docs.UpdateStatus(ctx, id, documentModel.StatusFailed, "could not queue document for processing")
}

func (p *Pipeline) GetDocumentStatus(ctx context.Context, id string) (documentModel.Document, error) {
	if id == "" {
		return documentModel.Document{}, apperr.InputValidation("document id is required")
	}
	return p.docs.GetDocument(ctx, id)
}

// Reprocess queues a failed document again. A completed document is returned unchanged.
func (p *Pipeline) Reprocess(ctx context.Context, id string) (Handle, error) {
	doc, err := p.GetDocumentStatus(ctx, id)
	if err != nil {
		return Handle{}, err
	}
	switch doc.Status {
	case documentModel.StatusCompleted:
		return Handle{Id: doc.Id, Filename: doc.Filename, Status: doc.Status}, nil
	case documentModel.StatusFailed:
	default:
		return Handle{}, apperr.DocumentState(fmt.Sprintf("document %s is %s; only failed documents can be reprocessed", id, doc.Status))
	}

	job, err := p.queue.Enqueue(ctx, doc.Id)
	if err != nil {
		return Handle{}, apperr.Internal("could not queue document for processing", err)
	}
	logger.WithTrace(ctx).Info("Document requeued", "documentId", doc.Id, "jobId", job.Id)
	return Handle{Id: doc.Id, Filename: doc.Filename, Status: doc.Status, JobId: job.Id}, nil
}

// ProcessJob adapts Process to the worker pool.
func (p *Pipeline) ProcessJob(ctx context.Context, job jobModel.Job) jobModel.Job {
	err := p.process(ctx, job.DocumentId, func(step jobModel.InternalStatus) {
		job.CurrentStep = step
		if p.jobs != nil {
			_ = p.jobs.SaveJob(ctx, job)
		}
	})
	if err != nil {
		job.Status = jobModel.JobStatusError
		job.CurrentStep = jobModel.Error
		job.Error = jobModel.JobError{Message: apperr.PublicMessage(err), Retry: retry.IsTransient(err)}
		return job
	}
	job.Status = jobModel.JobStatusComplete
	job.CurrentStep = jobModel.Complete
	job.Error = jobModel.JobError{}
	return job
}

// Process runs the asynchronous half of ingestion for one document.
func (p *Pipeline) Process(ctx context.Context, documentId string) error {
	return p.process(ctx, documentId, func(jobModel.InternalStatus) {})
}

func (p *Pipeline) process(ctx context.Context, documentId string, step func(jobModel.InternalStatus)) error {
	log := logger.WithTrace(ctx).With("documentId", documentId)
	start := time.Now()

	doc, err := p.docs.GetDocument(ctx, documentId)
	if err != nil {
		return err
	}
	if doc.IsCompleted() {
		log.Info("Document already completed, skipping")
		return nil
	}
	if err := p.docs.UpdateStatus(ctx, documentId, documentModel.StatusProcessing, ""); err != nil {
		if apperr.Is(err, apperr.KindDocumentState) {
			// another delivery owns it
			log.Info("Document is being processed elsewhere, skipping", "reason", err)
			return nil
		}
		return err
	}

	pageCount, totalChars, err := p.run(ctx, doc, step)
	if err != nil {
		p.fail(ctx, doc.Id, err)
		p.metrics.DocumentProcessed(ctx, false)
		metrics.CaptureExecutionMetrics("document_processing", time.Since(start))
		return err
	}

	if err := p.docs.CompleteDocument(ctx, doc.Id, pageCount, totalChars); err != nil {
		p.fail(ctx, doc.Id, err)
		return err
	}
	p.metrics.DocumentProcessed(ctx, true)
	metrics.CaptureExecutionMetrics("document_processing", time.Since(start))
	log.Info("Document completed", "pages", pageCount, "characters", totalChars, "elapsed", time.Since(start))

	if p.extractor != nil {
		step(jobModel.ExtractionCall)
		if _, err := p.extractor.Extract(ctx, doc.Id, false); err != nil {
			log.Warn("Automatic extraction failed", "error", err)
		}
	}
	return nil
}

func (p *Pipeline) run(ctx context.Context, doc documentModel.Document, step func(jobModel.InternalStatus)) (int, int, error) {
	step(jobModel.PageExtraction)
	data, err := p.files.Read(doc.FilePath)
	if err != nil {
		return 0, 0, apperr.Internal("raw file is missing", err)
	}
	texts, err := p.pages(ctx, data)
	if err != nil {
		return 0, 0, apperr.InputValidation("could not read PDF: " + err.Error())
	}

	pages, totalChars := buildPages(doc.Id, texts)
	if totalChars == 0 {
		return 0, 0, apperr.InputValidation("document contains no extractable text")
	}
	if err := p.docs.SavePages(ctx, doc.Id, pages); err != nil {
		return 0, 0, apperr.Internal("could not store pages", err)
	}

	step(jobModel.Chunking)
	chunks := prepareChunks(p.chunker, doc.Id, pages)

	step(jobModel.EmbeddingCall)
	if err := p.batchIngest(ctx, doc.Filename, chunks, step); err != nil {
		return 0, 0, err
	}
	if err := p.docs.SaveChunks(ctx, doc.Id, chunks); err != nil {
		return 0, 0, apperr.Internal("could not store chunks", err)
	}
	return len(pages), totalChars, nil
}

// fail removes any vectors already written before recording the failure.
func (p *Pipeline) fail(ctx context.Context, documentId string, cause error) {
	log := logger.WithTrace(ctx).With("documentId", documentId)
	log.Error("Document processing failed", "error", cause)

	// the job ctx may be the reason we failed
	cleanup, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := p.index.DeleteDocument(cleanup, documentId); err != nil {
		log.Warn("Could not remove partial vectors", "error", err)
	}
	if err := p.docs.UpdateStatus(cleanup, documentId, documentModel.StatusFailed, apperr.PublicMessage(cause)); err != nil {
		log.Error("Could not mark document failed", "error", err)
	}
}
