package metrics

import (
	"context"
	"strconv"

	"github.com/akolanti/ContractIntelAPI/pkg/logger_i"
)

// Counter names persisted in the CounterStore and reported by /stats.
const (
	DocumentsIngested  = "documents_ingested"
	DocumentsDuplicate = "documents_duplicate"
	DocumentsCompleted = "documents_completed"
	DocumentsFailed    = "documents_failed"
	QuestionsAnswered  = "questions_answered"
	QuestionsNoContext = "questions_no_context"
	AuditsRun          = "audits_run"
	FindingsRecorded   = "findings_recorded"
)

type CounterStore interface {
	Incr(ctx context.Context, name string, delta int64) error
	Snapshot(ctx context.Context) (map[string]int64, error)
}

// Recorder feeds both prometheus and the durable counters. A nil Recorder is a no-op.
type Recorder struct {
	counters CounterStore
	logger   *logger_i.Logger
}

func NewRecorder(counters CounterStore) *Recorder {
	return &Recorder{counters: counters, logger: logger_i.NewLogger("metrics")}
}

func (r *Recorder) incr(ctx context.Context, name string, delta int64) {
	if r == nil || r.counters == nil {
		return
	}
	if err := r.counters.Incr(ctx, name, delta); err != nil {
		r.logger.WithTrace(ctx).Warn("counter update failed", "counter", name, "error", err)
	}
}

func (r *Recorder) DocumentIngested(ctx context.Context, duplicate bool) {
	if duplicate {
		documentsTotal.WithLabelValues("duplicate").Inc()
		r.incr(ctx, DocumentsDuplicate, 1)
		return
	}
	documentsTotal.WithLabelValues("ingested").Inc()
	r.incr(ctx, DocumentsIngested, 1)
}

func (r *Recorder) DocumentProcessed(ctx context.Context, ok bool) {
	if ok {
		documentsTotal.WithLabelValues("completed").Inc()
		r.incr(ctx, DocumentsCompleted, 1)
		return
	}
	documentsTotal.WithLabelValues("failed").Inc()
	r.incr(ctx, DocumentsFailed, 1)
}

func (r *Recorder) ExtractionDone(ctx context.Context, method string) {
	extractionsTotal.WithLabelValues(method).Inc()
	r.incr(ctx, "extractions_"+method, 1)
}

func (r *Recorder) QuestionAnswered(ctx context.Context, grounded bool) {
	answersTotal.WithLabelValues(strconv.FormatBool(grounded)).Inc()
	if grounded {
		r.incr(ctx, QuestionsAnswered, 1)
		return
	}
	r.incr(ctx, QuestionsNoContext, 1)
}

func (r *Recorder) AuditDone(ctx context.Context, severities []string) {
	for _, s := range severities {
		findingsTotal.WithLabelValues(s).Inc()
	}
	r.incr(ctx, AuditsRun, 1)
	r.incr(ctx, FindingsRecorded, int64(len(severities)))
}

func (r *Recorder) Snapshot(ctx context.Context) (map[string]int64, error) {
	if r == nil || r.counters == nil {
		return map[string]int64{}, nil
	}
	return r.counters.Snapshot(ctx)
}
