package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Total number of requests labelled by path and status",
}, []string{"path", "status"})

var countJobsInQueue = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "count_jobs_in_queue",
	Help: "Number of processing jobs waiting for a worker",
})

var dispatcherSignalCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "dispatcher_signal_count",
	Help: "How often the dispatcher has signaled to start a worker",
})

var activeWorkerCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "active_worker_count",
	Help: "Number of active workers",
})

var documentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "contract_documents_total",
	Help: "Documents by ingest outcome",
}, []string{"outcome"})

var extractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "contract_extractions_total",
	Help: "Field extractions by method",
}, []string{"method"})

var findingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "contract_findings_total",
	Help: "Audit findings by severity",
}, []string{"severity"})

var answersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "contract_answers_total",
	Help: "Questions answered, labelled by whether any context passed the threshold",
}, []string{"grounded"})

var jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "document_processing_duration_seconds",
	Help:    "Time spent processing one document.",
	Buckets: []float64{.5, 1, 2, 5, 10, 30, 60, 120, 300},
}, []string{"status"})

var dependencyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "dependency_latency_seconds",
	Help:    "Latency of external service calls.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10},
}, []string{"service"})

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "http_request_duration_seconds",
	Help:    "Latency of HTTP handlers.",
	Buckets: prometheus.DefBuckets,
}, []string{"path"})

type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *HttpStatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE working through the recorder.
func (r *HttpStatusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *HttpStatusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func IncrementJobsInQueue() {
	countJobsInQueue.Inc()
}

func DecrementJobsInQueue() {
	countJobsInQueue.Dec()
}

func StartDispatcherSignalCount() {
	dispatcherSignalCount.Inc()
}

func IncrementActiveWorkerCount() {
	activeWorkerCount.Inc()
}

func DecrementActiveWorkerCount() {
	activeWorkerCount.Dec()
}

func CaptureExecutionMetrics(label string, timeElapsed time.Duration) {
	dependencyLatency.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

func CaptureJobMetrics(label string, timeElapsed time.Duration) {
	jobDuration.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

func CaptureRequestMetrics(path string, timeElapsed time.Duration) {
	requestDuration.WithLabelValues(path).Observe(timeElapsed.Seconds())
}
