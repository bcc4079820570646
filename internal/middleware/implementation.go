package middleware

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/akolanti/ContractIntelAPI/internal/adapter/utils"
	"github.com/akolanti/ContractIntelAPI/internal/domain/apperr"
	"github.com/akolanti/ContractIntelAPI/internal/handlers"
	"github.com/akolanti/ContractIntelAPI/internal/metrics"
	"github.com/akolanti/ContractIntelAPI/pkg/logger_i"
)

var logMW = logger_i.NewLogger("middleware")

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	traceId    string
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	kind         apperr.Kind
	errorMessage string
}

// Wrap runs trace injection and rate limiting in front of next, then records the
// request in prometheus and the request log. Query strings are redacted before logging.
func Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: http.StatusOK} //metrics
		re := processRequest(requestResponseStruct{req: r, writer: rec, logger: logMW})

		if re.badRequest.isBadRequest {
			handleBadRequest(re)
		} else {
			next(rec, re.req)
		}

		route := utils.GetRoutePattern(r)
		elapsed := time.Since(start)
		metrics.HttpRequestsTotal.WithLabelValues(route, strconv.Itoa(rec.Status)).Inc() //metrics
		metrics.CaptureRequestMetrics(route, elapsed)
		re.logger.Info("Request served",
			"method", r.Method,
			"route", route,
			"query", redactedQuery(r),
			"status", rec.Status,
			"duration_ms", elapsed.Milliseconds(),
		)
	}
}

func processRequest(re requestResponseStruct) requestResponseStruct {
	re = injectTrace(re)
	return rateLimiter(re)
}

func writeFailure(re requestResponseStruct) {
	handlers.WriteFailure(re.writer, re.badRequest.httpCode, re.badRequest.kind, re.badRequest.errorMessage, re.traceId)
}

// questions travel in the query string of /ask/stream, so decode before masking
func redactedQuery(r *http.Request) string {
	query := r.URL.RawQuery
	if decoded, err := url.QueryUnescape(query); err == nil {
		query = decoded
	}
	return logger_i.Redact(query)
}
