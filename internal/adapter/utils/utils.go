package utils

import (
	"net/http"
	"net/url"
	"strings"

	_ "github.com/akolanti/ContractIntelAPI/cmd/api/docs"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/http-swagger"
)

// RouterOptions picks the operational endpoints mounted next to the API.
type RouterOptions struct {
	Docs    bool // swagger UI under /swagger
	Metrics bool // prometheus scrape endpoint at /metrics
}

func GetNewUUID() string {
	return uuid.New().String()
}

// GetChiURLParam returns the unescaped, trimmed path parameter.
func GetChiURLParam(request *http.Request, key string) string {
	v := chi.URLParam(request, key)
	if unescaped, err := url.PathUnescape(v); err == nil {
		v = unescaped
	}
	return strings.TrimSpace(v)
}

func NewRouter(opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()
	if opts.Docs {
		mountSwagger(r)
	}
	if opts.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}
	return r
}

func mountSwagger(r chi.Router) {
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
	r.Get("/swagger/*", httpSwagger.WrapHandler)
}

// GetRoutePattern is the matched chi pattern, e.g. /documents/{id}. It keeps metric
// labels bounded; unmatched requests fall back to the raw path.
func GetRoutePattern(request *http.Request) string {
	if rc := chi.RouteContext(request.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return request.URL.Path
}
