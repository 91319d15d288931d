package metrics

import (
	"net/http"
	"strconv"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

type promRecorder struct {
	cacheTotal       *prom.CounterVec
	providerTotal    *prom.CounterVec
	providerSeconds  *prom.HistogramVec
	assemblySeconds  *prom.HistogramVec
	assemblyEntities *prom.HistogramVec
}

func (p *promRecorder) IncCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	p.cacheTotal.WithLabelValues(cache, result).Inc()
}

func (p *promRecorder) IncProviderRun(provider string, outcome string) {
	p.providerTotal.WithLabelValues(provider, outcome).Inc()
}

func (p *promRecorder) ObserveProviderSeconds(provider string, outcome string, seconds float64) {
	p.providerSeconds.WithLabelValues(provider, outcome).Observe(seconds)
}

func (p *promRecorder) ObserveAssemblySeconds(target string, success bool, seconds float64) {
	p.assemblySeconds.WithLabelValues(target, strconv.FormatBool(success)).Observe(seconds)
}

func (p *promRecorder) ObserveAssemblyEntities(target string, count int) {
	p.assemblyEntities.WithLabelValues(target).Observe(float64(count))
}

// EnablePrometheus installs a Prometheus recorder on a fresh registry and
// returns the scrape handler for it.
func EnablePrometheus() http.Handler {
	registry := prom.NewRegistry()
	p := &promRecorder{
		cacheTotal: prom.NewCounterVec(prom.CounterOpts{
			Name: "canon_resolver_cache_lookups_total",
			Help: "Resolver cache lookups by result",
		}, []string{"cache", "result"}),
		providerTotal: prom.NewCounterVec(prom.CounterOpts{
			Name: "canon_provider_runs_total",
			Help: "Context provider runs by outcome",
		}, []string{"provider", "outcome"}),
		providerSeconds: prom.NewHistogramVec(prom.HistogramOpts{
			Name:    "canon_provider_seconds",
			Help:    "Context provider duration in seconds",
			Buckets: prom.DefBuckets,
		}, []string{"provider", "outcome"}),
		assemblySeconds: prom.NewHistogramVec(prom.HistogramOpts{
			Name:    "canon_assembly_seconds",
			Help:    "Context assembly duration in seconds",
			Buckets: prom.DefBuckets,
		}, []string{"target", "success"}),
		assemblyEntities: prom.NewHistogramVec(prom.HistogramOpts{
			Name:    "canon_assembly_entities",
			Help:    "Entities returned per assembly",
			Buckets: []float64{0, 5, 10, 20, 30, 40, 50, 75, 100},
		}, []string{"target"}),
	}

	registry.MustRegister(
		p.cacheTotal, p.providerTotal, p.providerSeconds, p.assemblySeconds, p.assemblyEntities,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	SetRecorder(p)

	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
