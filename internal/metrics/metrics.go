// Package metrics records build statistics with Prometheus.
package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result labels. Parse failures are labelled with their error kind.
const (
	ResultOK      = "ok"
	ResultWritten = "written"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"
)

// Recorder holds the build metrics. A nil *Recorder records nothing.
type Recorder struct {
	reg           *prom.Registry
	parsed        *prom.CounterVec
	rendered      *prom.CounterVec
	buildDuration prom.Histogram
	posts         prom.Gauge
	lastBuild     prom.Gauge
}

// NewRecorder constructs and registers the metrics on reg, or on a fresh
// registry when reg is nil.
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	r := &Recorder{
		reg: reg,
		parsed: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "quire",
			Name:      "posts_parsed_total",
			Help:      "Post sources parsed, by result (ok or failure kind)",
		}, []string{"result"}),
		rendered: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "quire",
			Name:      "posts_rendered_total",
			Help:      "Post pages written, skipped as unchanged, or failed",
		}, []string{"result"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "quire",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		posts: prom.NewGauge(prom.GaugeOpts{
			Namespace: "quire",
			Name:      "posts",
			Help:      "Valid posts in the last build",
		}),
		lastBuild: prom.NewGauge(prom.GaugeOpts{
			Namespace: "quire",
			Name:      "last_build_timestamp_seconds",
			Help:      "Unix time the last build finished",
		}),
	}
	reg.MustRegister(r.parsed, r.rendered, r.buildDuration, r.posts, r.lastBuild)
	return r
}

// IncParsed counts one parse outcome.
func (r *Recorder) IncParsed(result string) {
	if r == nil {
		return
	}
	r.parsed.WithLabelValues(result).Inc()
}

// IncRendered counts one rendered ("written") or unchanged ("skipped") page.
func (r *Recorder) IncRendered(result string) {
	if r == nil {
		return
	}
	r.rendered.WithLabelValues(result).Inc()
}

// ObserveBuild records a finished build.
func (r *Recorder) ObserveBuild(d time.Duration, posts int) {
	if r == nil {
		return
	}
	r.buildDuration.Observe(d.Seconds())
	r.posts.Set(float64(posts))
	r.lastBuild.SetToCurrentTime()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.HandlerFor(prom.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
