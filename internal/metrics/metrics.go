package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tenants_runs_total",
		Help: "Total tenant attribution runs by outcome",
	}, []string{"outcome"})
	FeaturesProcessedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tenants_features_processed_total",
		Help: "Total valid features assigned to a tenant",
	})
	FeaturesSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tenants_features_skipped_total",
		Help: "Total features skipped for null or invalid geometry",
	})
	RepairMovesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tenants_repair_moves_total",
		Help: "Total features moved by the repair pass",
	})
	TenantsPerRun = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tenants_per_run",
		Help:    "Number of non-empty tenants produced per run",
		Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 500, 1000},
	})
	RunDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tenants_run_duration_ms",
		Help:    "Tenant attribution duration in milliseconds",
		Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 30000},
	})
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tenants_cache_hits_total",
		Help: "Response cache hits by tier",
	}, []string{"tier"})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tenants_cache_misses_total",
		Help: "Response cache misses",
	})
	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tenants_rate_limited_total",
		Help: "Requests rejected by the token bucket",
	})
)

func init() {
	prometheus.MustRegister(RunsTotal)
	prometheus.MustRegister(FeaturesProcessedTotal)
	prometheus.MustRegister(FeaturesSkippedTotal)
	prometheus.MustRegister(RepairMovesTotal)
	prometheus.MustRegister(TenantsPerRun)
	prometheus.MustRegister(RunDurationMs)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(RateLimitedTotal)
}

// ObserveRun 记录一次成功运行的统计
func ObserveRun(features, skipped, tenants, moves int, durationMs int64) {
	RunsTotal.WithLabelValues("ok").Inc()
	FeaturesProcessedTotal.Add(float64(features))
	FeaturesSkippedTotal.Add(float64(skipped))
	RepairMovesTotal.Add(float64(moves))
	TenantsPerRun.Observe(float64(tenants))
	RunDurationMs.Observe(float64(durationMs))
}

// 文档注释：返回 Prometheus 指标监听器
// 背景：统一暴露注册指标到 /metrics 路径，供 Prometheus 抓取；在主入口挂载。
func Handler() http.Handler { return promhttp.Handler() }
