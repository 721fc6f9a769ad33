// 包 api：HTTP 路由，提供租户归属、范围面构建、运行查询与统计接口
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"tenant-api/internal/cache"
	"tenant-api/internal/config"
	"tenant-api/internal/export"
	"tenant-api/internal/extent"
	"tenant-api/internal/ingest"
	"tenant-api/internal/logger"
	"tenant-api/internal/metrics"
	"tenant-api/internal/store"
	"tenant-api/internal/tenant"
)

// 构建并返回 API 路由：独立 ServeMux 便于在主入口挂载到 API_BASE 前缀
// 约束：st、rc、lru 均可为 nil，对应能力按缺失降级
func BuildRoutes(st RunStore, rc *redis.Client, lru *cache.LRU, opts Options) *http.ServeMux {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	rcache := &responseCache{lru: lru, rc: rc, ttl: opts.CacheTTL}
	apiMux := http.NewServeMux()

	apiMux.HandleFunc("/tenants", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		ctx := r.Context()
		l := logger.L()
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		job, raw, err := parseTenantsRequest(body, r.URL.Query())
		if err != nil {
			metrics.RunsTotal.WithLabelValues("invalid").Inc()
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		key := requestKey(job, raw)
		if b, tier := rcache.get(ctx, key); b != nil {
			l.Debug("tenants_cache_hit", "tier", tier)
			w.Header().Set("x-cache", tier)
			writeRaw(w, http.StatusOK, b)
			return
		}
		fc, err := ingest.Decode(bytesReader(raw))
		if err != nil {
			metrics.RunsTotal.WithLabelValues("invalid").Inc()
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if opts.MaxFeatures > 0 && len(fc.Features) > opts.MaxFeatures {
			metrics.RunsTotal.WithLabelValues("invalid").Inc()
			writeError(w, http.StatusRequestEntityTooLarge, "too many features")
			return
		}
		cfg := job.TenantConfig()
		res, err := tenant.Process(ctx, ingest.ToFeatures(fc, ingest.Fields{IDField: job.IDField, BlockField: job.BlockField}), cfg)
		switch {
		case errors.Is(err, tenant.ErrNothingToProcess):
			metrics.RunsTotal.WithLabelValues("empty").Inc()
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		case errors.Is(err, tenant.ErrDuplicateFeature), errors.Is(err, tenant.ErrInvalidDistance):
			metrics.RunsTotal.WithLabelValues("invalid").Inc()
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case err != nil:
			metrics.RunsTotal.WithLabelValues("error").Inc()
			l.Error("tenants_process_error", "err", err)
			writeError(w, http.StatusInternalServerError, "processing failed")
			return
		}
		metrics.ObserveRun(res.Summary.Features, res.Summary.Skipped, res.Summary.Tenants, res.Summary.Moves, res.Duration.Milliseconds())

		out := tenantsResponse{
			Summary:  res.Summary,
			Tenants:  make([]tenantView, 0, len(res.Tenants)),
			Skipped:  res.Skipped,
			Features: export.FeatureCollection(res.Records),
		}
		if out.Skipped == nil {
			out.Skipped = []int64{}
		}
		for _, t := range res.Tenants {
			out.Tenants = append(out.Tenants, tenantView{ID: t.ID, Members: t.Members, AreaHa: t.AreaHa, Color: tenant.ColorFor(t.ID)})
		}
		if (opts.Persist || job.Persist) && st != nil {
			if err := st.SaveRun(ctx, res, cfg); err != nil {
				l.Error("tenants_persist_error", "run_id", res.Summary.RunID, "err", err)
			} else {
				out.Persisted = true
			}
		}
		b, err := json.Marshal(out)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		rcache.set(ctx, key, b)
		w.Header().Set("x-cache", "miss")
		writeRaw(w, http.StatusOK, b)
	})

	apiMux.HandleFunc("/extents", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		group := r.URL.Query().Get("group_field")
		if group == "" {
			writeError(w, http.StatusBadRequest, "group_field is required")
			return
		}
		fc, err := ingest.Decode(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		exts := extent.Build(ingest.ToFeatures(fc, ingest.Fields{}), group)
		logger.L().Debug("extents_built", "group_field", group, "points", len(fc.Features), "extents", len(exts))
		writeJSON(w, http.StatusOK, extent.FeatureCollection(exts))
	})

	apiMux.HandleFunc("/runs", func(w http.ResponseWriter, r *http.Request) {
		if st == nil {
			writeError(w, http.StatusServiceUnavailable, "persistence disabled")
			return
		}
		id := r.URL.Query().Get("id")
		if _, err := uuid.Parse(id); err != nil {
			writeError(w, http.StatusBadRequest, "invalid run id")
			return
		}
		run, err := st.GetRun(r.Context(), id)
		if errors.Is(err, store.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		if err != nil {
			logger.L().Error("runs_query_error", "run_id", id, "err", err)
			writeError(w, http.StatusInternalServerError, "query failed")
			return
		}
		if r.URL.Query().Get("format") == "geojson" {
			writeJSON(w, http.StatusOK, export.FeatureCollection(run.Records))
			return
		}
		writeJSON(w, http.StatusOK, run)
	})

	apiMux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		m := map[string]any{}
		if lru != nil {
			m["cache_entries"] = lru.Len()
		}
		if st != nil {
			t, err := st.GetTotals(r.Context())
			if err != nil {
				logger.L().Error("stats_query_error", "err", err)
				writeError(w, http.StatusInternalServerError, "query failed")
				return
			}
			m["runs"], m["features"], m["tenants"], m["area_ha"] = t.Runs, t.Features, t.Tenants, t.AreaHa
		}
		writeJSON(w, http.StatusOK, m)
	})

	apiMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return apiMux
}

// requestKey：作业参数与要素原文共同决定缓存键
func requestKey(job *config.Job, features []byte) string {
	j, _ := json.Marshal(job)
	return cache.Key("tenants:", j, features)
}
