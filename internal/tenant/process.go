package tenant

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"tenant-api/internal/logger"
)

// Result：一次完整处理的输出
type Result struct {
	Summary  Summary
	Records  []Record
	Tenants  []Tenant
	Skipped  []int64
	Duration time.Duration
}

// 文档注释：完整处理流程（过滤 → 聚类 → 聚合）
// 背景：供 HTTP 与命令行共用；每次运行分配 run_id 便于日志与持久化关联。
// 异常：过滤后为空返回 ErrNothingToProcess；重复 ID 返回 ErrDuplicateFeature；ctx 取消返回 ctx.Err()。
func Process(ctx context.Context, features []Feature, cfg Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	l := logger.ForRun(runID)
	store, err := NewFeatureStore(features)
	if err != nil {
		return nil, err
	}
	store = store.Filter(cfg.Filter)
	if store.Len() == 0 {
		l.Warn("tenant_nothing_to_process", "input", len(features))
		return nil, ErrNothingToProcess
	}
	t0 := time.Now()
	a, err := NewClusterer(l).Assign(ctx, store, cfg)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Records: Aggregate(store, a, cfg),
		Skipped: a.Skipped,
		Tenants: snapshotTenants(a),
	}
	res.Summary = Summarize(a)
	res.Summary.RunID = runID
	res.Duration = time.Since(t0)
	l.Info("tenant_run_done",
		"features", res.Summary.Features,
		"skipped", res.Summary.Skipped,
		"tenants", res.Summary.Tenants,
		"moves", res.Summary.Moves,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// snapshotTenants 返回非空租户的副本，按 ID 升序
func snapshotTenants(a *Assignment) []Tenant {
	out := make([]Tenant, 0, len(a.Tenants))
	for _, t := range a.Tenants {
		if len(t.Members) == 0 {
			continue
		}
		cp := Tenant{ID: t.ID, AreaHa: t.AreaHa}
		cp.Members = append([]int64(nil), t.Members...)
		cp.Blocks = append([]string(nil), t.Blocks...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
