package api

import (
	"context"
	"time"

	"github.com/paulmach/orb/geojson"

	"tenant-api/internal/store"
	"tenant-api/internal/tenant"
)

// RunStore：运行持久化接口，由 store.Store 实现；为空时相关路由返回 503
type RunStore interface {
	SaveRun(ctx context.Context, res *tenant.Result, cfg tenant.Config) error
	GetRun(ctx context.Context, runID string) (*store.Run, error)
	GetTotals(ctx context.Context) (*store.Totals, error)
}

const DefaultCacheTTL = time.Hour

// Options：路由行为参数，由主入口从环境变量读取
type Options struct {
	MaxFeatures int
	CacheTTL    time.Duration
	Persist     bool
}

// 文档注释：归属返回结构（对外）
// 背景：摘要、租户列表与带注记的 FeatureCollection 一次返回，前端可直接渲染。
// 约束：缓存命中时原样返回首次计算结果，run_id 与首次一致。
type tenantsResponse struct {
	Summary   tenant.Summary             `json:"summary"`
	Tenants   []tenantView               `json:"tenants"`
	Skipped   []int64                    `json:"skipped"`
	Persisted bool                       `json:"persisted"`
	Features  *geojson.FeatureCollection `json:"features"`
}

type tenantView struct {
	ID      int     `json:"id"`
	Members []int64 `json:"members"`
	AreaHa  float64 `json:"area_ha"`
	Color   string  `json:"color"`
}

type errorResponse struct {
	Error string `json:"error"`
}
