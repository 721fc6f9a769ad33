package tenant

import (
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// 文档注释：聚合计算
// 背景：为每个已归属要素输出面积占比与同租户区块名列表；租户面积为 0 时占比记为 0。
// 约束：区块名去重后排序再以 ", " 连接，保证输出稳定；记录按要素 ID 升序。
func Aggregate(store *FeatureStore, a *Assignment, cfg Config) []Record {
	shared := make(map[int]string, len(a.Tenants))
	out := make([]Record, 0, len(a.items))
	for _, it := range a.items {
		t, ok := a.Tenant(it.id)
		if !ok {
			continue
		}
		names, ok := shared[t.ID]
		if !ok {
			names = joinBlocks(t.Blocks)
			shared[t.ID] = names
		}
		pct := 0.0
		if t.AreaHa > 0 {
			pct = 100 * it.areaHa / t.AreaHa
		}
		rec := Record{
			Tenant:       t.ID,
			SharedBlocks: names,
			OriginalID:   it.id,
			BlockAreaHa:  it.areaHa,
			TenantAreaHa: t.AreaHa,
			AreaPct:      pct,
			Color:        ColorFor(t.ID),
			Geometry:     it.geom,
		}
		if len(cfg.PassThrough) > 0 {
			f, _ := store.Get(it.id)
			rec.Attrs = make(map[string]any, len(cfg.PassThrough))
			for _, name := range cfg.PassThrough {
				rec.Attrs[name] = f.Attrs[name]
			}
		}
		out = append(out, rec)
	}
	return out
}

func joinBlocks(blocks []string) string {
	set := make(map[string]struct{}, len(blocks))
	uniq := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if _, ok := set[b]; ok {
			continue
		}
		set[b] = struct{}{}
		uniq = append(uniq, b)
	}
	sort.Strings(uniq)
	return strings.Join(uniq, ", ")
}

// Summary：一次运行的统计摘要
type Summary struct {
	RunID            string  `json:"run_id"`
	Features         int     `json:"features"`
	Skipped          int     `json:"skipped"`
	Tenants          int     `json:"tenants"`
	Moves            int     `json:"moves"`
	TotalAreaHa      float64 `json:"total_area_ha"`
	MeanTenantAreaHa float64 `json:"mean_tenant_area_ha"`
	MaxTenantAreaHa  float64 `json:"max_tenant_area_ha"`
}

// Summarize 仅统计仍有成员的租户
func Summarize(a *Assignment) Summary {
	s := Summary{Features: len(a.items), Skipped: len(a.Skipped), Moves: a.Moves}
	var areas []float64
	for _, t := range a.Tenants {
		if len(t.Members) == 0 {
			continue
		}
		areas = append(areas, t.AreaHa)
	}
	s.Tenants = len(areas)
	if len(areas) == 0 {
		return s
	}
	s.TotalAreaHa = floats.Sum(areas)
	s.MeanTenantAreaHa = stat.Mean(areas, nil)
	s.MaxTenantAreaHa = floats.Max(areas)
	return s
}
