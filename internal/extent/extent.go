// 包 extent：按属性分组的点要素外包矩形（“emprises”）
package extent

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"tenant-api/internal/logger"
	"tenant-api/internal/tenant"
)

// Extent：一个分组的外包矩形
type Extent struct {
	Group    string
	Count    int
	Geometry orb.Polygon
}

// 文档注释：构建分组外包矩形
// 背景：将同一分组值的点收拢为轴对齐矩形，用于快速勾绘作业范围。
// 约束：仅处理 Point/MultiPoint；其他几何跳过并记录；分组值缺失时归入空字符串组；输出按分组名排序。
func Build(features []tenant.Feature, groupField string) []Extent {
	l := logger.L()
	groups := make(map[string]orb.MultiPoint)
	for _, f := range features {
		var pts []orb.Point
		switch g := f.Geometry.(type) {
		case orb.Point:
			pts = []orb.Point{g}
		case orb.MultiPoint:
			pts = g
		default:
			l.Debug("extent_feature_skipped", "id", f.ID)
			continue
		}
		key := ""
		if v, ok := f.Attrs[groupField]; ok && v != nil {
			key = fmt.Sprint(v)
		}
		groups[key] = append(groups[key], pts...)
	}
	out := make([]Extent, 0, len(groups))
	for k, mp := range groups {
		out = append(out, Extent{Group: k, Count: len(mp), Geometry: mp.Bound().ToPolygon()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Group < out[j].Group })
	return out
}

// FeatureCollection 以 group 属性输出
func FeatureCollection(exts []Extent) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, e := range exts {
		f := geojson.NewFeature(e.Geometry)
		f.Properties["group"] = e.Group
		f.Properties["count"] = e.Count
		fc.Append(f)
	}
	return fc
}
