// 包 geom：平面几何内核（面积、有效性、面与面距离），基于 orb 的平面计算
package geom

import (
	"github.com/paulmach/orb"
)

// 文档注释：面积换算常量
// 背景：图层坐标系为投影米制，面积单位为平方米；对外统一以公顷输出。
const SquareMetersPerHectare = 10000.0

// Polygons：将面或多面展开为多边形列表
// 约束：非面几何返回 nil，由调用方视为无效
func Polygons(g orb.Geometry) []orb.Polygon {
	switch t := g.(type) {
	case orb.Polygon:
		return []orb.Polygon{t}
	case orb.MultiPolygon:
		return []orb.Polygon(t)
	case orb.Bound:
		return []orb.Polygon{t.ToPolygon()}
	}
	return nil
}

// IsPolygonal 判断几何是否为面类型
func IsPolygonal(g orb.Geometry) bool {
	switch g.(type) {
	case orb.Polygon, orb.MultiPolygon, orb.Bound:
		return true
	}
	return false
}
