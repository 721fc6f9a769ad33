package geom

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// 文档注释：面与面最短距离（平面）
// 背景：邻近判定的核心度量；两面相交或包含时距离为 0，否则为一方顶点到另一方边界的最小距离。
// 约束：输入需为面几何；任一方为空或非面时返回 +Inf，使其永远不构成邻居。
func Distance(a, b orb.Geometry) float64 {
	pa, pb := Polygons(a), Polygons(b)
	if len(pa) == 0 || len(pb) == 0 {
		return math.Inf(1)
	}
	best := math.Inf(1)
	for _, x := range pa {
		for _, y := range pb {
			d := polygonDistance(x, y)
			if d < best {
				best = d
			}
			if best == 0 {
				return 0
			}
		}
	}
	return best
}

// BoundsWithin：包围盒间距不超过 d 时返回 true
// 背景：O(N²) 邻居扫描的廉价预过滤；包围盒距离是真实距离的下界，预过滤不改变判定结果。
func BoundsWithin(a, b orb.Bound, d float64) bool {
	dx := math.Max(0, math.Max(a.Min[0]-b.Max[0], b.Min[0]-a.Max[0]))
	dy := math.Max(0, math.Max(a.Min[1]-b.Max[1], b.Min[1]-a.Max[1]))
	return math.Hypot(dx, dy) <= d
}

func polygonDistance(a, b orb.Polygon) float64 {
	if len(a) == 0 || len(b) == 0 {
		return math.Inf(1)
	}
	// 包含：任一方外环首点落在另一方内
	if inBound(a[0][0], b.Bound()) && pointInPoly(a[0][0], b) {
		return 0
	}
	if inBound(b[0][0], a.Bound()) && pointInPoly(b[0][0], a) {
		return 0
	}
	best := math.Inf(1)
	for _, ra := range a {
		for _, rb := range b {
			d := ringDistance(ra, rb)
			if d < best {
				best = d
			}
			if best == 0 {
				return 0
			}
		}
	}
	return best
}

func ringDistance(a, b orb.Ring) float64 {
	best := math.Inf(1)
	for i := 1; i < len(a); i++ {
		for j := 1; j < len(b); j++ {
			if segmentsIntersect(a[i-1], a[i], b[j-1], b[j]) {
				return 0
			}
		}
	}
	for _, pt := range a {
		for j := 1; j < len(b); j++ {
			if d := planar.DistanceFromSegment(b[j-1], b[j], pt); d < best {
				best = d
			}
		}
	}
	for _, pt := range b {
		for i := 1; i < len(a); i++ {
			if d := planar.DistanceFromSegment(a[i-1], a[i], pt); d < best {
				best = d
			}
		}
	}
	return best
}

// 线段相交（含端点接触与共线重叠）
func segmentsIntersect(p1, p2, q1, q2 orb.Point) bool {
	d1 := orient(q1, q2, p1)
	d2 := orient(q1, q2, p2)
	d3 := orient(p1, p2, q1)
	d4 := orient(p1, p2, q2)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	if d1 == 0 && onSegment(q1, q2, p1) {
		return true
	}
	if d2 == 0 && onSegment(q1, q2, p2) {
		return true
	}
	if d3 == 0 && onSegment(p1, p2, q1) {
		return true
	}
	if d4 == 0 && onSegment(p1, p2, q2) {
		return true
	}
	return false
}

func orient(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

func onSegment(a, b, p orb.Point) bool {
	return math.Min(a[0], b[0]) <= p[0] && p[0] <= math.Max(a[0], b[0]) &&
		math.Min(a[1], b[1]) <= p[1] && p[1] <= math.Max(a[1], b[1])
}
