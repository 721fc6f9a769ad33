package geom

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// 文档注释：点入多边形判定
// 背景：用于面与面距离计算中的包含检测，以及洞是否位于外环内的有效性检查。
// 约束：外环命中且不在任何洞内视为命中；边界上的点视为命中。
func pointInPoly(pt orb.Point, poly orb.Polygon) bool {
	if len(poly) == 0 {
		return false
	}
	if !planar.RingContains(poly[0], pt) {
		return false
	}
	for i := 1; i < len(poly); i++ {
		if planar.RingContains(poly[i], pt) && !onRing(pt, poly[i]) {
			return false
		}
	}
	return true
}

func onRing(pt orb.Point, ring orb.Ring) bool {
	for i := 1; i < len(ring); i++ {
		if planar.DistanceFromSegment(ring[i-1], ring[i], pt) == 0 {
			return true
		}
	}
	return false
}

// 快速包围盒过滤
func inBound(pt orb.Point, b orb.Bound) bool {
	return pt[0] >= b.Min[0] && pt[0] <= b.Max[0] && pt[1] >= b.Min[1] && pt[1] <= b.Max[1]
}
