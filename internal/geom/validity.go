package geom

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

var (
	ErrNullGeometry   = errors.New("geometry is null")
	ErrNotPolygonal   = errors.New("geometry is not a polygon")
	ErrEmptyPolygon   = errors.New("polygon has no rings")
	ErrRingTooShort   = errors.New("ring has fewer than 4 points")
	ErrRingNotClosed  = errors.New("ring is not closed")
	ErrZeroArea       = errors.New("ring has zero area")
	ErrSelfIntersects = errors.New("ring self-intersects")
	ErrRingsIntersect = errors.New("rings of a polygon intersect")
	ErrHoleOutside    = errors.New("hole lies outside the shell")
	ErrPartsOverlap   = errors.New("multipolygon parts overlap")
	ErrNonFinite      = errors.New("coordinate is not finite")
)

// 文档注释：几何有效性检查
// 背景：聚类前剔除空几何与无效几何，避免距离与面积计算产生误导结果；返回首个违规原因便于日志定位。
// 约束：仅接受 Polygon/MultiPolygon；连续重复顶点先折叠再检查。
//      环需闭合、至少 4 个不同顶点、面积非零、不自相交；
//      同一多边形的环之间不得交叉或重叠，最多接触于一点；洞位于外环内且互不嵌套；
//      多面各部分之间可在点上接触，但不得交叉、重叠或相互包含。
func Validate(g orb.Geometry) error {
	if g == nil {
		return ErrNullGeometry
	}
	if !IsPolygonal(g) {
		return ErrNotPolygonal
	}
	polys := Polygons(g)
	if len(polys) == 0 {
		return ErrEmptyPolygon
	}
	parts := make([]orb.Polygon, 0, len(polys))
	for _, p := range polys {
		if len(p) == 0 {
			return ErrEmptyPolygon
		}
		cp := make(orb.Polygon, len(p))
		for i, r := range p {
			r = collapseRepeats(r)
			if err := validateRing(r); err != nil {
				return err
			}
			cp[i] = r
		}
		if err := validateHoles(cp); err != nil {
			return err
		}
		parts = append(parts, cp)
	}
	return validateParts(parts)
}

// collapseRepeats 去除连续重复顶点（零长度边）
func collapseRepeats(r orb.Ring) orb.Ring {
	if len(r) == 0 {
		return r
	}
	out := make(orb.Ring, 1, len(r))
	out[0] = r[0]
	for _, pt := range r[1:] {
		if pt != out[len(out)-1] {
			out = append(out, pt)
		}
	}
	return out
}

func validateRing(r orb.Ring) error {
	for _, pt := range r {
		if math.IsNaN(pt[0]) || math.IsNaN(pt[1]) || math.IsInf(pt[0], 0) || math.IsInf(pt[1], 0) {
			return ErrNonFinite
		}
	}
	if len(r) < 4 {
		return ErrRingTooShort
	}
	if !r.Closed() {
		return ErrRingNotClosed
	}
	if planar.Area(r) == 0 {
		return ErrZeroArea
	}
	// 非相邻边两两检测相交；首尾边因闭合而相邻
	n := len(r) - 1
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if j == i+1 || (i == 0 && j == n-1) {
				continue
			}
			if segmentsIntersect(r[i], r[i+1], r[j], r[j+1]) {
				return ErrSelfIntersects
			}
		}
	}
	return nil
}

func validateHoles(p orb.Polygon) error {
	for i := 0; i < len(p); i++ {
		for j := i + 1; j < len(p); j++ {
			crosses, touches := ringRelation(p[i], p[j])
			if crosses || touches > 1 {
				return ErrRingsIntersect
			}
		}
	}
	shell := p[0]
	for i := 1; i < len(p); i++ {
		if !planar.RingContains(shell, samplePoint(p[i], orb.Polygon{shell})) {
			return ErrHoleOutside
		}
		for j := 1; j < len(p); j++ {
			if i == j {
				continue
			}
			pt := samplePoint(p[j], orb.Polygon{p[i]})
			if planar.RingContains(p[i], pt) {
				return ErrHoleOutside
			}
		}
	}
	return nil
}

func validateParts(parts []orb.Polygon) error {
	for i := 0; i < len(parts); i++ {
		for j := i + 1; j < len(parts); j++ {
			for _, ra := range parts[i] {
				for _, rb := range parts[j] {
					if crosses, _ := ringRelation(ra, rb); crosses {
						return ErrPartsOverlap
					}
				}
			}
			if pointInPoly(samplePoint(parts[j][0], parts[i]), parts[i]) ||
				pointInPoly(samplePoint(parts[i][0], parts[j]), parts[j]) {
				return ErrPartsOverlap
			}
		}
	}
	return nil
}

// 文档注释：两环的边界关系
// 背景：区分真正交叉/共线重叠（crosses）与仅在点上接触；touches 为不同接触点的个数。
func ringRelation(a, b orb.Ring) (crosses bool, touches int) {
	seen := make(map[orb.Point]struct{})
	for i := 1; i < len(a); i++ {
		for j := 1; j < len(b); j++ {
			c, pt, ok := segmentRelation(a[i-1], a[i], b[j-1], b[j])
			if c {
				return true, len(seen)
			}
			if ok {
				seen[pt] = struct{}{}
			}
		}
	}
	return false, len(seen)
}

// segmentRelation：cross 为内部交叉或正长度共线重叠；否则若相交于一点，返回该接触点
func segmentRelation(p1, p2, q1, q2 orb.Point) (cross bool, touch orb.Point, touched bool) {
	d1 := orient(q1, q2, p1)
	d2 := orient(q1, q2, p2)
	d3 := orient(p1, p2, q1)
	d4 := orient(p1, p2, q2)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true, orb.Point{}, false
	}
	if d1 == 0 && d2 == 0 {
		// 共线：按主轴投影求重叠区间
		ax := 0
		if math.Abs(p2[0]-p1[0]) < math.Abs(p2[1]-p1[1]) {
			ax = 1
		}
		lo := math.Max(math.Min(p1[ax], p2[ax]), math.Min(q1[ax], q2[ax]))
		hi := math.Min(math.Max(p1[ax], p2[ax]), math.Max(q1[ax], q2[ax]))
		if lo < hi {
			return true, orb.Point{}, false
		}
	}
	switch {
	case d1 == 0 && onSegment(q1, q2, p1):
		return false, p1, true
	case d2 == 0 && onSegment(q1, q2, p2):
		return false, p2, true
	case d3 == 0 && onSegment(p1, p2, q1):
		return false, q1, true
	case d4 == 0 && onSegment(p1, p2, q2):
		return false, q2, true
	}
	return false, orb.Point{}, false
}

// samplePoint 取 r 上不落在 other 任一环边界的顶点；全部落在边界时取首边中点
func samplePoint(r orb.Ring, other orb.Polygon) orb.Point {
	for _, pt := range r {
		onBoundary := false
		for _, o := range other {
			if onRing(pt, o) {
				onBoundary = true
				break
			}
		}
		if !onBoundary {
			return pt
		}
	}
	return orb.Point{(r[0][0] + r[1][0]) / 2, (r[0][1] + r[1][1]) / 2}
}
