package geom

import (
	"math"
	"slices"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/stat"
)

// maxCellsPerItem 单个包围盒最多登记的格子数，超出者进入 wide 列表
const maxCellsPerItem = 1 << 12

type cellKey struct{ x, y int64 }

// 文档注释：均匀网格索引（包围盒 → 格子）
// 背景：邻近判定需对每个要素扫描全部其他要素；网格只返回包围盒扩展 d 后所覆盖格子内的候选，
//      候选按索引升序返回，调用方仍按原顺序取首个命中，结果与全量扫描一致。
// 约束：格子边长取 max(d, 包围盒平均尺寸)；跨越过多格子的超大要素放入 wide，始终作为候选。
type Grid struct {
	cell  float64
	cells map[cellKey][]int
	wide  []int
}

func NewGrid(bounds []orb.Bound, d float64) *Grid {
	g := &Grid{cells: make(map[cellKey][]int)}
	sizes := make([]float64, 0, len(bounds))
	for _, b := range bounds {
		sizes = append(sizes, math.Max(b.Max[0]-b.Min[0], b.Max[1]-b.Min[1]))
	}
	g.cell = d
	if len(sizes) > 0 {
		g.cell = math.Max(d, stat.Mean(sizes, nil))
	}
	if !(g.cell > 0) || math.IsInf(g.cell, 0) {
		g.cell = 1
	}
	for i, b := range bounds {
		x0, y0, x1, y1 := g.span(b)
		if (x1-x0+1)*(y1-y0+1) > maxCellsPerItem {
			g.wide = append(g.wide, i)
			continue
		}
		for x := x0; x <= x1; x++ {
			for y := y0; y <= y1; y++ {
				k := cellKey{x, y}
				g.cells[k] = append(g.cells[k], i)
			}
		}
	}
	return g
}

func (g *Grid) span(b orb.Bound) (x0, y0, x1, y1 int64) {
	f := func(v float64) int64 { return int64(math.Floor(v / g.cell)) }
	return f(b.Min[0]), f(b.Min[1]), f(b.Max[0]), f(b.Max[1])
}

// Candidates 返回包围盒与 b 相距不超过 d 的要素索引（超集），升序去重；buf 可复用
func (g *Grid) Candidates(b orb.Bound, d float64, buf []int) []int {
	out := append(buf[:0], g.wide...)
	q := orb.Bound{Min: orb.Point{b.Min[0] - d, b.Min[1] - d}, Max: orb.Point{b.Max[0] + d, b.Max[1] + d}}
	x0, y0, x1, y1 := g.span(q)
	if (x1-x0+1)*(y1-y0+1) > maxCellsPerItem {
		for _, ids := range g.cells {
			out = append(out, ids...)
		}
	} else {
		for x := x0; x <= x1; x++ {
			for y := y0; y <= y1; y++ {
				out = append(out, g.cells[cellKey{x, y}]...)
			}
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
