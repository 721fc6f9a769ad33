package geom

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// AreaHa：面积（公顷），外环面积减去洞面积；非面几何为 0
func AreaHa(g orb.Geometry) float64 {
	total := 0.0
	for _, p := range Polygons(g) {
		if len(p) == 0 {
			continue
		}
		a := math.Abs(planar.Area(p[0]))
		for i := 1; i < len(p); i++ {
			a -= math.Abs(planar.Area(p[i]))
		}
		total += a
	}
	return total / SquareMetersPerHectare
}
