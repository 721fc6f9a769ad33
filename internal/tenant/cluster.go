package tenant

import (
	"context"
	"log/slog"

	"github.com/paulmach/orb"

	"tenant-api/internal/geom"
	"tenant-api/internal/logger"
)

// 文档注释：邻近聚类器（两遍贪心）
// 背景：第一遍按遍历顺序为每个区块寻找首个距离阈值内的邻居并继承其租户，否则新建租户；
//      第二遍修复：若首个阈值内邻居属于不同租户，则迁移至该租户并同步面积与区块名聚合。
// 约束：非传递闭包，亦非连通分量算法；两遍必须严格顺序执行，共享聚合状态不可并发修改。
type Clusterer struct {
	log *slog.Logger
}

func NewClusterer(l *slog.Logger) *Clusterer {
	if l == nil {
		l = logger.L()
	}
	return &Clusterer{log: l}
}

// item：有效要素的预计算视图（面积、包围盒、区块名）
type item struct {
	id     int64
	geom   orb.Geometry
	bound  orb.Bound
	areaHa float64
	block  string
}

// Assignment：聚类结果，要素→租户映射与租户聚合
type Assignment struct {
	ByFeature map[int64]int
	Tenants   map[int]*Tenant
	Skipped   []int64
	Moves     int

	items  []item
	grid   *geom.Grid
	nextID int
}

// Tenant 返回要素所属租户
func (a *Assignment) Tenant(featureID int64) (*Tenant, bool) {
	tid, ok := a.ByFeature[featureID]
	if !ok {
		return nil, false
	}
	t, ok := a.Tenants[tid]
	return t, ok
}

// Assign：执行初始遍与修复遍
// 约束：ctx 在每个外层迭代检查一次，取消时返回 ctx.Err()；距离阈值需大于 0。
func (c *Clusterer) Assign(ctx context.Context, store *FeatureStore, cfg Config) (*Assignment, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	a := c.prepare(store, cfg)
	if err := c.initialPass(ctx, a, cfg.DistanceM); err != nil {
		return nil, err
	}
	c.log.Debug("tenant_pass_done", "pass", 1, "tenants", len(a.Tenants), "features", len(a.items))
	if err := c.repairPass(ctx, a, cfg.DistanceM); err != nil {
		return nil, err
	}
	c.log.Debug("tenant_pass_done", "pass", 2, "moves", a.Moves)
	return a, nil
}

func (c *Clusterer) prepare(store *FeatureStore, cfg Config) *Assignment {
	a := &Assignment{
		ByFeature: make(map[int64]int),
		Tenants:   make(map[int]*Tenant),
		nextID:    1,
	}
	for _, f := range store.All() {
		if err := geom.Validate(f.Geometry); err != nil {
			c.log.Warn("tenant_feature_skipped", "id", f.ID, "reason", err.Error())
			a.Skipped = append(a.Skipped, f.ID)
			continue
		}
		a.items = append(a.items, item{
			id:     f.ID,
			geom:   f.Geometry,
			bound:  f.Geometry.Bound(),
			areaHa: geom.AreaHa(f.Geometry),
			block:  cfg.blockOf(f),
		})
	}
	bounds := make([]orb.Bound, len(a.items))
	for i := range a.items {
		bounds[i] = a.items[i].bound
	}
	a.grid = geom.NewGrid(bounds, cfg.DistanceM)
	return a
}

func near(x, y *item, d float64) bool {
	if !geom.BoundsWithin(x.bound, y.bound, d) {
		return false
	}
	return geom.Distance(x.geom, y.geom) <= d
}

func (c *Clusterer) initialPass(ctx context.Context, a *Assignment, d float64) error {
	var buf []int
	for i := range a.items {
		if err := ctx.Err(); err != nil {
			return err
		}
		f := &a.items[i]
		tid := 0
		buf = a.grid.Candidates(f.bound, d, buf)
		for _, j := range buf {
			if i == j || !near(f, &a.items[j], d) {
				continue
			}
			if t, ok := a.ByFeature[a.items[j].id]; ok {
				tid = t
			} else {
				tid = a.allocate()
			}
			break
		}
		if tid == 0 {
			tid = a.allocate()
		}
		a.add(tid, f)
	}
	return nil
}

func (c *Clusterer) repairPass(ctx context.Context, a *Assignment, d float64) error {
	var buf []int
	for i := range a.items {
		if err := ctx.Err(); err != nil {
			return err
		}
		f := &a.items[i]
		cur := a.ByFeature[f.id]
		buf = a.grid.Candidates(f.bound, d, buf)
		for _, j := range buf {
			if i == j || !near(f, &a.items[j], d) {
				continue
			}
			other := a.ByFeature[a.items[j].id]
			if other != cur {
				a.move(f, cur, other)
				c.log.Debug("tenant_feature_moved", "id", f.id, "from", cur, "to", other)
				break
			}
		}
	}
	return nil
}

func (a *Assignment) allocate() int {
	id := a.nextID
	a.nextID++
	a.Tenants[id] = &Tenant{ID: id}
	return id
}

func (a *Assignment) add(tid int, f *item) {
	t := a.Tenants[tid]
	t.Members = append(t.Members, f.id)
	t.AreaHa += f.areaHa
	t.Blocks = append(t.Blocks, f.block)
	a.ByFeature[f.id] = tid
}

func (a *Assignment) move(f *item, from, to int) {
	if old, ok := a.Tenants[from]; ok {
		old.Members = removeID(old.Members, f.id)
		old.Blocks = removeOnce(old.Blocks, f.block)
		old.AreaHa -= f.areaHa
	}
	a.add(to, f)
	a.Moves++
}

func removeID(ids []int64, id int64) []int64 {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func removeOnce(names []string, name string) []string {
	for i, v := range names {
		if v == name {
			return append(names[:i], names[i+1:]...)
		}
	}
	return names
}
