package tenant

import (
	"fmt"
	"sort"
)

// 文档注释：内存要素库（只读）
// 背景：聚类需要稳定、可复现的遍历顺序；构建时按要素 ID 升序排序，替代容器迭代顺序的隐式决胜规则。
// 约束：构建后不可修改；Filter 返回新的库实例。
type FeatureStore struct {
	feats []Feature
	index map[int64]int
}

func NewFeatureStore(features []Feature) (*FeatureStore, error) {
	fs := make([]Feature, len(features))
	copy(fs, features)
	sort.SliceStable(fs, func(i, j int) bool { return fs[i].ID < fs[j].ID })
	idx := make(map[int64]int, len(fs))
	for i, f := range fs {
		if _, dup := idx[f.ID]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateFeature, f.ID)
		}
		idx[f.ID] = i
	}
	return &FeatureStore{feats: fs, index: idx}, nil
}

func (s *FeatureStore) Len() int { return len(s.feats) }

// All 返回按 ID 升序的要素；调用方不得修改
func (s *FeatureStore) All() []Feature { return s.feats }

func (s *FeatureStore) Get(id int64) (Feature, bool) {
	i, ok := s.index[id]
	if !ok {
		return Feature{}, false
	}
	return s.feats[i], true
}

// Filter：按谓词筛选，nil 谓词返回自身
func (s *FeatureStore) Filter(pred Filter) *FeatureStore {
	if pred == nil {
		return s
	}
	out := &FeatureStore{index: make(map[int64]int)}
	for _, f := range s.feats {
		if pred(f) {
			out.index[f.ID] = len(out.feats)
			out.feats = append(out.feats, f)
		}
	}
	return out
}
