// 包 tenant：租户归属核心，按邻近距离将采伐区块聚为租户，并计算面积统计
package tenant

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
)

var (
	// ErrNothingToProcess 过滤后没有任何要素
	ErrNothingToProcess = errors.New("tenant: no feature matches the filter")
	ErrInvalidDistance  = errors.New("tenant: distance threshold must be > 0")
	ErrDuplicateFeature = errors.New("tenant: duplicate feature id")
)

// 文档注释：输入要素（区块）
// 背景：来源于外部矢量图层；聚类期间只读。
// 约束：ID 在要素集合内唯一；Geometry 可为空或无效，此时在聚类中被整体跳过。
type Feature struct {
	ID       int64
	Geometry orb.Geometry
	Block    string
	Attrs    map[string]any
}

// Tenant：一组相互邻近的区块
type Tenant struct {
	ID      int
	Members []int64
	AreaHa  float64
	Blocks  []string
}

// Filter 调用方提供的要素过滤谓词
type Filter func(Feature) bool

// 文档注释：处理参数
// 背景：对应原对话框中的图层/字段/表达式/距离选择，由 UI、HTTP 请求或作业配置构造。
// 约束：DistanceM 使用图层投影单位（米）；BlockField 为空时使用 Feature.Block；PassThrough 中缺失的属性输出为 nil。
type Config struct {
	DistanceM   float64
	BlockField  string
	Filter      Filter
	PassThrough []string
}

func (c Config) validate() error {
	if !(c.DistanceM > 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidDistance, c.DistanceM)
	}
	return nil
}

func (c Config) blockOf(f Feature) string {
	if c.BlockField == "" {
		return f.Block
	}
	v, ok := f.Attrs[c.BlockField]
	if !ok || v == nil {
		return f.Block
	}
	return fmt.Sprint(v)
}

// WhereEquals：属性等值过滤，所有键均需匹配（按字符串比较）
func WhereEquals(where map[string]string) Filter {
	if len(where) == 0 {
		return nil
	}
	return func(f Feature) bool {
		for k, want := range where {
			v, ok := f.Attrs[k]
			if !ok || v == nil || fmt.Sprint(v) != want {
				return false
			}
		}
		return true
	}
}

// 文档注释：输出记录（每个已处理要素一条）
// 背景：交由外部物化器写入新图层/数据库；字段名沿用原图层字段以保持下游兼容。
type Record struct {
	Tenant       int            `json:"tenant"`
	SharedBlocks string         `json:"blocs_partages"`
	OriginalID   int64          `json:"id_original"`
	BlockAreaHa  float64        `json:"superficie_bloc"`
	TenantAreaHa float64        `json:"superficie_tenant"`
	AreaPct      float64        `json:"pourcentage_superficie"`
	Color        string         `json:"color"`
	Attrs        map[string]any `json:"attributes,omitempty"`
	Geometry     orb.Geometry   `json:"-"`
}
