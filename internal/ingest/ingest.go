// 包 ingest：读取外部矢量数据（GeoJSON FeatureCollection），转换为租户核心的要素模型
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"

	"tenant-api/internal/logger"
	"tenant-api/internal/tenant"
)

// MaxSourceBytes 单个数据源读取上限
const MaxSourceBytes = 256 << 20

var ErrBadStatus = errors.New("ingest: unexpected http status")

// 文档注释：字段映射
// 背景：不同图层的标识与区块名字段命名不一；由调用方指定，缺省时使用 GeoJSON 的 id 与位置序号。
type Fields struct {
	IDField    string
	BlockField string
}

// Load：从本地路径或 http(s) URL 读取 FeatureCollection
// 异常：网络错误/非 200 状态/解析失败直接返回，不做重试
func Load(ctx context.Context, src string) (*geojson.FeatureCollection, error) {
	l := logger.L()
	var rc io.ReadCloser
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
		defer cancel()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
		if err != nil {
			return nil, err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
		}
		rc = resp.Body
	} else {
		f, err := os.Open(src)
		if err != nil {
			return nil, err
		}
		rc = f
	}
	defer rc.Close()
	fc, err := Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("ingest %s: %w", src, err)
	}
	l.Info("ingest_loaded", "src", src, "features", len(fc.Features))
	return fc, nil
}

// Decode 解析 FeatureCollection；单个 Feature 亦被接受并包装为集合
func Decode(r io.Reader) (*geojson.FeatureCollection, error) {
	b, err := io.ReadAll(io.LimitReader(r, MaxSourceBytes))
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(b)
	if err == nil {
		return fc, nil
	}
	f, ferr := geojson.UnmarshalFeature(b)
	if ferr != nil {
		return nil, err
	}
	fc = geojson.NewFeatureCollection()
	fc.Append(f)
	return fc, nil
}

// 文档注释：转换为租户要素
// 背景：ID 优先取 IDField 属性，其次 GeoJSON id，最后为 1 起的位置序号；无法解析为整数时回退到位置序号。
// 约束：几何原样保留（可为空），有效性判定交由聚类器；属性表浅拷贝。
func ToFeatures(fc *geojson.FeatureCollection, fields Fields) []tenant.Feature {
	out := make([]tenant.Feature, 0, len(fc.Features))
	for i, f := range fc.Features {
		pos := int64(i + 1)
		id, ok := int64(0), false
		if fields.IDField != "" {
			id, ok = toInt64(f.Properties[fields.IDField])
		}
		if !ok {
			id, ok = toInt64(f.ID)
		}
		if !ok {
			id = pos
		}
		attrs := make(map[string]any, len(f.Properties))
		for k, v := range f.Properties {
			attrs[k] = v
		}
		block := ""
		if fields.BlockField != "" {
			if v, ok := f.Properties[fields.BlockField]; ok && v != nil {
				block = fmt.Sprint(v)
			}
		}
		out = append(out, tenant.Feature{ID: id, Geometry: f.Geometry, Block: block, Attrs: attrs})
	}
	return out
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case float64:
		if x != float64(int64(x)) {
			return 0, false
		}
		return int64(x), true
	case int:
		return int64(x), true
	case int64:
		return x, true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		return n, err == nil
	}
	return 0, false
}
