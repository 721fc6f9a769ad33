// 包 export：将租户归属结果物化为 GeoJSON 图层
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb/geojson"

	"tenant-api/internal/tenant"
)

// 文档注释：记录 → FeatureCollection
// 背景：字段名与原“Tenants”图层保持一致（tenant、blocs_partages、id_original、superficie_bloc、superficie_tenant、pourcentage_superficie），
//      另附 color 供前端按租户着色；透传属性直接平铺到 properties，不覆盖上述固定字段。
func FeatureCollection(recs []tenant.Record) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range recs {
		f := geojson.NewFeature(r.Geometry)
		f.ID = r.OriginalID
		for k, v := range r.Attrs {
			f.Properties[k] = v
		}
		f.Properties["tenant"] = r.Tenant
		f.Properties["blocs_partages"] = r.SharedBlocks
		f.Properties["id_original"] = r.OriginalID
		f.Properties["superficie_bloc"] = r.BlockAreaHa
		f.Properties["superficie_tenant"] = r.TenantAreaHa
		f.Properties["pourcentage_superficie"] = r.AreaPct
		f.Properties["color"] = r.Color
		fc.Append(f)
	}
	return fc
}

// WriteFile 写出 GeoJSON 文件，目录不存在时创建
func WriteFile(path string, fc *geojson.FeatureCollection) error {
	b, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("export: marshal: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("export: mkdir: %w", err)
		}
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return nil
}
