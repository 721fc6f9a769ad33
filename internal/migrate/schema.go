package migrate

import (
	"database/sql"

	"tenant-api/internal/logger"
)

// 背景：首次运行自动创建运行记录与归属结果表，保障后续写入与查询
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；几何以 GeoJSON 文本存储，不依赖 PostGIS 扩展
var stmts = []string{
	`CREATE TABLE IF NOT EXISTS _tenant_runs (
        run_id UUID PRIMARY KEY,
        distance_m DOUBLE PRECISION NOT NULL,
        block_field TEXT NOT NULL,
        features INT NOT NULL,
        skipped INT NOT NULL,
        tenants INT NOT NULL,
        moves INT NOT NULL,
        total_area_ha DOUBLE PRECISION NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
	`CREATE TABLE IF NOT EXISTS _tenant_records (
        run_id UUID NOT NULL REFERENCES _tenant_runs(run_id) ON DELETE CASCADE,
        id_original BIGINT NOT NULL,
        tenant INT NOT NULL,
        blocs_partages TEXT NOT NULL,
        superficie_bloc DOUBLE PRECISION NOT NULL,
        superficie_tenant DOUBLE PRECISION NOT NULL,
        pourcentage_superficie DOUBLE PRECISION NOT NULL,
        color TEXT NOT NULL,
        attributes JSONB,
        geometry JSONB,
        PRIMARY KEY (run_id, id_original)
    )`,
	`CREATE INDEX IF NOT EXISTS idx_tenant_records_tenant ON _tenant_records(run_id, tenant)`,
	`CREATE INDEX IF NOT EXISTS idx_tenant_runs_created ON _tenant_runs(created_at DESC)`,
}

func EnsureSchema(db *sql.DB) error {
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
