// 包 store: 提供与 PostgreSQL 的数据访问层，保存租户归属运行及其结果记录
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/paulmach/orb/geojson"

	"tenant-api/internal/logger"
	"tenant-api/internal/tenant"
)

var ErrRunNotFound = errors.New("store: run not found")

// Store: 数据库访问入口，持有连接池并提供运行写入/查询接口
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// Run: 一次运行的持久化视图
type Run struct {
	Summary    tenant.Summary  `json:"summary"`
	DistanceM  float64         `json:"distance_m"`
	BlockField string          `json:"block_field"`
	CreatedAt  time.Time       `json:"created_at"`
	Records    []tenant.Record `json:"records"`
}

// 文档注释：保存一次运行
// 背景：运行摘要与逐要素记录在同一事务内写入，避免出现只有摘要没有记录的半成品。
// 约束：几何以 GeoJSON 文本写入 JSONB；同一 run_id 重复保存返回主键冲突错误。
func (s *Store) SaveRun(ctx context.Context, res *tenant.Result, cfg tenant.Config) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	sm := res.Summary
	if _, err := tx.ExecContext(ctx, `INSERT INTO _tenant_runs(run_id, distance_m, block_field, features, skipped, tenants, moves, total_area_ha)
        VALUES($1,$2,$3,$4,$5,$6,$7,$8)`,
		sm.RunID, cfg.DistanceM, cfg.BlockField, sm.Features, sm.Skipped, sm.Tenants, sm.Moves, sm.TotalAreaHa); err != nil {
		return fmt.Errorf("store: insert run: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO _tenant_records(run_id, id_original, tenant, blocs_partages, superficie_bloc, superficie_tenant, pourcentage_superficie, color, attributes, geometry)
        VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range res.Records {
		attrs, err := json.Marshal(r.Attrs)
		if err != nil {
			return fmt.Errorf("store: attributes of %d: %w", r.OriginalID, err)
		}
		var g []byte
		if r.Geometry != nil {
			if g, err = geojson.NewGeometry(r.Geometry).MarshalJSON(); err != nil {
				return fmt.Errorf("store: geometry of %d: %w", r.OriginalID, err)
			}
		}
		if _, err := stmt.ExecContext(ctx, sm.RunID, r.OriginalID, r.Tenant, r.SharedBlocks, r.BlockAreaHa, r.TenantAreaHa, r.AreaPct, r.Color, string(attrs), nullableJSON(g)); err != nil {
			return fmt.Errorf("store: insert record %d: %w", r.OriginalID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	logger.L().Debug("store_run_saved", "run_id", sm.RunID, "records", len(res.Records))
	return nil
}

func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

// GetRun: 读取运行摘要与记录；不存在时返回 ErrRunNotFound
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	var r Run
	r.Summary.RunID = runID
	row := s.db.QueryRowContext(ctx, `SELECT distance_m, block_field, features, skipped, tenants, moves, total_area_ha, created_at
        FROM _tenant_runs WHERE run_id=$1`, runID)
	err := row.Scan(&r.DistanceM, &r.BlockField, &r.Summary.Features, &r.Summary.Skipped, &r.Summary.Tenants, &r.Summary.Moves, &r.Summary.TotalAreaHa, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id_original, tenant, blocs_partages, superficie_bloc, superficie_tenant, pourcentage_superficie, color, attributes, geometry
        FROM _tenant_records WHERE run_id=$1 ORDER BY id_original`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var rec tenant.Record
		var attrs, g []byte
		if err := rows.Scan(&rec.OriginalID, &rec.Tenant, &rec.SharedBlocks, &rec.BlockAreaHa, &rec.TenantAreaHa, &rec.AreaPct, &rec.Color, &attrs, &g); err != nil {
			return nil, err
		}
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &rec.Attrs); err != nil {
				return nil, fmt.Errorf("store: attributes of %d: %w", rec.OriginalID, err)
			}
		}
		if len(g) > 0 {
			gg, err := geojson.UnmarshalGeometry(g)
			if err != nil {
				return nil, fmt.Errorf("store: geometry of %d: %w", rec.OriginalID, err)
			}
			rec.Geometry = gg.Geometry()
		}
		r.Records = append(r.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	logger.L().Debug("store_run_loaded", "run_id", runID, "records", len(r.Records))
	return &r, nil
}

// Totals: 统计返回结构
type Totals struct {
	Runs     int64   `json:"runs"`
	Features int64   `json:"features"`
	Tenants  int64   `json:"tenants"`
	AreaHa   float64 `json:"area_ha"`
}

// GetTotals: 累计运行数、要素数、租户数与面积
func (s *Store) GetTotals(ctx context.Context) (*Totals, error) {
	var t Totals
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1), COALESCE(SUM(features),0), COALESCE(SUM(tenants),0), COALESCE(SUM(total_area_ha),0) FROM _tenant_runs`)
	if err := row.Scan(&t.Runs, &t.Features, &t.Tenants, &t.AreaHa); err != nil {
		return nil, err
	}
	logger.L().Debug("stats_totals", "runs", t.Runs, "features", t.Features)
	return &t, nil
}
