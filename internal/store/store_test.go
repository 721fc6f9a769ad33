package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/suite"

	"tenant-api/internal/tenant"
)

type StoreSuite struct {
	suite.Suite
	db   *sql.DB
	mock sqlmock.Sqlmock
	st   *Store
}

func (s *StoreSuite) SetupTest() {
	db, mock, err := sqlmock.New()
	s.Require().NoError(err)
	s.db, s.mock, s.st = db, mock, AttachDB(db)
}

func (s *StoreSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
	_ = s.db.Close()
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func sampleResult() *tenant.Result {
	sq := orb.Polygon{{{0, 0}, {100, 0}, {100, 100}, {0, 100}, {0, 0}}}
	return &tenant.Result{
		Summary: tenant.Summary{RunID: "0b4ad2a4-6c44-4c1c-a8f5-6f8a3b1f1d10", Features: 2, Tenants: 1, TotalAreaHa: 2},
		Records: []tenant.Record{
			{Tenant: 1, SharedBlocks: "A, B", OriginalID: 1, BlockAreaHa: 1, TenantAreaHa: 2, AreaPct: 50, Color: "#00ff00", Geometry: sq},
			{Tenant: 1, SharedBlocks: "A, B", OriginalID: 2, BlockAreaHa: 1, TenantAreaHa: 2, AreaPct: 50, Color: "#00ff00", Attrs: map[string]any{"owner": "x"}},
		},
	}
}

func (s *StoreSuite) TestSaveRun_Commits() {
	res := sampleResult()
	cfg := tenant.Config{DistanceM: 60, BlockField: "bloc"}

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO _tenant_runs")).
		WithArgs(res.Summary.RunID, 60.0, "bloc", 2, 0, 1, 0, 2.0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep := s.mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO _tenant_records"))
	prep.ExpectExec().
		WithArgs(res.Summary.RunID, int64(1), 1, "A, B", 1.0, 2.0, 50.0, "#00ff00", "null", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WithArgs(res.Summary.RunID, int64(2), 1, "A, B", 1.0, 2.0, 50.0, "#00ff00", `{"owner":"x"}`, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	s.NoError(s.st.SaveRun(context.Background(), res, cfg))
}

func (s *StoreSuite) TestSaveRun_RollsBackOnRecordError() {
	res := sampleResult()
	boom := errors.New("boom")

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO _tenant_runs")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep := s.mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO _tenant_records"))
	prep.ExpectExec().WillReturnError(boom)
	s.mock.ExpectRollback()

	err := s.st.SaveRun(context.Background(), res, tenant.Config{DistanceM: 60})
	s.ErrorIs(err, boom)
}

func (s *StoreSuite) TestGetRun_NotFound() {
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM _tenant_runs WHERE run_id=$1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := s.st.GetRun(context.Background(), "missing")
	s.ErrorIs(err, ErrRunNotFound)
}

func (s *StoreSuite) TestGetRun_LoadsRecords() {
	id := "0b4ad2a4-6c44-4c1c-a8f5-6f8a3b1f1d10"
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM _tenant_runs WHERE run_id=$1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"distance_m", "block_field", "features", "skipped", "tenants", "moves", "total_area_ha", "created_at"}).
			AddRow(60.0, "bloc", 2, 1, 1, 0, 2.0, now))
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM _tenant_records WHERE run_id=$1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id_original", "tenant", "blocs_partages", "superficie_bloc", "superficie_tenant", "pourcentage_superficie", "color", "attributes", "geometry"}).
			AddRow(int64(1), 1, "A", 1.0, 2.0, 50.0, "#00ff00", []byte(`{"owner":"x"}`), []byte(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}`)).
			AddRow(int64(2), 1, "A", 1.0, 2.0, 50.0, "#00ff00", []byte(`null`), nil))

	run, err := s.st.GetRun(context.Background(), id)
	s.Require().NoError(err)
	s.Equal(60.0, run.DistanceM)
	s.Equal("bloc", run.BlockField)
	s.Equal(1, run.Summary.Skipped)
	s.Equal(now, run.CreatedAt)
	s.Require().Len(run.Records, 2)
	s.Equal("x", run.Records[0].Attrs["owner"])
	s.IsType(orb.Polygon{}, run.Records[0].Geometry)
	s.Nil(run.Records[1].Geometry)
	s.Nil(run.Records[1].Attrs)
}

func (s *StoreSuite) TestGetRun_CorruptColumnsFail() {
	id := "0b4ad2a4-6c44-4c1c-a8f5-6f8a3b1f1d10"
	poly := []byte(`{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}`)
	cases := []struct {
		name  string
		attrs []byte
		geom  []byte
		want  string
	}{
		{"truncated attributes", []byte(`{"owner":`), poly, "attributes of 7"},
		{"truncated geometry", []byte(`{}`), []byte(`{"type":"Polygon","coordinates":`), "geometry of 7"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			db, mock, err := sqlmock.New()
			s.Require().NoError(err)
			defer db.Close()

			mock.ExpectQuery(regexp.QuoteMeta("FROM _tenant_runs WHERE run_id=$1")).
				WithArgs(id).
				WillReturnRows(sqlmock.NewRows([]string{"distance_m", "block_field", "features", "skipped", "tenants", "moves", "total_area_ha", "created_at"}).
					AddRow(60.0, "bloc", 1, 0, 1, 0, 1.0, time.Now()))
			mock.ExpectQuery(regexp.QuoteMeta("FROM _tenant_records WHERE run_id=$1")).
				WithArgs(id).
				WillReturnRows(sqlmock.NewRows([]string{"id_original", "tenant", "blocs_partages", "superficie_bloc", "superficie_tenant", "pourcentage_superficie", "color", "attributes", "geometry"}).
					AddRow(int64(7), 1, "A", 1.0, 1.0, 100.0, "#00ff00", tc.attrs, tc.geom))

			run, err := AttachDB(db).GetRun(context.Background(), id)
			s.Nil(run)
			s.Require().Error(err)
			s.Contains(err.Error(), tc.want)
			s.NoError(mock.ExpectationsWereMet())
		})
	}
}

func (s *StoreSuite) TestGetTotals() {
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM _tenant_runs")).
		WillReturnRows(sqlmock.NewRows([]string{"count", "features", "tenants", "area"}).AddRow(int64(3), int64(40), int64(7), 12.5))

	t, err := s.st.GetTotals(context.Background())
	s.Require().NoError(err)
	s.Equal(&Totals{Runs: 3, Features: 40, Tenants: 7, AreaHa: 12.5}, t)
}
