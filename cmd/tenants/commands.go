package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"tenant-api/internal/config"
	"tenant-api/internal/export"
	"tenant-api/internal/extent"
	"tenant-api/internal/ingest"
	"tenant-api/internal/logger"
	"tenant-api/internal/metrics"
	"tenant-api/internal/migrate"
	"tenant-api/internal/store"
	"tenant-api/internal/tenant"
	"tenant-api/internal/utils"
	"tenant-api/internal/version"
)

func newRootCmd() *cobra.Command {
	var timeout time.Duration
	root := &cobra.Command{
		Use:           "tenants",
		Short:         "Tenant attribution for harvest blocks",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if timeout > 0 {
				ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
				cobra.OnFinalize(cancel)
				cmd.SetContext(ctx)
			}
			return nil
		},
	}
	root.PersistentFlags().DurationVar(&timeout, "timeout", 0, "overall time limit (0 = none)")
	root.AddCommand(newAssignCmd(), newExtentsCmd())
	return root
}

type assignFlags struct {
	configPath  string
	source      string
	output      string
	idField     string
	blockField  string
	distanceM   float64
	where       map[string]string
	passThrough []string
	persist     bool
}

// 文档注释：assign 子命令
// 背景：作业文件提供基础参数，命令行参数仅在显式设置时覆盖。
// 约束：输出路径必填；persist 需要可用的 PostgreSQL（PG_* 环境变量）。
func newAssignCmd() *cobra.Command {
	var f assignFlags
	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Group blocks into tenants and write the annotated layer",
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := buildJob(cmd, f)
			if err != nil {
				return err
			}
			return runAssign(cmd.Context(), cmd.OutOrStdout(), job)
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.configPath, "config", "c", "", "job file (YAML)")
	fl.StringVarP(&f.source, "source", "s", "", "input GeoJSON path or http(s) URL")
	fl.StringVarP(&f.output, "output", "o", "", "output GeoJSON path")
	fl.StringVar(&f.idField, "id-field", "", "property holding the feature id")
	fl.StringVar(&f.blockField, "block-field", "", "property holding the block name")
	fl.Float64VarP(&f.distanceM, "distance", "d", config.DefaultDistanceM, "proximity threshold in meters")
	fl.StringToStringVar(&f.where, "where", nil, "attribute filter, key=value (repeatable)")
	fl.StringSliceVar(&f.passThrough, "pass-through", nil, "attributes copied to the output")
	fl.BoolVar(&f.persist, "persist", false, "save the run to PostgreSQL")
	return cmd
}

func buildJob(cmd *cobra.Command, f assignFlags) (*config.Job, error) {
	job, err := config.Read(f.configPath)
	if err != nil {
		return nil, err
	}
	fl := cmd.Flags()
	if fl.Changed("source") {
		job.Source = f.source
	}
	if fl.Changed("output") {
		job.Output = f.output
	}
	if fl.Changed("id-field") {
		job.IDField = f.idField
	}
	if fl.Changed("block-field") {
		job.BlockField = f.blockField
	}
	if fl.Changed("distance") {
		job.DistanceM = f.distanceM
	}
	if fl.Changed("where") {
		job.Where = f.where
	}
	if fl.Changed("pass-through") {
		job.PassThrough = f.passThrough
	}
	if fl.Changed("persist") {
		job.Persist = f.persist
	}
	if job.Source == "" || job.Output == "" {
		return nil, fmt.Errorf("%w: source and output are required", config.ErrInvalidJob)
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return job, nil
}

func runAssign(ctx context.Context, out io.Writer, job *config.Job) error {
	l := logger.L()
	fc, err := ingest.Load(ctx, job.Source)
	if err != nil {
		return err
	}
	cfg := job.TenantConfig()
	res, err := tenant.Process(ctx, ingest.ToFeatures(fc, ingest.Fields{IDField: job.IDField, BlockField: job.BlockField}), cfg)
	if errors.Is(err, tenant.ErrNothingToProcess) {
		metrics.RunsTotal.WithLabelValues("empty").Inc()
		return fmt.Errorf("nothing to process in %s: check the where filter", job.Source)
	}
	if err != nil {
		metrics.RunsTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.ObserveRun(res.Summary.Features, res.Summary.Skipped, res.Summary.Tenants, res.Summary.Moves, res.Duration.Milliseconds())
	if err := export.WriteFile(job.Output, export.FeatureCollection(res.Records)); err != nil {
		return err
	}
	if job.Persist {
		if err := persistRun(ctx, res, cfg); err != nil {
			return fmt.Errorf("persist run %s: %w", res.Summary.RunID, err)
		}
	}
	s := res.Summary
	l.Info("assign_done", "run_id", s.RunID, "output", job.Output)
	_, err = fmt.Fprintf(out, "run %s: %d features, %d skipped, %d tenants, %d moves, %.4f ha -> %s\n",
		s.RunID, s.Features, s.Skipped, s.Tenants, s.Moves, s.TotalAreaHa, job.Output)
	return err
}

func persistRun(ctx context.Context, res *tenant.Result, cfg tenant.Config) error {
	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return err
	}
	if err := migrate.EnsureSchema(db); err != nil {
		return err
	}
	return store.AttachDB(db).SaveRun(ctx, res, cfg)
}

func newExtentsCmd() *cobra.Command {
	var source, output, group string
	cmd := &cobra.Command{
		Use:   "extents",
		Short: "Build one bounding rectangle per point group",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := ingest.Load(cmd.Context(), source)
			if err != nil {
				return err
			}
			exts := extent.Build(ingest.ToFeatures(fc, ingest.Fields{}), group)
			if err := export.WriteFile(output, extent.FeatureCollection(exts)); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d extents -> %s\n", len(exts), output)
			return err
		},
	}
	cmd.Flags().StringVarP(&source, "source", "s", "", "input GeoJSON with point features")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output GeoJSON path")
	cmd.Flags().StringVarP(&group, "group-field", "g", "", "property used to group points")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("output")
	_ = cmd.MarkFlagRequired("group-field")
	return cmd
}
