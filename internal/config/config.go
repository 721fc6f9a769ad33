// 包 config：租户归属作业配置（YAML 文件 + 环境变量覆盖）
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"tenant-api/internal/tenant"
)

const (
	DefaultDistanceM = 60.0
	MinDistanceM     = 1.0
	MaxDistanceM     = 1000.0
)

var ErrInvalidJob = errors.New("config: invalid job")

// 文档注释：作业配置
// 背景：替代原对话框中的图层、字段、表达式、距离选择；同一结构用于命令行作业文件与 HTTP 请求参数。
// 约束：distance_m 取值 1–1000（米）；block_field 必填；where 为属性等值过滤。
type Job struct {
	Source      string            `yaml:"source" json:"source,omitempty"`
	Output      string            `yaml:"output" json:"output,omitempty"`
	IDField     string            `yaml:"id_field" json:"id_field,omitempty"`
	BlockField  string            `yaml:"block_field" json:"block_field"`
	DistanceM   float64           `yaml:"distance_m" json:"distance_m"`
	Where       map[string]string `yaml:"where" json:"where,omitempty"`
	PassThrough []string          `yaml:"pass_through" json:"pass_through,omitempty"`
	Persist     bool              `yaml:"persist" json:"persist,omitempty"`
}

func Default() *Job {
	return &Job{DistanceM: DefaultDistanceM}
}

// Load：默认值 → 文件 → 环境变量 → 校验
// 约束：path 为空时仅使用默认值与环境变量
func Load(path string) (*Job, error) {
	job, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return job, nil
}

// Read 与 Load 相同但不校验，供命令行在叠加参数后再校验
func Read(path string) (*Job, error) {
	job := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, job); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	ApplyEnv(job)
	return job, nil
}

// ApplyEnv 环境变量优先于文件
func ApplyEnv(job *Job) {
	if s := os.Getenv("TENANT_DISTANCE_M"); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			job.DistanceM = f
		}
	}
	if s := os.Getenv("TENANT_BLOCK_FIELD"); s != "" {
		job.BlockField = s
	}
	if s := os.Getenv("TENANT_ID_FIELD"); s != "" {
		job.IDField = s
	}
	if s := os.Getenv("TENANT_PASS_THROUGH"); s != "" {
		job.PassThrough = nil
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				job.PassThrough = append(job.PassThrough, p)
			}
		}
	}
}

func (j *Job) Validate() error {
	if j.BlockField == "" {
		return fmt.Errorf("%w: block_field is required", ErrInvalidJob)
	}
	if j.DistanceM < MinDistanceM || j.DistanceM > MaxDistanceM {
		return fmt.Errorf("%w: distance_m must be within [%g, %g], got %g", ErrInvalidJob, MinDistanceM, MaxDistanceM, j.DistanceM)
	}
	return nil
}

// TenantConfig 转换为核心处理参数
func (j *Job) TenantConfig() tenant.Config {
	return tenant.Config{
		DistanceM:   j.DistanceM,
		BlockField:  j.BlockField,
		Filter:      tenant.WhereEquals(j.Where),
		PassThrough: j.PassThrough,
	}
}
