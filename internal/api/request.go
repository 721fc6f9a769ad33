package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"tenant-api/internal/config"
)

// 文档注释：解析归属请求
// 背景：支持两种请求体。其一为 {"job": {...}, "features": FeatureCollection}；
//      其二为裸 GeoJSON，作业参数取自查询串（distance_m、block_field、id_field、pass_through、where=key:value、persist）。
// 约束：两种形式都从默认作业出发再覆盖，返回前执行 Validate。
func parseTenantsRequest(body []byte, q url.Values) (*config.Job, []byte, error) {
	var probe struct {
		Type     string          `json:"type"`
		Job      json.RawMessage `json:"job"`
		Features json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, nil, fmt.Errorf("decode body: %w", err)
	}
	job := config.Default()
	var features []byte
	if probe.Type != "" {
		if err := jobFromQuery(job, q); err != nil {
			return nil, nil, err
		}
		features = body
	} else {
		if len(probe.Job) > 0 {
			dec := json.NewDecoder(bytes.NewReader(probe.Job))
			dec.DisallowUnknownFields()
			if err := dec.Decode(job); err != nil {
				return nil, nil, fmt.Errorf("decode job: %w", err)
			}
		}
		if len(probe.Features) == 0 {
			return nil, nil, fmt.Errorf("%w: features is required", config.ErrInvalidJob)
		}
		features = probe.Features
	}
	if err := job.Validate(); err != nil {
		return nil, nil, err
	}
	return job, features, nil
}

func jobFromQuery(job *config.Job, q url.Values) error {
	if s := q.Get("distance_m"); s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("%w: distance_m %q", config.ErrInvalidJob, s)
		}
		job.DistanceM = f
	}
	job.BlockField = q.Get("block_field")
	job.IDField = q.Get("id_field")
	for _, p := range strings.Split(q.Get("pass_through"), ",") {
		if p = strings.TrimSpace(p); p != "" {
			job.PassThrough = append(job.PassThrough, p)
		}
	}
	for _, w := range q["where"] {
		k, v, ok := strings.Cut(w, ":")
		if !ok || k == "" {
			return fmt.Errorf("%w: where %q, want key:value", config.ErrInvalidJob, w)
		}
		if job.Where == nil {
			job.Where = map[string]string{}
		}
		job.Where[k] = v
	}
	job.Persist, _ = strconv.ParseBool(q.Get("persist"))
	return nil
}
