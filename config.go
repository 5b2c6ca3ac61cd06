package redvox

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// BuildRequest parameterizes one DataWindow.Build call (§6). Field tags
// match the on-disk YAML config shape loaded by LoadBuildRequest, following
// the teacher's practice of a flat, directly-marshaled config struct rather
// than a layered options pattern.
//
// ApplyCorrection, UseModelCorrection, and StructuredLayout are *bool so a
// YAML document that omits them is distinguishable from one that explicitly
// sets them false; applyDefaults fills a nil pointer with the documented
// default, and the Should*/Is* accessor methods are the only way callers
// should read them.
type BuildRequest struct {
	StationIDs      []string      `yaml:"station_ids"`
	StartTimestamp  time.Time     `yaml:"start_timestamp"`
	EndTimestamp    time.Time     `yaml:"end_timestamp"`
	StartBufferS    float64       `yaml:"start_buffer_s"`
	EndBufferS      float64       `yaml:"end_buffer_s"`
	InputDir        string        `yaml:"input_dir"`
	OutputDir       string        `yaml:"output_dir"`
	StructuredLayout *bool        `yaml:"structured_layout"`
	Extensions      []string      `yaml:"extensions"`
	ApiVersions     []string      `yaml:"api_versions"`
	ApplyCorrection *bool         `yaml:"apply_correction"`
	UseModelCorrection *bool      `yaml:"use_model_correction"`
	EdgePolicy      string        `yaml:"edge_policy"` // "copy", "nan", "interpolate"
	GapMultiplier   float64       `yaml:"gap_multiplier"`
	DropThresholdS  float64       `yaml:"drop_threshold_s"`
	MaxWorkers      int           `yaml:"max_workers"`
	Timeout         time.Duration `yaml:"timeout"`
}

const (
	defaultGapMultiplierCfg = 1.5
	defaultDropThresholdS   = 0.2
	defaultEdgePolicy       = "copy"
	defaultBufferS          = 120.0
)

// LoadBuildRequest reads a YAML BuildRequest from path and applies defaults.
func LoadBuildRequest(path string) (BuildRequest, error) {
	var req BuildRequest
	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if err := yaml.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	req.applyDefaults()
	return req, req.Validate()
}

func boolPtr(v bool) *bool { return &v }

func (r *BuildRequest) applyDefaults() {
	if r.GapMultiplier <= 0 {
		r.GapMultiplier = defaultGapMultiplierCfg
	}
	if r.DropThresholdS <= 0 {
		r.DropThresholdS = defaultDropThresholdS
	}
	if r.EdgePolicy == "" {
		r.EdgePolicy = defaultEdgePolicy
	}
	if r.MaxWorkers <= 0 {
		r.MaxWorkers = 2 * runtime.NumCPU()
	}
	if r.StartBufferS <= 0 {
		r.StartBufferS = defaultBufferS
	}
	if r.EndBufferS <= 0 {
		r.EndBufferS = defaultBufferS
	}
	if len(r.Extensions) == 0 {
		r.Extensions = []string{".rdvxz", ".rdvxm"}
	}
	if r.StructuredLayout == nil {
		r.StructuredLayout = boolPtr(true)
	}
	if r.ApplyCorrection == nil {
		r.ApplyCorrection = boolPtr(true)
	}
	if r.UseModelCorrection == nil {
		r.UseModelCorrection = boolPtr(true)
	}
}

// Validate checks the request is buildable, returning ErrConfig-wrapped
// detail on failure.
func (r BuildRequest) Validate() error {
	if r.InputDir == "" {
		return fmt.Errorf("%w: input_dir is required", ErrConfig)
	}
	if !r.EndTimestamp.After(r.StartTimestamp) {
		return fmt.Errorf("%w: end_timestamp must be after start_timestamp", ErrConfig)
	}
	switch r.EdgePolicy {
	case "copy", "nan", "interpolate":
	default:
		return fmt.Errorf("%w: unknown edge_policy %q", ErrConfig, r.EdgePolicy)
	}
	return nil
}

// ShouldApplyCorrection reports whether C7 (timing correction) should run,
// honoring an explicit false over the default of true (§6 apply_correction).
func (r BuildRequest) ShouldApplyCorrection() bool {
	return r.ApplyCorrection == nil || *r.ApplyCorrection
}

// ShouldUseModelCorrection reports whether C7 should use the slope-tracking
// model over the constant best-offset (§6 use_model_correction).
func (r BuildRequest) ShouldUseModelCorrection() bool {
	return r.UseModelCorrection == nil || *r.UseModelCorrection
}

// IsStructuredLayout reports whether C1 should treat input_dir as the
// date-partitioned api900/api1000 layout rather than a flat directory
// (§6 structured_layout).
func (r BuildRequest) IsStructuredLayout() bool {
	return r.StructuredLayout == nil || *r.StructuredLayout
}

// edgePolicyFromString maps the config string to an EdgePolicy; callers
// validate the string via Validate beforehand, so unrecognized values here
// fall back to EdgeCopy rather than erroring.
func edgePolicyFromString(s string) EdgePolicy {
	switch s {
	case "nan":
		return EdgeNaN
	case "interpolate":
		return EdgeInterpolate
	default:
		return EdgeCopy
	}
}

// StartUs/EndUs convert the request's window to raw microseconds,
// including the configured per-edge scan buffer (§6).
func (r BuildRequest) StartUs() int64 {
	return r.StartTimestamp.UnixMicro() - int64(r.StartBufferS*1e6)
}

func (r BuildRequest) EndUs() int64 {
	return r.EndTimestamp.UnixMicro() + int64(r.EndBufferS*1e6)
}
