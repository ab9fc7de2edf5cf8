package hcl

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/gatesizer/internal/config"
	"github.com/vk/gatesizer/internal/ctxlog"
	"github.com/vk/gatesizer/internal/fsutil"
)

// profileFile mirrors the HCL syntax of one profile file.
type profileFile struct {
	Sizing *sizingBlock `hcl:"sizing,block"`
}

type sizingBlock struct {
	MaxIterations    *int    `hcl:"max_iterations,optional"`
	MinPathsPerGroup *int    `hcl:"min_paths_per_group,optional"`
	MaxPathsPerGroup *int    `hcl:"max_paths_per_group,optional"`
	MinSwapsPerIter  *int    `hcl:"min_swaps_per_iter,optional"`
	MaxSwapsPerIter  *int    `hcl:"max_swaps_per_iter,optional"`
	SlowMarker       *string `hcl:"slow_marker,optional"`
	FastMarker       *string `hcl:"fast_marker,optional"`

	Scoring *scoringBlock `hcl:"scoring,block"`
	Effort  *effortBlock  `hcl:"effort,block"`
}

type scoringBlock struct {
	Function      *string  `hcl:"function,optional"`
	DelayExponent *float64 `hcl:"delay_exponent,optional"`
	SlackExponent *float64 `hcl:"slack_exponent,optional"`
}

type effortBlock struct {
	Policy *string `hcl:"policy,optional"`
}

// Loader is the HCL implementation of config.Loader.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader creates a new HCL profile loader.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// Load implements config.Loader. Directories are scanned for .hcl
// files; files are decoded in order and overlaid onto the defaults.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	model := config.Default()

	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("reading profile path: %w", err)
		}
		if info.IsDir() {
			found, err := fsutil.FindFilesByExtension(path, ".hcl")
			if err != nil {
				return nil, fmt.Errorf("scanning profile directory %s: %w", path, err)
			}
			files = append(files, found...)
		} else {
			files = append(files, path)
		}
	}
	logger.Debug("Profile files resolved.", "count", len(files))

	evalCtx := defaultsEvalContext(model)
	for _, file := range files {
		f, diags := l.parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("parsing profile %s: %w", file, diags)
		}
		var pf profileFile
		if diags := gohcl.DecodeBody(f.Body, evalCtx, &pf); diags.HasErrors() {
			return nil, fmt.Errorf("decoding profile %s: %w", file, diags)
		}
		overlay(model, &pf)
		logger.Debug("Profile file applied.", "file", file)
	}

	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sizing profile: %w", err)
	}
	return model, nil
}

// defaultsEvalContext exposes the built-in defaults to profile
// expressions under the `defaults` object, so a profile can write
// e.g. `max_swaps_per_iter = defaults.max_swaps_per_iter / 2`.
func defaultsEvalContext(m *config.Model) *hcl.EvalContext {
	s := m.Sizing
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"defaults": cty.ObjectVal(map[string]cty.Value{
				"max_iterations":      cty.NumberIntVal(int64(s.MaxIterations)),
				"min_paths_per_group": cty.NumberIntVal(int64(s.MinPathsPerGroup)),
				"max_paths_per_group": cty.NumberIntVal(int64(s.MaxPathsPerGroup)),
				"min_swaps_per_iter":  cty.NumberIntVal(int64(s.MinSwapsPerIter)),
				"max_swaps_per_iter":  cty.NumberIntVal(int64(s.MaxSwapsPerIter)),
				"slow_marker":         cty.StringVal(s.SlowMarker),
				"fast_marker":         cty.StringVal(s.FastMarker),
			}),
		},
	}
}

// overlay copies every attribute present in the file onto the model.
func overlay(m *config.Model, pf *profileFile) {
	if pf.Sizing == nil {
		return
	}
	s := pf.Sizing
	dst := &m.Sizing
	if s.MaxIterations != nil {
		dst.MaxIterations = *s.MaxIterations
	}
	if s.MinPathsPerGroup != nil {
		dst.MinPathsPerGroup = *s.MinPathsPerGroup
	}
	if s.MaxPathsPerGroup != nil {
		dst.MaxPathsPerGroup = *s.MaxPathsPerGroup
	}
	if s.MinSwapsPerIter != nil {
		dst.MinSwapsPerIter = *s.MinSwapsPerIter
	}
	if s.MaxSwapsPerIter != nil {
		dst.MaxSwapsPerIter = *s.MaxSwapsPerIter
	}
	if s.SlowMarker != nil {
		dst.SlowMarker = *s.SlowMarker
	}
	if s.FastMarker != nil {
		dst.FastMarker = *s.FastMarker
	}
	if s.Scoring != nil {
		if s.Scoring.Function != nil {
			dst.Scoring.Function = *s.Scoring.Function
		}
		if s.Scoring.DelayExponent != nil {
			dst.Scoring.DelayExponent = *s.Scoring.DelayExponent
		}
		if s.Scoring.SlackExponent != nil {
			dst.Scoring.SlackExponent = *s.Scoring.SlackExponent
		}
	}
	if s.Effort != nil && s.Effort.Policy != nil {
		dst.Effort.Policy = *s.Effort.Policy
	}
}
