// Package hcl loads pipeline definitions from .hcl files into the config
// model.
package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/jobgrid/internal/config"
	"github.com/vk/jobgrid/internal/ctxlog"
	"github.com/vk/jobgrid/internal/fsutil"
)

// Load parses the pipeline definition at path — a single .hcl file or a
// directory of them — and merges every file's blocks into one Pipeline.
func Load(ctx context.Context, path string) (*config.Pipeline, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path", path)

	files, err := fsutil.FindFilesByExtension(path, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("failed to discover pipeline files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl pipeline files found under %s", path)
	}
	logger.Debug("Discovered pipeline files.", "count", len(files))

	parser := hclparse.NewParser()
	pipeline := &config.Pipeline{}

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse %s: %w", file, diags)
		}

		var part config.Pipeline
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &part); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode %s: %w", file, diags)
		}

		pipeline.Jobs = append(pipeline.Jobs, part.Jobs...)
		pipeline.Groups = append(pipeline.Groups, part.Groups...)
	}

	logger.Debug("Pipeline loaded.", "jobs", len(pipeline.Jobs), "groups", len(pipeline.Groups))
	return pipeline, nil
}
