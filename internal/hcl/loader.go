package hcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/ocfltools/internal/config"
	"github.com/vk/ocfltools/internal/ctxlog"
	"github.com/vk/ocfltools/internal/fsutil"
	"github.com/zclconf/go-cty/cty"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL definition loader.
func NewLoader() *Loader {
	return &Loader{}
}

var _ config.Loader = (*Loader)(nil)

// Load parses every .hcl file under paths. Paths that do not exist are
// skipped. Defining the same domain twice is an error.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	model := config.NewModel()

	hclFiles, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	parser := hclparse.NewParser()

	for _, file := range hclFiles {
		abs, err := filepath.Abs(file)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve path %s: %w", file, err)
		}
		hclFile, diags := parser.ParseHCLFile(abs)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		dir := filepath.Dir(abs)
		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, evalContext(dir), &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, block := range root.Domains {
			if prev, ok := model.Domains[block.Name]; ok {
				return nil, fmt.Errorf("domain '%s' is defined in both %s and %s", block.Name, prev.Source, abs)
			}
			model.Domains[block.Name] = translateDomain(block, dir, abs)
		}
	}

	logger.Debug("HCL loading complete.", "domains", len(model.Domains))
	return model, nil
}

// evalContext exposes path.module, the directory of the file being decoded.
func evalContext(dir string) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"path": cty.ObjectVal(map[string]cty.Value{
				"module": cty.StringVal(dir),
			}),
		},
	}
}

func translateDomain(b *domainBlock, dir, source string) *config.Domain {
	d := &config.Domain{
		Name:        b.Name,
		Description: b.Description,
		Schema:      resolvePath(dir, b.Schema),
		Transforms:  b.Transforms,
		Mapping:     resolvePath(dir, b.Mapping),
		Source:      source,
	}
	if len(b.TypeSchemas) > 0 {
		d.TypeSchemas = make(map[string]string, len(b.TypeSchemas))
		for _, ts := range b.TypeSchemas {
			d.TypeSchemas[ts.Type] = resolvePath(dir, ts.Path)
		}
	}
	return d
}

func resolvePath(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// findAllHCLFiles walks all given paths and returns a flat list of all .hcl files found.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			if filepath.Ext(path) == ".hcl" {
				add(path)
			}
			continue
		}
		found, err := fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			add(f)
		}
	}
	return allFiles, nil
}
