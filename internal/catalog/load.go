package catalog

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/contractgrid/internal/ctxlog"
	"github.com/specialistvlad/contractgrid/internal/fsutil"
)

//go:embed data/*.hcl
var dataFS embed.FS

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := Load(context.Background(), dataFS)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
})

// Default returns the embedded catalog. It is loaded once per process.
func Default() *Catalog {
	return defaultCatalog()
}

type source struct {
	name string
	data []byte
}

// Load builds a catalog from every .hcl file in fsys.
func Load(ctx context.Context, fsys fs.FS) (*Catalog, error) {
	srcs, err := readFS(fsys)
	if err != nil {
		return nil, err
	}
	return fromSources(ctx, srcs)
}

// LoadDir builds a catalog from the embedded data plus every .hcl file found
// under dir. Templates in dir may use the embedded categories and rules, and
// may declare their own.
func LoadDir(ctx context.Context, dir string) (*Catalog, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading catalog pack.", "path", dir)

	srcs, err := readFS(dataFS)
	if err != nil {
		return nil, err
	}

	paths, err := fsutil.FindFilesByExtension(dir, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("failed to walk catalog directory %s: %w", dir, err)
	}
	if len(paths) == 0 {
		logger.Warn("No .hcl catalog files found in path.", "path", dir)
	}

	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog file %s: %w", p, err)
		}
		srcs = append(srcs, source{name: p, data: data})
	}
	return fromSources(ctx, srcs)
}

func readFS(fsys fs.FS) ([]source, error) {
	paths, err := fsutil.FindFilesInFS(fsys, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("failed to walk catalog files: %w", err)
	}
	srcs := make([]source, 0, len(paths))
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog file %s: %w", p, err)
		}
		srcs = append(srcs, source{name: p, data: data})
	}
	return srcs, nil
}

func fromSources(ctx context.Context, srcs []source) (*Catalog, error) {
	logger := ctxlog.FromContext(ctx)
	parser := hclparse.NewParser()

	files := make([]*parsedFile, 0, len(srcs))
	for _, src := range srcs {
		hclFile, diags := parser.ParseHCL(src.data, src.name)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", src.name, diags)
		}

		pf, diags := parseFile(ctx, hclFile, src.name)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to process catalog definitions in %s: %w", src.name, diags)
		}
		files = append(files, pf)
	}

	c, diags := build(files)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid catalog: %w", diags)
	}

	logger.Debug("Catalog loaded.",
		"files", len(files),
		"categories", len(c.categoryOrder),
		"rules", len(c.ruleOrder),
		"templates", len(c.templateOrder),
	)
	return c, nil
}
