package pipeline

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/lru"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/specialistvlad/contractgrid/internal/abiexport"
	"github.com/specialistvlad/contractgrid/internal/canvas"
	"github.com/specialistvlad/contractgrid/internal/catalog"
	"github.com/specialistvlad/contractgrid/internal/ctxlog"
	"github.com/specialistvlad/contractgrid/internal/diag"
	"github.com/specialistvlad/contractgrid/internal/emit"
	"github.com/specialistvlad/contractgrid/internal/resolve"
	"github.com/specialistvlad/contractgrid/internal/validate"
)

// DefaultCacheSize is the number of results a Compiler keeps by default.
const DefaultCacheSize = 128

// Compiler compiles canvas snapshots against one catalog. It is safe for
// concurrent use.
type Compiler struct {
	cat       *catalog.Catalog
	emitter   *emit.Emitter
	results   *lru.Cache[common.Hash, *Result]
	cacheSize int
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithCacheSize sets how many snapshot results are kept. The emitter's render
// cache is sized proportionally.
func WithCacheSize(n int) Option {
	return func(c *Compiler) {
		if n > 0 {
			c.cacheSize = n
		}
	}
}

// NewCompiler creates a Compiler for the given catalog.
func NewCompiler(cat *catalog.Catalog, opts ...Option) *Compiler {
	c := &Compiler{cat: cat, cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(c)
	}
	c.results = lru.NewCache[common.Hash, *Result](c.cacheSize)
	c.emitter = emit.New(c.cacheSize * 8)
	return c
}

// Catalog returns the catalog the compiler was built with.
func (c *Compiler) Catalog() *catalog.Catalog {
	return c.cat
}

// Compile runs state through the pipeline. Expected problems with the canvas
// are reported in the result's diagnostics; the returned error is either a
// *diag.InvariantError or the context's error when ctx ends between stages.
func (c *Compiler) Compile(ctx context.Context, state *canvas.State, header emit.Header) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	header = header.WithDefaults()
	start := time.Now()

	key := resultKey(state, header)
	if cached, ok := c.results.Get(key); ok {
		logger.Debug("Compilation served from cache.", "key", key.Hex())
		return cached, nil
	}

	res, err := c.run(ctx, state, header)
	if err != nil {
		return nil, err
	}
	c.results.Add(key, res)

	logger.Info("Compiled canvas.",
		"status", res.Status,
		"errors", len(res.Diagnostics.Errors()),
		"warnings", len(res.Diagnostics.Warnings()),
		"duration", time.Since(start),
	)
	return res, nil
}

func (c *Compiler) run(ctx context.Context, state *canvas.State, header emit.Header) (*Result, error) {
	logger := ctxlog.FromContext(ctx)

	logger.Debug("Pipeline stage.", "stage", StageValidating)
	diags, err := validate.Validate(ctx, c.cat, state)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Resolution runs even after validation errors so cycles are reported
	// alongside them.
	logger.Debug("Pipeline stage.", "stage", StageResolving)
	sections, diags, err := resolve.ResolveOrder(ctx, c.cat, state, diags)
	if err != nil {
		return nil, err
	}
	if sections == nil || diags.HasErrors() {
		return rejected(diags), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Debug("Pipeline stage.", "stage", StageEmitting)
	doc, err := c.emitter.Emit(ctx, sections, header)
	if err != nil {
		return nil, err
	}
	return &Result{
		Status:      StatusEmitted,
		Document:    doc,
		Interface:   abiexport.Build(ctx, sections),
		Diagnostics: nonNil(diags),
		Order:       sections.Order(),
	}, nil
}

func rejected(diags diag.Diagnostics) *Result {
	return &Result{Status: StatusRejected, Diagnostics: nonNil(diags)}
}

func nonNil(diags diag.Diagnostics) diag.Diagnostics {
	if diags == nil {
		return diag.Diagnostics{}
	}
	return diags
}

// resultKey identifies a compilation by the snapshot's content and the
// header. Version and timestamp do not take part.
func resultKey(state *canvas.State, h emit.Header) common.Hash {
	content := state.ContentHash()
	return crypto.Keccak256Hash(
		content.Bytes(),
		[]byte(h.ContractName), []byte{0},
		[]byte(h.License), []byte{0},
		[]byte(h.Pragma),
	)
}
