package emit

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/lru"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/specialistvlad/contractgrid/internal/catalog"
	"github.com/specialistvlad/contractgrid/internal/ctxlog"
	"github.com/specialistvlad/contractgrid/internal/diag"
	"github.com/specialistvlad/contractgrid/internal/props"
	"github.com/specialistvlad/contractgrid/internal/resolve"
	"github.com/zclconf/go-cty/cty"
)

// DefaultCacheSize is the number of renderings an Emitter remembers when
// New is given a non-positive size.
const DefaultCacheSize = 1024

const indent = "    "

// Emitter renders sections into documents. Renderings are memoized by
// template and variables, so re-emitting a canvas after a small edit only
// renders the edited instances. It is safe for concurrent use.
type Emitter struct {
	cache *lru.Cache[common.Hash, *catalog.Rendered]
}

// New creates an Emitter whose render cache holds up to size entries.
func New(size int) *Emitter {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Emitter{cache: lru.NewCache[common.Hash, *catalog.Rendered](size)}
}

// Emit renders sections into a document. The output depends only on the
// sections and the header, byte for byte.
func (e *Emitter) Emit(ctx context.Context, sections *resolve.Sections, header Header) (*Document, error) {
	logger := ctxlog.FromContext(ctx)
	header = header.WithDefaults()

	doc := &Document{}
	imports := map[string]struct{}{}
	inherits := map[string]struct{}{}
	var blocks [][]string
	hits := 0

	for _, sec := range sections.List {
		var bodies []string
		for _, entry := range sec.Entries {
			out, hit, err := e.render(entry)
			if err != nil {
				logger.Error("Template failed to render.", "instance", entry.Instance.ID, "template", entry.Template.ID, "error", err)
				return nil, diag.Invariant(entry.Instance.ID, err)
			}
			if hit {
				hits++
			}
			doc.EstimatedCost += entry.Template.Cost
			for _, imp := range out.Imports {
				imports[imp] = struct{}{}
			}
			for _, base := range out.Inherits {
				inherits[base] = struct{}{}
			}
			if body := normalize(out.Body); body != "" {
				bodies = append(bodies, body)
			}
		}
		if len(bodies) > 0 {
			blocks = append(blocks, bodies)
		}
	}

	doc.Imports = sortedKeys(imports)
	doc.Inherits = sortedKeys(inherits)
	doc.Source = assemble(header, doc.Imports, doc.Inherits, blocks)
	doc.Hash = crypto.Keccak256Hash([]byte(doc.Source))

	logger.Debug("Emitted document.",
		"bytes", len(doc.Source),
		"imports", len(doc.Imports),
		"cache_hits", hits,
	)
	return doc, nil
}

func (e *Emitter) render(entry *resolve.Entry) (*catalog.Rendered, bool, error) {
	vars := entry.Vars()
	key := cacheKey(entry.Template.ID, vars)
	if cached, ok := e.cache.Get(key); ok {
		return cached, true, nil
	}
	out, err := entry.Template.Render(vars)
	if err != nil {
		return nil, false, err
	}
	e.cache.Add(key, out)
	return out, false, nil
}

func cacheKey(templateID string, vars map[string]cty.Value) common.Hash {
	return crypto.Keccak256Hash([]byte(templateID), []byte{0}, props.Canonical(vars))
}

// normalize trims trailing whitespace from every line and surrounding blank
// lines from the whole body.
func normalize(body string) string {
	lines := strings.Split(body, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t\r")
	}
	return strings.Trim(strings.Join(lines, "\n"), "\n")
}

// assemble lays out the document. Within a section, consecutive single-line
// bodies are kept together; a multi-line body is set apart by blank lines.
// Sections are separated by a blank line.
func assemble(h Header, imports, inherits []string, blocks [][]string) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// SPDX-License-Identifier: %s\n", h.License)
	fmt.Fprintf(&buf, "pragma solidity %s;\n", h.Pragma)

	if len(imports) > 0 {
		buf.WriteString("\n")
		for _, imp := range imports {
			fmt.Fprintf(&buf, "import %q;\n", imp)
		}
	}

	buf.WriteString("\ncontract ")
	buf.WriteString(h.ContractName)
	if len(inherits) > 0 {
		buf.WriteString(" is ")
		buf.WriteString(strings.Join(inherits, ", "))
	}
	buf.WriteString(" {\n")

	for i, bodies := range blocks {
		if i > 0 {
			buf.WriteString("\n")
		}
		for j, body := range bodies {
			if j > 0 && (strings.Contains(body, "\n") || strings.Contains(bodies[j-1], "\n")) {
				buf.WriteString("\n")
			}
			writeIndented(&buf, body)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeIndented(buf *bytes.Buffer, body string) {
	for _, line := range strings.Split(body, "\n") {
		if line != "" {
			buf.WriteString(indent)
			buf.WriteString(line)
		}
		buf.WriteString("\n")
	}
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
