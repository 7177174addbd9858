package resolve

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/specialistvlad/contractgrid/internal/canvas"
	"github.com/specialistvlad/contractgrid/internal/catalog"
	"github.com/specialistvlad/contractgrid/internal/ctxlog"
	"github.com/specialistvlad/contractgrid/internal/dag"
	"github.com/specialistvlad/contractgrid/internal/diag"
	"github.com/specialistvlad/contractgrid/internal/props"
	"github.com/specialistvlad/contractgrid/internal/soltype"
)

// edge is an ordering constraint: before must be emitted ahead of after.
type edge struct {
	before, after string
	// conn is the connection that produced the edge; zero for implicit
	// type edges.
	conn canvas.Connection
}

type resolver struct {
	cat   *catalog.Catalog
	state *canvas.State
	c     diag.Collector

	entries []*Entry
	byID    map[string]*Entry
	edges   []edge
	graph   *dag.Graph
}

// ResolveOrder orders the instances of state into sections.
//
// The returned diagnostics are diagsSoFar followed by the resolver's own. On
// a dependency cycle, or a connection that would force a later section ahead
// of an earlier one, sections is nil and the diagnostics explain why.
// Connections the validator rejects (dangling, self loops, incompatible
// pairs) are ignored here. The only error returned is a *diag.InvariantError.
func ResolveOrder(ctx context.Context, cat *catalog.Catalog, state *canvas.State, diagsSoFar diag.Diagnostics) (*Sections, diag.Diagnostics, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Resolving canvas order.", "instances", len(state.Instances), "connections", len(state.Connections))
	start := time.Now()

	r := &resolver{
		cat:   cat,
		state: state,
		byID:  make(map[string]*Entry, len(state.Instances)),
		graph: dag.New(),
	}
	r.c.Add(diagsSoFar...)

	if err := r.bind(); err != nil {
		return nil, nil, err
	}
	r.linkConnections()
	r.linkTypes()

	for _, e := range r.edges {
		if err := r.graph.AddEdge(e.before, e.after); err != nil {
			return nil, nil, diag.Invariant(e.after, err)
		}
	}

	cycles, err := r.graph.Cycles()
	if err != nil {
		return nil, nil, diag.Invariant("", err)
	}
	if len(cycles) > 0 {
		for _, members := range cycles {
			r.c.Add(diag.NewError(diag.CodeCycle,
				"dependency cycle between instances %s", quoteAll(members)).
				On(members[0]).WithRelated(members[1:]...))
		}
		logger.Debug("Resolution stopped on a dependency cycle.", "cycles", len(cycles))
		return nil, r.c.Diagnostics(), nil
	}

	if r.checkSections() {
		logger.Debug("Resolution stopped on a section conflict.")
		return nil, r.c.Diagnostics(), nil
	}

	sections, err := r.order()
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("Resolution finished.", "duration", time.Since(start))
	return sections, r.c.Diagnostics(), nil
}

func (r *resolver) bind() error {
	for _, inst := range r.state.Instances {
		if _, dup := r.byID[inst.ID]; dup {
			continue
		}
		tmpl, err := r.cat.Lookup(inst.TemplateID)
		if err != nil {
			return diag.Invariant(inst.ID, err)
		}
		// Binding problems were reported by the validator; the typed view is
		// complete regardless.
		typed, _ := props.Bind(inst.ID, tmpl.Properties, inst.Properties)

		e := &Entry{Instance: inst, Template: tmpl, Props: typed, Links: map[string][]string{}}
		r.entries = append(r.entries, e)
		r.byID[inst.ID] = e
		r.graph.AddNode(inst.ID)
	}
	return nil
}

// linkConnections turns every usable connection into an ordering edge and
// fills link variables.
func (r *resolver) linkConnections() {
	seen := make(map[canvas.Connection]bool, len(r.state.Connections))
	type linked struct {
		dependent, provider *Entry
		link                string
	}
	var links []linked

	for _, conn := range r.state.Connections {
		if conn.From == conn.To || seen[conn] {
			continue
		}
		seen[conn] = true

		from, okFrom := r.byID[conn.From]
		to, okTo := r.byID[conn.To]
		if !okFrom || !okTo {
			continue
		}
		rule, ok := r.cat.Rule(from.Template.Category.Name, to.Template.Category.Name)
		if !ok {
			continue
		}

		switch rule.Order {
		case catalog.OrderForward:
			r.edges = append(r.edges, edge{before: from.Instance.ID, after: to.Instance.ID, conn: conn})
		case catalog.OrderReverse:
			r.edges = append(r.edges, edge{before: to.Instance.ID, after: from.Instance.ID, conn: conn})
		}

		if rule.Link == "" {
			continue
		}
		dependent, provider := to, from
		if rule.Order == catalog.OrderReverse {
			dependent, provider = from, to
		}
		links = append(links, linked{dependent: dependent, provider: provider, link: rule.Link})
	}

	// Link lists follow the providers' insertion order, not the order the
	// connections were drawn in.
	index := make(map[string]int, len(r.entries))
	for i, e := range r.entries {
		index[e.Instance.ID] = i
	}
	for _, dependent := range r.entries {
		byLink := map[string][]*Entry{}
		for _, l := range links {
			if l.dependent == dependent {
				byLink[l.link] = append(byLink[l.link], l.provider)
			}
		}
		for link, providers := range byLink {
			sortEntries(providers, index)
			names := make([]string, 0, len(providers))
			for _, p := range providers {
				names = append(names, displayName(p))
			}
			dependent.Links[link] = names
		}
	}
}

// linkTypes adds an edge from every struct or enum declaration to each
// instance whose type-checked properties mention its name.
func (r *resolver) linkTypes() {
	declared := make(map[string]string)
	for _, e := range r.entries {
		if !e.Template.Category.ProvidesType {
			continue
		}
		name := e.Props.String(e.Template.Category.NameProperty)
		if _, taken := declared[name]; !taken && soltype.IsIdentifier(name) {
			declared[name] = e.Instance.ID
		}
	}
	if len(declared) == 0 {
		return
	}

	for _, e := range r.entries {
		seen := map[string]bool{}
		for _, p := range e.Template.Properties {
			for _, s := range typeStrings(e, p) {
				for _, ident := range soltype.Identifiers(s) {
					declID, ok := declared[ident]
					if !ok || declID == e.Instance.ID || seen[declID] {
						continue
					}
					seen[declID] = true
					r.edges = append(r.edges, edge{before: declID, after: e.Instance.ID})
				}
			}
		}
	}
}

// typeStrings returns the type expressions held by a property, according to
// its check.
func typeStrings(e *Entry, p catalog.Property) []string {
	var values []string
	if s := e.Props.String(p.Name); s != "" {
		values = []string{s}
	} else {
		values = e.Props.Strings(p.Name)
	}

	switch p.Check {
	case catalog.CheckType:
		return values
	case catalog.CheckParams, catalog.CheckFields:
		out := make([]string, 0, len(values))
		for _, v := range values {
			out = append(out, soltype.ParseParam(v).Type)
		}
		return out
	default:
		return nil
	}
}

// checkSections reports ordering edges that point from a later section to an
// earlier one. It returns true if any was found.
func (r *resolver) checkSections() bool {
	found := false
	for _, e := range r.edges {
		before, after := r.byID[e.before], r.byID[e.after]
		bs, as := before.Template.Category.Section, after.Template.Category.Section
		if bs.Rank() <= as.Rank() {
			continue
		}
		found = true
		r.c.Add(diag.NewError(diag.CodeSectionConflict,
			"connection %s -> %s requires %q (%s) to precede %q (%s), but %s are emitted after %s",
			e.conn.From, e.conn.To, e.before, bs, e.after, as, bs, as).
			On(e.conn.From).WithRelated(e.conn.To))
	}
	return found
}

// order groups entries by section and sorts each section topologically.
func (r *resolver) order() (*Sections, error) {
	graphs := make(map[catalog.Section]*dag.Graph, len(catalog.Sections))
	for _, sec := range catalog.Sections {
		graphs[sec] = dag.New()
	}
	for _, e := range r.entries {
		graphs[e.Template.Category.Section].AddNode(e.Instance.ID)
	}
	for _, e := range r.edges {
		bs := r.byID[e.before].Template.Category.Section
		if bs != r.byID[e.after].Template.Category.Section {
			continue
		}
		if err := graphs[bs].AddEdge(e.before, e.after); err != nil {
			return nil, diag.Invariant(e.after, err)
		}
	}

	out := &Sections{List: make([]Section, 0, len(catalog.Sections))}
	for _, sec := range catalog.Sections {
		ids, err := graphs[sec].Sort(nil)
		if err != nil {
			return nil, diag.Invariant("", fmt.Errorf("ordering section %s: %w", sec, err))
		}
		entries := make([]*Entry, 0, len(ids))
		for _, id := range ids {
			entries = append(entries, r.byID[id])
		}
		out.List = append(out.List, Section{Name: sec, Entries: entries})
	}
	return out, nil
}

func displayName(e *Entry) string {
	if e.Template.Category.Named {
		if name := e.Props.String(e.Template.Category.NameProperty); name != "" {
			return name
		}
	}
	return e.Instance.ID
}

func sortEntries(entries []*Entry, index map[string]int) {
	sort.SliceStable(entries, func(i, j int) bool {
		return index[entries[i].Instance.ID] < index[entries[j].Instance.ID]
	})
}

func quoteAll(ids []string) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = fmt.Sprintf("%q", id)
	}
	return strings.Join(quoted, ", ")
}
