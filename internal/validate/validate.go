// Package validate checks a canvas snapshot against the catalog: property
// schemas, instance names, cardinality and connection compatibility.
//
// Validation never mutates the snapshot, never stops at the first problem and
// reports everything as diagnostics. The only Go error it returns is a
// *diag.InvariantError, when an instance names a template the catalog does
// not know.
package validate

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/specialistvlad/contractgrid/internal/canvas"
	"github.com/specialistvlad/contractgrid/internal/catalog"
	"github.com/specialistvlad/contractgrid/internal/ctxlog"
	"github.com/specialistvlad/contractgrid/internal/diag"
	"github.com/specialistvlad/contractgrid/internal/props"
	"github.com/specialistvlad/contractgrid/internal/soltype"
)

type boundInstance struct {
	inst  canvas.Instance
	tmpl  *catalog.Template
	typed *props.Typed
	// bad lists properties whose value could not be bound.
	bad map[string]bool
}

type validator struct {
	cat   *catalog.Catalog
	state *canvas.State
	c     diag.Collector

	bound    []*boundInstance
	byID     map[string]*boundInstance
	declared map[string]struct{}
}

// Validate checks state and returns every diagnostic found, in a
// deterministic order.
func Validate(ctx context.Context, cat *catalog.Catalog, state *canvas.State) (diag.Diagnostics, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Validating canvas.", "instances", len(state.Instances), "connections", len(state.Connections))
	start := time.Now()

	v := &validator{
		cat:      cat,
		state:    state,
		byID:     make(map[string]*boundInstance, len(state.Instances)),
		declared: make(map[string]struct{}),
	}

	if err := v.bindInstances(); err != nil {
		logger.Error("Canvas references a template the catalog does not know.", "error", err)
		return nil, err
	}
	v.collectDeclaredTypes()
	for _, b := range v.bound {
		v.checkName(b)
		v.checkValues(b)
	}
	v.checkSingletons()
	v.checkCollisions()
	v.checkConnections()

	diags := v.c.Diagnostics()
	logger.Debug("Validation finished.",
		"errors", len(diags.Errors()),
		"warnings", len(diags.Warnings()),
		"duration", time.Since(start),
	)
	return diags, nil
}

func (v *validator) bindInstances() error {
	for _, inst := range v.state.Instances {
		if _, dup := v.byID[inst.ID]; dup {
			v.c.Errorf(diag.CodeDuplicateInstance, inst.ID, "",
				"instance id %q is used by more than one instance", inst.ID)
			continue
		}

		tmpl, err := v.cat.Lookup(inst.TemplateID)
		if err != nil {
			return diag.Invariant(inst.ID, err)
		}

		typed, ds := props.Bind(inst.ID, tmpl.Properties, inst.Properties)
		v.c.Add(ds...)

		b := &boundInstance{inst: inst, tmpl: tmpl, typed: typed, bad: map[string]bool{}}
		for _, d := range ds {
			if d.IsError() {
				b.bad[d.Property] = true
			}
		}
		v.bound = append(v.bound, b)
		v.byID[inst.ID] = b
	}
	return nil
}

// collectDeclaredTypes records the names of struct and enum instances so type
// strings may refer to them.
func (v *validator) collectDeclaredTypes() {
	for _, b := range v.bound {
		prop := b.tmpl.Category.NameProperty
		if !b.tmpl.Category.ProvidesType || b.bad[prop] {
			continue
		}
		if name := b.typed.String(prop); soltype.IsIdentifier(name) {
			v.declared[name] = struct{}{}
		}
	}
}

func (v *validator) isDeclaredType(s string) bool {
	_, ok := v.declared[s]
	return ok
}

func (v *validator) checkName(b *boundInstance) {
	prop := b.tmpl.Category.NameProperty
	if !b.tmpl.Category.Named || b.bad[prop] {
		return
	}
	name := b.typed.String(prop)
	switch {
	case !soltype.IsIdentifier(name):
		v.c.Errorf(diag.CodeInvalidIdentifier, b.inst.ID, prop,
			"%q is not a legal identifier", name)
	case soltype.IsReserved(name):
		v.c.Errorf(diag.CodeReservedWord, b.inst.ID, prop,
			"%q is a reserved word", name)
	}
}

func (v *validator) checkSingletons() {
	first := make(map[string]string)
	for _, b := range v.bound {
		cat := b.tmpl.Category
		if !cat.Singleton {
			continue
		}
		holder, seen := first[cat.Name]
		if !seen {
			first[cat.Name] = b.inst.ID
			continue
		}
		v.c.Add(diag.NewError(diag.CodeSingleton,
			"only one %s is allowed per contract; instance %q duplicates %q", cat.Name, b.inst.ID, holder).
			On(b.inst.ID).WithRelated(holder))
	}
}

// claim is one name an instance introduces into a namespace. Property is
// empty for names the template declares on its own.
type claim struct {
	namespace, name, property string
}

// claims lists the names b introduces: its own name first, then the names its
// template declares, by namespace.
func (v *validator) claims(b *boundInstance) []claim {
	var out []claim
	cat := b.tmpl.Category
	if cat.Named && !b.bad[cat.NameProperty] {
		if name := b.typed.String(cat.NameProperty); name != "" {
			out = append(out, claim{cat.Namespace, name, cat.NameProperty})
		}
	}
	if b.tmpl.Declares == nil || len(b.bad) > 0 {
		return out
	}

	declared, err := b.tmpl.DeclaredNames(b.inst.ID, b.typed.Vars())
	if err != nil {
		v.c.Errorf(diag.CodeInvalidLiteral, b.inst.ID, "",
			"names declared by template %q cannot be evaluated: %v", b.tmpl.ID, err)
		return out
	}
	namespaces := make([]string, 0, len(declared))
	for ns := range declared {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)
	for _, ns := range namespaces {
		for _, name := range declared[ns] {
			out = append(out, claim{ns, name, ""})
		}
	}
	return out
}

// checkCollisions reports every name already taken in its namespace by an
// earlier instance, whether the instance names itself or its template
// declares the name.
func (v *validator) checkCollisions() {
	type key struct{ namespace, name string }
	first := make(map[key]string)

	for _, b := range v.bound {
		for _, c := range v.claims(b) {
			k := key{c.namespace, c.name}
			holder, taken := first[k]
			if !taken {
				first[k] = b.inst.ID
				continue
			}
			if holder == b.inst.ID {
				continue
			}
			v.c.Add(diag.NewError(diag.CodeNameCollision,
				"name %q of instance %q collides with instance %q in the %s namespace", c.name, b.inst.ID, holder, c.namespace).
				OnProperty(b.inst.ID, c.property).WithRelated(holder))
		}
	}
}

func (v *validator) checkConnections() {
	seen := make(map[canvas.Connection]bool, len(v.state.Connections))

	for _, conn := range v.state.Connections {
		if conn.From == conn.To {
			v.c.Errorf(diag.CodeSelfLoop, conn.From, "",
				"instance %q cannot be connected to itself", conn.From)
			continue
		}

		from, okFrom := v.byID[conn.From]
		to, okTo := v.byID[conn.To]
		if !okFrom || !okTo {
			v.reportDangling(conn, okFrom, okTo)
			continue
		}

		if seen[conn] {
			v.c.Warnf(diag.CodeDuplicateLink, conn.From, "",
				"connection %s -> %s is declared more than once", conn.From, conn.To)
			continue
		}
		seen[conn] = true

		fromCat, toCat := from.tmpl.Category.Name, to.tmpl.Category.Name
		if _, ok := v.cat.Rule(fromCat, toCat); !ok {
			v.c.Add(diag.NewError(diag.CodeIncompatible,
				"a %s (%q) cannot be connected to a %s (%q)", fromCat, conn.From, toCat, conn.To).
				On(conn.From).WithRelated(conn.To))
		}
	}
}

func (v *validator) reportDangling(conn canvas.Connection, okFrom, okTo bool) {
	missing := conn.To
	at := conn.From
	if !okFrom {
		missing, at = conn.From, conn.To
	}
	if !okFrom && !okTo {
		at = ""
	}
	msg := fmt.Sprintf("connection %s -> %s references missing instance %q", conn.From, conn.To, missing)
	if !okFrom && !okTo {
		msg = fmt.Sprintf("connection %s -> %s references no existing instance", conn.From, conn.To)
	}
	v.c.Errorf(diag.CodeDanglingEndpoint, at, "", "%s", msg)
}
