package resolve

import (
	"github.com/specialistvlad/contractgrid/internal/canvas"
	"github.com/specialistvlad/contractgrid/internal/catalog"
	"github.com/specialistvlad/contractgrid/internal/props"
	"github.com/zclconf/go-cty/cty"
)

// Entry is one resolved instance, ready to be rendered.
type Entry struct {
	Instance canvas.Instance
	Template *catalog.Template
	Props    *props.Typed
	// Links maps each link variable of the template to the names of the
	// connected instances, in insertion order.
	Links map[string][]string
}

// Vars returns the emission scope of the entry: its typed properties, one
// list per link variable of its template and `id`.
func (e *Entry) Vars() map[string]cty.Value {
	vars := e.Props.Vars()
	for _, link := range e.Template.Links {
		names := e.Links[link]
		if len(names) == 0 {
			vars[link] = cty.ListValEmpty(cty.String)
			continue
		}
		elems := make([]cty.Value, len(names))
		for i, n := range names {
			elems[i] = cty.StringVal(n)
		}
		vars[link] = cty.ListVal(elems)
	}
	vars["id"] = cty.StringVal(e.Instance.ID)
	return vars
}

// Section is the ordered content of one contract section.
type Section struct {
	Name    catalog.Section
	Entries []*Entry
}

// Sections is the resolver's output: every section in emission order, empty
// ones included.
type Sections struct {
	List []Section
}

// Entries returns every entry in emission order.
func (s *Sections) Entries() []*Entry {
	var out []*Entry
	for _, sec := range s.List {
		out = append(out, sec.Entries...)
	}
	return out
}

// Order returns the instance ids in emission order.
func (s *Sections) Order() []string {
	var out []string
	for _, e := range s.Entries() {
		out = append(out, e.Instance.ID)
	}
	return out
}

// Section returns the entries of the named section.
func (s *Sections) Section(name catalog.Section) []*Entry {
	for _, sec := range s.List {
		if sec.Name == name {
			return sec.Entries
		}
	}
	return nil
}
