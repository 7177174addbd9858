package catalog

import (
	"errors"
	"fmt"
	"sort"
)

// ErrTemplateNotFound is returned by Lookup for an unknown template id.
var ErrTemplateNotFound = errors.New("template not found")

// Catalog holds categories, connection rules and templates. It is read-only
// once built and safe for concurrent use.
type Catalog struct {
	categories    map[string]*Category
	categoryOrder []string

	rules     map[ruleKey]ConnectionRule
	ruleOrder []ruleKey

	templates     map[string]*Template
	templateOrder []string
}

// Lookup returns the template with the given id.
func (c *Catalog) Lookup(templateID string) (*Template, error) {
	t, ok := c.templates[templateID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, templateID)
	}
	return t, nil
}

// Templates returns every template in declaration order.
func (c *Catalog) Templates() []*Template {
	out := make([]*Template, 0, len(c.templateOrder))
	for _, id := range c.templateOrder {
		out = append(out, c.templates[id])
	}
	return out
}

// Category returns the named category.
func (c *Catalog) Category(name string) (*Category, bool) {
	cat, ok := c.categories[name]
	return cat, ok
}

// Categories returns every category in declaration order.
func (c *Catalog) Categories() []*Category {
	out := make([]*Category, 0, len(c.categoryOrder))
	for _, name := range c.categoryOrder {
		out = append(out, c.categories[name])
	}
	return out
}

// Rule returns the compatibility rule for a connection between two
// categories. ok is false when the pair is not listed, i.e. incompatible.
func (c *Catalog) Rule(from, to string) (ConnectionRule, bool) {
	r, ok := c.rules[ruleKey{from, to}]
	return r, ok
}

// Rules returns every connection rule in declaration order.
func (c *Catalog) Rules() []ConnectionRule {
	out := make([]ConnectionRule, 0, len(c.ruleOrder))
	for _, k := range c.ruleOrder {
		out = append(out, c.rules[k])
	}
	return out
}

// LinkNames returns the sorted link variables a template of the given
// category receives.
func (c *Catalog) LinkNames(category string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, k := range c.ruleOrder {
		r := c.rules[k]
		if r.Link == "" || r.Dependent() != category {
			continue
		}
		if _, ok := seen[r.Link]; ok {
			continue
		}
		seen[r.Link] = struct{}{}
		out = append(out, r.Link)
	}
	sort.Strings(out)
	return out
}
