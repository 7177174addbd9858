package catalog

// Section is one of the fixed, ordered regions of an emitted contract.
type Section string

const (
	SectionDefinitions Section = "definitions"
	SectionState       Section = "state"
	SectionEvents      Section = "events"
	SectionModifiers   Section = "modifiers"
	SectionConstructor Section = "constructor"
	SectionFunctions   Section = "functions"
)

// Sections lists every section in emission order.
var Sections = []Section{
	SectionDefinitions,
	SectionState,
	SectionEvents,
	SectionModifiers,
	SectionConstructor,
	SectionFunctions,
}

// Rank returns the position of s in emission order, or -1 if s is unknown.
func (s Section) Rank() int {
	for i, candidate := range Sections {
		if candidate == s {
			return i
		}
	}
	return -1
}

// Category is the rule row shared by every template of one category.
type Category struct {
	Name string
	// Section is where instances of this category are emitted.
	Section Section
	// Namespace groups categories whose instance names must not collide.
	Namespace string
	// Named categories require a legal, unreserved name, read from
	// NameProperty.
	Named bool
	// NameProperty is the property holding the instance name; "name" unless
	// the category declares otherwise.
	NameProperty string
	// Singleton categories allow at most one instance per canvas.
	Singleton bool
	// ProvidesType marks categories whose names can be used as types by
	// other instances (structs, enums).
	ProvidesType bool
}

// Order describes how a connection orders its endpoints.
type Order string

const (
	// OrderForward places the source before the target.
	OrderForward Order = "forward"
	// OrderReverse places the target before the source.
	OrderReverse Order = "reverse"
	// OrderNone allows the connection without ordering the endpoints.
	OrderNone Order = "none"
)

func (o Order) valid() bool {
	return o == OrderForward || o == OrderReverse || o == OrderNone
}

// ConnectionRule is one row of the category compatibility table.
type ConnectionRule struct {
	From    string
	To      string
	Order   Order
	Link    string
	Meaning string
}

// Dependent returns the category that receives the link variable: the target
// for forward and unordered rules, the source for reverse ones.
func (r ConnectionRule) Dependent() string {
	if r.Order == OrderReverse {
		return r.From
	}
	return r.To
}

type ruleKey struct {
	from, to string
}
