package diag

import "strings"

// Diagnostics is an ordered list of diagnostics. Order is significant: it is
// the order in which the pipeline discovered the problems, which is
// deterministic for a given canvas.
type Diagnostics []Diagnostic

// HasErrors reports whether any diagnostic in the list is an error.
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.IsError() {
			return true
		}
	}
	return false
}

// Errors returns only the error diagnostics, preserving order.
func (ds Diagnostics) Errors() Diagnostics {
	return ds.filter(func(d Diagnostic) bool { return d.IsError() })
}

// Warnings returns only the warning diagnostics, preserving order.
func (ds Diagnostics) Warnings() Diagnostics {
	return ds.filter(func(d Diagnostic) bool { return !d.IsError() })
}

// WithCode returns the diagnostics carrying the given code.
func (ds Diagnostics) WithCode(code Code) Diagnostics {
	return ds.filter(func(d Diagnostic) bool { return d.Code == code })
}

// ForInstance returns the diagnostics attached to the given instance.
func (ds Diagnostics) ForInstance(id string) Diagnostics {
	return ds.filter(func(d Diagnostic) bool { return d.InstanceID == id })
}

func (ds Diagnostics) filter(keep func(Diagnostic) bool) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}

// Error implements the error interface so a rejected run can be wrapped and
// returned by callers that only deal in errors (the CLI, for instance).
func (ds Diagnostics) Error() string {
	lines := make([]string, 0, len(ds))
	for _, d := range ds {
		lines = append(lines, d.String())
	}
	return strings.Join(lines, "\n")
}

// Collector accumulates diagnostics across a pipeline stage.
type Collector struct {
	diags Diagnostics
}

// Add appends diagnostics to the collector.
func (c *Collector) Add(ds ...Diagnostic) {
	c.diags = append(c.diags, ds...)
}

// Errorf records an error attached to an instance property. Either location
// part may be empty.
func (c *Collector) Errorf(code Code, instanceID, property, format string, args ...any) {
	c.Add(NewError(code, format, args...).OnProperty(instanceID, property))
}

// Warnf records a warning attached to an instance property.
func (c *Collector) Warnf(code Code, instanceID, property, format string, args ...any) {
	c.Add(NewWarning(code, format, args...).OnProperty(instanceID, property))
}

// HasErrors reports whether any collected diagnostic is an error.
func (c *Collector) HasErrors() bool {
	return c.diags.HasErrors()
}

// Diagnostics returns a copy of everything collected so far.
func (c *Collector) Diagnostics() Diagnostics {
	return append(Diagnostics(nil), c.diags...)
}
