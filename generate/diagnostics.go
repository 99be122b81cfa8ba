package generate

import (
	"fmt"
	"strings"
)

// Severity classifies a diagnostic. Diagnostics never abort generation; they
// report the fallbacks the engine took to keep producing a valid document.
type Severity int

// Diagnostic severities.
const (
	SeverityWarning Severity = iota
	SeverityError
)

// String returns the severity name.
func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic is one recoverable generation problem, carrying the breadcrumb
// trace of where in the endpoint walk it occurred.
type Diagnostic struct {
	Severity Severity
	Message  string
	Trace    []string
}

// String formats the diagnostic with its trace prefix.
func (d Diagnostic) String() string {
	if len(d.Trace) == 0 {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s [%s]: %s", d.Severity, strings.Join(d.Trace, " > "), d.Message)
}

// Diagnostics is the accumulated list of one generation run.
type Diagnostics []Diagnostic

// Warnings returns the number of warning diagnostics.
func (ds Diagnostics) Warnings() int { return ds.count(SeverityWarning) }

// Errors returns the number of error diagnostics.
func (ds Diagnostics) Errors() int { return ds.count(SeverityError) }

func (ds Diagnostics) count(sev Severity) int {
	n := 0
	for _, d := range ds {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

// collector accumulates diagnostics for one run. The same message emitted at
// the same trace location is recorded once. Breadcrumbs pushed during the
// endpoint walk become the trace of every diagnostic emitted underneath.
type collector struct {
	log   Logger
	trace []string
	seen  map[string]struct{}
	diags Diagnostics
}

func newCollector(log Logger) *collector {
	if log == nil {
		log = NopLogger{}
	}
	return &collector{log: log, seen: make(map[string]struct{})}
}

// push adds a breadcrumb; the returned func pops it.
func (c *collector) push(crumb string) func() {
	c.trace = append(c.trace, crumb)
	return func() { c.trace = c.trace[:len(c.trace)-1] }
}

func (c *collector) warn(format string, args ...any) {
	c.emit(SeverityWarning, fmt.Sprintf(format, args...))
}

func (c *collector) error(format string, args ...any) {
	c.emit(SeverityError, fmt.Sprintf(format, args...))
}

func (c *collector) emit(sev Severity, msg string) {
	trace := make([]string, len(c.trace))
	copy(trace, c.trace)

	d := Diagnostic{Severity: sev, Message: msg, Trace: trace}
	key := d.String()
	if _, ok := c.seen[key]; ok {
		return
	}
	c.seen[key] = struct{}{}
	c.diags = append(c.diags, d)

	if sev == SeverityError {
		c.log.Error(msg, "trace", strings.Join(trace, " > "))
	} else {
		c.log.Warn(msg, "trace", strings.Join(trace, " > "))
	}
}
