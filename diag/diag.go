// Package diag collects structured warnings and errors produced while
// generating codecs. A Bag is threaded explicitly through selection and
// composition and returned per unit; there is no ambient global channel.
package diag

import "fmt"

// Severity classifies a diagnostic.
type Severity uint8

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns the lower-case severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("severity(%d)", uint8(s))
	}
}

// Diagnostic is one structured message tied to an originating element
// such as "Point" or "Point.secret".
type Diagnostic struct {
	Severity Severity
	Element  string
	Message  string
}

// String formats the diagnostic for human output.
func (d Diagnostic) String() string {
	if d.Element != "" {
		return fmt.Sprintf("%s: %s: %s", d.Severity, d.Element, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Severity, d.Message)
}

// Bag accumulates diagnostics in emission order.
// The zero value is ready to use. A Bag is not safe for concurrent use;
// the pipeline keeps one Bag per unit.
type Bag struct {
	items []Diagnostic
}

// Infof records an info diagnostic for element.
func (b *Bag) Infof(element, format string, args ...any) {
	b.add(SeverityInfo, element, format, args...)
}

// Warnf records a warning diagnostic for element.
func (b *Bag) Warnf(element, format string, args ...any) {
	b.add(SeverityWarning, element, format, args...)
}

// Errorf records an error diagnostic for element.
func (b *Bag) Errorf(element, format string, args ...any) {
	b.add(SeverityError, element, format, args...)
}

func (b *Bag) add(sev Severity, element, format string, args ...any) {
	b.items = append(b.items, Diagnostic{
		Severity: sev,
		Element:  element,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Items returns the collected diagnostics in emission order.
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// Len returns the number of collected diagnostics.
func (b *Bag) Len() int {
	return len(b.items)
}

// HasErrors reports whether any diagnostic has error severity.
func (b *Bag) HasErrors() bool {
	for _, d := range b.items {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
